package subtype

import (
	"fmt"
	"testing"

	"github.com/wippyai/candid/types"
	"github.com/wippyai/candid/value"
)

// universe is a set of small types closed enough to exercise every rule.
// Records only ever drop and re-add fields whose types flow into opt int,
// which keeps strict subtyping transitive over the set.
func universe() []*types.Type {
	nat, in := types.NatType, types.IntType
	return []*types.Type{
		types.NullType,
		types.BoolType,
		nat,
		in,
		types.TextType,
		types.ReservedType,
		types.EmptyType,
		types.Opt(nat),
		types.Opt(in),
		types.Opt(types.TextType),
		types.Opt(types.NullType),
		types.Opt(types.Opt(nat)),
		types.Vec(nat),
		types.Vec(types.Opt(in)),
		types.Record(),
		types.Record(types.Index(0, nat)),
		types.Record(types.Index(0, in)),
		types.Record(types.Index(0, types.Opt(in))),
		types.Variant(types.Index(0, nat)),
		types.Variant(types.Index(0, in), types.Index(1, types.NullType)),
	}
}

// samples returns a few values of t. Empty has none.
func samples(t *types.Type) []value.Value {
	switch t.Kind() {
	case types.KindNull:
		return []value.Value{value.Null{}}
	case types.KindBool:
		return []value.Value{value.Bool(true)}
	case types.KindNat:
		return []value.Value{value.NewNat(0), value.NewNat(7)}
	case types.KindInt:
		return []value.Value{value.NewInt(-3)}
	case types.KindText:
		return []value.Value{value.Text("a")}
	case types.KindReserved:
		return []value.Value{value.Reserved{}}
	case types.KindOpt:
		out := []value.Value{value.None()}
		for _, s := range samples(t.Elem()) {
			out = append(out, value.Some(s))
		}
		return out
	case types.KindVec:
		out := []value.Value{value.NewVec()}
		if s := samples(t.Elem()); len(s) > 0 {
			out = append(out, value.NewVec(s[len(s)-1], s[0]))
		}
		return out
	case types.KindRecord:
		first := make([]value.FieldValue, 0, len(t.Fields()))
		last := make([]value.FieldValue, 0, len(t.Fields()))
		for _, f := range t.Fields() {
			s := samples(f.Type)
			if len(s) == 0 {
				return nil
			}
			first = append(first, value.FieldValue{ID: f.ID, Value: s[0]})
			last = append(last, value.FieldValue{ID: f.ID, Value: s[len(s)-1]})
		}
		return []value.Value{value.MustRecord(first...), value.MustRecord(last...)}
	case types.KindVariant:
		var out []value.Value
		for _, f := range t.Fields() {
			for _, s := range samples(f.Type) {
				out = append(out, value.Variant{ID: f.ID, Value: s})
			}
		}
		return out
	}
	return nil
}

func TestReflexivity(t *testing.T) {
	for _, mode := range []Mode{Strict, Opportunistic} {
		for _, typ := range universe() {
			if !IsSubtype(typ, typ, mode) {
				t.Errorf("%s: %v is not a subtype of itself", mode, typ)
			}
			for _, v := range samples(typ) {
				got, err := Coerce(v, typ, typ, Options{Mode: mode})
				if err != nil || !value.Equal(got, v) {
					t.Errorf("%s: identity coercion of %#v at %v = %#v, %v", mode, v, typ, got, err)
				}
			}
		}
	}
}

func TestSoundness(t *testing.T) {
	for _, mode := range []Mode{Strict, Opportunistic} {
		for _, a := range universe() {
			for _, b := range universe() {
				if !IsSubtype(a, b, mode) {
					continue
				}
				for _, v := range samples(a) {
					got, err := Coerce(v, a, b, Options{Mode: mode})
					if err != nil {
						t.Errorf("%s: %v <: %v but coercing %#v failed: %v", mode, a, b, v, err)
						continue
					}
					if err := value.Check(got, b); err != nil {
						t.Errorf("%s: coercing %#v from %v to %v gave %#v: %v", mode, v, a, b, got, err)
					}
				}
			}
		}
	}
}

func TestTransitivity(t *testing.T) {
	u := universe()
	for _, mode := range []Mode{Strict, Opportunistic} {
		for _, a := range u {
			for _, b := range u {
				if !IsSubtype(a, b, mode) {
					continue
				}
				for _, c := range u {
					if IsSubtype(b, c, mode) && !IsSubtype(a, c, mode) {
						t.Errorf("%s: %v <: %v <: %v but not %v <: %v", mode, a, b, c, a, c)
					}
				}
			}
		}
	}
}

// Strict subtyping is not transitive through a record that drops a field
// which the next step re-adds with an unrelated optional type.
func TestStrictTransitivityCounterexample(t *testing.T) {
	a := types.Record(types.Index(0, types.NatType))
	b := types.Record()
	c := types.Record(types.Index(0, types.Opt(types.TextType)))
	if !IsSubtype(a, b, Strict) || !IsSubtype(b, c, Strict) {
		t.Fatal("both steps should hold")
	}
	if IsSubtype(a, c, Strict) {
		t.Error("the composed step should fail in strict mode")
	}
	if !IsSubtype(a, c, Opportunistic) {
		t.Error("opportunistic mode relates every field to an option")
	}
}

// In strict mode, over records that never drop a field, coercing in one step
// agrees with coercing through any intermediate type.
func TestCoherenceStrict(t *testing.T) {
	var u []*types.Type
	for _, typ := range universe() {
		if typ.Kind() == types.KindRecord && len(typ.Fields()) == 0 {
			continue
		}
		u = append(u, typ)
	}
	opts := Options{Mode: Strict}
	for _, a := range u {
		for _, b := range u {
			if !IsSubtype(a, b, Strict) {
				continue
			}
			for _, c := range u {
				if !IsSubtype(b, c, Strict) {
					continue
				}
				for _, v := range samples(a) {
					direct, err := Coerce(v, a, c, opts)
					if err != nil {
						t.Fatalf("direct %v -> %v: %v", a, c, err)
					}
					mid, err := Coerce(v, a, b, opts)
					if err != nil {
						t.Fatalf("first step %v -> %v: %v", a, b, err)
					}
					composed, err := Coerce(mid, b, c, opts)
					if err != nil {
						t.Fatalf("second step %v -> %v: %v", b, c, err)
					}
					if !value.Equal(direct, composed) {
						t.Errorf("%#v: %v -> %v gives %#v, via %v gives %#v", v, a, c, direct, b, composed)
					}
				}
			}
		}
	}
}

func TestCoherenceCounterexamples(t *testing.T) {
	five := value.NewNat(5)
	nat := types.NatType
	optNat := types.Opt(nat)
	optOptNat := types.Opt(optNat)

	// opportunistic: nat -> opt opt nat is absent, but nat -> opt nat -> opt opt nat is present
	opp := Options{Mode: Opportunistic}
	direct, _ := Coerce(five, nat, optOptNat, opp)
	mid, _ := Coerce(five, nat, optNat, opp)
	composed, _ := Coerce(mid, optNat, optOptNat, opp)
	if !value.Equal(direct, value.None()) || !value.Equal(composed, value.Some(value.Some(five))) {
		t.Errorf("direct = %#v, composed = %#v", direct, composed)
	}

	// strict: a field dropped by the middle type is re-synthesized as absent
	a := types.Record(types.Index(0, nat))
	b := types.Record()
	c := types.Record(types.Index(0, types.Opt(types.IntType)))
	v := value.Tuple(five)
	direct, err := Coerce(v, a, c, Options{Mode: Strict})
	if err != nil {
		t.Fatal(err)
	}
	mid, _ = Coerce(v, a, b, Options{Mode: Strict})
	composed, _ = Coerce(mid, b, c, Options{Mode: Strict})
	if value.Equal(direct, composed) {
		t.Error("dropping and re-adding a field should lose the value")
	}
}

// relate enumerates every result the coercion relation admits, without the
// priorities Coerce applies. In opportunistic mode any value may also read
// as an absent option, and wrapping ignores the opt-like check.
func relate(v value.Value, a, b *types.Type, mode Mode) []value.Value {
	a, b = types.Normalize(a), types.Normalize(b)
	if b.Kind() == types.KindReserved {
		return []value.Value{value.Reserved{}}
	}
	if b.Kind() == types.KindOpt {
		var out []value.Value
		switch {
		case a.Kind() == types.KindNull:
			out = append(out, value.None())
		case a.Kind() == types.KindReserved && mode == Opportunistic:
			out = append(out, value.None())
		case a.Kind() == types.KindOpt:
			o := v.(value.Opt)
			if !o.IsSome() {
				out = append(out, value.None())
			} else if mode == Opportunistic || types.IsOptLike(a.Elem()) == types.IsOptLike(b.Elem()) {
				for _, y := range relate(o.Elem(), a.Elem(), b.Elem(), mode) {
					out = append(out, value.Some(y))
				}
			}
		}
		if mode == Opportunistic || !types.IsOptLike(a) {
			for _, y := range relate(v, a, b.Elem(), mode) {
				out = append(out, value.Some(y))
			}
		}
		if mode == Opportunistic {
			out = append(out, value.None())
		}
		return dedup(out)
	}
	if a.Kind() == types.KindNat && b.Kind() == types.KindInt {
		return []value.Value{value.IntFromBig(v.(value.Nat).Big())}
	}
	if a.Kind() != b.Kind() {
		return nil
	}
	switch a.Kind() {
	case types.KindVec:
		results := [][]value.Value{nil}
		for _, e := range v.(value.Vec).Elems() {
			results = product(results, relate(e, a.Elem(), b.Elem(), mode))
		}
		var out []value.Value
		for _, elems := range results {
			out = append(out, value.NewVec(elems...))
		}
		return out
	case types.KindRecord:
		rec := v.(value.Record)
		results := [][]value.Value{nil}
		for _, bf := range b.Fields() {
			var options []value.Value
			if af, ok := a.Field(bf.ID); ok {
				fv, _ := rec.Field(bf.ID)
				options = relate(fv, af.Type, bf.Type, mode)
			}
			if len(options) == 0 {
				if absent, ok := value.Absent(bf.Type); ok {
					if _, inA := a.Field(bf.ID); !inA {
						options = []value.Value{absent}
					}
				}
			}
			results = product(results, options)
		}
		var out []value.Value
		for _, vals := range results {
			fields := make([]value.FieldValue, len(vals))
			for i, fv := range vals {
				fields[i] = value.FieldValue{ID: b.Fields()[i].ID, Value: fv}
			}
			out = append(out, value.MustRecord(fields...))
		}
		return out
	case types.KindVariant:
		vr := v.(value.Variant)
		af, aok := a.Field(vr.ID)
		bf, bok := b.Field(vr.ID)
		if !aok || !bok {
			return nil
		}
		var out []value.Value
		for _, y := range relate(vr.Value, af.Type, bf.Type, mode) {
			out = append(out, value.Variant{ID: vr.ID, Value: y})
		}
		return out
	}
	if a.Kind().IsPrimitive() && a.Kind() != types.KindEmpty {
		return []value.Value{v}
	}
	return nil
}

func product(prefixes [][]value.Value, options []value.Value) [][]value.Value {
	var out [][]value.Value
	for _, p := range prefixes {
		for _, o := range options {
			next := append(append([]value.Value(nil), p...), o)
			out = append(out, next)
		}
	}
	return out
}

func dedup(vs []value.Value) []value.Value {
	var out []value.Value
	for _, v := range vs {
		seen := false
		for _, o := range out {
			if value.Equal(o, v) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return out
}

func TestStrictCoercionIsUnique(t *testing.T) {
	for _, a := range universe() {
		for _, b := range universe() {
			if !IsSubtype(a, b, Strict) {
				continue
			}
			for _, v := range samples(a) {
				results := relate(v, a, b, Strict)
				if len(results) != 1 {
					t.Errorf("%#v from %v to %v has %d results: %#v", v, a, b, len(results), results)
					continue
				}
				got, err := Coerce(v, a, b, Options{Mode: Strict})
				if err != nil || !value.Equal(got, results[0]) {
					t.Errorf("%#v from %v to %v: Coerce = %#v, %v, relation = %#v", v, a, b, got, err, results[0])
				}
			}
		}
	}
}

// Opportunistic coercion is not unique as a relation. Coerce picks one
// result by rule priority, and that result is always admitted.
func TestOpportunisticCoercionIsAmbiguous(t *testing.T) {
	optOptNat := types.Opt(types.Opt(types.NatType))
	results := relate(value.Null{}, types.NullType, optOptNat, Opportunistic)
	if len(results) != 2 {
		t.Fatalf("null into opt opt nat: relation = %#v, want none and some(none)", results)
	}

	var ambiguous []string
	for _, a := range universe() {
		for _, b := range universe() {
			if !IsSubtype(a, b, Opportunistic) {
				continue
			}
			for _, v := range samples(a) {
				results := relate(v, a, b, Opportunistic)
				got, err := Coerce(v, a, b, Options{Mode: Opportunistic})
				if err != nil {
					t.Errorf("%#v from %v to %v: %v", v, a, b, err)
					continue
				}
				admitted := false
				for _, r := range results {
					if value.Equal(r, got) {
						admitted = true
					}
				}
				if !admitted {
					t.Errorf("%#v from %v to %v: Coerce = %#v is not in %#v", v, a, b, got, results)
				}
				if len(results) > 1 {
					ambiguous = append(ambiguous, fmt.Sprintf("%v -> %v", a, b))
				}
			}
		}
	}
	if len(ambiguous) == 0 {
		t.Error("expected the search to find ambiguous opportunistic coercions")
	}

	got, err := Coerce(value.Null{}, types.NullType, optOptNat, Options{Mode: Opportunistic})
	if err != nil || !value.Equal(got, value.None()) {
		t.Errorf("null prefers the absent option, got %#v, %v", got, err)
	}
}
