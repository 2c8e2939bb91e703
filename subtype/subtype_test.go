package subtype

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/types"
)

func recursiveList(t *testing.T, elem *types.Type) *types.Type {
	t.Helper()
	b := types.NewBuilder()
	l := b.Ref("list")
	b.Define("list", types.Opt(b.Record(types.Index(0, elem), types.Index(1, l))))
	if err := b.Build(); err != nil {
		t.Fatal(err)
	}
	def, _ := b.Lookup("list")
	return def
}

func TestSubRules(t *testing.T) {
	nat, in, text := types.NatType, types.IntType, types.TextType
	unit := types.Func(nil, nil)

	tests := []struct {
		name          string
		a, b          *types.Type
		strict, oppor bool
	}{
		{"nat <: int", nat, in, true, true},
		{"int </: nat", in, nat, false, false},
		{"null <: opt", types.NullType, types.Opt(text), true, true},
		{"wrap into opt", text, types.Opt(text), true, true},
		{"wrap mismatched payload", text, types.Opt(nat), false, true},
		{"opt into opt opt", types.Opt(nat), types.Opt(types.Opt(nat)), false, true},
		{"nat into opt opt", nat, types.Opt(types.Opt(nat)), true, true},
		{"opt opt widening", types.Opt(types.Opt(nat)), types.Opt(types.Opt(in)), true, true},
		{"reserved into opt", types.ReservedType, types.Opt(nat), false, true},
		{"anything <: reserved", types.Vec(text), types.ReservedType, true, true},
		{"empty <: anything", types.EmptyType, nat, true, true},
		{"nothing <: empty", nat, types.EmptyType, false, false},
		{"vec covariant", types.Vec(nat), types.Vec(in), true, true},
		{"vec not to elem", types.Vec(nat), nat, false, false},
		{
			"record drops fields",
			types.Record(types.Index(0, nat), types.Index(1, text)),
			types.Record(types.Index(0, in)),
			true, true,
		},
		{"record optional field", types.Record(), types.Record(types.Index(5, types.Opt(nat))), true, true},
		{"record required field", types.Record(), types.Record(types.Index(5, nat)), false, false},
		{
			"record mismatched optional",
			types.Record(types.Index(5, text)),
			types.Record(types.Index(5, types.Opt(nat))),
			false, true,
		},
		{
			"record null field",
			types.Record(types.Index(5, text)),
			types.Record(types.Index(5, types.NullType)),
			false, false,
		},
		{
			"record nat into null field",
			types.Record(types.Index(0, nat)),
			types.Record(types.Index(0, types.NullType)),
			false, false,
		},
		{"nat into null", nat, types.NullType, false, false},
		{
			"record reserved field",
			types.Record(types.Index(0, nat)),
			types.Record(types.Index(0, types.ReservedType)),
			true, true,
		},
		{
			"variant widening",
			types.Variant(types.Index(0, nat)),
			types.Variant(types.Index(0, in), types.Index(1, text)),
			true, true,
		},
		{
			"variant narrowing",
			types.Variant(types.Index(0, nat), types.Index(1, text)),
			types.Variant(types.Index(0, nat)),
			false, false,
		},
		{
			"func variance",
			types.Func([]*types.Type{in}, []*types.Type{nat}),
			types.Func([]*types.Type{nat}, []*types.Type{in}),
			true, true,
		},
		{
			"func wrong variance",
			types.Func([]*types.Type{nat}, nil),
			types.Func([]*types.Type{in}, nil),
			false, false,
		},
		{"func annotations", types.Func(nil, nil, types.Query), unit, false, false},
		{"func ignores extra args", unit, types.Func([]*types.Type{types.Opt(nat)}, nil), true, true},
		{"func optional params", types.Func([]*types.Type{types.Opt(nat)}, nil), unit, true, true},
		{"func required params", types.Func([]*types.Type{nat}, nil), unit, false, false},
		{
			"service more methods",
			types.Service(types.Method{Name: "a", Type: unit}, types.Method{Name: "b", Type: unit}),
			types.Service(types.Method{Name: "b", Type: unit}),
			true, true,
		},
		{"service missing method", types.Service(), types.Service(types.Method{Name: "b", Type: unit}), false, false},
		{"principal", types.PrincipalType, types.PrincipalType, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSubtype(tt.a, tt.b, Strict); got != tt.strict {
				t.Errorf("strict: %v <: %v = %v, want %v", tt.a, tt.b, got, tt.strict)
			}
			if got := IsSubtype(tt.a, tt.b, Opportunistic); got != tt.oppor {
				t.Errorf("opportunistic: %v <: %v = %v, want %v", tt.a, tt.b, got, tt.oppor)
			}
		})
	}
}

func TestSubRecursive(t *testing.T) {
	natList := recursiveList(t, types.NatType)
	intList := recursiveList(t, types.IntType)
	textList := recursiveList(t, types.TextType)

	for _, mode := range []Mode{Strict, Opportunistic} {
		if !IsSubtype(natList, intList, mode) {
			t.Errorf("%s: nat list should be a subtype of int list", mode)
		}
	}
	if IsSubtype(intList, natList, Strict) {
		t.Error("strict: int list should not be a subtype of nat list")
	}
	if IsSubtype(natList, textList, Strict) {
		t.Error("strict: nat list should not be a subtype of text list")
	}
	// The outer option absorbs any mismatch in opportunistic mode.
	if !IsSubtype(intList, natList, Opportunistic) || !IsSubtype(natList, textList, Opportunistic) {
		t.Error("opportunistic: every list is a subtype of an optional list")
	}
}

func TestSubMemoAcrossCalls(t *testing.T) {
	c := NewChecker(DefaultOptions())
	natList := recursiveList(t, types.NatType)
	intList := recursiveList(t, types.IntType)
	for i := 0; i < 3; i++ {
		ok, err := c.Sub(natList, intList)
		if err != nil || !ok {
			t.Fatalf("Sub = %v, %v", ok, err)
		}
	}
	ok, err := c.Sub(intList, natList)
	if err != nil || ok {
		t.Fatalf("a failed check must not be answered from earlier assumptions: %v, %v", ok, err)
	}
}

func TestSubDepthExceeded(t *testing.T) {
	a, b := types.NatType, types.NatType
	for i := 0; i < 50; i++ {
		a, b = types.Vec(a), types.Vec(b)
	}
	_, err := NewChecker(Options{MaxDepth: 10}).Sub(a, b)
	if !stderrors.Is(err, errors.ErrDepthExceeded) {
		t.Fatalf("expected depth exceeded, got %v", err)
	}
}

func TestSubFuelExhausted(t *testing.T) {
	var fa, fb []types.Field
	for i := uint32(0); i < 20; i++ {
		fa = append(fa, types.Index(i, types.Vec(types.NatType)))
		fb = append(fb, types.Index(i, types.Vec(types.IntType)))
	}
	c := NewChecker(Options{MaxFuel: 5})
	_, err := c.Sub(types.Record(fa...), types.Record(fb...))
	if !stderrors.Is(err, errors.ErrDepthExceeded) {
		t.Fatalf("expected fuel exhaustion, got %v", err)
	}
	if c.Fuel() != 0 {
		t.Errorf("fuel left = %d", c.Fuel())
	}
}

func TestSubDanglingReference(t *testing.T) {
	b := types.NewBuilder()
	_, err := NewChecker(DefaultOptions()).Sub(types.Vec(b.Ref("x")), types.Vec(types.NatType))
	if !stderrors.Is(err, errors.ErrDanglingReference) {
		t.Fatalf("expected dangling reference, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Strict, Opportunistic} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if m, err := ParseMode(""); err != nil || m != Strict {
		t.Errorf("empty mode should default to strict, got %v, %v", m, err)
	}
	if _, err := ParseMode("lenient"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
