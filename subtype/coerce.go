package subtype

import (
	"strconv"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/types"
	"github.com/wippyai/candid/value"
)

// Coerce converts v, a value of type from, into a value of type to. It
// fails with an incompatible type error unless from is a subtype of to.
func (c *Checker) Coerce(v value.Value, from, to *types.Type) (value.Value, error) {
	ok, err := c.Sub(from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Incompatible(errors.PhaseSubtype, nil, from.String(), to.String())
	}
	return c.coerce(v, types.Normalize(from), types.Normalize(to), nil)
}

// Coerce is Checker.Coerce with a fresh checker.
func Coerce(v value.Value, from, to *types.Type, opts Options) (value.Value, error) {
	return NewChecker(opts).Coerce(v, from, to)
}

// OptionPlan is the coercion chosen for a value of type from read into the
// option type to.
type OptionPlan uint8

const (
	// PlanNone yields an absent option.
	PlanNone OptionPlan = iota
	// PlanUnwrap coerces the payload of a present source option into the
	// target payload; an absent source stays absent.
	PlanUnwrap
	// PlanWrap coerces the whole value into the target payload.
	PlanWrap
)

// PlanOption decides how a value of type from becomes a value of the option
// type to. Both coercion and decoding follow this decision, so they agree
// value for value. Rules apply in order: null and reserved become absent,
// a source option unwraps when its payload is a subtype, and any other
// source that is a subtype of the payload is wrapped. In opportunistic mode
// everything else, and any opt-like payload target, is absent.
func (c *Checker) PlanOption(from, to *types.Type) (OptionPlan, error) {
	from, to = types.Normalize(from), types.Normalize(to)
	switch from.Kind() {
	case types.KindNull, types.KindReserved:
		return PlanNone, nil
	case types.KindOpt:
		ok, err := c.Sub(from.Elem(), to.Elem())
		if err != nil {
			return 0, err
		}
		if ok {
			return PlanUnwrap, nil
		}
		return PlanNone, nil
	}
	if c.opts.Mode == Opportunistic && types.IsOptLike(to.Elem()) {
		return PlanNone, nil
	}
	ok, err := c.Sub(from, to.Elem())
	if err != nil {
		return 0, err
	}
	if ok {
		return PlanWrap, nil
	}
	return PlanNone, nil
}

func (c *Checker) coerce(v value.Value, from, to *types.Type, path []string) (value.Value, error) {
	from, to = types.Normalize(from), types.Normalize(to)
	if len(path) >= c.opts.MaxDepth {
		return nil, errors.DepthExceeded(errors.PhaseSubtype, path, c.opts.MaxDepth, "coercion depth")
	}
	if err := c.Consume(1, path); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.InvalidInput(errors.PhaseSubtype, "nil value")
	}

	if to.Kind() == types.KindReserved {
		return value.Reserved{}, nil
	}
	if from == to {
		return v, nil
	}
	if to.Kind() == types.KindOpt {
		return c.coerceOpt(v, from, to, path)
	}

	switch to.Kind() {
	case types.KindInt:
		if n, ok := v.(value.Nat); ok {
			return value.IntFromBig(n.Big()), nil
		}
	case types.KindVec:
		vec, ok := v.(value.Vec)
		if !ok || from.Kind() != types.KindVec {
			break
		}
		elems := make([]value.Value, vec.Len())
		for i, e := range vec.Elems() {
			ce, err := c.coerce(e, from.Elem(), to.Elem(), append(path[:len(path):len(path)], strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			elems[i] = ce
		}
		return value.NewVec(elems...), nil
	case types.KindRecord:
		rec, ok := v.(value.Record)
		if !ok || from.Kind() != types.KindRecord {
			break
		}
		return c.coerceRecord(rec, from, to, path)
	case types.KindVariant:
		vr, ok := v.(value.Variant)
		if !ok || from.Kind() != types.KindVariant {
			break
		}
		af, aok := from.Field(vr.ID)
		bf, bok := to.Field(vr.ID)
		if !aok || !bok {
			break
		}
		payload, err := c.coerce(vr.Value, af.Type, bf.Type, append(path, fieldLabel(bf)))
		if err != nil {
			return nil, err
		}
		return value.Variant{ID: vr.ID, Value: payload}, nil
	}

	// Remaining shapes carry over unchanged when the kinds line up.
	if v.Kind() == to.Kind() && from.Kind() == to.Kind() && to.Kind() != types.KindEmpty {
		return v, nil
	}
	return nil, errors.Incompatible(errors.PhaseSubtype, path, from.String(), to.String())
}

func (c *Checker) coerceOpt(v value.Value, from, to *types.Type, path []string) (value.Value, error) {
	plan, err := c.PlanOption(from, to)
	if err != nil {
		return nil, errors.WithPath(err, path...)
	}
	switch plan {
	case PlanUnwrap:
		o, ok := v.(value.Opt)
		if !ok {
			return nil, errors.Incompatible(errors.PhaseSubtype, path, v.Kind().String(), to.String())
		}
		if !o.IsSome() {
			return value.None(), nil
		}
		inner, err := c.coerce(o.Elem(), from.Elem(), to.Elem(), append(path, "?"))
		if err != nil {
			return nil, err
		}
		return value.Some(inner), nil
	case PlanWrap:
		inner, err := c.coerce(v, from, to.Elem(), append(path, "?"))
		if err != nil {
			return nil, err
		}
		return value.Some(inner), nil
	}
	return value.None(), nil
}

func (c *Checker) coerceRecord(rec value.Record, from, to *types.Type, path []string) (value.Value, error) {
	out := make([]value.FieldValue, 0, len(to.Fields()))
	for _, bf := range to.Fields() {
		fpath := append(path[:len(path):len(path)], fieldLabel(bf))
		af, inType := from.Field(bf.ID)
		fv, inValue := rec.Field(bf.ID)
		if !inType || !inValue {
			absent, ok := value.Absent(bf.Type)
			if !ok {
				return nil, errors.New(errors.PhaseSubtype, errors.KindIncompatibleType).
					Path(fpath...).
					ExpectedType(bf.Type.String()).
					Detail("required field is missing").
					Build()
			}
			out = append(out, value.FieldValue{ID: bf.ID, Value: absent})
			continue
		}
		cv, err := c.coerce(fv, af.Type, bf.Type, fpath)
		if err != nil {
			return nil, err
		}
		out = append(out, value.FieldValue{ID: bf.ID, Value: cv})
	}
	// out is already in id order
	return value.NewRecord(out...)
}

func fieldLabel(f types.Field) string {
	if f.Name != "" {
		return f.Name
	}
	return strconv.FormatUint(uint64(f.ID), 10)
}
