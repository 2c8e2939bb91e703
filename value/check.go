package value

import (
	"strconv"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/types"
)

// Check reports whether v is a value of type t. Records must carry exactly
// the fields of their type; a variant must name one of its alternatives.
func Check(v Value, t *types.Type) error {
	return check(v, t, nil)
}

func check(v Value, t *types.Type, path []string) error {
	t = types.Normalize(t)
	if v == nil {
		return mismatch(path, "nil", t)
	}
	switch t.Kind() {
	case types.KindReserved:
		// every value inhabits reserved
		return nil
	case types.KindEmpty:
		return mismatch(path, v.Kind().String(), t)
	case types.KindRef:
		return errors.DanglingReference(t.Name())
	}
	if v.Kind() != t.Kind() {
		return mismatch(path, v.Kind().String(), t)
	}

	switch x := v.(type) {
	case Nat:
		if x.big().Sign() < 0 {
			return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				Path(path...).
				Detail("negative nat %s", x.String()).
				Build()
		}
	case Opt:
		if x.IsSome() {
			return check(x.elem, t.Elem(), append(path, "?"))
		}
	case Vec:
		for i, e := range x.elems {
			if err := check(e, t.Elem(), append(path[:len(path):len(path)], strconv.Itoa(i))); err != nil {
				return err
			}
		}
	case Record:
		fields := t.Fields()
		if len(x.fields) != len(fields) {
			return errors.Incompatible(errors.PhaseEncode, path, recordShape(x), t.String())
		}
		for i, f := range fields {
			fv := x.fields[i]
			if fv.ID != f.ID {
				return errors.Incompatible(errors.PhaseEncode, path, recordShape(x), t.String())
			}
			if err := check(fv.Value, f.Type, append(path[:len(path):len(path)], fieldName(f))); err != nil {
				return err
			}
		}
	case Variant:
		f, ok := t.Field(x.ID)
		if !ok {
			return errors.New(errors.PhaseEncode, errors.KindIncompatibleType).
				Path(path...).
				ExpectedType(t.String()).
				Detail("variant has no alternative %d", x.ID).
				Build()
		}
		return check(x.Value, f.Type, append(path, fieldName(f)))
	}
	return nil
}

func mismatch(path []string, got string, t *types.Type) error {
	return errors.Incompatible(errors.PhaseEncode, path, got, t.String())
}

func recordShape(r Record) string {
	s := "record {"
	for i, f := range r.fields {
		if i > 0 {
			s += ";"
		}
		s += " " + strconv.FormatUint(uint64(f.ID), 10)
	}
	return s + " }"
}

func fieldName(f types.Field) string {
	if f.Name != "" {
		return f.Name
	}
	return strconv.FormatUint(uint64(f.ID), 10)
}
