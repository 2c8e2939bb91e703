package value

import "math"

// Equal reports whether a and b hold the same datum. Floats compare by bit
// pattern, so NaN equals itself and 0 differs from -0.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Nat:
		return x.big().Cmp(b.(Nat).big()) == 0
	case Int:
		return x.big().Cmp(b.(Int).big()) == 0
	case Float32:
		return math.Float32bits(float32(x)) == math.Float32bits(float32(b.(Float32)))
	case Float64:
		return math.Float64bits(float64(x)) == math.Float64bits(float64(b.(Float64)))
	case Opt:
		y := b.(Opt)
		if x.IsSome() != y.IsSome() {
			return false
		}
		return !x.IsSome() || Equal(x.elem, y.elem)
	case Vec:
		y := b.(Vec)
		if len(x.elems) != len(y.elems) {
			return false
		}
		for i := range x.elems {
			if !Equal(x.elems[i], y.elems[i]) {
				return false
			}
		}
		return true
	case Record:
		y := b.(Record)
		if len(x.fields) != len(y.fields) {
			return false
		}
		for i := range x.fields {
			if x.fields[i].ID != y.fields[i].ID || !Equal(x.fields[i].Value, y.fields[i].Value) {
				return false
			}
		}
		return true
	case Variant:
		y := b.(Variant)
		return x.ID == y.ID && Equal(x.Value, y.Value)
	}
	// The remaining kinds are comparable scalars.
	return a == b
}
