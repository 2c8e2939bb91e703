package types

// Normalize follows reference chains to the first structural node. It is
// idempotent. An unresolved reference is returned as is.
func Normalize(t *Type) *Type {
	for t != nil && t.kind == KindRef && t.target != nil {
		t = t.target
	}
	return t
}

// IsOptLike reports whether values of t can represent absence: null, opt
// and reserved.
func IsOptLike(t *Type) bool {
	switch Normalize(t).kind {
	case KindNull, KindOpt, KindReserved:
		return true
	}
	return false
}

// Equal reports whether a and b have the same infinite unfolding. Pairs of
// nodes under comparison are assumed equal when revisited, which makes the
// check terminate on cyclic graphs.
func Equal(a, b *Type) bool {
	return (&bisim{assumed: make(map[[2]*Type]bool)}).equal(a, b)
}

type bisim struct {
	assumed map[[2]*Type]bool
}

func (s *bisim) equal(a, b *Type) bool {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return true
	}
	if a == nil || b == nil || a.kind != b.kind {
		return false
	}
	if a.kind.IsPrimitive() {
		return true
	}
	key := [2]*Type{a, b}
	if s.assumed[key] {
		return true
	}
	s.assumed[key] = true

	switch a.kind {
	case KindOpt, KindVec:
		return s.equal(a.elem, b.elem)
	case KindRecord, KindVariant:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if a.fields[i].ID != b.fields[i].ID || !s.equal(a.fields[i].Type, b.fields[i].Type) {
				return false
			}
		}
		return true
	case KindFunc:
		if len(a.params) != len(b.params) || len(a.results) != len(b.results) || len(a.annotations) != len(b.annotations) {
			return false
		}
		for i := range a.annotations {
			if a.annotations[i] != b.annotations[i] {
				return false
			}
		}
		for i := range a.params {
			if !s.equal(a.params[i], b.params[i]) {
				return false
			}
		}
		for i := range a.results {
			if !s.equal(a.results[i], b.results[i]) {
				return false
			}
		}
		return true
	case KindService:
		if len(a.methods) != len(b.methods) {
			return false
		}
		for i := range a.methods {
			if a.methods[i].Name != b.methods[i].Name || !s.equal(a.methods[i].Type, b.methods[i].Type) {
				return false
			}
		}
		return true
	}
	// Unresolved references compare by identity only.
	return false
}
