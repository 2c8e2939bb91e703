package subtype

import (
	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/types"
)

type pair [2]*types.Type

// Checker decides subtyping and performs coercions for one encode, decode or
// coercion call. Results it proves are remembered for the rest of the call.
// A Checker is not safe for concurrent use; create one per call.
type Checker struct {
	proven  map[pair]bool
	assumed map[pair]struct{}
	opts    Options
	fuel    int
}

// NewChecker returns a checker with a full fuel budget.
func NewChecker(opts Options) *Checker {
	opts = opts.withDefaults()
	return &Checker{
		opts:   opts,
		proven: make(map[pair]bool),
		fuel:   opts.MaxFuel,
	}
}

// Mode returns the option rule in effect.
func (c *Checker) Mode() Mode { return c.opts.Mode }

// MaxDepth returns the nesting bound.
func (c *Checker) MaxDepth() int { return c.opts.MaxDepth }

// Fuel returns the remaining work budget.
func (c *Checker) Fuel() int { return c.fuel }

// Consume spends n units of the work budget shared by subtyping, coercion
// and decoding. It fails with a depth error once the budget is exhausted.
func (c *Checker) Consume(n int, path []string) error {
	if n < 0 || n > c.fuel {
		c.fuel = 0
		return errors.DepthExceeded(errors.PhaseSubtype, path, c.opts.MaxFuel, "fuel")
	}
	c.fuel -= n
	return nil
}

// Sub reports whether a is a subtype of b. Cyclic types are handled by
// assuming a pair holds while its children are checked; the assumptions
// become facts if the whole check succeeds.
func (c *Checker) Sub(a, b *types.Type) (bool, error) {
	a, b = types.Normalize(a), types.Normalize(b)
	key := pair{a, b}
	if r, ok := c.proven[key]; ok {
		return r, nil
	}
	c.assumed = make(map[pair]struct{})
	ok, err := c.sub(a, b, 0)
	if err != nil {
		c.assumed = nil
		return false, err
	}
	if ok {
		for p := range c.assumed {
			c.proven[p] = true
		}
	}
	c.proven[key] = ok
	c.assumed = nil
	return ok, nil
}

func (c *Checker) sub(a, b *types.Type, depth int) (bool, error) {
	a, b = types.Normalize(a), types.Normalize(b)
	if a == b {
		return true, nil
	}
	if a.Kind() == types.KindRef {
		return false, errors.DanglingReference(a.Name())
	}
	if b.Kind() == types.KindRef {
		return false, errors.DanglingReference(b.Name())
	}
	key := pair{a, b}
	if r, ok := c.proven[key]; ok {
		return r, nil
	}
	if _, ok := c.assumed[key]; ok {
		return true, nil
	}
	if depth >= c.opts.MaxDepth {
		return false, errors.DepthExceeded(errors.PhaseSubtype, nil, c.opts.MaxDepth, "subtyping depth")
	}
	if err := c.Consume(1, nil); err != nil {
		return false, err
	}

	if b.Kind() == types.KindReserved || a.Kind() == types.KindEmpty {
		return true, nil
	}
	if b.Kind() == types.KindOpt {
		if c.opts.Mode == Opportunistic {
			return true, nil
		}
		c.assumed[key] = struct{}{}
		return c.subStrictOpt(a, b, depth)
	}
	if a.Kind() == types.KindNat && b.Kind() == types.KindInt {
		return true, nil
	}
	if a.Kind() != b.Kind() {
		return false, nil
	}
	if a.Kind().IsPrimitive() {
		return true, nil
	}

	c.assumed[key] = struct{}{}
	switch a.Kind() {
	case types.KindVec:
		return c.sub(a.Elem(), b.Elem(), depth+1)
	case types.KindRecord:
		return c.subRecord(a.Fields(), b.Fields(), depth)
	case types.KindVariant:
		for _, af := range a.Fields() {
			bf, ok := b.Field(af.ID)
			if !ok {
				return false, nil
			}
			if ok, err := c.sub(af.Type, bf.Type, depth+1); !ok || err != nil {
				return false, err
			}
		}
		return true, nil
	case types.KindFunc:
		return c.subFunc(a, b, depth)
	case types.KindService:
		for _, bm := range b.Methods() {
			am, ok := a.Method(bm.Name)
			if !ok {
				return false, nil
			}
			if ok, err := c.sub(am.Type, bm.Type, depth+1); !ok || err != nil {
				return false, err
			}
		}
		return true, nil
	}
	return false, nil
}

// subStrictOpt applies the option rules that keep coercion unambiguous.
func (c *Checker) subStrictOpt(a, b *types.Type, depth int) (bool, error) {
	switch {
	case a.Kind() == types.KindNull:
		return true, nil
	case a.Kind() == types.KindOpt:
		if types.IsOptLike(a.Elem()) != types.IsOptLike(b.Elem()) {
			return false, nil
		}
		return c.sub(a.Elem(), b.Elem(), depth+1)
	case !types.IsOptLike(a):
		return c.sub(a, b.Elem(), depth+1)
	}
	// reserved carries nothing to put in the option
	return false, nil
}

// subRecord checks the fields of b against those of a. A field missing from
// a is allowed when b's field is opt-like; a shared field must be a subtype
// in either mode.
func (c *Checker) subRecord(af, bf []types.Field, depth int) (bool, error) {
	i := 0
	for _, f := range bf {
		for i < len(af) && af[i].ID < f.ID {
			i++
		}
		if i == len(af) || af[i].ID != f.ID {
			if !types.IsOptLike(f.Type) {
				return false, nil
			}
			continue
		}
		if ok, err := c.sub(af[i].Type, f.Type, depth+1); !ok || err != nil {
			return false, err
		}
	}
	return true, nil
}

func (c *Checker) subFunc(a, b *types.Type, depth int) (bool, error) {
	aa, ba := a.Annotations(), b.Annotations()
	if len(aa) != len(ba) {
		return false, nil
	}
	for i := range aa {
		if aa[i] != ba[i] {
			return false, nil
		}
	}
	// Arguments flow from caller to callee, results back.
	if ok, err := c.subTuple(b.Params(), a.Params(), depth); !ok || err != nil {
		return false, err
	}
	return c.subTuple(a.Results(), b.Results(), depth)
}

// subTuple relates argument lists the way records with fields 0..n-1 relate.
func (c *Checker) subTuple(as, bs []*types.Type, depth int) (bool, error) {
	for i, bt := range bs {
		if i >= len(as) {
			if !types.IsOptLike(bt) {
				return false, nil
			}
			continue
		}
		if ok, err := c.sub(as[i], bt, depth+1); !ok || err != nil {
			return false, err
		}
	}
	return true, nil
}

// IsSubtype reports whether a is a subtype of b under mode with the default
// limits. A check that runs out of budget reports false.
func IsSubtype(a, b *types.Type, mode Mode) bool {
	ok, err := NewChecker(Options{Mode: mode}).Sub(a, b)
	return ok && err == nil
}
