package types

import (
	"fmt"

	"github.com/wippyai/candid/errors"
)

// Builder constructs type graphs that refer to themselves through named
// references. Refs handed out before Build are patched to their definitions
// by Build; a ref with no definition is a construction error.
//
//	b := types.NewBuilder()
//	list := b.Ref("list")
//	b.Define("list", types.Opt(b.Record(types.Index(0, types.NatType), types.Index(1, list))))
//	if err := b.Build(); err != nil { ... }
type Builder struct {
	defs  map[string]*Type
	refs  []*Type
	errs  []error
	built bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{defs: make(map[string]*Type)}
}

// Ref returns a reference to the type that is, or will be, defined as name.
func (b *Builder) Ref(name string) *Type {
	r := &Type{kind: KindRef, name: name}
	b.refs = append(b.refs, r)
	return r
}

// Define binds name to t. Redefining a name is a construction error.
func (b *Builder) Define(name string, t *Type) *Type {
	switch {
	case t == nil:
		b.fail(errors.InvalidInput(errors.PhaseConstruct, fmt.Sprintf("definition %q has nil type", name)))
	case b.defs[name] != nil:
		b.fail(errors.InvalidInput(errors.PhaseConstruct, fmt.Sprintf("type %q defined more than once", name)))
	default:
		b.defs[name] = t
	}
	return t
}

// Record builds a record, deferring any construction error to Build.
func (b *Builder) Record(fields ...Field) *Type {
	t, err := NewRecord(fields...)
	if err != nil {
		b.fail(err)
		return &Type{kind: KindRecord}
	}
	return t
}

// Variant builds a variant, deferring any construction error to Build.
func (b *Builder) Variant(fields ...Field) *Type {
	t, err := NewVariant(fields...)
	if err != nil {
		b.fail(err)
		return &Type{kind: KindVariant}
	}
	return t
}

// Service builds a service, deferring any construction error to Build.
func (b *Builder) Service(methods ...Method) *Type {
	t, err := NewService(methods...)
	if err != nil {
		b.fail(err)
		return &Type{kind: KindService}
	}
	return t
}

// Lookup returns the definition of name.
func (b *Builder) Lookup(name string) (*Type, bool) {
	t, ok := b.defs[name]
	return t, ok
}

// Build resolves every reference and reports the first construction error.
// After a successful Build the graph must not be modified.
func (b *Builder) Build() error {
	if len(b.errs) > 0 {
		return b.errs[0]
	}
	if b.built {
		return nil
	}
	for _, r := range b.refs {
		def, ok := b.defs[r.name]
		if !ok {
			return errors.DanglingReference(r.name)
		}
		r.target = def
	}
	for name, def := range b.defs {
		if err := checkAliasChain(name, def); err != nil {
			return err
		}
	}
	b.built = true
	return nil
}

// checkAliasChain rejects definitions that only ever name other
// definitions, such as a = b, b = a.
func checkAliasChain(name string, t *Type) error {
	seen := map[*Type]bool{}
	for t.kind == KindRef {
		if seen[t] {
			return errors.New(errors.PhaseConstruct, errors.KindAliasCycle).
				Detail("type %q is defined only in terms of itself", name).
				Value(name).
				Build()
		}
		seen[t] = true
		if t.target == nil {
			return errors.DanglingReference(t.name)
		}
		t = t.target
	}
	return nil
}

func (b *Builder) fail(err error) {
	b.errs = append(b.errs, err)
}
