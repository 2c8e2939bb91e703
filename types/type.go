package types

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wippyai/candid/errors"
)

// Type is a node in a possibly cyclic type graph. Types are immutable once
// built and safe to share between goroutines.
type Type struct {
	elem        *Type
	target      *Type
	name        string
	fields      []Field
	params      []*Type
	results     []*Type
	methods     []Method
	annotations []Annotation
	kind        Kind
}

// Field is a record field or variant alternative. Name is an optional label;
// only ID takes part in structural comparison.
type Field struct {
	Type *Type
	Name string
	ID   uint32
}

// Method is a named service entry; its type must be a function.
type Method struct {
	Type *Type
	Name string
}

// Primitive types.
var (
	NullType      = &Type{kind: KindNull}
	BoolType      = &Type{kind: KindBool}
	NatType       = &Type{kind: KindNat}
	IntType       = &Type{kind: KindInt}
	Nat8Type      = &Type{kind: KindNat8}
	Nat16Type     = &Type{kind: KindNat16}
	Nat32Type     = &Type{kind: KindNat32}
	Nat64Type     = &Type{kind: KindNat64}
	Int8Type      = &Type{kind: KindInt8}
	Int16Type     = &Type{kind: KindInt16}
	Int32Type     = &Type{kind: KindInt32}
	Int64Type     = &Type{kind: KindInt64}
	Float32Type   = &Type{kind: KindFloat32}
	Float64Type   = &Type{kind: KindFloat64}
	TextType      = &Type{kind: KindText}
	ReservedType  = &Type{kind: KindReserved}
	EmptyType     = &Type{kind: KindEmpty}
	PrincipalType = &Type{kind: KindPrincipal}
)

var primitives = [...]*Type{
	KindNull:      NullType,
	KindBool:      BoolType,
	KindNat:       NatType,
	KindInt:       IntType,
	KindNat8:      Nat8Type,
	KindNat16:     Nat16Type,
	KindNat32:     Nat32Type,
	KindNat64:     Nat64Type,
	KindInt8:      Int8Type,
	KindInt16:     Int16Type,
	KindInt32:     Int32Type,
	KindInt64:     Int64Type,
	KindFloat32:   Float32Type,
	KindFloat64:   Float64Type,
	KindText:      TextType,
	KindReserved:  ReservedType,
	KindEmpty:     EmptyType,
	KindPrincipal: PrincipalType,
}

// Primitive returns the shared primitive type for k, or nil if k is compound.
func Primitive(k Kind) *Type {
	if !k.IsPrimitive() {
		return nil
	}
	return primitives[k]
}

// Kind returns the node kind. A resolved reference reports KindRef; use
// Normalize to see through it.
func (t *Type) Kind() Kind { return t.kind }

// Elem returns the element type of an opt or vec.
func (t *Type) Elem() *Type { return t.elem }

// Fields returns record fields or variant alternatives sorted by ID.
func (t *Type) Fields() []Field { return t.fields }

// Field returns the field with the given id.
func (t *Type) Field(id uint32) (Field, bool) {
	i, ok := slices.BinarySearchFunc(t.fields, id, func(f Field, id uint32) int {
		switch {
		case f.ID < id:
			return -1
		case f.ID > id:
			return 1
		}
		return 0
	})
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// Params returns function parameter types.
func (t *Type) Params() []*Type { return t.params }

// Results returns function result types.
func (t *Type) Results() []*Type { return t.results }

// Annotations returns function annotations in ascending order.
func (t *Type) Annotations() []Annotation { return t.annotations }

// Methods returns service methods sorted by name.
func (t *Type) Methods() []Method { return t.methods }

// Method returns the service method with the given name.
func (t *Type) Method(name string) (Method, bool) {
	i, ok := slices.BinarySearchFunc(t.methods, name, func(m Method, name string) int {
		return strings.Compare(m.Name, name)
	})
	if !ok {
		return Method{}, false
	}
	return t.methods[i], true
}

// Name returns the name of a reference node.
func (t *Type) Name() string { return t.name }

// Target returns the resolved target of a reference, nil before Build.
func (t *Type) Target() *Type { return t.target }

// Opt returns the option type over elem.
func Opt(elem *Type) *Type {
	return &Type{kind: KindOpt, elem: elem}
}

// Vec returns the vector type over elem.
func Vec(elem *Type) *Type {
	return &Type{kind: KindVec, elem: elem}
}

// Blob returns vec nat8.
func Blob() *Type {
	return Vec(Nat8Type)
}

// Label returns a field whose id is the hash of name.
func Label(name string, t *Type) Field {
	return Field{ID: FieldID(name), Name: name, Type: t}
}

// Index returns an unlabeled field with the given id.
func Index(id uint32, t *Type) Field {
	return Field{ID: id, Type: t}
}

// NewRecord returns a record type. Fields are sorted by id; a repeated id
// is a construction error.
func NewRecord(fields ...Field) (*Type, error) {
	sorted, err := sortFields(fields)
	if err != nil {
		return nil, err
	}
	return &Type{kind: KindRecord, fields: sorted}, nil
}

// NewVariant returns a variant type with the given alternatives.
func NewVariant(fields ...Field) (*Type, error) {
	sorted, err := sortFields(fields)
	if err != nil {
		return nil, err
	}
	return &Type{kind: KindVariant, fields: sorted}, nil
}

// Record is NewRecord that panics on a construction error. Use it for
// literal types known to be valid.
func Record(fields ...Field) *Type {
	return must(NewRecord(fields...))
}

// Variant is NewVariant that panics on a construction error.
func Variant(fields ...Field) *Type {
	return must(NewVariant(fields...))
}

// Tuple returns a record whose fields are numbered 0..n-1.
func Tuple(elems ...*Type) *Type {
	fields := make([]Field, len(elems))
	for i, e := range elems {
		fields[i] = Field{ID: uint32(i), Type: e}
	}
	return &Type{kind: KindRecord, fields: fields}
}

// Func returns a function type.
func Func(params, results []*Type, annotations ...Annotation) *Type {
	anns := slices.Clone(annotations)
	slices.Sort(anns)
	anns = slices.Compact(anns)
	return &Type{
		kind:        KindFunc,
		params:      slices.Clone(params),
		results:     slices.Clone(results),
		annotations: anns,
	}
}

// NewService returns a service type. Methods are sorted by name; a repeated
// name is a construction error.
func NewService(methods ...Method) (*Type, error) {
	sorted := slices.Clone(methods)
	slices.SortFunc(sorted, func(a, b Method) int { return strings.Compare(a.Name, b.Name) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Name == sorted[i-1].Name {
			return nil, errors.New(errors.PhaseConstruct, errors.KindDuplicateField).
				Detail("method %q appears more than once", sorted[i].Name).
				Build()
		}
	}
	return &Type{kind: KindService, methods: sorted}, nil
}

// Service is NewService that panics on a construction error.
func Service(methods ...Method) *Type {
	return must(NewService(methods...))
}

func sortFields(fields []Field) ([]Field, error) {
	sorted := slices.Clone(fields)
	slices.SortStableFunc(sorted, func(a, b Field) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	for i := range sorted {
		if sorted[i].Type == nil {
			return nil, errors.InvalidInput(errors.PhaseConstruct, fmt.Sprintf("field %d has nil type", sorted[i].ID))
		}
		if i > 0 && sorted[i].ID == sorted[i-1].ID {
			return nil, errors.DuplicateField(errors.PhaseConstruct, sorted[i].ID)
		}
	}
	return sorted, nil
}

func must(t *Type, err error) *Type {
	if err != nil {
		panic(err)
	}
	return t
}
