package value

import (
	"math/big"
	"slices"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/types"
)

// Value is an immutable datum. Its Kind names the type shape it was built
// for; an Opt value reports types.KindOpt whether present or absent.
type Value interface {
	Kind() types.Kind
}

type (
	Null     struct{}
	Reserved struct{}
	Bool     bool
	Nat8     uint8
	Nat16    uint16
	Nat32    uint32
	Nat64    uint64
	Int8     int8
	Int16    int16
	Int32    int32
	Int64    int64
	Float32  float32
	Float64  float64
	Text     string
)

func (Null) Kind() types.Kind     { return types.KindNull }
func (Reserved) Kind() types.Kind { return types.KindReserved }
func (Bool) Kind() types.Kind     { return types.KindBool }
func (Nat8) Kind() types.Kind     { return types.KindNat8 }
func (Nat16) Kind() types.Kind    { return types.KindNat16 }
func (Nat32) Kind() types.Kind    { return types.KindNat32 }
func (Nat64) Kind() types.Kind    { return types.KindNat64 }
func (Int8) Kind() types.Kind     { return types.KindInt8 }
func (Int16) Kind() types.Kind    { return types.KindInt16 }
func (Int32) Kind() types.Kind    { return types.KindInt32 }
func (Int64) Kind() types.Kind    { return types.KindInt64 }
func (Float32) Kind() types.Kind  { return types.KindFloat32 }
func (Float64) Kind() types.Kind  { return types.KindFloat64 }
func (Text) Kind() types.Kind     { return types.KindText }

// Nat is an arbitrary-precision natural number.
type Nat struct {
	v *big.Int
}

// NewNat returns the natural number n.
func NewNat(n uint64) Nat {
	return Nat{v: new(big.Int).SetUint64(n)}
}

// NatFromBig returns a copy of n as a natural number. Negative n is an error.
func NatFromBig(n *big.Int) (Nat, error) {
	if n.Sign() < 0 {
		return Nat{}, errors.InvalidInput(errors.PhaseEncode, "nat cannot be negative: "+n.String())
	}
	return Nat{v: new(big.Int).Set(n)}, nil
}

func (Nat) Kind() types.Kind { return types.KindNat }

// Big returns a copy of the number.
func (n Nat) Big() *big.Int {
	if n.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n.v)
}

func (n Nat) big() *big.Int {
	if n.v == nil {
		return zero
	}
	return n.v
}

func (n Nat) String() string { return n.big().String() }

// Int is an arbitrary-precision integer.
type Int struct {
	v *big.Int
}

// NewInt returns the integer i.
func NewInt(i int64) Int {
	return Int{v: big.NewInt(i)}
}

// IntFromBig returns a copy of i.
func IntFromBig(i *big.Int) Int {
	return Int{v: new(big.Int).Set(i)}
}

func (Int) Kind() types.Kind { return types.KindInt }

// Big returns a copy of the number.
func (i Int) Big() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i.v)
}

func (i Int) big() *big.Int {
	if i.v == nil {
		return zero
	}
	return i.v
}

func (i Int) String() string { return i.big().String() }

var zero = new(big.Int)

// Opt is a present or absent optional value.
type Opt struct {
	elem Value
}

// Some returns a present option holding v.
func Some(v Value) Opt { return Opt{elem: v} }

// None returns an absent option.
func None() Opt { return Opt{} }

func (Opt) Kind() types.Kind { return types.KindOpt }

// IsSome reports whether the option is present.
func (o Opt) IsSome() bool { return o.elem != nil }

// Elem returns the payload of a present option, nil when absent.
func (o Opt) Elem() Value { return o.elem }

// Vec is a sequence of values.
type Vec struct {
	elems []Value
}

// NewVec returns a vector of elems.
func NewVec(elems ...Value) Vec {
	return Vec{elems: slices.Clone(elems)}
}

// VecOf returns a vector that takes ownership of elems. The caller must not
// modify elems afterwards.
func VecOf(elems []Value) Vec {
	return Vec{elems: elems}
}

// Blob returns a vec nat8 holding data.
func Blob(data []byte) Vec {
	elems := make([]Value, len(data))
	for i, b := range data {
		elems[i] = Nat8(b)
	}
	return Vec{elems: elems}
}

func (Vec) Kind() types.Kind { return types.KindVec }

// Elems returns the elements. The slice must not be modified.
func (v Vec) Elems() []Value { return v.elems }

// Len returns the number of elements.
func (v Vec) Len() int { return len(v.elems) }

// Bytes returns the contents of a vec nat8. ok is false if any element is
// not a Nat8.
func (v Vec) Bytes() (data []byte, ok bool) {
	data = make([]byte, len(v.elems))
	for i, e := range v.elems {
		b, isByte := e.(Nat8)
		if !isByte {
			return nil, false
		}
		data[i] = byte(b)
	}
	return data, true
}

// FieldValue is one record entry.
type FieldValue struct {
	Value Value
	ID    uint32
}

// Record maps field ids to values.
type Record struct {
	fields []FieldValue
}

// NewRecord returns a record with the given fields sorted by id. A
// repeated id is an error.
func NewRecord(fields ...FieldValue) (Record, error) {
	sorted := slices.Clone(fields)
	slices.SortStableFunc(sorted, func(a, b FieldValue) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ID == sorted[i-1].ID {
			return Record{}, errors.DuplicateField(errors.PhaseEncode, sorted[i].ID)
		}
	}
	return Record{fields: sorted}, nil
}

// MustRecord is NewRecord that panics on a repeated id.
func MustRecord(fields ...FieldValue) Record {
	r, err := NewRecord(fields...)
	if err != nil {
		panic(err)
	}
	return r
}

// Tuple returns a record whose fields are numbered 0..n-1.
func Tuple(vals ...Value) Record {
	fields := make([]FieldValue, len(vals))
	for i, v := range vals {
		fields[i] = FieldValue{ID: uint32(i), Value: v}
	}
	return Record{fields: fields}
}

// Labeled returns a field whose id is the hash of name.
func Labeled(name string, v Value) FieldValue {
	return FieldValue{ID: types.FieldID(name), Value: v}
}

func (Record) Kind() types.Kind { return types.KindRecord }

// Fields returns the fields sorted by id. The slice must not be modified.
func (r Record) Fields() []FieldValue { return r.fields }

// Field returns the value of field id.
func (r Record) Field(id uint32) (Value, bool) {
	i, ok := slices.BinarySearchFunc(r.fields, id, func(f FieldValue, id uint32) int {
		switch {
		case f.ID < id:
			return -1
		case f.ID > id:
			return 1
		}
		return 0
	})
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// Variant is a single populated alternative.
type Variant struct {
	Value Value
	ID    uint32
}

func (Variant) Kind() types.Kind { return types.KindVariant }

// Principal is an opaque identity.
type Principal struct {
	id string
}

// NewPrincipal returns a principal for the given identity bytes.
func NewPrincipal(id []byte) Principal {
	return Principal{id: string(id)}
}

func (Principal) Kind() types.Kind { return types.KindPrincipal }

// Bytes returns a copy of the identity bytes.
func (p Principal) Bytes() []byte { return []byte(p.id) }

// Service references a service by the principal hosting it.
type Service struct {
	ID Principal
}

func (Service) Kind() types.Kind { return types.KindService }

// Func references a method on a service.
type Func struct {
	Service Principal
	Method  string
}

func (Func) Kind() types.Kind { return types.KindFunc }

// Absent returns the value that stands for a missing t: null, an absent
// option or reserved. ok is false when t is not opt-like.
func Absent(t *types.Type) (v Value, ok bool) {
	switch types.Normalize(t).Kind() {
	case types.KindNull:
		return Null{}, true
	case types.KindOpt:
		return None(), true
	case types.KindReserved:
		return Reserved{}, true
	}
	return nil, false
}
