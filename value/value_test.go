package value

import (
	stderrors "errors"
	"math"
	"math/big"
	"testing"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/types"
)

func TestNatFromBigRejectsNegative(t *testing.T) {
	if _, err := NatFromBig(big.NewInt(-1)); err == nil {
		t.Fatal("expected error for negative nat")
	}
	n, err := NatFromBig(big.NewInt(42))
	if err != nil {
		t.Fatal(err)
	}
	if n.String() != "42" {
		t.Errorf("String() = %s", n)
	}
}

func TestBigCopies(t *testing.T) {
	src := big.NewInt(7)
	i := IntFromBig(src)
	src.SetInt64(9)
	if i.String() != "7" {
		t.Error("IntFromBig must copy its argument")
	}
	i.Big().SetInt64(11)
	if i.String() != "7" {
		t.Error("Big must return a copy")
	}
	var zeroNat Nat
	if zeroNat.String() != "0" || !Equal(zeroNat, NewNat(0)) {
		t.Error("zero Nat should equal NewNat(0)")
	}
}

func TestRecordFields(t *testing.T) {
	r := MustRecord(
		FieldValue{ID: 3, Value: Text("c")},
		FieldValue{ID: 1, Value: Text("a")},
	)
	if r.Fields()[0].ID != 1 {
		t.Errorf("fields not sorted: %v", r.Fields())
	}
	if v, ok := r.Field(3); !ok || v != Text("c") {
		t.Errorf("Field(3) = %v, %v", v, ok)
	}
	if _, ok := r.Field(2); ok {
		t.Error("Field(2) should be absent")
	}

	_, err := NewRecord(FieldValue{ID: 1, Value: Null{}}, FieldValue{ID: 1, Value: Null{}})
	if !stderrors.Is(err, errors.ErrDuplicateField) {
		t.Errorf("expected duplicate field, got %v", err)
	}
}

func TestBlob(t *testing.T) {
	b := Blob([]byte{1, 2, 255})
	if b.Len() != 3 || b.Elems()[2] != Nat8(255) {
		t.Fatalf("Blob = %v", b)
	}
	data, ok := b.Bytes()
	if !ok || string(data) != "\x01\x02\xff" {
		t.Errorf("Bytes() = %x, %v", data, ok)
	}
	if _, ok := NewVec(Nat8(1), Nat16(2)).Bytes(); ok {
		t.Error("mixed vector is not a blob")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nat", NewNat(5), NewNat(5), true},
		{"nat vs int", NewNat(5), NewInt(5), false},
		{"nan", Float64(math.NaN()), Float64(math.NaN()), true},
		{"signed zero", Float32(0), Float32(float32(math.Copysign(0, -1))), false},
		{"none vs some", None(), Some(Null{}), false},
		{"nested opt", Some(Some(NewNat(1))), Some(Some(NewNat(1))), true},
		{"vec", NewVec(Text("a")), NewVec(Text("a"), Text("b")), false},
		{"record", Tuple(Bool(true)), Tuple(Bool(true)), true},
		{"variant id", Variant{ID: 1, Value: Null{}}, Variant{ID: 2, Value: Null{}}, false},
		{"principal", NewPrincipal([]byte{1}), NewPrincipal([]byte{1}), true},
		{"func", Func{Service: NewPrincipal(nil), Method: "f"}, Func{Service: NewPrincipal(nil), Method: "g"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	person := types.Record(types.Label("name", types.TextType), types.Label("age", types.Opt(types.NatType)))

	tests := []struct {
		name    string
		v       Value
		typ     *types.Type
		wantErr bool
	}{
		{"nat", NewNat(1), types.NatType, false},
		{"nat as int", NewNat(1), types.IntType, true},
		{"anything is reserved", Text("x"), types.ReservedType, false},
		{"nothing is empty", Null{}, types.EmptyType, true},
		{"none", None(), types.Opt(types.TextType), false},
		{"some wrong payload", Some(NewNat(1)), types.Opt(types.TextType), true},
		{"vec", NewVec(Bool(true), Bool(false)), types.Vec(types.BoolType), false},
		{"vec bad elem", NewVec(Bool(true), Null{}), types.Vec(types.BoolType), true},
		{"record", MustRecord(Labeled("name", Text("ann")), Labeled("age", None())), person, false},
		{"record missing field", MustRecord(Labeled("name", Text("ann"))), person, true},
		{"variant", Variant{ID: 1, Value: NewInt(-1)}, types.Variant(types.Index(1, types.IntType)), false},
		{"variant unknown", Variant{ID: 2, Value: NewInt(-1)}, types.Variant(types.Index(1, types.IntType)), true},
		{"principal", NewPrincipal([]byte{4}), types.PrincipalType, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.v, tt.typ)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckRecursive(t *testing.T) {
	b := types.NewBuilder()
	l := b.Ref("list")
	b.Define("list", types.Opt(b.Record(types.Index(0, types.NatType), types.Index(1, l))))
	if err := b.Build(); err != nil {
		t.Fatal(err)
	}
	list, _ := b.Lookup("list")

	v := Some(Tuple(NewNat(1), Some(Tuple(NewNat(2), None()))))
	if err := Check(v, list); err != nil {
		t.Errorf("Check(list) = %v", err)
	}

	bad := Some(Tuple(NewNat(1), Some(Tuple(Text("x"), None()))))
	err := Check(bad, list)
	if !stderrors.Is(err, errors.ErrIncompatibleType) {
		t.Fatalf("expected incompatible, got %v", err)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || len(e.Path) != 4 {
		t.Errorf("path = %v", e.Path)
	}
}

func TestAbsent(t *testing.T) {
	tests := []struct {
		typ  *types.Type
		want Value
	}{
		{types.NullType, Null{}},
		{types.Opt(types.NatType), None()},
		{types.ReservedType, Reserved{}},
		{types.NatType, nil},
	}
	for _, tt := range tests {
		got, ok := Absent(tt.typ)
		if ok != (tt.want != nil) || !Equal(got, tt.want) {
			t.Errorf("Absent(%v) = %v, %v", tt.typ, got, ok)
		}
	}
}
