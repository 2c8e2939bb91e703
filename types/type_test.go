package types

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/candid/errors"
)

func TestFieldID(t *testing.T) {
	tests := []struct {
		name string
		want uint32
	}{
		{"", 0},
		{"a", 97},
		{"foo", 5097222},
		{"name", 1224700491},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FieldID(tt.name); got != tt.want {
				t.Errorf("FieldID(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestRecordSortsFields(t *testing.T) {
	rec := Record(Index(5, TextType), Index(1, NatType), Index(3, BoolType))

	var ids []uint32
	for _, f := range rec.Fields() {
		ids = append(ids, f.ID)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 3 || ids[2] != 5 {
		t.Errorf("field ids = %v, want [1 3 5]", ids)
	}

	f, ok := rec.Field(3)
	if !ok || f.Type != BoolType {
		t.Errorf("Field(3) = %v, %v", f, ok)
	}
	if _, ok := rec.Field(4); ok {
		t.Error("Field(4) should be absent")
	}
}

func TestDuplicateFieldIsConstructionError(t *testing.T) {
	_, err := NewRecord(Index(1, NatType), Index(1, TextType))
	if !stderrors.Is(err, errors.ErrDuplicateField) {
		t.Fatalf("expected duplicate field error, got %v", err)
	}
	if !errors.IsConstruction(err) {
		t.Error("duplicate field must be reported in the construct phase")
	}

	_, err = NewVariant(Label("a", NatType), Label("a", NatType))
	if !stderrors.Is(err, errors.ErrDuplicateField) {
		t.Fatalf("expected duplicate alternative error, got %v", err)
	}

	_, err = NewService(
		Method{Name: "get", Type: Func(nil, nil)},
		Method{Name: "get", Type: Func(nil, nil, Query)},
	)
	if !stderrors.Is(err, errors.ErrDuplicateField) {
		t.Fatalf("expected duplicate method error, got %v", err)
	}
}

func TestRecordPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Record with duplicate ids should panic")
		}
	}()
	Record(Index(0, NatType), Index(0, NatType))
}

func TestFuncAnnotationsCanonical(t *testing.T) {
	f := Func([]*Type{NatType}, nil, Oneway, Query, Oneway)
	anns := f.Annotations()
	if len(anns) != 2 || anns[0] != Query || anns[1] != Oneway {
		t.Errorf("annotations = %v, want [query oneway]", anns)
	}
}

func TestServiceMethodLookup(t *testing.T) {
	svc := Service(
		Method{Name: "put", Type: Func([]*Type{TextType}, nil)},
		Method{Name: "get", Type: Func(nil, []*Type{TextType}, Query)},
	)
	if svc.Methods()[0].Name != "get" {
		t.Errorf("methods not sorted: %v", svc.Methods())
	}
	if _, ok := svc.Method("put"); !ok {
		t.Error("Method(put) not found")
	}
	if _, ok := svc.Method("del"); ok {
		t.Error("Method(del) should be absent")
	}
}

func TestTupleAndBlob(t *testing.T) {
	tup := Tuple(NatType, TextType)
	if tup.Kind() != KindRecord || len(tup.Fields()) != 2 || tup.Fields()[1].ID != 1 {
		t.Errorf("Tuple = %v", tup)
	}
	if b := Blob(); b.Kind() != KindVec || b.Elem() != Nat8Type {
		t.Errorf("Blob = %v", b)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		typ  *Type
		want string
	}{
		{NatType, "nat"},
		{Opt(Vec(TextType)), "opt vec text"},
		{Record(Label("name", TextType)), "record { name : text }"},
		{Variant(Index(0, NullType), Index(1, IntType)), "variant { 0 : null; 1 : int }"},
		{Func([]*Type{NatType}, []*Type{TextType}, Query), "func (nat) -> (text) query"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPrimitive(t *testing.T) {
	if Primitive(KindText) != TextType {
		t.Error("Primitive(KindText) should be TextType")
	}
	if Primitive(KindOpt) != nil {
		t.Error("Primitive(KindOpt) should be nil")
	}
}
