package binding

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/types"
	"github.com/wippyai/candid/typetable"
	"github.com/wippyai/candid/value"
)

// Document is the exported form of an argument list.
type Document struct {
	Types  []TypeNode  `cbor:"types"`
	Args   []int64     `cbor:"args"`
	Values []ValueNode `cbor:"values"`
}

// TypeNode is one compound type.
type TypeNode struct {
	Kind        string       `cbor:"kind"`
	Elem        int64        `cbor:"elem,omitempty"`
	Fields      []FieldNode  `cbor:"fields,omitempty"`
	Params      []int64      `cbor:"params,omitempty"`
	Results     []int64      `cbor:"results,omitempty"`
	Annotations []string     `cbor:"annotations,omitempty"`
	Methods     []MethodNode `cbor:"methods,omitempty"`
}

// FieldNode is a record field or variant alternative.
type FieldNode struct {
	ID   uint32 `cbor:"id"`
	Name string `cbor:"name,omitempty"`
	Type int64  `cbor:"type"`
}

// MethodNode is a service method.
type MethodNode struct {
	Name string `cbor:"name"`
	Type int64  `cbor:"type"`
}

// ValueNode is one value. Which members are set depends on Kind: Big for
// nat and int, Uint and Int for the sized integers, Float for both float
// widths, Bytes for principals, Elems for opt (zero or one), vec and the
// variant payload, Fields for records. Func uses Bytes and Text.
type ValueNode struct {
	Kind   string           `cbor:"kind"`
	Big    *big.Int         `cbor:"big,omitempty"`
	Uint   uint64           `cbor:"uint,omitempty"`
	Int    int64            `cbor:"int,omitempty"`
	Float  *float64         `cbor:"float,omitempty"`
	Bool   bool             `cbor:"bool,omitempty"`
	Text   string           `cbor:"text,omitempty"`
	Bytes  []byte           `cbor:"bytes,omitempty"`
	ID     uint32           `cbor:"id,omitempty"`
	Elems  []ValueNode      `cbor:"elems,omitempty"`
	Fields []FieldValueNode `cbor:"fields,omitempty"`
}

// FieldValueNode is one record entry.
type FieldValueNode struct {
	ID    uint32    `cbor:"id"`
	Value ValueNode `cbor:"value"`
}

// Marshal exports args of the given types as deterministic CBOR.
func Marshal(argTypes []*types.Type, args []value.Value) ([]byte, error) {
	doc, err := Export(argTypes, args)
	if err != nil {
		return nil, err
	}
	data, err := encMode.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindUnsupportedType, err, "cbor marshal")
	}
	return data, nil
}

// Unmarshal reads a document written by Marshal.
func Unmarshal(data []byte) ([]*types.Type, []value.Value, error) {
	var doc Document
	if err := decMode.Unmarshal(data, &doc); err != nil {
		return nil, nil, errors.Wrap(errors.PhaseDecode, errors.KindMalformedValue, err, "cbor unmarshal")
	}
	return doc.Import()
}

// Export builds the document for args. Every value is checked against its
// type first.
func Export(argTypes []*types.Type, args []value.Value) (*Document, error) {
	if len(argTypes) != len(args) {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("argument count mismatch: %d types, %d values", len(argTypes), len(args)).
			Build()
	}
	for i, t := range argTypes {
		if t == nil {
			return nil, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("argument %d has nil type", i))
		}
		if err := value.Check(args[i], t); err != nil {
			return nil, errors.WithPath(err, "arg"+strconv.Itoa(i))
		}
	}
	tbl, err := typetable.Build(argTypes)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Types:  make([]TypeNode, len(tbl.Entries)),
		Args:   make([]int64, len(tbl.Args)),
		Values: make([]ValueNode, len(args)),
	}
	for i, e := range tbl.Entries {
		doc.Types[i] = exportType(tbl, e)
	}
	for i, a := range tbl.Args {
		doc.Args[i] = ref(tbl, a)
	}
	for i, v := range args {
		doc.Values[i] = exportValue(v)
	}
	return doc, nil
}

func ref(tbl *typetable.Table, t *types.Type) int64 {
	t = types.Normalize(t)
	if t.Kind().IsPrimitive() {
		op, _ := typetable.Opcode(t.Kind())
		return op
	}
	i, _ := tbl.IndexOf(t)
	return int64(i)
}

func exportType(tbl *typetable.Table, t *types.Type) TypeNode {
	n := TypeNode{Kind: t.Kind().String()}
	switch t.Kind() {
	case types.KindOpt, types.KindVec:
		n.Elem = ref(tbl, t.Elem())
	case types.KindRecord, types.KindVariant:
		n.Fields = make([]FieldNode, len(t.Fields()))
		for i, f := range t.Fields() {
			n.Fields[i] = FieldNode{ID: f.ID, Name: f.Name, Type: ref(tbl, f.Type)}
		}
	case types.KindFunc:
		n.Params = refs(tbl, t.Params())
		n.Results = refs(tbl, t.Results())
		for _, a := range t.Annotations() {
			n.Annotations = append(n.Annotations, a.String())
		}
	case types.KindService:
		n.Methods = make([]MethodNode, len(t.Methods()))
		for i, m := range t.Methods() {
			n.Methods[i] = MethodNode{Name: m.Name, Type: ref(tbl, m.Type)}
		}
	}
	return n
}

func refs(tbl *typetable.Table, ts []*types.Type) []int64 {
	if len(ts) == 0 {
		return nil
	}
	out := make([]int64, len(ts))
	for i, t := range ts {
		out[i] = ref(tbl, t)
	}
	return out
}

func exportValue(v value.Value) ValueNode {
	n := ValueNode{Kind: v.Kind().String()}
	switch x := v.(type) {
	case value.Bool:
		n.Bool = bool(x)
	case value.Nat:
		n.Big = x.Big()
	case value.Int:
		n.Big = x.Big()
	case value.Nat8:
		n.Uint = uint64(x)
	case value.Nat16:
		n.Uint = uint64(x)
	case value.Nat32:
		n.Uint = uint64(x)
	case value.Nat64:
		n.Uint = uint64(x)
	case value.Int8:
		n.Int = int64(x)
	case value.Int16:
		n.Int = int64(x)
	case value.Int32:
		n.Int = int64(x)
	case value.Int64:
		n.Int = int64(x)
	case value.Float32:
		f := float64(x)
		n.Float = &f
	case value.Float64:
		f := float64(x)
		n.Float = &f
	case value.Text:
		n.Text = string(x)
	case value.Principal:
		n.Bytes = x.Bytes()
	case value.Service:
		n.Bytes = x.ID.Bytes()
	case value.Func:
		n.Bytes = x.Service.Bytes()
		n.Text = x.Method
	case value.Opt:
		if x.IsSome() {
			n.Elems = []ValueNode{exportValue(x.Elem())}
		}
	case value.Vec:
		if data, ok := x.Bytes(); ok && x.Len() > 0 {
			// blobs travel as one byte string
			n.Bytes = data
			break
		}
		n.Elems = make([]ValueNode, x.Len())
		for i, e := range x.Elems() {
			n.Elems[i] = exportValue(e)
		}
	case value.Record:
		n.Fields = make([]FieldValueNode, len(x.Fields()))
		for i, f := range x.Fields() {
			n.Fields[i] = FieldValueNode{ID: f.ID, Value: exportValue(f.Value)}
		}
	case value.Variant:
		n.ID = x.ID
		n.Elems = []ValueNode{exportValue(x.Value)}
	}
	return n
}

// Import rebuilds the argument types and values. The values are checked
// against the types, so a document that passes describes a well-typed
// argument list.
func (d *Document) Import() ([]*types.Type, []value.Value, error) {
	if len(d.Args) != len(d.Values) {
		return nil, nil, errors.MalformedValue(nil,
			fmt.Sprintf("%d argument types, %d values", len(d.Args), len(d.Values)))
	}
	entries, err := d.importTypes()
	if err != nil {
		return nil, nil, err
	}

	argTypes := make([]*types.Type, len(d.Args))
	for i, r := range d.Args {
		if p, ok := typetable.Primitive(r); ok {
			argTypes[i] = p
			continue
		}
		if r < 0 || r >= int64(len(entries)) {
			return nil, nil, errors.MalformedTable("argument %d refers to type %d of %d", i, r, len(entries))
		}
		argTypes[i] = entries[r]
	}

	vals := make([]value.Value, len(d.Values))
	for i, n := range d.Values {
		path := []string{"arg" + strconv.Itoa(i)}
		v, err := importValue(n, path)
		if err != nil {
			return nil, nil, err
		}
		if err := value.Check(v, argTypes[i]); err != nil {
			return nil, nil, errors.WithPath(err, path...)
		}
		vals[i] = v
	}
	return argTypes, vals, nil
}

func (d *Document) importTypes() ([]*types.Type, error) {
	b := types.NewBuilder()
	resolve := func(r int64) (*types.Type, error) {
		if p, ok := typetable.Primitive(r); ok {
			return p, nil
		}
		if r < 0 || r >= int64(len(d.Types)) {
			return nil, errors.MalformedTable("type reference %d out of range, document has %d types", r, len(d.Types))
		}
		return b.Ref(strconv.FormatInt(r, 10)), nil
	}
	resolveAll := func(rs []int64) ([]*types.Type, error) {
		ts := make([]*types.Type, len(rs))
		for i, r := range rs {
			t, err := resolve(r)
			if err != nil {
				return nil, err
			}
			ts[i] = t
		}
		return ts, nil
	}

	entries := make([]*types.Type, len(d.Types))
	for i, n := range d.Types {
		var t *types.Type
		switch n.Kind {
		case "opt", "vec":
			elem, err := resolve(n.Elem)
			if err != nil {
				return nil, err
			}
			if n.Kind == "opt" {
				t = types.Opt(elem)
			} else {
				t = types.Vec(elem)
			}
		case "record", "variant":
			fields := make([]types.Field, len(n.Fields))
			for j, f := range n.Fields {
				ft, err := resolve(f.Type)
				if err != nil {
					return nil, err
				}
				fields[j] = types.Field{ID: f.ID, Name: f.Name, Type: ft}
			}
			if n.Kind == "record" {
				t = b.Record(fields...)
			} else {
				t = b.Variant(fields...)
			}
		case "func":
			params, err := resolveAll(n.Params)
			if err != nil {
				return nil, err
			}
			results, err := resolveAll(n.Results)
			if err != nil {
				return nil, err
			}
			anns := make([]types.Annotation, len(n.Annotations))
			for j, name := range n.Annotations {
				a, ok := parseAnnotation(name)
				if !ok {
					return nil, errors.MalformedTable("unknown annotation %q", name)
				}
				anns[j] = a
			}
			t = types.Func(params, results, anns...)
		case "service":
			methods := make([]types.Method, len(n.Methods))
			for j, m := range n.Methods {
				if m.Type < 0 || m.Type >= int64(len(d.Types)) || d.Types[m.Type].Kind != "func" {
					return nil, errors.MalformedTable("method %q must refer to a function type", m.Name)
				}
				mt, err := resolve(m.Type)
				if err != nil {
					return nil, err
				}
				methods[j] = types.Method{Name: m.Name, Type: mt}
			}
			t = b.Service(methods...)
		default:
			return nil, errors.MalformedTable("type %d has unknown compound kind %q", i, n.Kind)
		}
		entries[i] = b.Define(strconv.Itoa(i), t)
	}
	if err := b.Build(); err != nil {
		return nil, errors.Wrap(errors.PhaseTable, errors.KindMalformedTypeTable, err, "document does not form a type graph")
	}
	return entries, nil
}

func parseAnnotation(name string) (types.Annotation, bool) {
	for _, a := range []types.Annotation{types.Query, types.Oneway, types.CompositeQuery} {
		if a.String() == name {
			return a, true
		}
	}
	return 0, false
}

func importValue(n ValueNode, path []string) (value.Value, error) {
	switch n.Kind {
	case "null":
		return value.Null{}, nil
	case "reserved":
		return value.Reserved{}, nil
	case "bool":
		return value.Bool(n.Bool), nil
	case "nat":
		if n.Big == nil {
			return value.NewNat(0), nil
		}
		v, err := value.NatFromBig(n.Big)
		if err != nil {
			return nil, errors.WithPath(err, path...)
		}
		return v, nil
	case "int":
		if n.Big == nil {
			return value.NewInt(0), nil
		}
		return value.IntFromBig(n.Big), nil
	case "nat8", "nat16", "nat32", "nat64":
		return importUint(n, path)
	case "int8", "int16", "int32", "int64":
		return importInt(n, path)
	case "float32", "float64":
		if n.Float == nil {
			return nil, errors.MalformedValue(path, n.Kind+" without a number")
		}
		if n.Kind == "float32" {
			return value.Float32(float32(*n.Float)), nil
		}
		return value.Float64(*n.Float), nil
	case "text":
		return value.Text(n.Text), nil
	case "principal":
		return value.NewPrincipal(n.Bytes), nil
	case "service":
		return value.Service{ID: value.NewPrincipal(n.Bytes)}, nil
	case "func":
		return value.Func{Service: value.NewPrincipal(n.Bytes), Method: n.Text}, nil
	case "opt":
		switch len(n.Elems) {
		case 0:
			return value.None(), nil
		case 1:
			e, err := importValue(n.Elems[0], append(path, "?"))
			if err != nil {
				return nil, err
			}
			return value.Some(e), nil
		}
		return nil, errors.MalformedValue(path, fmt.Sprintf("option holds %d values", len(n.Elems)))
	case "vec":
		if len(n.Bytes) > 0 {
			return value.Blob(n.Bytes), nil
		}
		elems := make([]value.Value, len(n.Elems))
		for i, e := range n.Elems {
			v, err := importValue(e, append(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.NewVec(elems...), nil
	case "record":
		fields := make([]value.FieldValue, len(n.Fields))
		for i, f := range n.Fields {
			v, err := importValue(f.Value, append(path, strconv.FormatUint(uint64(f.ID), 10)))
			if err != nil {
				return nil, err
			}
			fields[i] = value.FieldValue{ID: f.ID, Value: v}
		}
		rec, err := value.NewRecord(fields...)
		if err != nil {
			return nil, errors.WithPath(err, path...)
		}
		return rec, nil
	case "variant":
		if len(n.Elems) != 1 {
			return nil, errors.MalformedValue(path, "variant must hold exactly one payload")
		}
		payload, err := importValue(n.Elems[0], append(path, strconv.FormatUint(uint64(n.ID), 10)))
		if err != nil {
			return nil, err
		}
		return value.Variant{ID: n.ID, Value: payload}, nil
	}
	return nil, errors.MalformedValue(path, fmt.Sprintf("unknown value kind %q", n.Kind))
}

func importUint(n ValueNode, path []string) (value.Value, error) {
	var max uint64
	switch n.Kind {
	case "nat8":
		max = math.MaxUint8
	case "nat16":
		max = math.MaxUint16
	case "nat32":
		max = math.MaxUint32
	default:
		return value.Nat64(n.Uint), nil
	}
	if n.Uint > max {
		return nil, errors.MalformedValue(path, fmt.Sprintf("%d out of range for %s", n.Uint, n.Kind))
	}
	switch n.Kind {
	case "nat8":
		return value.Nat8(n.Uint), nil
	case "nat16":
		return value.Nat16(n.Uint), nil
	}
	return value.Nat32(n.Uint), nil
}

func importInt(n ValueNode, path []string) (value.Value, error) {
	var lo, hi int64
	switch n.Kind {
	case "int8":
		lo, hi = math.MinInt8, math.MaxInt8
	case "int16":
		lo, hi = math.MinInt16, math.MaxInt16
	case "int32":
		lo, hi = math.MinInt32, math.MaxInt32
	default:
		return value.Int64(n.Int), nil
	}
	if n.Int < lo || n.Int > hi {
		return nil, errors.MalformedValue(path, fmt.Sprintf("%d out of range for %s", n.Int, n.Kind))
	}
	switch n.Kind {
	case "int8":
		return value.Int8(n.Int), nil
	case "int16":
		return value.Int16(n.Int), nil
	}
	return value.Int32(n.Int), nil
}
