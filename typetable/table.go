package typetable

import (
	"fmt"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/internal/binary"
	"github.com/wippyai/candid/types"
)

// Table is a type table together with the argument list it describes.
//
// Entries holds one node per table slot, in index order. Args holds the
// argument types; primitive arguments are the shared primitive nodes and
// take no slot.
type Table struct {
	index   map[*types.Type]int
	Entries []*types.Type
	Args    []*types.Type
}

// Len returns the number of table entries.
func (t *Table) Len() int { return len(t.Entries) }

// IndexOf returns the slot of a compound type, following references.
func (t *Table) IndexOf(typ *types.Type) (int, bool) {
	i, ok := t.index[types.Normalize(typ)]
	return i, ok
}

// Build lays out a table for args. Slots are allocated in pre-order, visiting
// record and variant fields in id order and service methods in name order.
// A compound node that is structurally equal to one already allocated shares
// its slot, so equal argument lists produce identical tables however their
// graphs were built.
//
// Pre-order means a parent's entry precedes its children's, so even
// non-recursive children are forward references (record { 0 : vec nat }
// is entry 0 pointing at entry 1). Read accepts references in either
// direction, and the layout matches what other encoders of this wire format
// emit, at the cost of not being a strict post-order.
func Build(args []*types.Type) (*Table, error) {
	b := &builder{
		tbl:     &Table{index: make(map[*types.Type]int)},
		buckets: make(map[types.Digest][]*types.Type),
	}
	for i, a := range args {
		if err := b.visit(a); err != nil {
			return nil, errors.WithPath(err, fmt.Sprintf("arg%d", i))
		}
		b.tbl.Args = append(b.tbl.Args, types.Normalize(a))
	}
	return b.tbl, nil
}

type builder struct {
	tbl     *Table
	buckets map[types.Digest][]*types.Type
}

func (b *builder) visit(t *types.Type) error {
	if t == nil {
		return errors.InvalidInput(errors.PhaseConstruct, "nil type")
	}
	t = types.Normalize(t)
	if t.Kind() == types.KindRef {
		return errors.DanglingReference(t.Name())
	}
	if t.Kind().IsPrimitive() {
		return nil
	}
	if _, ok := b.tbl.index[t]; ok {
		return nil
	}

	d := types.Hash(t)
	for _, c := range b.buckets[d] {
		if types.Equal(t, c) {
			b.tbl.index[t] = b.tbl.index[c]
			return nil
		}
	}
	b.tbl.index[t] = len(b.tbl.Entries)
	b.tbl.Entries = append(b.tbl.Entries, t)
	b.buckets[d] = append(b.buckets[d], t)

	switch t.Kind() {
	case types.KindOpt, types.KindVec:
		return b.visit(t.Elem())
	case types.KindRecord, types.KindVariant:
		for _, f := range t.Fields() {
			if err := b.visit(f.Type); err != nil {
				return errors.WithPath(err, fieldName(f))
			}
		}
	case types.KindFunc:
		for _, p := range t.Params() {
			if err := b.visit(p); err != nil {
				return err
			}
		}
		for _, r := range t.Results() {
			if err := b.visit(r); err != nil {
				return err
			}
		}
	case types.KindService:
		for _, m := range t.Methods() {
			if types.Normalize(m.Type).Kind() != types.KindFunc {
				return errors.New(errors.PhaseConstruct, errors.KindInvalidInput).
					Path(m.Name).
					Detail("service method must have a function type, got %s", m.Type).
					Build()
			}
			if err := b.visit(m.Type); err != nil {
				return errors.WithPath(err, m.Name)
			}
		}
	}
	return nil
}

// AppendBinary appends the magic, the table and the argument list to buf.
func (t *Table) AppendBinary(buf []byte) []byte {
	w := binary.NewWriter()
	w.WriteBytes([]byte(Magic))
	w.WriteU64(uint64(len(t.Entries)))
	for _, e := range t.Entries {
		t.writeEntry(w, e)
	}
	w.WriteU64(uint64(len(t.Args)))
	for _, a := range t.Args {
		w.WriteS64(t.ref(a))
	}
	return append(buf, w.Bytes()...)
}

func (t *Table) writeEntry(w *binary.Writer, e *types.Type) {
	op, _ := Opcode(e.Kind())
	w.WriteS64(op)
	switch e.Kind() {
	case types.KindOpt, types.KindVec:
		w.WriteS64(t.ref(e.Elem()))
	case types.KindRecord, types.KindVariant:
		w.WriteU64(uint64(len(e.Fields())))
		for _, f := range e.Fields() {
			w.WriteU64(uint64(f.ID))
			w.WriteS64(t.ref(f.Type))
		}
	case types.KindFunc:
		t.writeRefs(w, e.Params())
		t.writeRefs(w, e.Results())
		w.WriteU64(uint64(len(e.Annotations())))
		for _, a := range e.Annotations() {
			w.Byte(byte(a))
		}
	case types.KindService:
		w.WriteU64(uint64(len(e.Methods())))
		for _, m := range e.Methods() {
			w.WriteText(m.Name)
			w.WriteS64(t.ref(m.Type))
		}
	}
}

func (t *Table) writeRefs(w *binary.Writer, ts []*types.Type) {
	w.WriteU64(uint64(len(ts)))
	for _, c := range ts {
		w.WriteS64(t.ref(c))
	}
}

// ref returns the opcode of a primitive or the slot of a compound type.
func (t *Table) ref(typ *types.Type) int64 {
	typ = types.Normalize(typ)
	if typ.Kind().IsPrimitive() {
		op, _ := Opcode(typ.Kind())
		return op
	}
	return int64(t.index[typ])
}

func fieldName(f types.Field) string {
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprint(f.ID)
}
