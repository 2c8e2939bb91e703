package typetable

import (
	stderrors "errors"
	"io"
	"strconv"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/internal/binary"
	"github.com/wippyai/candid/types"
)

const (
	DefaultMaxTableSize = 10000
	DefaultMaxArgs      = 10000
)

// Limits bound the work Read will do on untrusted input.
type Limits struct {
	MaxTableSize int
	MaxArgs      int
}

// DefaultLimits returns the limits used when none are given.
func DefaultLimits() Limits {
	return Limits{MaxTableSize: DefaultMaxTableSize, MaxArgs: DefaultMaxArgs}
}

// entry is a table slot as found on the wire, before child indices are
// turned into nodes.
type entry struct {
	fields  []wireField
	methods []wireMethod
	params  []int64
	results []int64
	anns    []types.Annotation
	elem    int64
	op      int64
}

type wireField struct {
	id  uint32
	ref int64
}

type wireMethod struct {
	name string
	ref  int64
}

// Read parses the magic, the type table and the argument list at the start
// of data. It returns the table and the number of bytes consumed. Every
// failure is a malformed type table error.
//
// Slots are read in two passes: the first records each descriptor with its
// raw child indices, the second creates one placeholder per slot and binds
// it, so a descriptor may refer to any slot including itself.
func Read(data []byte, lim Limits) (*Table, int, error) {
	r := binary.NewReader(data)
	magic, err := r.ReadBytes(len(Magic))
	if err != nil || string(magic) != Magic {
		return nil, 0, errors.MalformedTable("missing %q magic", Magic)
	}

	n, err := r.ReadU64()
	if err != nil {
		return nil, 0, truncated(r, "table length", err)
	}
	if n > uint64(lim.MaxTableSize) {
		return nil, 0, errors.MalformedTable("table has %d entries, limit is %d", n, lim.MaxTableSize)
	}
	if n > uint64(r.Len()) {
		return nil, 0, errors.MalformedTable("table length %d exceeds remaining input", n)
	}

	entries := make([]entry, n)
	for i := range entries {
		if err := readEntry(r, &entries[i]); err != nil {
			return nil, 0, errors.WithPath(err, "type"+strconv.Itoa(i))
		}
	}

	argc, err := r.ReadU64()
	if err != nil {
		return nil, 0, truncated(r, "argument count", err)
	}
	if argc > uint64(lim.MaxArgs) {
		return nil, 0, errors.MalformedTable("%d arguments, limit is %d", argc, lim.MaxArgs)
	}
	if argc > uint64(r.Len()) {
		return nil, 0, errors.MalformedTable("argument count %d exceeds remaining input", argc)
	}
	argRefs := make([]int64, argc)
	for i := range argRefs {
		if argRefs[i], err = r.ReadS64(); err != nil {
			return nil, 0, truncated(r, "argument type", err)
		}
	}

	tbl, err := link(entries, argRefs)
	if err != nil {
		return nil, 0, err
	}
	return tbl, r.Position(), nil
}

func readEntry(r *binary.Reader, e *entry) error {
	op, err := r.ReadS64()
	if err != nil {
		return truncated(r, "opcode", err)
	}
	e.op = op
	switch op {
	case OpOpt, OpVec:
		if e.elem, err = r.ReadS64(); err != nil {
			return truncated(r, "element type", err)
		}
	case OpRecord, OpVariant:
		count, err := readCount(r, "field count")
		if err != nil {
			return err
		}
		e.fields = make([]wireField, count)
		for i := range e.fields {
			id, err := r.ReadU32()
			if err != nil {
				return truncated(r, "field id", err)
			}
			if i > 0 && id <= e.fields[i-1].id {
				if id == e.fields[i-1].id {
					return errors.MalformedTable("duplicate field id %d", id)
				}
				return errors.MalformedTable("field id %d follows %d", id, e.fields[i-1].id)
			}
			ref, err := r.ReadS64()
			if err != nil {
				return truncated(r, "field type", err)
			}
			e.fields[i] = wireField{id: id, ref: ref}
		}
	case OpFunc:
		if e.params, err = readRefs(r, "parameter"); err != nil {
			return err
		}
		if e.results, err = readRefs(r, "result"); err != nil {
			return err
		}
		count, err := readCount(r, "annotation count")
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			b, err := r.ReadByte()
			if err != nil {
				return truncated(r, "annotation", err)
			}
			a := types.Annotation(b)
			if a != types.Query && a != types.Oneway && a != types.CompositeQuery {
				return errors.MalformedTable("unknown function annotation %d", b)
			}
			e.anns = append(e.anns, a)
		}
	case OpService:
		count, err := readCount(r, "method count")
		if err != nil {
			return err
		}
		e.methods = make([]wireMethod, count)
		for i := range e.methods {
			name, err := r.ReadText()
			if err != nil {
				return truncated(r, "method name", err)
			}
			if i > 0 && name <= e.methods[i-1].name {
				return errors.MalformedTable("method %q is duplicate or out of order", name)
			}
			ref, err := r.ReadS64()
			if err != nil {
				return truncated(r, "method type", err)
			}
			e.methods[i] = wireMethod{name: name, ref: ref}
		}
	default:
		return errors.MalformedTable("opcode %d cannot start a table entry", op)
	}
	return nil
}

func readCount(r *binary.Reader, what string) (int, error) {
	n, err := r.ReadU64()
	if err != nil {
		return 0, truncated(r, what, err)
	}
	// every counted item takes at least one byte
	if n > uint64(r.Len()) {
		return 0, errors.MalformedTable("%s %d exceeds remaining input", what, n)
	}
	return int(n), nil
}

func readRefs(r *binary.Reader, what string) ([]int64, error) {
	n, err := readCount(r, what+" count")
	if err != nil {
		return nil, err
	}
	refs := make([]int64, n)
	for i := range refs {
		if refs[i], err = r.ReadS64(); err != nil {
			return nil, truncated(r, what, err)
		}
	}
	return refs, nil
}

// link binds every slot to a node. Child indices become references resolved
// by a types.Builder, which is the second pass of Read.
func link(entries []entry, argRefs []int64) (*Table, error) {
	b := types.NewBuilder()
	resolve := func(ref int64) (*types.Type, error) {
		if p, ok := Primitive(ref); ok {
			return p, nil
		}
		if ref < 0 {
			return nil, errors.MalformedTable("unknown primitive opcode %d", ref)
		}
		if ref >= int64(len(entries)) {
			return nil, errors.MalformedTable("type index %d out of range, table has %d entries", ref, len(entries))
		}
		return b.Ref(strconv.FormatInt(ref, 10)), nil
	}
	resolveAll := func(refs []int64) ([]*types.Type, error) {
		ts := make([]*types.Type, len(refs))
		for i, ref := range refs {
			t, err := resolve(ref)
			if err != nil {
				return nil, err
			}
			ts[i] = t
		}
		return ts, nil
	}

	tbl := &Table{index: make(map[*types.Type]int, len(entries))}
	for i, e := range entries {
		var t *types.Type
		switch e.op {
		case OpOpt, OpVec:
			elem, err := resolve(e.elem)
			if err != nil {
				return nil, err
			}
			if e.op == OpOpt {
				t = types.Opt(elem)
			} else {
				t = types.Vec(elem)
			}
		case OpRecord, OpVariant:
			fields := make([]types.Field, len(e.fields))
			for j, f := range e.fields {
				ft, err := resolve(f.ref)
				if err != nil {
					return nil, err
				}
				fields[j] = types.Index(f.id, ft)
			}
			if e.op == OpRecord {
				t = b.Record(fields...)
			} else {
				t = b.Variant(fields...)
			}
		case OpFunc:
			params, err := resolveAll(e.params)
			if err != nil {
				return nil, err
			}
			results, err := resolveAll(e.results)
			if err != nil {
				return nil, err
			}
			t = types.Func(params, results, e.anns...)
		case OpService:
			methods := make([]types.Method, len(e.methods))
			for j, m := range e.methods {
				if m.ref < 0 || m.ref >= int64(len(entries)) || entries[m.ref].op != OpFunc {
					return nil, errors.MalformedTable("method %q must refer to a function entry", m.name)
				}
				mt, err := resolve(m.ref)
				if err != nil {
					return nil, err
				}
				methods[j] = types.Method{Name: m.name, Type: mt}
			}
			t = b.Service(methods...)
		}
		b.Define(strconv.Itoa(i), t)
		tbl.index[t] = i
		tbl.Entries = append(tbl.Entries, t)
	}
	if err := b.Build(); err != nil {
		return nil, errors.Wrap(errors.PhaseTable, errors.KindMalformedTypeTable, err, "table does not form a type graph")
	}

	for _, ref := range argRefs {
		if p, ok := Primitive(ref); ok {
			tbl.Args = append(tbl.Args, p)
			continue
		}
		if ref < 0 || ref >= int64(len(entries)) {
			return nil, errors.MalformedTable("argument type %d out of range, table has %d entries", ref, len(entries))
		}
		tbl.Args = append(tbl.Args, tbl.Entries[ref])
	}
	return tbl, nil
}

func truncated(r *binary.Reader, what string, err error) error {
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.MalformedTable("truncated %s at byte %d", what, r.Position())
	}
	return errors.Wrap(errors.PhaseTable, errors.KindMalformedTypeTable, err, "invalid "+what)
}
