package types

import (
	"strconv"
	"strings"
)

// maxStringDepth bounds rendering of cyclic graphs.
const maxStringDepth = 8

// String renders t in interface-definition syntax for diagnostics. Named
// references print by name; anonymous cycles are cut off with "…".
func (t *Type) String() string {
	var b strings.Builder
	writeType(&b, t, 0)
	return b.String()
}

func writeType(b *strings.Builder, t *Type, depth int) {
	if t == nil {
		b.WriteString("<nil>")
		return
	}
	if t.kind == KindRef {
		b.WriteString(t.name)
		return
	}
	if t.kind.IsPrimitive() {
		b.WriteString(t.kind.String())
		return
	}
	if depth >= maxStringDepth {
		b.WriteString("…")
		return
	}
	switch t.kind {
	case KindOpt, KindVec:
		b.WriteString(t.kind.String())
		b.WriteByte(' ')
		writeType(b, t.elem, depth+1)
	case KindRecord, KindVariant:
		b.WriteString(t.kind.String())
		b.WriteString(" {")
		for i, f := range t.fields {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteByte(' ')
			if f.Name != "" {
				b.WriteString(f.Name)
			} else {
				b.WriteString(strconv.FormatUint(uint64(f.ID), 10))
			}
			b.WriteString(" : ")
			writeType(b, f.Type, depth+1)
		}
		b.WriteString(" }")
	case KindFunc:
		b.WriteString("func ")
		writeTuple(b, t.params, depth)
		b.WriteString(" -> ")
		writeTuple(b, t.results, depth)
		for _, a := range t.annotations {
			b.WriteByte(' ')
			b.WriteString(a.String())
		}
	case KindService:
		b.WriteString("service {")
		for i, m := range t.methods {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteByte(' ')
			b.WriteString(strconv.Quote(m.Name))
			b.WriteString(" : ")
			writeType(b, m.Type, depth+1)
		}
		b.WriteString(" }")
	}
}

func writeTuple(b *strings.Builder, ts []*Type, depth int) {
	b.WriteByte('(')
	for i, t := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		writeType(b, t, depth+1)
	}
	b.WriteByte(')')
}
