package types

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// HashDepth is how many levels of the unfolding contribute to a Digest.
const HashDepth = 6

// Digest is a canonical structural hash of a type. Equal types always have
// equal digests; distinct types usually differ but may collide past
// HashDepth, so a matching digest must be confirmed with Equal.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// typeDomainKey separates type digests from any other BLAKE3 keyed hash.
var typeDomainKey = [32]byte{
	'c', 'a', 'n', 'd', 'i', 'd', '.', 't', 'y', 'p', 'e', '.',
	'd', 'i', 'g', 'e', 's', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Hash returns the canonical digest of t. It depends only on the unfolding
// of t, so structurally equal graphs built independently hash the same.
func Hash(t *Type) Digest {
	hasher, err := blake3.NewKeyed(typeDomainKey[:])
	if err != nil {
		panic("types: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	h := &digester{hasher: hasher, memo: make(map[digestKey]Digest)}
	return h.digest(t, HashDepth)
}

type digestKey struct {
	t     *Type
	depth int
}

type digester struct {
	hasher *blake3.Hasher
	memo   map[digestKey]Digest
}

func (h *digester) digest(t *Type, depth int) Digest {
	t = Normalize(t)
	key := digestKey{t, depth}
	if d, ok := h.memo[key]; ok {
		return d
	}

	buf := []byte{byte(t.kind)}
	switch {
	case t.kind == KindRef:
		buf = append(buf, t.name...)
	case t.kind.IsPrimitive():
	case depth == 0:
		buf = append(buf, 0xff)
	default:
		buf = h.appendChildren(buf, t, depth-1)
	}

	h.hasher.Reset()
	h.hasher.Write(buf)
	var d Digest
	copy(d[:], h.hasher.Sum(nil))
	h.memo[key] = d
	return d
}

func (h *digester) appendChildren(buf []byte, t *Type, depth int) []byte {
	appendDigest := func(buf []byte, c *Type) []byte {
		d := h.digest(c, depth)
		return append(buf, d[:]...)
	}
	switch t.kind {
	case KindOpt, KindVec:
		buf = appendDigest(buf, t.elem)
	case KindRecord, KindVariant:
		buf = binary.AppendUvarint(buf, uint64(len(t.fields)))
		for _, f := range t.fields {
			buf = binary.AppendUvarint(buf, uint64(f.ID))
			buf = appendDigest(buf, f.Type)
		}
	case KindFunc:
		buf = binary.AppendUvarint(buf, uint64(len(t.params)))
		for _, p := range t.params {
			buf = appendDigest(buf, p)
		}
		buf = binary.AppendUvarint(buf, uint64(len(t.results)))
		for _, r := range t.results {
			buf = appendDigest(buf, r)
		}
		buf = binary.AppendUvarint(buf, uint64(len(t.annotations)))
		for _, a := range t.annotations {
			buf = append(buf, byte(a))
		}
	case KindService:
		buf = binary.AppendUvarint(buf, uint64(len(t.methods)))
		for _, m := range t.methods {
			buf = binary.AppendUvarint(buf, uint64(len(m.Name)))
			buf = append(buf, m.Name...)
			buf = appendDigest(buf, m.Type)
		}
	}
	return buf
}
