package codec

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/types"
	"github.com/wippyai/candid/typetable"
)

// TableCache maps argument type lists to their serialized type tables. It
// is keyed by the canonical hash of the list; a hit is confirmed with
// structural equality. Entries are immutable once stored and the first
// writer for a hash wins, so readers never block.
type TableCache struct {
	entries sync.Map // types.Digest -> *tableEntry
	hits    atomic.Int64
	misses  atomic.Int64
}

type tableEntry struct {
	args   *types.Type
	header []byte
}

// NewTableCache returns an empty cache.
func NewTableCache() *TableCache {
	return &TableCache{}
}

// Header returns the magic, type table and argument list for args, building
// and storing it on first use. The returned slice must not be modified.
func (c *TableCache) Header(args []*types.Type) ([]byte, error) {
	for i, a := range args {
		if a == nil {
			return nil, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("argument %d has nil type", i))
		}
	}
	tuple := types.Tuple(args...)
	key := types.Hash(tuple)
	if cached, ok := c.entries.Load(key); ok {
		e := cached.(*tableEntry)
		if types.Equal(e.args, tuple) {
			c.hits.Add(1)
			return e.header, nil
		}
		// Digest collision past the hash depth. Serve uncached.
		Logger().Debug("type table cache collision", zap.Stringer("digest", key))
		return buildHeader(args)
	}

	c.misses.Add(1)
	header, err := buildHeader(args)
	if err != nil {
		return nil, err
	}
	actual, _ := c.entries.LoadOrStore(key, &tableEntry{args: tuple, header: header})
	if e := actual.(*tableEntry); types.Equal(e.args, tuple) {
		return e.header, nil
	}
	return header, nil
}

// Stats returns the number of lookups served from and missing the cache.
func (c *TableCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func buildHeader(args []*types.Type) ([]byte, error) {
	tbl, err := typetable.Build(args)
	if err != nil {
		return nil, err
	}
	return tbl.AppendBinary(nil), nil
}
