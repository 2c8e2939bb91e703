package codec

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/internal/binary"
	"github.com/wippyai/candid/types"
	"github.com/wippyai/candid/value"
)

// Encoder serializes argument lists. It is safe for concurrent use.
type Encoder struct {
	cache *TableCache
	opts  Options
}

// NewEncoder returns an encoder with a private table cache. Zero limits
// take their defaults.
func NewEncoder(opts Options) *Encoder {
	return NewEncoderWithCache(opts, NewTableCache())
}

// NewEncoderWithCache returns an encoder sharing cache with other encoders.
func NewEncoderWithCache(opts Options, cache *TableCache) *Encoder {
	return &Encoder{opts: opts.withDefaults(), cache: cache}
}

// Encode writes the type table for argTypes followed by args. Each value is
// checked against its type first; no bytes are produced for an ill-typed
// argument list.
func (e *Encoder) Encode(argTypes []*types.Type, args []value.Value) ([]byte, error) {
	if len(argTypes) != len(args) {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("argument count mismatch: %d types, %d values", len(argTypes), len(args)).
			Build()
	}
	if len(args) > e.opts.MaxArgs {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("%d arguments, limit is %d", len(args), e.opts.MaxArgs).
			Build()
	}
	for i, t := range argTypes {
		if t == nil {
			return nil, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("argument %d has nil type", i))
		}
		if err := value.Check(args[i], t); err != nil {
			return nil, errors.WithPath(err, argName(i))
		}
	}

	header, err := e.cache.Header(argTypes)
	if err != nil {
		return nil, err
	}

	w := binary.NewWriter()
	w.WriteBytes(header)
	for i, t := range argTypes {
		if err := e.writeValue(w, args[i], t, []string{argName(i)}); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func (e *Encoder) writeValue(w *binary.Writer, v value.Value, t *types.Type, path []string) error {
	t = types.Normalize(t)
	if len(path) > e.opts.MaxDepth {
		return errors.DepthExceeded(errors.PhaseEncode, path, e.opts.MaxDepth, "nesting depth")
	}
	if t.Kind() == types.KindReserved {
		// reserved carries no bytes whatever the value
		return nil
	}

	switch x := v.(type) {
	case value.Null:
		if t.Kind() == types.KindNull {
			return nil
		}
	case value.Bool:
		if t.Kind() == types.KindBool {
			if x {
				w.Byte(1)
			} else {
				w.Byte(0)
			}
			return nil
		}
	case value.Nat:
		if t.Kind() == types.KindNat {
			w.WriteBigU(x.Big())
			return nil
		}
	case value.Int:
		if t.Kind() == types.KindInt {
			w.WriteBigS(x.Big())
			return nil
		}
	case value.Nat8:
		w.Byte(byte(x))
		return nil
	case value.Nat16:
		w.WriteU16LE(uint16(x))
		return nil
	case value.Nat32:
		w.WriteU32LE(uint32(x))
		return nil
	case value.Nat64:
		w.WriteU64LE(uint64(x))
		return nil
	case value.Int8:
		w.Byte(byte(x))
		return nil
	case value.Int16:
		w.WriteU16LE(uint16(x))
		return nil
	case value.Int32:
		w.WriteU32LE(uint32(x))
		return nil
	case value.Int64:
		w.WriteU64LE(uint64(x))
		return nil
	case value.Float32:
		w.WriteU32LE(math.Float32bits(float32(x)))
		return nil
	case value.Float64:
		w.WriteU64LE(math.Float64bits(float64(x)))
		return nil
	case value.Text:
		w.WriteText(string(x))
		return nil
	case value.Principal:
		writePrincipal(w, x)
		return nil
	case value.Service:
		writePrincipal(w, x.ID)
		return nil
	case value.Func:
		w.Byte(1)
		writePrincipal(w, x.Service)
		w.WriteText(x.Method)
		return nil
	case value.Opt:
		if t.Kind() != types.KindOpt {
			break
		}
		if !x.IsSome() {
			w.Byte(0)
			return nil
		}
		w.Byte(1)
		return e.writeValue(w, x.Elem(), t.Elem(), append(path, "?"))
	case value.Vec:
		if t.Kind() != types.KindVec {
			break
		}
		w.WriteU64(uint64(x.Len()))
		if types.Normalize(t.Elem()) == types.Nat8Type {
			if data, ok := x.Bytes(); ok {
				w.WriteBytes(data)
				return nil
			}
		}
		for i, el := range x.Elems() {
			if err := e.writeValue(w, el, t.Elem(), append(path[:len(path):len(path)], strconv.Itoa(i))); err != nil {
				return err
			}
		}
		return nil
	case value.Record:
		if t.Kind() != types.KindRecord {
			break
		}
		for _, f := range t.Fields() {
			fv, ok := x.Field(f.ID)
			if !ok {
				return errors.Unsupported(errors.PhaseEncode, append(path[:len(path):len(path)], fieldLabel(f)), "record value is missing a field")
			}
			if err := e.writeValue(w, fv, f.Type, append(path[:len(path):len(path)], fieldLabel(f))); err != nil {
				return err
			}
		}
		return nil
	case value.Variant:
		if t.Kind() != types.KindVariant {
			break
		}
		for i, f := range t.Fields() {
			if f.ID == x.ID {
				w.WriteU64(uint64(i))
				return e.writeValue(w, x.Value, f.Type, append(path, fieldLabel(f)))
			}
		}
	}
	return errors.New(errors.PhaseEncode, errors.KindUnsupportedType).
		Path(path...).
		ExpectedType(t.String()).
		Detail("cannot encode %T", v).
		Build()
}

func writePrincipal(w *binary.Writer, p value.Principal) {
	id := p.Bytes()
	w.Byte(1)
	w.WriteU64(uint64(len(id)))
	w.WriteBytes(id)
}

func argName(i int) string {
	return "arg" + strconv.Itoa(i)
}

func fieldLabel(f types.Field) string {
	if f.Name != "" {
		return f.Name
	}
	return strconv.FormatUint(uint64(f.ID), 10)
}
