package codec

import (
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/internal/binary"
	"github.com/wippyai/candid/subtype"
	"github.com/wippyai/candid/types"
	"github.com/wippyai/candid/typetable"
	"github.com/wippyai/candid/value"
)

// Decoder reads argument lists into expected types. It is safe for
// concurrent use; every call owns its own checker and fuel.
type Decoder struct {
	opts Options
}

// NewDecoder returns a decoder with the given options. Zero limits take
// their defaults.
func NewDecoder(opts Options) *Decoder {
	return &Decoder{opts: opts.withDefaults()}
}

// Decode parses a message and returns one value per expected type.
//
// Each wire argument is first checked to be a subtype of its expected type.
// Values are then read and coerced in a single pass: fields the receiver
// does not know, and values an opportunistic option rejects, are skipped
// without being built. Wire arguments beyond the expected list are skipped;
// expected arguments beyond the wire list take their absent value when
// opt-like. A nil expected list decodes every argument at its wire type.
func (d *Decoder) Decode(data []byte, expected []*types.Type) ([]value.Value, error) {
	tbl, n, err := typetable.Read(data, d.opts.limits())
	if err != nil {
		Logger().Debug("type table rejected", zap.Int("bytes", len(data)), zap.Error(err))
		return nil, err
	}
	if expected == nil {
		expected = tbl.Args
	}

	c := d.opts.checker()
	for i, et := range expected {
		if et == nil {
			return nil, errors.InvalidInput(errors.PhaseDecode, fmt.Sprintf("expected type %d is nil", i))
		}
		if i >= len(tbl.Args) {
			if !types.IsOptLike(et) {
				return nil, errors.New(errors.PhaseDecode, errors.KindIncompatibleType).
					Path(argName(i)).
					ExpectedType(et.String()).
					Detail("argument is missing from the message").
					Build()
			}
			continue
		}
		ok, err := c.Sub(tbl.Args[i], et)
		if err != nil {
			return nil, errors.WithPath(err, argName(i))
		}
		if !ok {
			return nil, errors.Incompatible(errors.PhaseDecode, []string{argName(i)}, tbl.Args[i].String(), et.String())
		}
	}

	s := newDecodeState(data[n:], c, d.opts)
	out := make([]value.Value, len(expected))
	for i, wt := range tbl.Args {
		path := []string{argName(i)}
		if i >= len(expected) {
			if err := s.skip(wt, path); err != nil {
				return nil, err
			}
			continue
		}
		v, err := s.decode(wt, expected[i], path)
		if err != nil {
			Logger().Debug("argument rejected", zap.Int("arg", i), zap.Error(err))
			return nil, err
		}
		out[i] = v
	}
	for i := len(tbl.Args); i < len(expected); i++ {
		out[i], _ = value.Absent(expected[i])
	}

	if rest := s.r.Len(); rest > 0 {
		return nil, errors.MalformedValue(nil, fmt.Sprintf("%d trailing bytes after the last argument", rest))
	}
	Logger().Debug("decoded message",
		zap.Int("types", tbl.Len()),
		zap.Int("args", len(tbl.Args)),
		zap.Int("fuel_left", c.Fuel()))
	return out, nil
}

type decodeState struct {
	r        *binary.Reader
	c        *subtype.Checker
	maxDepth int
	maxZero  int
	zeroLeft int
	zero     map[*types.Type]bool
}

func newDecodeState(data []byte, c *subtype.Checker, opts Options) *decodeState {
	return &decodeState{
		r:        binary.NewReader(data),
		c:        c,
		maxDepth: opts.MaxDepth,
		maxZero:  opts.MaxZeroSized,
		zeroLeft: opts.MaxZeroSized,
		zero:     make(map[*types.Type]bool),
	}
}

func (s *decodeState) enter(path []string) error {
	if len(path) > s.maxDepth {
		return errors.DepthExceeded(errors.PhaseDecode, path, s.maxDepth, "nesting depth")
	}
	return s.charge(1, path)
}

// charge spends fuel and reports exhaustion in the decode phase.
func (s *decodeState) charge(n int, path []string) error {
	err := s.c.Consume(n, path)
	if e, ok := err.(*errors.Error); ok {
		cp := *e
		cp.Phase = errors.PhaseDecode
		return &cp
	}
	return err
}

// claim admits a vector of n elements of type elem before any is read.
// Elements that take bytes cannot outnumber the bytes left; zero-sized
// elements draw on their own per-message budget.
func (s *decodeState) claim(n uint64, elem *types.Type, path []string) error {
	if !s.zeroSized(elem) {
		if n > uint64(s.r.Len()) {
			return errors.MalformedValue(path,
				fmt.Sprintf("vector of %d elements exceeds the %d bytes left", n, s.r.Len()))
		}
		return nil
	}
	if n > uint64(s.zeroLeft) {
		s.zeroLeft = 0
		return errors.DepthExceeded(errors.PhaseDecode, path, s.maxZero, "zero-sized elements")
	}
	s.zeroLeft -= int(n)
	return nil
}

func (s *decodeState) zeroSized(t *types.Type) bool {
	t = types.Normalize(t)
	if z, ok := s.zero[t]; ok {
		return z
	}
	z := zeroSized(t, make(map[*types.Type]bool))
	s.zero[t] = z
	return z
}

// zeroSized reports whether values of t occupy no bytes on the wire.
func zeroSized(t *types.Type, seen map[*types.Type]bool) bool {
	t = types.Normalize(t)
	switch t.Kind() {
	case types.KindNull, types.KindReserved:
		return true
	case types.KindRecord:
		if seen[t] {
			return true
		}
		seen[t] = true
		for _, f := range t.Fields() {
			if !zeroSized(f.Type, seen) {
				return false
			}
		}
		return true
	}
	return false
}

func (s *decodeState) decode(w, e *types.Type, path []string) (value.Value, error) {
	w, e = types.Normalize(w), types.Normalize(e)
	if err := s.enter(path); err != nil {
		return nil, err
	}
	if e.Kind() == types.KindReserved {
		return value.Reserved{}, s.skip(w, path)
	}
	if w.Kind() == types.KindEmpty {
		return nil, errors.MalformedValue(path, "no value has type empty")
	}
	if e.Kind() == types.KindOpt {
		return s.decodeOpt(w, e, path)
	}

	switch e.Kind() {
	case types.KindNull:
		if w.Kind() == types.KindNull {
			return value.Null{}, nil
		}
	case types.KindBool:
		if w.Kind() == types.KindBool {
			return s.readBool(path)
		}
	case types.KindNat:
		if w.Kind() == types.KindNat {
			n, err := s.r.ReadBigU()
			if err != nil {
				return nil, s.malformed(path, err)
			}
			v, _ := value.NatFromBig(n)
			return v, nil
		}
	case types.KindInt:
		switch w.Kind() {
		case types.KindInt:
			i, err := s.r.ReadBigS()
			if err != nil {
				return nil, s.malformed(path, err)
			}
			return value.IntFromBig(i), nil
		case types.KindNat:
			n, err := s.r.ReadBigU()
			if err != nil {
				return nil, s.malformed(path, err)
			}
			return value.IntFromBig(n), nil
		}
	case types.KindNat8, types.KindNat16, types.KindNat32, types.KindNat64,
		types.KindInt8, types.KindInt16, types.KindInt32, types.KindInt64,
		types.KindFloat32, types.KindFloat64:
		if w.Kind() == e.Kind() {
			return s.readFixed(e.Kind(), path)
		}
	case types.KindText:
		if w.Kind() == types.KindText {
			t, err := s.readText(path)
			if err != nil {
				return nil, err
			}
			return value.Text(t), nil
		}
	case types.KindPrincipal:
		if w.Kind() == types.KindPrincipal {
			return s.readPrincipal(path)
		}
	case types.KindService:
		if w.Kind() == types.KindService {
			p, err := s.readPrincipal(path)
			if err != nil {
				return nil, err
			}
			return value.Service{ID: p}, nil
		}
	case types.KindFunc:
		if w.Kind() == types.KindFunc {
			return s.readFunc(path)
		}
	case types.KindVec:
		if w.Kind() == types.KindVec {
			return s.decodeVec(w, e, path)
		}
	case types.KindRecord:
		if w.Kind() == types.KindRecord {
			return s.decodeRecord(w, e, path)
		}
	case types.KindVariant:
		if w.Kind() == types.KindVariant {
			return s.decodeVariant(w, e, path)
		}
	}
	return nil, errors.Incompatible(errors.PhaseDecode, path, w.String(), e.String())
}

func (s *decodeState) decodeOpt(w, e *types.Type, path []string) (value.Value, error) {
	plan, err := s.c.PlanOption(w, e)
	if err != nil {
		return nil, errors.WithPath(err, path...)
	}
	switch plan {
	case subtype.PlanUnwrap:
		present, err := s.readTag(path)
		if err != nil {
			return nil, err
		}
		if !present {
			return value.None(), nil
		}
		inner, err := s.decode(w.Elem(), e.Elem(), append(path, "?"))
		if err != nil {
			return nil, err
		}
		return value.Some(inner), nil
	case subtype.PlanWrap:
		inner, err := s.decode(w, e.Elem(), append(path, "?"))
		if err != nil {
			return nil, err
		}
		return value.Some(inner), nil
	}
	return value.None(), s.skip(w, path)
}

func (s *decodeState) decodeVec(w, e *types.Type, path []string) (value.Value, error) {
	n, err := s.r.ReadU64()
	if err != nil {
		return nil, s.malformed(path, err)
	}
	we, ee := types.Normalize(w.Elem()), types.Normalize(e.Elem())
	if err := s.claim(n, we, path); err != nil {
		return nil, err
	}
	if we == types.Nat8Type && ee == types.Nat8Type {
		data, _ := s.r.ReadBytes(int(n))
		return value.Blob(data), nil
	}

	// claim bounds n by the bytes left or the zero-sized budget
	elems := make([]value.Value, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := s.decode(we, ee, append(path[:len(path):len(path)], strconv.FormatUint(i, 10)))
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return value.VecOf(elems), nil
}

func (s *decodeState) decodeRecord(w, e *types.Type, path []string) (value.Value, error) {
	out := make([]value.FieldValue, 0, len(e.Fields()))
	for _, wf := range w.Fields() {
		ef, ok := e.Field(wf.ID)
		if !ok {
			if err := s.skip(wf.Type, append(path[:len(path):len(path)], fieldLabel(wf))); err != nil {
				return nil, err
			}
			continue
		}
		v, err := s.decode(wf.Type, ef.Type, append(path[:len(path):len(path)], fieldLabel(ef)))
		if err != nil {
			return nil, err
		}
		out = append(out, value.FieldValue{ID: ef.ID, Value: v})
	}

	for _, ef := range e.Fields() {
		if _, ok := w.Field(ef.ID); ok {
			continue
		}
		absent, ok := value.Absent(ef.Type)
		if !ok {
			return nil, errors.New(errors.PhaseDecode, errors.KindIncompatibleType).
				Path(append(path, fieldLabel(ef))...).
				ExpectedType(ef.Type.String()).
				Detail("required field is missing").
				Build()
		}
		out = append(out, value.FieldValue{ID: ef.ID, Value: absent})
	}
	return value.NewRecord(out...)
}

func (s *decodeState) decodeVariant(w, e *types.Type, path []string) (value.Value, error) {
	wf, err := s.readAlternative(w, path)
	if err != nil {
		return nil, err
	}
	ef, ok := e.Field(wf.ID)
	if !ok {
		return nil, errors.New(errors.PhaseDecode, errors.KindIncompatibleType).
			Path(path...).
			WireType(w.String()).
			ExpectedType(e.String()).
			Detail("alternative %d is not expected", wf.ID).
			Build()
	}
	payload, err := s.decode(wf.Type, ef.Type, append(path, fieldLabel(ef)))
	if err != nil {
		return nil, err
	}
	return value.Variant{ID: wf.ID, Value: payload}, nil
}

func (s *decodeState) readAlternative(w *types.Type, path []string) (types.Field, error) {
	idx, err := s.r.ReadU64()
	if err != nil {
		return types.Field{}, s.malformed(path, err)
	}
	if idx >= uint64(len(w.Fields())) {
		return types.Field{}, errors.MalformedValue(path,
			fmt.Sprintf("variant index %d out of range, type has %d alternatives", idx, len(w.Fields())))
	}
	return w.Fields()[idx], nil
}

// skip reads past a value of wire type w without building it.
func (s *decodeState) skip(w *types.Type, path []string) error {
	w = types.Normalize(w)
	if err := s.enter(path); err != nil {
		return err
	}
	var err error
	switch w.Kind() {
	case types.KindNull, types.KindReserved:
		return nil
	case types.KindBool:
		_, err := s.readBool(path)
		return err
	case types.KindNat, types.KindInt:
		return s.skipLEB(path)
	case types.KindNat8, types.KindInt8:
		err = s.r.Skip(1)
	case types.KindNat16, types.KindInt16:
		err = s.r.Skip(2)
	case types.KindNat32, types.KindInt32, types.KindFloat32:
		err = s.r.Skip(4)
	case types.KindNat64, types.KindInt64, types.KindFloat64:
		err = s.r.Skip(8)
	case types.KindText:
		_, err := s.readText(path)
		return err
	case types.KindEmpty:
		return errors.MalformedValue(path, "no value has type empty")
	case types.KindPrincipal, types.KindService:
		_, err := s.readPrincipal(path)
		return err
	case types.KindFunc:
		_, err := s.readFunc(path)
		return err
	case types.KindOpt:
		present, err := s.readTag(path)
		if err != nil || !present {
			return err
		}
		return s.skip(w.Elem(), append(path, "?"))
	case types.KindVec:
		n, err := s.r.ReadU64()
		if err != nil {
			return s.malformed(path, err)
		}
		if err := s.claim(n, w.Elem(), path); err != nil {
			return err
		}
		if types.Normalize(w.Elem()) == types.Nat8Type {
			return s.r.Skip(int(n))
		}
		for i := uint64(0); i < n; i++ {
			if err := s.skip(w.Elem(), append(path[:len(path):len(path)], strconv.FormatUint(i, 10))); err != nil {
				return err
			}
		}
		return nil
	case types.KindRecord:
		for _, f := range w.Fields() {
			if err := s.skip(f.Type, append(path[:len(path):len(path)], fieldLabel(f))); err != nil {
				return err
			}
		}
		return nil
	case types.KindVariant:
		f, err := s.readAlternative(w, path)
		if err != nil {
			return err
		}
		return s.skip(f.Type, append(path, fieldLabel(f)))
	default:
		return errors.Unsupported(errors.PhaseDecode, path, "cannot skip "+w.Kind().String())
	}
	if err != nil {
		return s.malformed(path, err)
	}
	return nil
}

func (s *decodeState) skipLEB(path []string) error {
	for i := 0; i < binary.MaxBigLEB; i++ {
		b, err := s.r.ReadByte()
		if err != nil {
			return s.malformed(path, err)
		}
		if b&0x80 == 0 {
			return nil
		}
	}
	return errors.MalformedValue(path, "number too long")
}

func (s *decodeState) readTag(path []string) (bool, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return false, s.malformed(path, err)
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, errors.MalformedValue(path, fmt.Sprintf("invalid option tag 0x%02x", b))
}

func (s *decodeState) readBool(path []string) (value.Value, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return nil, s.malformed(path, err)
	}
	if b > 1 {
		return nil, errors.MalformedValue(path, fmt.Sprintf("invalid bool byte 0x%02x", b))
	}
	return value.Bool(b == 1), nil
}

func (s *decodeState) readFixed(k types.Kind, path []string) (value.Value, error) {
	var (
		v   value.Value
		err error
	)
	switch k {
	case types.KindNat8, types.KindInt8:
		var b byte
		if b, err = s.r.ReadByte(); err == nil {
			if k == types.KindNat8 {
				v = value.Nat8(b)
			} else {
				v = value.Int8(int8(b))
			}
		}
	case types.KindNat16, types.KindInt16:
		var x uint16
		if x, err = s.r.ReadU16LE(); err == nil {
			if k == types.KindNat16 {
				v = value.Nat16(x)
			} else {
				v = value.Int16(int16(x))
			}
		}
	case types.KindNat32, types.KindInt32, types.KindFloat32:
		var x uint32
		if x, err = s.r.ReadU32LE(); err == nil {
			switch k {
			case types.KindNat32:
				v = value.Nat32(x)
			case types.KindInt32:
				v = value.Int32(int32(x))
			default:
				v = value.Float32(math.Float32frombits(x))
			}
		}
	default:
		var x uint64
		if x, err = s.r.ReadU64LE(); err == nil {
			switch k {
			case types.KindNat64:
				v = value.Nat64(x)
			case types.KindInt64:
				v = value.Int64(int64(x))
			default:
				v = value.Float64(math.Float64frombits(x))
			}
		}
	}
	if err != nil {
		return nil, s.malformed(path, err)
	}
	return v, nil
}

func (s *decodeState) readText(path []string) (string, error) {
	n, err := s.r.ReadU64()
	if err != nil {
		return "", s.malformed(path, err)
	}
	if n > uint64(s.r.Len()) {
		return "", errors.MalformedValue(path, "truncated text")
	}
	data, _ := s.r.ReadBytes(int(n))
	if !utf8.Valid(data) {
		return "", errors.InvalidUTF8(path, data)
	}
	return string(data), nil
}

func (s *decodeState) readPrincipal(path []string) (value.Principal, error) {
	tag, err := s.r.ReadByte()
	if err != nil {
		return value.Principal{}, s.malformed(path, err)
	}
	switch tag {
	case 0:
		return value.Principal{}, errors.Unsupported(errors.PhaseDecode, path, "opaque reference")
	case 1:
	default:
		return value.Principal{}, errors.MalformedValue(path, fmt.Sprintf("invalid reference tag 0x%02x", tag))
	}
	n, err := s.r.ReadU64()
	if err != nil {
		return value.Principal{}, s.malformed(path, err)
	}
	if n > uint64(s.r.Len()) {
		return value.Principal{}, errors.MalformedValue(path, "truncated principal")
	}
	id, _ := s.r.ReadBytes(int(n))
	return value.NewPrincipal(id), nil
}

func (s *decodeState) readFunc(path []string) (value.Value, error) {
	tag, err := s.r.ReadByte()
	if err != nil {
		return nil, s.malformed(path, err)
	}
	switch tag {
	case 0:
		return nil, errors.Unsupported(errors.PhaseDecode, path, "opaque reference")
	case 1:
	default:
		return nil, errors.MalformedValue(path, fmt.Sprintf("invalid reference tag 0x%02x", tag))
	}
	svc, err := s.readPrincipal(path)
	if err != nil {
		return nil, err
	}
	method, err := s.readText(path)
	if err != nil {
		return nil, err
	}
	return value.Func{Service: svc, Method: method}, nil
}

func (s *decodeState) malformed(path []string, err error) error {
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.MalformedValue(path, "truncated value")
	}
	return errors.New(errors.PhaseDecode, errors.KindMalformedValue).
		Path(path...).
		Cause(err).
		Build()
}
