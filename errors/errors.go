package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConstruct Phase = "construct" // type graph building
	PhaseEncode    Phase = "encode"    // values to wire bytes
	PhaseDecode    Phase = "decode"    // wire bytes to values
	PhaseTable     Phase = "table"     // wire type table
	PhaseSubtype   Phase = "subtype"   // subtyping and coercion
	PhaseConfig    Phase = "config"    // options loading
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedTypeTable Kind = "malformed_type_table"
	KindMalformedValue     Kind = "malformed_value"
	KindIncompatibleType   Kind = "incompatible_type"
	KindDepthExceeded      Kind = "depth_exceeded"
	KindUnsupportedType    Kind = "unsupported_type"
	KindInvalidInput       Kind = "invalid_input"

	// Construction-time kinds, never produced while reading wire bytes.
	KindDanglingReference Kind = "dangling_reference"
	KindDuplicateField    Kind = "duplicate_field"
	KindAliasCycle        Kind = "alias_cycle"
)

// Sentinels for errors.Is matching on Kind alone.
var (
	ErrMalformedTypeTable = &Error{Kind: KindMalformedTypeTable}
	ErrMalformedValue     = &Error{Kind: KindMalformedValue}
	ErrIncompatibleType   = &Error{Kind: KindIncompatibleType}
	ErrDepthExceeded      = &Error{Kind: KindDepthExceeded}
	ErrUnsupportedType    = &Error{Kind: KindUnsupportedType}
	ErrDanglingReference  = &Error{Kind: KindDanglingReference}
	ErrDuplicateField     = &Error{Kind: KindDuplicateField}
	ErrAliasCycle         = &Error{Kind: KindAliasCycle}
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value        any
	Cause        error
	Phase        Phase
	Kind         Kind
	WireType     string
	ExpectedType string
	Detail       string
	Path         []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.WireType != "" || e.ExpectedType != "" {
		b.WriteString(": ")
		if e.WireType != "" && e.ExpectedType != "" {
			b.WriteString("wire type ")
			b.WriteString(e.WireType)
			b.WriteString(", expected type ")
			b.WriteString(e.ExpectedType)
		} else if e.WireType != "" {
			b.WriteString("wire type ")
			b.WriteString(e.WireType)
		} else {
			b.WriteString("expected type ")
			b.WriteString(e.ExpectedType)
		}
	}

	if e.Detail != "" {
		if e.WireType != "" || e.ExpectedType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// IsConstruction reports whether err is a type graph construction error
// rather than a wire or coercion error.
func IsConstruction(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Phase == PhaseConstruct
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// WireType sets the name of the type found on the wire
func (b *Builder) WireType(t string) *Builder {
	b.err.WireType = t
	return b
}

// ExpectedType sets the name of the type the receiver asked for
func (b *Builder) ExpectedType(t string) *Builder {
	b.err.ExpectedType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Incompatible creates an incompatible type error
func Incompatible(phase Phase, path []string, wireType, expectedType string) *Error {
	return &Error{
		Phase:        phase,
		Kind:         KindIncompatibleType,
		Path:         path,
		WireType:     wireType,
		ExpectedType: expectedType,
	}
}

// MalformedTable creates a wire type table error
func MalformedTable(detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseTable,
		Kind:   KindMalformedTypeTable,
		Detail: detail,
	}
}

// MalformedValue creates a wire value error
func MalformedValue(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedValue,
		Path:   path,
		Detail: detail,
	}
}

// InvalidUTF8 creates a malformed value error for text that is not UTF-8
func InvalidUTF8(path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedValue,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// DepthExceeded creates a guard error for recursion depth or fuel exhaustion
func DepthExceeded(phase Phase, path []string, limit int, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDepthExceeded,
		Path:   path,
		Detail: fmt.Sprintf("%s limit %d exceeded", what, limit),
		Value:  limit,
	}
}

// Unsupported creates an unsupported type error
func Unsupported(phase Phase, path []string, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedType,
		Path:   path,
		Detail: what,
	}
}

// DanglingReference creates a construction error for an unresolved named reference
func DanglingReference(name string) *Error {
	return &Error{
		Phase:  PhaseConstruct,
		Kind:   KindDanglingReference,
		Detail: fmt.Sprintf("reference %q does not resolve to a defined type", name),
		Value:  name,
	}
}

// DuplicateField creates a construction error for a repeated field id
func DuplicateField(phase Phase, id uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateField,
		Detail: fmt.Sprintf("field id %d appears more than once", id),
		Value:  id,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithPath returns err with prefix prepended to its path when err is an *Error.
// Other errors are returned unchanged.
func WithPath(err error, prefix ...string) error {
	e, ok := err.(*Error)
	if !ok || len(prefix) == 0 {
		return err
	}
	cp := *e
	cp.Path = append(append(make([]string, 0, len(prefix)+len(e.Path)), prefix...), e.Path...)
	return &cp
}
