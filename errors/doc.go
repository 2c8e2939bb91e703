// Package errors provides structured error types for the candid runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the field path, the wire and expected type names, and
// a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindIncompatibleType).
//		Path("arg0", "user", "age").
//		WireType("text").
//		ExpectedType("nat").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Incompatible(errors.PhaseDecode, path, "text", "nat")
//	err := errors.MalformedTable("index %d out of range", idx)
//
// All errors implement the standard error interface and support errors.Is/As.
// Matching against a sentinel such as ErrIncompatibleType compares the Kind
// only, so callers need not know which phase raised it.
package errors
