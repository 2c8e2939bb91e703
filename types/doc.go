// Package types implements the structural type algebra.
//
// A type is a node in a graph that may contain cycles. Primitive types are
// shared singletons (NatType, TextType, ...); compound types are built with
// Opt, Vec, Record, Variant, Tuple, Func and Service. Recursive types are
// built with a Builder, whose named references are patched to their
// definitions by Build:
//
//	b := types.NewBuilder()
//	tree := b.Ref("tree")
//	b.Define("tree", b.Variant(
//		types.Label("leaf", types.IntType),
//		types.Label("node", types.Vec(tree)),
//	))
//	if err := b.Build(); err != nil { ... }
//
// Types compare structurally. Equal decides equality of the infinite
// unfoldings with a set of assumed-equal node pairs, Hash gives a canonical
// digest for bucketing, and Normalize sees through named references.
//
// Construction failures (duplicate field id, dangling reference, alias
// cycle) are reported in errors.PhaseConstruct and never appear as wire
// decode errors.
package types
