// Package subtype decides structural subtyping between types and coerces
// values along it.
//
// Two modes exist. Strict mode (the default) only lets a type flow into an
// option when doing so is unambiguous: opt T <: opt T' requires the payloads
// to agree on being opt-like, and a non-opt-like T <: opt T' requires T <: T'.
// Opportunistic mode makes every type a subtype of every option; values that
// do not fit decode as absent. The modes are observably different:
//
//	null : null -> opt opt nat    strict: none          opportunistic: none
//	5 : nat     -> opt opt nat    strict: some(some 5)  opportunistic: none
//
// Subtyping on cyclic graphs assumes a pair of nodes holds while checking
// its children. Every check and coercion spends fuel and is bounded in
// depth, so adversarial graphs fail with a depth error instead of running
// away.
package subtype
