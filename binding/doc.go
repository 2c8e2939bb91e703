// Package binding exports argument lists for code-generation layers.
//
// A Document carries the resolved type graph flattened into a table, the
// argument types and their values, with field labels kept. Documents are
// serialized as deterministic CBOR, so equal argument lists produce equal
// bytes however their type graphs were built:
//
//	data, err := binding.Marshal(argTypes, vals)
//	...
//	argTypes, vals, err := binding.Unmarshal(data)
//
// Type references follow the wire convention: a negative number is a
// primitive opcode and any other number indexes Document.Types.
package binding
