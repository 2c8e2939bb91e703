// Package codec reads and writes argument lists in the binary wire format.
//
// A message is the magic "DIDL", a type table describing every compound
// type once, the list of argument types, and the argument values:
//
//	enc := codec.NewEncoder(codec.DefaultOptions())
//	data, err := enc.Encode([]*types.Type{types.NatType}, []value.Value{value.NewNat(42)})
//
//	dec := codec.NewDecoder(codec.DefaultOptions())
//	vals, err := dec.Decode(data, []*types.Type{types.IntType})
//
// Decoding checks each wire argument type against the expected type and
// then coerces values while reading them, so a receiver with a newer or
// older interface accepts the message whenever the subtyping rules allow.
// Type tables built by the encoder are cached per argument type list.
//
// All limits (depth, table size, fuel, argument count) are set through
// Options, which can also be loaded from YAML with LoadOptions.
package codec
