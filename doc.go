// Package candid is a runtime for a structural interface description
// language: a type algebra, a binary wire format with a self-describing
// type table, and a subtyping and coercion engine that lets a receiver
// decode messages from peers running older or newer interfaces.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	candid/              Root package with Encode and Decode helpers
//	├── types/           Type graph, structural equality, canonical hash
//	├── value/           Values and checking a value against a type
//	├── typetable/       Wire type table layout, writing and parsing
//	├── subtype/         Subtyping decision and value coercion
//	├── codec/           Message encoder and coerce-while-decode decoder
//	├── binding/         Deterministic CBOR export for code generators
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
//	data, err := candid.Encode(
//	    []*types.Type{types.NatType},
//	    []value.Value{value.NewNat(42)},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vals, err := candid.Decode(data, []*types.Type{types.IntType})
//	fmt.Println(vals[0]) // 42
//
// # Subtyping Modes
//
// Strict mode, the default, accepts a value into an option only when its
// type fits the option payload. Opportunistic mode accepts anything into an
// option and yields an absent option when the payload does not fit:
//
//	opts := codec.DefaultOptions()
//	opts.Mode = subtype.Opportunistic
//	vals, err := candid.DecodeWithOptions(data, expected, opts)
//
// # Thread Safety
//
// Types and values are immutable and safe to share. Encoders and decoders
// are safe for concurrent use; every call gets its own work budget. The
// encoder's type table cache is shared between goroutines.
package candid
