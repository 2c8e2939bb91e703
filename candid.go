package candid

import (
	"github.com/wippyai/candid/codec"
	"github.com/wippyai/candid/types"
	"github.com/wippyai/candid/value"
)

var (
	defaultEncoder = codec.NewEncoder(codec.DefaultOptions())
	defaultDecoder = codec.NewDecoder(codec.DefaultOptions())
)

// Encode serializes args of the given types with the default options.
func Encode(argTypes []*types.Type, args []value.Value) ([]byte, error) {
	return defaultEncoder.Encode(argTypes, args)
}

// Decode reads a message into the expected types with the default options.
// A nil expected list decodes every argument at its wire type.
func Decode(data []byte, expected []*types.Type) ([]value.Value, error) {
	return defaultDecoder.Decode(data, expected)
}

// DecodeWithOptions is Decode with explicit options. The options are
// validated first.
func DecodeWithOptions(data []byte, expected []*types.Type, opts codec.Options) ([]value.Value, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return codec.NewDecoder(opts).Decode(data, expected)
}
