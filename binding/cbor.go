package binding

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer and float forms, no indefinite-length items.
// Equal documents always produce identical bytes.
var encMode cbor.EncMode

// decMode rejects duplicate map keys and fields no node declares.
var decMode cbor.DecMode

// maxNesting bounds the CBOR nesting of a document. Each level of a value
// or type costs at most two CBOR levels.
const maxNesting = 4096

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("binding: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		MaxNestedLevels:   maxNesting,
	}.DecMode()
	if err != nil {
		panic("binding: CBOR decoder initialization failed: " + err.Error())
	}
}
