package types

// FieldID returns the wire id for a field label: the label's UTF-8 bytes
// folded as h = h*223 + b modulo 2^32.
func FieldID(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*223 + uint32(name[i])
	}
	return h
}
