package bloom

import (
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"
)

// Canonicalizer maps an item to the bytes that get hashed. Equal logical
// values must produce equal bytes for the lifetime of the process.
type Canonicalizer interface {
	Canonical(item interface{}) ([]byte, error)
}

type CanonicalizerFunc func(item interface{}) ([]byte, error)

func (f CanonicalizerFunc) Canonical(item interface{}) ([]byte, error) {
	return f(item)
}

// CBORCanonicalizer encodes items with CBOR core deterministic encoding.
// The encoding is type tagged, so "1", 1 and []byte("1") are distinct items,
// and map keys are sorted.
type CBORCanonicalizer struct {
	mode cbor.EncMode
}

func NewCBORCanonicalizer() *CBORCanonicalizer {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return &CBORCanonicalizer{mode: mode}
}

func (c *CBORCanonicalizer) Canonical(item interface{}) ([]byte, error) {
	return c.mode.Marshal(item)
}

var defaultCanonicalizer Canonicalizer = NewCBORCanonicalizer()

// RawCanonicalizer hashes []byte and string items as their raw bytes and
// integers as big-endian, matching the Add*/Test* helpers.
var RawCanonicalizer = CanonicalizerFunc(func(item interface{}) ([]byte, error) {
	switch v := item.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case uint16:
		return uint16Bytes(v), nil
	case uint32:
		return uint32Bytes(v), nil
	case uint64:
		return uint64Bytes(v), nil
	}
	return nil, ErrUnsupportedItem
})

func uint16Bytes(i uint16) []byte { return binary.BigEndian.AppendUint16(nil, i) }
func uint32Bytes(i uint32) []byte { return binary.BigEndian.AppendUint32(nil, i) }
func uint64Bytes(i uint64) []byte { return binary.BigEndian.AppendUint64(nil, i) }
