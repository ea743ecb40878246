package bloom

import (
	"math/bits"
)

// Locator turns data into bit indices by splitting one cryptographic digest
// into HashFanout big-endian chunks, each reduced modulo BitCount.
//
// The chunk width is the byte length of BitCount's binary representation,
// so every chunk can address any bit of the array.
type Locator struct {
	bitCount   uint64
	hashFanout uint64
	chunkBytes int
	digest     Digest
}

func NewLocator(bitCount, hashFanout uint64, digest Digest) (*Locator, error) {
	p := Params{Capacity: 1, BitCount: bitCount, HashFanout: hashFanout, Digest: digest}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return newLocator(p), nil
}

// newLocator expects validated params.
func newLocator(p Params) *Locator {
	chunk := chunkBytes(p.BitCount)
	d, _ := p.Digest.resolve(p.HashFanout, chunk)
	return &Locator{
		bitCount:   p.BitCount,
		hashFanout: p.HashFanout,
		chunkBytes: chunk,
		digest:     d,
	}
}

func chunkBytes(bitCount uint64) int {
	n := (bits.Len64(bitCount) + 7) / 8
	if n == 0 {
		return 1
	}
	return n
}

func (l *Locator) DigestKind() Digest {
	return l.digest
}

func (l *Locator) ChunkBytes() int {
	return l.chunkBytes
}

// Digest returns the part of data's digest the indices are derived from.
func (l *Locator) Digest(data []byte) []byte {
	return l.digest.sum(data)[:int(l.hashFanout)*l.chunkBytes]
}

func (l *Locator) Locations(data []byte) []uint64 {
	sum := l.Digest(data)
	locations := make([]uint64, l.hashFanout)
	for i := range locations {
		var v uint64
		for _, b := range sum[i*l.chunkBytes : (i+1)*l.chunkBytes] {
			v = v<<8 | uint64(b)
		}
		locations[i] = v % l.bitCount
	}
	return locations
}
