package bloom

import (
	"math"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Params describes a filter's geometry. BitCount and HashFanout may be left
// zero when FalsePositiveRate is set; Resolve derives them from Capacity.
type Params struct {
	Capacity          uint64
	BitCount          uint64
	HashFanout        uint64
	FalsePositiveRate float64
	Digest            Digest
}

// EstimateParameters sizes a filter for capacity items at the given rate:
//
//	m = ceil(n * log2(e) * log2(1/epsilon))
//	k = ceil(ln(2) * m / n)
//
// capacity must be positive and falsePositiveRate within (0, 1).
func EstimateParameters(capacity uint64, falsePositiveRate float64) (bitCount, hashFanout uint64) {
	m, k := bloom.EstimateParameters(uint(capacity), falsePositiveRate)
	return uint64(m), uint64(k)
}

// FalsePositiveRate is the expected false positive rate of a filter with
// bitCount bits and hashFanout hashes after inserted insertions.
func FalsePositiveRate(bitCount, hashFanout, inserted uint64) float64 {
	if bitCount == 0 {
		return 1
	}
	k := float64(hashFanout)
	return math.Pow(1-math.Exp(-k*float64(inserted)/float64(bitCount)), k)
}

func (p Params) Resolve() Params {
	if p.BitCount == 0 && p.HashFanout == 0 && p.Capacity > 0 && validRate(p.FalsePositiveRate) {
		p.BitCount, p.HashFanout = EstimateParameters(p.Capacity, p.FalsePositiveRate)
	}
	return p
}

// Validate reports every violated constraint, each wrapping ErrInvalidParameters.
func (p Params) Validate() error {
	var batchErr *multierror.Error
	if p.Capacity == 0 {
		batchErr = multierror.Append(batchErr, errors.Wrap(ErrInvalidParameters, "capacity must be positive"))
	}
	if p.FalsePositiveRate != 0 && !validRate(p.FalsePositiveRate) {
		batchErr = multierror.Append(batchErr, errors.Wrapf(
			ErrInvalidParameters, "false positive rate must be within (0, 1), got %v", p.FalsePositiveRate,
		))
	}
	if p.BitCount == 0 {
		batchErr = multierror.Append(batchErr, errors.Wrap(ErrInvalidParameters, "bit count must be positive"))
	} else if uint64(uint(p.BitCount)) != p.BitCount {
		batchErr = multierror.Append(batchErr, errors.Wrapf(
			ErrInvalidParameters, "bit count %d doesn't fit the platform's uint", p.BitCount,
		))
	}
	if p.HashFanout == 0 {
		batchErr = multierror.Append(batchErr, errors.Wrap(ErrInvalidParameters, "hash fanout must be positive"))
	}
	if p.BitCount > 0 && p.HashFanout > 0 {
		if _, digestErr := p.Digest.resolve(p.HashFanout, chunkBytes(p.BitCount)); digestErr != nil {
			batchErr = multierror.Append(batchErr, digestErr)
		}
	}
	return batchErr.ErrorOrNil()
}

func validRate(rate float64) bool {
	return rate > 0 && rate < 1
}

type TestPresence interface {
	Test(data []byte) bool
	TestString(data string) bool
	TestUint16(i uint16) bool
	TestUint32(i uint32) bool
	TestUint64(i uint64) bool
}

var _ TestPresence = &Filter{}
