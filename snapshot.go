package bloom

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// Snapshot is a point-in-time copy of a filter's state. Words holds the bit
// array in 64-bit words, bit i living in Words[i/64] at position i%64.
type Snapshot struct {
	Params   Params
	Inserted uint64
	Words    []uint64
}

func (f *Filter) Snapshot() Snapshot {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return Snapshot{
		Params:   f.params,
		Inserted: f.inserted,
		Words:    append([]uint64(nil), f.bits.Words()...),
	}
}

// FromSnapshot rebuilds a filter from s. The filter must derive indices
// with the digest the snapshot was taken with.
func FromSnapshot(s Snapshot, opts ...Option) (*Filter, error) {
	f, err := NewFromParams(s.Params, opts...)
	if err != nil {
		return nil, err
	}
	if taken := newLocator(s.Params.Resolve()).digest; f.params.Digest != taken {
		return nil, errors.Wrapf(
			ErrInvalidParameters, "snapshot was taken with %s digest, restoring with %s", taken, f.params.Digest,
		)
	}
	f.hooks.Before(RestoreSnapshot, s.Params, s.Inserted)
	err = f.restore(s)
	f.hooks.After(RestoreSnapshot, err, s.Params, s.Inserted)
	if err != nil {
		return nil, err
	}
	f.logger("bloom filter restored with", s.Inserted, "of", f.params.Capacity, "items")
	return f, nil
}

func (f *Filter) restore(s Snapshot) error {
	if s.Inserted > f.params.Capacity {
		return errors.Wrapf(ErrCorruptSnapshot, "%d items exceed capacity %d", s.Inserted, f.params.Capacity)
	}
	if want := wordsNeeded(f.params.BitCount); uint64(len(s.Words)) != want {
		return errors.Wrapf(ErrCorruptSnapshot, "%d words for %d bits, expected %d", len(s.Words), f.params.BitCount, want)
	}
	restored := bitset.FromWithLength(uint(f.params.BitCount), append([]uint64(nil), s.Words...))
	if idx, found := restored.NextSet(uint(f.params.BitCount)); found {
		return errors.Wrapf(ErrCorruptSnapshot, "bit %d is out of range [0, %d)", idx, f.params.BitCount)
	}

	f.mutex.Lock()
	f.bits = restored
	f.inserted = s.Inserted
	f.mutex.Unlock()
	return nil
}

func wordsNeeded(bitCount uint64) uint64 {
	return (bitCount + 63) / 64
}
