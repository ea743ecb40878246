package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// Filter is a Bloom filter holding at most Capacity insertions. All index
// values of an item come from a single digest, see Locator.
//
// Inserts are serialized; tests may run concurrently with each other and
// with inserts.
type Filter struct {
	params    Params
	locator   *Locator
	canonical Canonicalizer
	logger    Logger
	hooks     *Hooks

	mutex    sync.RWMutex
	bits     *bitset.BitSet
	inserted uint64
}

func New(capacity, bitCount, hashFanout uint64, opts ...Option) (*Filter, error) {
	return NewFromParams(Params{
		Capacity:   capacity,
		BitCount:   bitCount,
		HashFanout: hashFanout,
	}, opts...)
}

func NewWithEstimates(capacity uint64, falsePositiveRate float64, opts ...Option) (*Filter, error) {
	return NewFromParams(Params{
		Capacity:          capacity,
		FalsePositiveRate: falsePositiveRate,
	}, opts...)
}

func NewFromParams(p Params, opts ...Option) (*Filter, error) {
	s := newSettings(opts)
	if s.digest != DigestAuto {
		p.Digest = s.digest
	}
	p = p.Resolve()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	locator := newLocator(p)
	p.Digest = locator.digest
	return &Filter{
		params:    p,
		locator:   locator,
		canonical: s.canonical,
		logger:    s.logger,
		hooks:     s.hooks,
		bits:      bitset.New(uint(p.BitCount)),
	}, nil
}

// Insert adds item and returns it unchanged. Every call consumes capacity,
// including repeated inserts of the same item.
func (f *Filter) Insert(item interface{}) (interface{}, error) {
	data, encodeErr := f.canonical.Canonical(item)
	if encodeErr != nil {
		return nil, errors.Wrapf(ErrUnsupportedItem, "%T: %v", item, encodeErr)
	}
	if err := f.add(data); err != nil {
		return nil, err
	}
	return item, nil
}

// Contains reports whether item may have been inserted. Items without a
// canonical encoding are never present.
func (f *Filter) Contains(item interface{}) bool {
	data, encodeErr := f.canonical.Canonical(item)
	if encodeErr != nil {
		return false
	}
	return f.Test(data)
}

func (f *Filter) Add(data []byte) ([]byte, error) {
	if err := f.add(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (f *Filter) AddString(data string) (string, error) {
	if err := f.add([]byte(data)); err != nil {
		return "", err
	}
	return data, nil
}

func (f *Filter) AddUint16(i uint16) (uint16, error) {
	return i, f.add(uint16Bytes(i))
}

func (f *Filter) AddUint32(i uint32) (uint32, error) {
	return i, f.add(uint32Bytes(i))
}

func (f *Filter) AddUint64(i uint64) (uint64, error) {
	return i, f.add(uint64Bytes(i))
}

func (f *Filter) Test(data []byte) bool {
	f.hooks.Before(TestItem, data)
	locations := f.locator.Locations(data)

	present := true
	f.mutex.RLock()
	for _, l := range locations {
		if !f.bits.Test(uint(l)) {
			present = false
			break
		}
	}
	f.mutex.RUnlock()

	f.hooks.AfterSuccess(TestItem, data, present)
	return present
}

func (f *Filter) TestString(data string) bool {
	return f.Test([]byte(data))
}

func (f *Filter) TestUint16(i uint16) bool {
	return f.Test(uint16Bytes(i))
}

func (f *Filter) TestUint32(i uint32) bool {
	return f.Test(uint32Bytes(i))
}

func (f *Filter) TestUint64(i uint64) bool {
	return f.Test(uint64Bytes(i))
}

// Locations returns the bit indices data maps to.
func (f *Filter) Locations(data []byte) []uint64 {
	return f.locator.Locations(data)
}

func (f *Filter) add(data []byte) error {
	f.hooks.Before(AddItem, data)
	locations := f.locator.Locations(data)

	f.mutex.Lock()
	if f.inserted == f.params.Capacity {
		f.mutex.Unlock()
		err := errors.Wrapf(ErrFilterFull, "capacity of %d items reached", f.params.Capacity)
		f.hooks.After(AddItem, err, data)
		return err
	}
	for _, l := range locations {
		f.bits.Set(uint(l))
	}
	f.inserted++
	inserted := f.inserted
	f.mutex.Unlock()

	f.hooks.After(AddItem, nil, data)
	if inserted == f.params.Capacity {
		f.logger("bloom filter reached its capacity of", inserted, "items")
		f.hooks.AfterSuccess(ReachCapacity, inserted)
	}
	return nil
}

// Size returns the number of successful insertions.
func (f *Filter) Size() uint64 {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.inserted
}

func (f *Filter) Capacity() uint64 {
	return f.params.Capacity
}

func (f *Filter) BitCount() uint64 {
	return f.params.BitCount
}

func (f *Filter) HashFanout() uint64 {
	return f.params.HashFanout
}

func (f *Filter) IsFull() bool {
	return f.Size() == f.params.Capacity
}

// FillRatio is Size over Capacity.
func (f *Filter) FillRatio() float64 {
	return float64(f.Size()) / float64(f.params.Capacity)
}

// EstimatedFalsePositiveRate is the expected false positive rate at the
// current load.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	return FalsePositiveRate(f.params.BitCount, f.params.HashFanout, f.Size())
}

// Params returns the resolved parameters; Digest is never DigestAuto.
func (f *Filter) Params() Params {
	return f.params
}
