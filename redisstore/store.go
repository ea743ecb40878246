// Package redisstore keeps copies of bloom filters in Redis.
//
// A filter named N lives under two keys: "<prefix>|N|bits", a string whose
// bit i (BITFIELD u1 offset i) mirrors bit i of the filter, and
// "<prefix>|N|meta", a hash with the filter parameters and insertion count.
package redisstore

import (
	"context"
	"strconv"

	"github.com/bits-and-blooms/bitset"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	bloom "github.com/vkuptcov/shabloom"
	"github.com/vkuptcov/shabloom/redisclients"
)

var ErrNotFound = errors.New("bloom filter not found in redis")

const (
	fieldCapacity          = "capacity"
	fieldBitCount          = "bit_count"
	fieldHashFanout        = "hash_fanout"
	fieldFalsePositiveRate = "false_positive_rate"
	fieldDigest            = "digest"
	fieldInserted          = "inserted"
)

type Store struct {
	client      redisclients.RedisClient
	cachePrefix string
	logger      bloom.Logger
	hooks       *bloom.Hooks
	filterOpts  []bloom.Option
}

type Option func(*Store)

func WithLogger(logger bloom.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithHooks(hooks *bloom.Hooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithFilterOptions sets the options loaded filters are built with.
func WithFilterOptions(opts ...bloom.Option) Option {
	return func(s *Store) {
		s.filterOpts = opts
	}
}

func New(client redisclients.RedisClient, cachePrefix string, opts ...Option) *Store {
	s := &Store{
		client:      client,
		cachePrefix: cachePrefix,
		logger:      bloom.StdLogger(nil),
		hooks:       bloom.NewHooks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save replaces whatever is stored under name with f's current state.
func (s *Store) Save(ctx context.Context, name string, f *bloom.Filter) error {
	s.hooks.Before(bloom.SaveSnapshot, name)
	err := s.save(ctx, name, f.Snapshot())
	s.hooks.After(bloom.SaveSnapshot, err, name)
	return err
}

func (s *Store) save(ctx context.Context, name string, snapshot bloom.Snapshot) error {
	bitsKey, metaKey := s.bitsKey(name), s.metaKey(name)
	execErr := s.client.Pipeliner(ctx).
		Del(bitsKey, metaKey).
		SetBits(bitsKey, setOffsets(snapshot.Params.BitCount, snapshot.Words)...).
		SetMeta(metaKey, encodeMeta(snapshot)).
		Exec()
	if execErr != nil {
		return errors.Wrapf(execErr, "bloom filter %q save failed", name)
	}
	s.logger("bloom filter", name, "saved with", snapshot.Inserted, "items")
	return nil
}

func (s *Store) Load(ctx context.Context, name string) (*bloom.Filter, error) {
	s.hooks.Before(bloom.LoadSnapshot, name)
	f, err := s.load(ctx, name)
	s.hooks.After(bloom.LoadSnapshot, err, name)
	return f, err
}

func (s *Store) load(ctx context.Context, name string) (*bloom.Filter, error) {
	snapshot, metaErr := s.readMeta(ctx, name)
	if metaErr != nil {
		return nil, metaErr
	}
	raw, getErr := s.client.Get(ctx, s.bitsKey(name))
	if getErr != nil && !errors.Is(getErr, redisclients.ErrKeyNotFound) {
		return nil, errors.Wrapf(getErr, "bloom filter %q bits load failed", name)
	}
	words, decodeErr := wordsFromRedis(raw, snapshot.Params.BitCount)
	if decodeErr != nil {
		return nil, errors.Wrapf(decodeErr, "bloom filter %q", name)
	}
	snapshot.Words = words

	f, restoreErr := bloom.FromSnapshot(snapshot, s.filterOpts...)
	if restoreErr != nil {
		return nil, errors.Wrapf(restoreErr, "bloom filter %q restore failed", name)
	}
	s.logger("bloom filter", name, "loaded with", snapshot.Inserted, "items")
	return f, nil
}

// Test checks data against the copy stored in Redis without loading it.
func (s *Store) Test(ctx context.Context, name string, data []byte) (bool, error) {
	snapshot, metaErr := s.readMeta(ctx, name)
	if metaErr != nil {
		return false, metaErr
	}
	p := snapshot.Params
	locator, locatorErr := bloom.NewLocator(p.BitCount, p.HashFanout, p.Digest)
	if locatorErr != nil {
		return false, errors.Wrapf(locatorErr, "bloom filter %q", name)
	}
	present, checkErr := s.client.CheckBits(ctx, s.bitsKey(name), locator.Locations(data)...)
	if checkErr != nil {
		return false, errors.Wrapf(checkErr, "bloom filter %q bits check failed", name)
	}
	return present, nil
}

func (s *Store) TestString(ctx context.Context, name, data string) (bool, error) {
	return s.Test(ctx, name, []byte(data))
}

func (s *Store) readMeta(ctx context.Context, name string) (bloom.Snapshot, error) {
	meta, err := s.client.GetMeta(ctx, s.metaKey(name))
	if err != nil {
		return bloom.Snapshot{}, errors.Wrapf(err, "bloom filter %q meta load failed", name)
	}
	if len(meta) == 0 {
		return bloom.Snapshot{}, errors.Wrap(ErrNotFound, name)
	}
	snapshot, decodeErr := decodeMeta(meta)
	if decodeErr != nil {
		return bloom.Snapshot{}, errors.Wrapf(decodeErr, "bloom filter %q meta is malformed", name)
	}
	return snapshot, nil
}

func (s *Store) bitsKey(name string) string {
	return s.cachePrefix + "|" + name + "|bits"
}

func (s *Store) metaKey(name string) string {
	return s.cachePrefix + "|" + name + "|meta"
}

func encodeMeta(snapshot bloom.Snapshot) map[string]interface{} {
	p := snapshot.Params
	return map[string]interface{}{
		fieldCapacity:          strconv.FormatUint(p.Capacity, 10),
		fieldBitCount:          strconv.FormatUint(p.BitCount, 10),
		fieldHashFanout:        strconv.FormatUint(p.HashFanout, 10),
		fieldFalsePositiveRate: strconv.FormatFloat(p.FalsePositiveRate, 'g', -1, 64),
		fieldDigest:            p.Digest.String(),
		fieldInserted:          strconv.FormatUint(snapshot.Inserted, 10),
	}
}

func decodeMeta(meta map[string]string) (bloom.Snapshot, error) {
	var batchErr *multierror.Error
	parseUint := func(field string) uint64 {
		v, err := strconv.ParseUint(meta[field], 10, 64)
		if err != nil {
			batchErr = multierror.Append(batchErr, errors.Wrapf(err, "field %s", field))
		}
		return v
	}

	var snapshot bloom.Snapshot
	snapshot.Params.Capacity = parseUint(fieldCapacity)
	snapshot.Params.BitCount = parseUint(fieldBitCount)
	snapshot.Params.HashFanout = parseUint(fieldHashFanout)
	snapshot.Inserted = parseUint(fieldInserted)
	if rate, ok := meta[fieldFalsePositiveRate]; ok {
		v, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			batchErr = multierror.Append(batchErr, errors.Wrapf(err, "field %s", fieldFalsePositiveRate))
		}
		snapshot.Params.FalsePositiveRate = v
	}
	digest, digestErr := bloom.ParseDigest(meta[fieldDigest])
	if digestErr != nil {
		batchErr = multierror.Append(batchErr, digestErr)
	}
	snapshot.Params.Digest = digest
	return snapshot, batchErr.ErrorOrNil()
}

// setOffsets lists the indices of all set bits.
func setOffsets(bitCount uint64, words []uint64) []uint64 {
	set := bitset.FromWithLength(uint(bitCount), words)
	offsets := make([]uint64, 0, set.Count())
	buffer := make([]uint, 256)
	var j uint
	for j, buffer = set.NextSetMany(0, buffer); len(buffer) > 0; j, buffer = set.NextSetMany(j, buffer) {
		for _, idx := range buffer {
			offsets = append(offsets, uint64(idx))
		}
		j++
	}
	return offsets
}

// wordsFromRedis converts a Redis bit string, where offset 0 is the most
// significant bit of the first byte, into filter words.
func wordsFromRedis(raw []byte, bitCount uint64) ([]uint64, error) {
	set := bitset.New(uint(bitCount))
	for byteIdx, b := range raw {
		for bit := uint64(0); b != 0; bit, b = bit+1, b<<1 {
			if b&0x80 == 0 {
				continue
			}
			offset := uint64(byteIdx)*8 + bit
			if offset >= bitCount {
				return nil, errors.Wrapf(bloom.ErrCorruptSnapshot, "bit %d is out of range [0, %d)", offset, bitCount)
			}
			set.Set(uint(offset))
		}
	}
	return set.Words(), nil
}
