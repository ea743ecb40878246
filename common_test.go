package bloom

import (
	"math"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	requireLib "github.com/stretchr/testify/require"
)

func TestEstimateParameters(t *testing.T) {
	require := requireLib.New(t)
	m, k := EstimateParameters(baseCapacity, 0.01)
	require.Equal(uint64(baseBitCount), m)
	require.Equal(uint64(baseHashFanout), k)

	// m = ceil(n * log2(e) * log2(1/epsilon)), k = ceil(ln(2) * m / n)
	expectedM := math.Ceil(baseCapacity * math.Log2(math.E) * math.Log2(1/0.01))
	require.Equal(expectedM, float64(m))
	require.Equal(math.Ceil(math.Ln2*float64(m)/baseCapacity), float64(k))
}

func TestNewWithEstimates(t *testing.T) {
	t.Run("5000 items at 1%", func(t *testing.T) {
		require := requireLib.New(t)
		f, err := NewWithEstimates(baseCapacity, 0.01, WithLogger(NoopLogger()))
		require.NoError(err)
		p := f.Params()
		require.Equal(uint64(baseCapacity), p.Capacity)
		require.Equal(uint64(baseBitCount), p.BitCount)
		require.Equal(uint64(baseHashFanout), p.HashFanout)
		require.Equal(SHA1, p.Digest)
		require.Equal(0.01, p.FalsePositiveRate)
	})

	t.Run("large filter moves to a longer digest", func(t *testing.T) {
		require := requireLib.New(t)
		f, err := NewWithEstimates(1_000_000, 0.0001, WithLogger(NoopLogger()))
		require.NoError(err)
		p := f.Params()
		require.Equal(uint64(14), p.HashFanout)
		require.Equal(SHA512, p.Digest, "14 hashes of 4 bytes need 56 bytes")
	})

	t.Run("invalid rate", func(t *testing.T) {
		for _, rate := range []float64{0, 1, -0.5, 2, math.NaN()} {
			_, err := NewWithEstimates(100, rate)
			requireLib.Truef(t, errors.Is(err, ErrInvalidParameters), "rate %v: unexpected error %v", rate, err)
		}
	})
}

func TestParamsValidate(t *testing.T) {
	testCases := []struct {
		name   string
		params Params
		errors int
	}{
		{name: "valid", params: Params{Capacity: 1, BitCount: 1, HashFanout: 1}},
		{name: "explicit digest", params: Params{Capacity: 1, BitCount: 1 << 20, HashFanout: 6, Digest: SHA1}},
		{name: "all zero", params: Params{}, errors: 3},
		{name: "zero capacity", params: Params{BitCount: 10, HashFanout: 1}, errors: 1},
		{name: "zero bits", params: Params{Capacity: 10, HashFanout: 1}, errors: 1},
		{name: "zero hashes", params: Params{Capacity: 10, BitCount: 10}, errors: 1},
		{name: "bad rate", params: Params{Capacity: 10, BitCount: 10, HashFanout: 1, FalsePositiveRate: 1.5}, errors: 1},
		{name: "sha1 too short", params: Params{Capacity: 10, BitCount: 1 << 20, HashFanout: 7, Digest: SHA1}, errors: 1},
		{name: "too many hashes", params: Params{Capacity: 10, BitCount: 10, HashFanout: 65}, errors: 1},
		{name: "nothing fits", params: Params{Capacity: 10, BitCount: 1 << 40, HashFanout: 20}, errors: 1},
		{name: "unknown digest", params: Params{Capacity: 10, BitCount: 10, HashFanout: 1, Digest: Digest(42)}, errors: 1},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require := requireLib.New(t)
			err := tc.params.Validate()
			if tc.errors == 0 {
				require.NoError(err)
				return
			}
			require.True(errors.Is(err, ErrInvalidParameters), "unexpected error %v", err)
			var batchErr *multierror.Error
			require.True(errors.As(err, &batchErr))
			require.Len(batchErr.Errors, tc.errors, batchErr.Error())
		})
	}
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	require := requireLib.New(t)
	f, err := New(0, 0, 0)
	require.Nil(f)
	require.True(errors.Is(err, ErrInvalidParameters))

	_, err = New(10, 1<<20, 7, WithDigest(SHA1))
	require.True(errors.Is(err, ErrInvalidParameters))

	f, err = New(10, 1<<20, 7, WithLogger(NoopLogger()))
	require.NoError(err)
	require.Equal(SHA256, f.Params().Digest)
}

func TestParseDigest(t *testing.T) {
	require := requireLib.New(t)
	for _, d := range []Digest{DigestAuto, SHA1, SHA256, SHA512} {
		parsed, err := ParseDigest(d.String())
		require.NoError(err)
		require.Equal(d, parsed)
	}
	parsed, err := ParseDigest(" SHA-256 ")
	require.NoError(err)
	require.Equal(SHA256, parsed)

	_, err = ParseDigest("md5")
	require.True(errors.Is(err, ErrInvalidParameters))
}

func TestFalsePositiveRateFormula(t *testing.T) {
	require := requireLib.New(t)
	require.Zero(FalsePositiveRate(baseBitCount, baseHashFanout, 0))
	require.InDelta(0.01, FalsePositiveRate(baseBitCount, baseHashFanout, baseCapacity), 0.001)
	require.Equal(1.0, FalsePositiveRate(0, 1, 1))
}
