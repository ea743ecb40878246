package bloom

import (
	"testing"

	requireLib "github.com/stretchr/testify/require"
)

func TestCBORCanonicalizer(t *testing.T) {
	require := requireLib.New(t)
	c := NewCBORCanonicalizer()

	encode := func(item interface{}) []byte {
		data, err := c.Canonical(item)
		require.NoError(err)
		return data
	}

	require.Equal([]byte("\x65hello"), encode("hello"))
	require.NotEqual(encode("1"), encode(1))
	require.NotEqual(encode("1"), encode([]byte("1")))
	require.Equal(encode(uint8(1)), encode(int64(1)), "integers encode by value")
	require.Equal(
		encode(map[string]int{"a": 1, "b": 2, "c": 3}),
		encode(map[string]int{"c": 3, "a": 1, "b": 2}),
	)
	require.NotEqual(encode([]int{1, 2}), encode([]int{2, 1}))

	_, err := c.Canonical(func() {})
	require.Error(err)
}

func TestRawCanonicalizer(t *testing.T) {
	require := requireLib.New(t)
	data, err := RawCanonicalizer.Canonical("abc")
	require.NoError(err)
	require.Equal([]byte("abc"), data)

	data, err = RawCanonicalizer.Canonical(uint32(0x01020304))
	require.NoError(err)
	require.Equal([]byte{1, 2, 3, 4}, data)

	_, err = RawCanonicalizer.Canonical(struct{}{})
	require.ErrorIs(err, ErrUnsupportedItem)
}
