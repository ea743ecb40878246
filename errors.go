package bloom

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidParameters is returned when a filter can't be built from the given sizes.
	ErrInvalidParameters = errors.New("invalid bloom filter parameters")
	// ErrFilterFull is returned by inserts once the filter holds Capacity items.
	ErrFilterFull = errors.New("bloom filter is full")
	// ErrUnsupportedItem is returned when an item has no canonical encoding.
	ErrUnsupportedItem = errors.New("item can't be canonically encoded")
	ErrCorruptSnapshot = errors.New("corrupt bloom filter snapshot")
)
