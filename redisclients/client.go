package redisclients

import (
	"context"

	"github.com/pkg/errors"
)

var ErrKeyNotFound = errors.New("redis key not found")

type RedisClient interface {
	// Get returns a byte slice stored under the provided key
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMeta returns all fields of the hash stored under the provided key,
	// an empty map if there is none
	GetMeta(ctx context.Context, key string) (map[string]string, error)
	// CheckBits returns true if all bits at the specified offsets are set to 1
	CheckBits(ctx context.Context, key string, offsets ...uint64) (bool, error)
	// Pipeliner queues commands executed atomically on Exec
	Pipeliner(ctx context.Context) Pipeliner
}

type Pipeliner interface {
	Del(keys ...string) Pipeliner
	// SetBits sets bits at the specified offsets to 1
	SetBits(key string, offsets ...uint64) Pipeliner
	SetMeta(key string, values map[string]interface{}) Pipeliner
	Exec() error
}
