package redisclients

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// bitFieldBatch bounds the number of offsets sent in one BITFIELD command.
const bitFieldBatch = 512

type goRedisClient struct {
	client redis.UniversalClient
}

func NewGoRedisClient(client redis.UniversalClient) RedisClient {
	return &goRedisClient{client: client}
}

func (g *goRedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := g.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.Wrap(ErrKeyNotFound, key)
	}
	return data, err
}

func (g *goRedisClient) GetMeta(ctx context.Context, key string) (map[string]string, error) {
	return g.client.HGetAll(ctx, key).Result()
}

func (g *goRedisClient) CheckBits(ctx context.Context, key string, offsets ...uint64) (bool, error) {
	bitFieldArgs := make([]interface{}, 0, len(offsets)*3)
	for _, offset := range offsets {
		bitFieldArgs = append(bitFieldArgs, "GET", "u1", offset)
	}
	sliceCmds := g.client.BitField(ctx, key, bitFieldArgs...)
	res, err := sliceCmds.Result()
	if err != nil {
		return false, err
	}
	for _, s := range res {
		if s == 0 {
			return false, nil
		}
	}
	return true, nil
}

func (g *goRedisClient) Pipeliner(ctx context.Context) Pipeliner {
	return &goRedisPipeliner{
		ctx:       ctx,
		pipeliner: g.client.TxPipeline(),
	}
}

type goRedisPipeliner struct {
	ctx       context.Context
	pipeliner redis.Pipeliner
}

func (g *goRedisPipeliner) Del(keys ...string) Pipeliner {
	g.pipeliner.Del(g.ctx, keys...)
	return g
}

func (g *goRedisPipeliner) SetBits(key string, offsets ...uint64) Pipeliner {
	for len(offsets) > 0 {
		n := len(offsets)
		if n > bitFieldBatch {
			n = bitFieldBatch
		}
		bitFieldArgs := make([]interface{}, 0, n*4)
		for _, offset := range offsets[:n] {
			bitFieldArgs = append(bitFieldArgs, "SET", "u1", offset, 1)
		}
		g.pipeliner.BitField(g.ctx, key, bitFieldArgs...)
		offsets = offsets[n:]
	}
	return g
}

func (g *goRedisPipeliner) SetMeta(key string, values map[string]interface{}) Pipeliner {
	g.pipeliner.HSet(g.ctx, key, values)
	return g
}

func (g *goRedisPipeliner) Exec() error {
	_, err := g.pipeliner.Exec(g.ctx)
	return err
}

var _ RedisClient = &goRedisClient{}
