// Package config loads bloom filter parameters from BLOOM_ prefixed
// environment variables on top of the built-in defaults.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	bloom "github.com/vkuptcov/shabloom"
)

// AppConfig holds filter settings. BitCount and HashFanout are either both
// set or both left at zero, in which case they are estimated from Capacity
// and FalsePositiveRate.
type AppConfig struct {
	// Capacity is the maximum number of insertions.
	Capacity uint64 `koanf:"capacity" validate:"required,gte=1"`

	FalsePositiveRate float64 `koanf:"false_positive_rate" validate:"gte=0,lt=1"`

	BitCount   uint64 `koanf:"bit_count" validate:"required_with=HashFanout"`
	HashFanout uint64 `koanf:"hash_fanout" validate:"required_with=BitCount,lte=64"`

	// Digest is the hash used for index derivation.
	Digest string `koanf:"digest" validate:"required,oneof=auto sha1 sha256 sha512"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`
}

// DefaultAppConfig sizes a filter for 5000 items at a 1% false positive
// rate, which resolves to 47926 bits and 7 hashes over SHA-1.
var DefaultAppConfig = AppConfig{
	Capacity:          5000,
	FalsePositiveRate: 0.01,
	Digest:            "sha1",
	Env:               "prod",
	LogLevel:          "info",
}

var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "BLOOM_",
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, "BLOOM_")), strings.TrimSpace(value)
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil)
}

// Load parses environment variables and returns a validated AppConfig.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, errors.Wrap(err, "error loading default config")
	}
	if err := envLoader(k); err != nil {
		return nil, errors.Wrap(err, "error loading env")
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling config")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &cfg, nil
}

// Params converts the config into filter parameters. Explicit bit count and
// hash fanout take precedence over the false positive rate.
func (c *AppConfig) Params() (bloom.Params, error) {
	digest, err := bloom.ParseDigest(c.Digest)
	if err != nil {
		return bloom.Params{}, err
	}
	p := bloom.Params{
		Capacity: c.Capacity,
		Digest:   digest,
	}
	if c.BitCount != 0 && c.HashFanout != 0 {
		p.BitCount, p.HashFanout = c.BitCount, c.HashFanout
	} else {
		p.FalsePositiveRate = c.FalsePositiveRate
	}
	return p, nil
}

// Logger builds the zap backed logger described by Env and LogLevel.
func (c *AppConfig) Logger() (bloom.Logger, error) {
	return bloom.NewZapLogger(c.Env, c.LogLevel)
}

// NewFilter loads the config from the environment and builds a filter.
func NewFilter(opts ...bloom.Option) (*bloom.Filter, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	return bloom.NewFromParams(p, append([]bloom.Option{bloom.WithLogger(logger)}, opts...)...)
}
