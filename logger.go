package bloom

import (
	"log"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger func(v ...interface{})

func StdLogger(logger *log.Logger) Logger {
	if logger == nil {
		logger = log.Default()
	}
	return func(v ...interface{}) {
		logger.Println(v...)
	}
}

func NoopLogger() Logger {
	return func(...interface{}) {}
}

// ZapLogger writes every message at info level.
func ZapLogger(logger *zap.Logger) Logger {
	sugar := logger.Sugar()
	return func(v ...interface{}) {
		sugar.Infoln(v...)
	}
}

// NewZapLogger builds a zap backed Logger: colored development output
// unless env is "prod", filtered at level.
func NewZapLogger(env, level string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}

	var config zap.Config
	if env != "prod" {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "msg"
	config.EncoderConfig.LevelKey = "level"

	logger, err := config.Build()
	if err != nil {
		return nil, errors.Wrap(err, "zap logger build failed")
	}
	return ZapLogger(logger), nil
}
