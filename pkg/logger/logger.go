package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

func Initialize(logLevel string) error {
	zLevel, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	config := zap.Config{
		Encoding:         "json",
		Level:            zap.NewAtomicLevelAt(zLevel),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "message",
			LevelKey:     "level",
			TimeKey:      "time",
			CallerKey:    "caller",
			NameKey:      "component",
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	log, err = config.Build()
	if err != nil {
		return err
	}

	return nil
}

// Logger returns the process logger. Before Initialize is called (tests, tools)
// it returns a no-op logger instead of nil.
func Logger() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func Named(component string) *zap.Logger {
	return Logger().Named(component)
}

func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}
