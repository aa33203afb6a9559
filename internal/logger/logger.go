package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global SugaredLogger instance.
// Initialized with a no-op logger until Initialize is called.
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// Initialize sets up the global logger with the given log level.
func Initialize(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = logger.Sugar()
	return nil
}

// GormWriter lets gorm's logger print through zap.
type GormWriter struct {
	Log *zap.SugaredLogger
}

// Printf logs at warn level, or at error level when gorm hands over an error.
// gorm only writes here for slow queries, warnings and failed statements.
func (w GormWriter) Printf(format string, args ...interface{}) {
	for _, arg := range args {
		if _, ok := arg.(error); ok {
			w.Log.Errorf(format, args...)
			return
		}
	}
	w.Log.Warnf(format, args...)
}
