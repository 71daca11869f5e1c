package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	level      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger builds the process-wide zap logger: console encoding on stderr
// with ISO8601 timestamps, level controlled by the shared atomic level.
func initLogger() {
	loggerOnce.Do(func() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "timestamp"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		cfg := zap.Config{
			Level:            level,
			Encoding:         "console",
			EncoderConfig:    encCfg,
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
		}

		l, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			// zap cannot fail on this fixed config short of a bad output
			// path; fall back to the example logger rather than panic.
			l = zap.NewExample()
		}
		logger = l.Sugar()
	})
}

// SetDebug toggles the minimum level between DEBUG and INFO.
func SetDebug(on bool) {
	initLogger()
	if on {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.Infow(msg, kv...)
}

// Error logs msg with err prepended to the key-value list as "err".
func Error(msg string, err error, kv ...any) {
	initLogger()
	logger.Errorw(msg, append([]any{"err", err}, kv...)...)
}

// Sync flushes buffered log entries; called on shutdown.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
