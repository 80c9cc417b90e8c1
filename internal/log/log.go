package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	atomLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger initializes the global logger to write to stderr with timestamps.
func initLogger() {
	loggerOnce.Do(func() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "ts"
		encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			atomLevel,
		)
		logger = zap.New(core).Sugar()
	})
}

// ParseLevel maps a config/flag value ("debug", "info", "error") to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(LevelDebug):
		return LevelDebug
	case string(LevelError):
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	initLogger()
	switch l {
	case LevelDebug:
		atomLevel.SetLevel(zapcore.DebugLevel)
	case LevelError:
		atomLevel.SetLevel(zapcore.ErrorLevel)
	default:
		atomLevel.SetLevel(zapcore.InfoLevel)
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

func Error(msg string, err error, kv ...any) {
	initLogger()
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logger.Errorw(msg, extended...)
}

// Sync flushes buffered log entries. Call before exiting.
func Sync() {
	initLogger()
	_ = logger.Sync()
}
