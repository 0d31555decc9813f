package log

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

const (
	sampleTick       = time.Second
	sampleInitial    = 100
	sampleThereafter = 100
)

type Logger struct {
	zapLogger *zap.Logger
	// raw is zapLogger without sampling.
	raw      *zap.Logger
	zapLevel zap.AtomicLevel
}

// New builds a JSON logger writing to stderr.
func New(level Level) *Logger {
	logger, err := NewWithFormat(level, "json")
	if err != nil {
		panic(err)
	}
	return logger
}

// NewWithFormat builds a logger with the given encoding, "json" or "console".
func NewWithFormat(level Level, format string) (*Logger, error) {
	atomicLevel := zap.NewAtomicLevelAt(toZapLevel(level))

	var encoderConfig zapcore.EncoderConfig
	switch format {
	case "json", "":
		format = "json"
		encoderConfig = zap.NewProductionEncoderConfig()
	case "console":
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.Config{
		Level:            atomicLevel,
		Development:      false,
		Encoding:         format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	logger := NewSampled(zapLogger)
	logger.zapLevel = atomicLevel
	return logger, nil
}

// NewSampled wraps zapLogger so that, per second, only the first 100
// entries with a given message and every 100th after that are written.
// Unsampled still reaches zapLogger directly.
func NewSampled(zapLogger *zap.Logger) *Logger {
	l := NewFromZap(zapLogger)
	l.zapLogger = zapLogger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewSamplerWithOptions(core, sampleTick, sampleInitial, sampleThereafter)
	}))
	return l
}

// NewFromZap wraps an existing zap logger, e.g. zaptest or an observer core.
func NewFromZap(zapLogger *zap.Logger) *Logger {
	level := zap.NewAtomicLevelAt(zapcore.LevelOf(zapLogger.Core()))
	return &Logger{zapLogger: zapLogger, raw: zapLogger, zapLevel: level}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	nop := zap.NewNop()
	return &Logger{zapLogger: nop, raw: nop, zapLevel: zap.NewAtomicLevelAt(zap.FatalLevel)}
}

func (l *Logger) Log(level Level, msg string, fields ...Field) {
	if !l.zapLevel.Enabled(toZapLevel(level)) {
		return
	}
	l.zapLogger.Log(toZapLevel(level), msg, toZapFields(fields...)...)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.Log(LevelDebug, msg, fields...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.Log(LevelInfo, msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.Log(LevelWarn, msg, fields...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.Log(LevelError, msg, fields...)
}

func (l *Logger) With(fields ...Field) Log {
	zapFields := toZapFields(fields...)
	return &Logger{
		zapLogger: l.zapLogger.With(zapFields...),
		raw:       l.raw.With(zapFields...),
		zapLevel:  l.zapLevel,
	}
}

func (l *Logger) Unsampled() Log {
	return &Logger{zapLogger: l.raw, raw: l.raw, zapLevel: l.zapLevel}
}

func (l *Logger) WithContext(_ context.Context) Log {
	// Nothing is propagated through the context yet.
	return l
}

func (l *Logger) SetLevel(level Level) {
	l.zapLevel.SetLevel(toZapLevel(level))
}

func (l *Logger) GetLevel() Level {
	return fromZapLevel(l.zapLevel.Level())
}

func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

// Zap exposes the underlying logger for libraries that want one directly.
func (l *Logger) Zap() *zap.Logger {
	return l.zapLogger
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zap.DebugLevel
	case LevelInfo:
		return zap.InfoLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	case LevelFatal:
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func fromZapLevel(level zapcore.Level) Level {
	switch level {
	case zap.DebugLevel:
		return LevelDebug
	case zap.InfoLevel:
		return LevelInfo
	case zap.WarnLevel:
		return LevelWarn
	case zap.ErrorLevel:
		return LevelError
	case zap.FatalLevel:
		return LevelFatal
	default:
		return LevelInfo
	}
}

func toZapFields(fields ...Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case BoolType:
			zapFields[i] = zap.Bool(f.Key, f.Value.(bool))
		case DurationType:
			zapFields[i] = zap.Duration(f.Key, f.Value.(time.Duration))
		case Float64Type:
			zapFields[i] = zap.Float64(f.Key, f.Value.(float64))
		case IntType:
			zapFields[i] = zap.Int(f.Key, f.Value.(int))
		case Int64Type:
			zapFields[i] = zap.Int64(f.Key, f.Value.(int64))
		case StringType:
			zapFields[i] = zap.String(f.Key, f.Value.(string))
		case StringerType:
			zapFields[i] = zap.Stringer(f.Key, f.Value.(fmt.Stringer))
		case Uint64Type:
			zapFields[i] = zap.Uint64(f.Key, f.Value.(uint64))
		case ErrorType:
			err, _ := f.Value.(error)
			zapFields[i] = zap.NamedError(f.Key, err)
		default:
			zapFields[i] = zap.Any(f.Key, f.Value)
		}
	}
	return zapFields
}
