package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/luxfi/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the run logger the driver builds at startup.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// JSON selects structured JSON encoding instead of the human-readable
	// console encoder; set for log aggregation, unset for a terminal.
	JSON bool
}

// New builds a zap-backed log.Logger for one pipeline run. The logger
// supports With/WithFields for attaching fields such as a stage name or
// unit ID; pipeline.Run itself attaches none.
func New(cfg Config) (log.Logger, error) {
	level := parseLevel(cfg.Level)
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.JSON {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level)
	zl := zap.New(core)
	return &stageLogger{zl: zl, level: level}, nil
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// stageLogger adapts a *zap.Logger to log.Logger's geth-style
// (msg, key, value, key, value...) call shape.
type stageLogger struct {
	zl    *zap.Logger
	level zapcore.Level
}

func (s *stageLogger) With(ctx ...interface{}) log.Logger {
	return &stageLogger{zl: s.zl.With(kvsToFields(ctx)...), level: s.level}
}

func (s *stageLogger) New(ctx ...interface{}) log.Logger { return s.With(ctx...) }

func (s *stageLogger) Log(level slog.Level, msg string, ctx ...interface{}) {
	switch {
	case level >= slog.LevelError:
		s.Error(msg, ctx...)
	case level >= slog.LevelWarn:
		s.Warn(msg, ctx...)
	case level >= slog.LevelInfo:
		s.Info(msg, ctx...)
	default:
		s.Debug(msg, ctx...)
	}
}

func (s *stageLogger) Trace(msg string, ctx ...interface{}) { s.zl.Debug(msg, kvsToFields(ctx)...) }
func (s *stageLogger) Debug(msg string, ctx ...interface{}) { s.zl.Debug(msg, kvsToFields(ctx)...) }
func (s *stageLogger) Info(msg string, ctx ...interface{})  { s.zl.Info(msg, kvsToFields(ctx)...) }
func (s *stageLogger) Warn(msg string, ctx ...interface{})  { s.zl.Warn(msg, kvsToFields(ctx)...) }
func (s *stageLogger) Error(msg string, ctx ...interface{}) { s.zl.Error(msg, kvsToFields(ctx)...) }
func (s *stageLogger) Crit(msg string, ctx ...interface{})  { s.zl.Error(msg, kvsToFields(ctx)...) }

func (s *stageLogger) WriteLog(level slog.Level, msg string, attrs ...any) {
	s.Log(level, msg, attrs...)
}

func (s *stageLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return s.level.Enabled(zapcore.Level(level / 4))
}

func (s *stageLogger) Handler() slog.Handler { return nil }

func (s *stageLogger) Fatal(msg string, fields ...zap.Field) { s.zl.Fatal(msg, fields...) }
func (s *stageLogger) Verbo(msg string, fields ...zap.Field) { s.zl.Debug(msg, fields...) }

func (s *stageLogger) WithFields(fields ...zap.Field) log.Logger {
	return &stageLogger{zl: s.zl.With(fields...), level: s.level}
}

func (s *stageLogger) WithOptions(opts ...zap.Option) log.Logger {
	return &stageLogger{zl: s.zl.WithOptions(opts...), level: s.level}
}

func (s *stageLogger) SetLevel(level slog.Level) { s.level = zapcore.Level(level / 4) }
func (s *stageLogger) GetLevel() slog.Level      { return slog.Level(s.level) * 4 }
func (s *stageLogger) EnabledLevel(lvl slog.Level) bool {
	return s.level.Enabled(zapcore.Level(lvl / 4))
}

func (s *stageLogger) StopOnPanic() {}
func (s *stageLogger) RecoverAndPanic(f func()) {
	defer func() {
		if r := recover(); r != nil {
			s.zl.Sync()
			panic(r)
		}
	}()
	f()
}
func (s *stageLogger) RecoverAndExit(f, exit func()) {
	defer func() {
		if r := recover(); r != nil {
			s.zl.Error("recovered panic", zap.Any("panic", r))
			exit()
		}
	}()
	f()
}
func (s *stageLogger) Stop() { _ = s.zl.Sync() }

func (s *stageLogger) Write(p []byte) (int, error) {
	s.zl.Info(string(p))
	return len(p), nil
}

// kvsToFields pairs up geth-style (key, value, key, value, ...) varargs
// into zap fields, tolerating an odd trailing key by logging it bare.
func kvsToFields(kv []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, kv[i+1]))
	}
	if len(kv)%2 == 1 {
		fields = append(fields, zap.Any("extra", kv[len(kv)-1]))
	}
	return fields
}
