// Package logging wires github.com/luxfi/log and go.uber.org/zap into a
// per-run stage logger for the pipeline driver. It follows the teacher's
// log/nolog.go and log/noop.go pattern (a struct satisfying
// log.Logger plus a constructor), adapted to the tabulation pipeline:
// DiscardLogger backs --quiet CLI runs and unit tests, StageLogger backs
// everything else.
package logging

import (
	"context"
	"log/slog"

	"github.com/luxfi/log"
	"go.uber.org/zap"
)

// discard is a no-op log.Logger, used for --quiet runs and for tests that
// exercise pipeline stages without wanting log noise.
type discard struct{}

// NewDiscardLogger returns a log.Logger that drops everything it is given.
func NewDiscardLogger() log.Logger {
	return discard{}
}

func (discard) With(ctx ...interface{}) log.Logger { return discard{} }
func (discard) New(ctx ...interface{}) log.Logger  { return discard{} }

func (discard) Log(level slog.Level, msg string, ctx ...interface{}) {}
func (discard) Trace(msg string, ctx ...interface{})                 {}
func (discard) Debug(msg string, ctx ...interface{})                 {}
func (discard) Info(msg string, ctx ...interface{})                  {}
func (discard) Warn(msg string, ctx ...interface{})                  {}
func (discard) Error(msg string, ctx ...interface{})                 {}
func (discard) Crit(msg string, ctx ...interface{})                  {}
func (discard) WriteLog(level slog.Level, msg string, attrs ...any)  {}

func (discard) Enabled(ctx context.Context, level slog.Level) bool { return false }
func (discard) Handler() slog.Handler                              { return nil }

func (discard) Fatal(msg string, fields ...zap.Field) {}
func (discard) Verbo(msg string, fields ...zap.Field) {}

func (d discard) WithFields(fields ...zap.Field) log.Logger { return d }
func (d discard) WithOptions(opts ...zap.Option) log.Logger { return d }

func (discard) SetLevel(level slog.Level)        {}
func (discard) GetLevel() slog.Level             { return slog.Level(0) }
func (discard) EnabledLevel(lvl slog.Level) bool { return false }

func (discard) StopOnPanic()                  {}
func (discard) RecoverAndPanic(f func())      { f() }
func (discard) RecoverAndExit(f, exit func()) { f() }
func (discard) Stop()                         {}

func (discard) Write(p []byte) (n int, err error) { return len(p), nil }
