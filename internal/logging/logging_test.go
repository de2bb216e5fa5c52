package logging

import "testing"

func TestNewBuildsAUsableLogger(t *testing.T) {
	l, err := New(Config{Level: "debug", JSON: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("pipeline stage", "stage", "S1_VALIDATE")
	l2 := l.With("run_id", "RES:deadbeef")
	l2.Warn("quorum marginal", "pct", 51)
}

func TestDiscardLoggerNeverPanics(t *testing.T) {
	l := NewDiscardLogger()
	l.Info("ignored")
	l.With("k", "v").Error("ignored too")
}
