package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		DebugLevel: zapcore.DebugLevel,
		"verbose":  defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Fatalf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHonoursLevel(t *testing.T) {
	log := New(WarnLevel, FormatJSON)
	if log.Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info must be filtered at warn level")
	}
	if !log.Named("poller").Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("named child must keep the parent's level")
	}
}
