package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env     string
		level   string
		wantLvl zapcore.Level
		wantErr bool
	}{
		{"local", "", zapcore.DebugLevel, false},
		{"prod", "", zapcore.InfoLevel, false},
		{"dev", "warn", zapcore.WarnLevel, false},
		{"prod", "verbose", 0, true},
		{"staging", "", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.env+"/"+tc.level, func(t *testing.T) {
			l, err := NewLogger(tc.env, tc.level)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !l.Core().Enabled(tc.wantLvl) || l.Core().Enabled(tc.wantLvl-1) {
				t.Errorf("logger level is not %s", tc.wantLvl)
			}
		})
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a no-op logger")
	}
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx, l := With(ctx, zap.String("collection", "cards"))
	l.Info("direct")
	FromContext(ctx).Info("from context")

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	for _, e := range logs.All() {
		if e.ContextMap()["collection"] != "cards" {
			t.Errorf("entry %q missing collection field: %v", e.Message, e.ContextMap())
		}
	}
}
