package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigureHonoursLevel(t *testing.T) {
	restore := Use(zap.NewNop())
	t.Cleanup(restore)

	if err := Init("debug"); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if !Logger().Core().Enabled(zap.DebugLevel) {
		t.Fatal("expected debug level to be enabled")
	}

	if err := Configure(Options{Level: "not-a-level", Format: "console"}); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}
	if Logger().Core().Enabled(zap.DebugLevel) {
		t.Fatal("unknown level should fall back to info")
	}
}

func TestHelpersWriteToGlobalLogger(t *testing.T) {
	core, recorded := observer.New(zap.DebugLevel)
	t.Cleanup(Use(zap.New(core)))

	Info("registered", zap.String("email", "a@example.com"))
	Warn("avatar upload failed")
	Error("email delivery failed")
	Debug("cache miss")

	entries := recorded.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[0].ContextMap()["email"] != "a@example.com" {
		t.Fatalf("missing field on first entry: %v", entries[0].ContextMap())
	}
}

func TestWithModuleTagsEntries(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	t.Cleanup(Use(zap.New(core)))

	WithModule("connections").Info("request created")

	entries := recorded.FilterField(zap.String("module", "connections")).All()
	if len(entries) != 1 {
		t.Fatalf("expected one module-tagged entry, got %d", len(entries))
	}
}

func TestUseNilFallsBackToNop(t *testing.T) {
	restore := Use(nil)
	defer restore()

	if Logger() == nil {
		t.Fatal("expected a non-nil logger")
	}
}
