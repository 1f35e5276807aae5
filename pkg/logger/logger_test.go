package logger

import "testing"

func TestInitAndModuleLogger(t *testing.T) {
	if err := Init("debug"); err != nil {
		t.Fatalf("init error: %v", err)
	}

	if Logger() == nil {
		t.Fatal("expected global logger to be configured")
	}

	child := WithModule("auth")
	if child == nil {
		t.Fatal("expected module logger")
	}
}

func TestInitUnknownLevelFallsBack(t *testing.T) {
	if err := Init("not-a-level"); err != nil {
		t.Fatalf("init error: %v", err)
	}
}
