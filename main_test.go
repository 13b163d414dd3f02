package main

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("warn", "json")
	if err != nil {
		t.Fatal(err)
	}
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info to be filtered at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected error to be enabled at warn level")
	}

	if _, err = newLogger("loud", "text"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
