package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return FromZap(zap.New(core)), logs
}

func TestRedactsCredentialKeys(t *testing.T) {
	log, logs := observed()
	log.Info("calling model", "api_key", "sk-123", "model", "llama", "Authorization", "Bearer x")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["api_key"] != "[REDACTED]" {
		t.Errorf("api_key = %v", fields["api_key"])
	}
	if fields["Authorization"] != "[REDACTED]" {
		t.Errorf("Authorization = %v", fields["Authorization"])
	}
	if fields["model"] != "llama" {
		t.Errorf("model = %v", fields["model"])
	}
}

func TestWithCarriesFields(t *testing.T) {
	log, logs := observed()
	log.With("file", "2301.01234v1.pdf").Warn("skipping")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].ContextMap()["file"] != "2301.01234v1.pdf" {
		t.Errorf("fields = %v", entries[0].ContextMap())
	}
}

func TestOddKeyValues(t *testing.T) {
	got := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Errorf("sanitizeKVs() = %v", got)
	}
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q) error = %v", mode, err)
		}
		l.Debug("hello")
	}
	Nop().Error("discarded")
}
