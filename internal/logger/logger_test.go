package logger

import (
	"testing"

	"backend-chirper/internal/config"
)

func TestNewDevelopment(t *testing.T) {
	log, err := New(config.Config{AppEnv: config.EnvDevelopment, LogLevel: "debug"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !log.Core().Enabled(-1) {
		t.Fatalf("expected debug level enabled")
	}
}

func TestNewProductionDefaultsToInfo(t *testing.T) {
	log, err := New(config.Config{AppEnv: config.EnvProduction})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if log.Core().Enabled(-1) {
		t.Fatalf("expected debug level disabled")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New(config.Config{LogLevel: "loud"}); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
