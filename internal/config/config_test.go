package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Engine.MaxAssignmentsPerWorker != 3 {
		t.Fatalf("expected default max assignments 3, got %d", cfg.Engine.MaxAssignmentsPerWorker)
	}
	if cfg.Engine.EscalationLevel1Threshold != 24*time.Hour {
		t.Fatalf("expected default level 1 threshold 24h, got %s", cfg.Engine.EscalationLevel1Threshold)
	}
	if cfg.Notifier.QueueKey != "complaint:notifications" {
		t.Fatalf("unexpected queue key %q", cfg.Notifier.QueueKey)
	}
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	t.Setenv("ENGINE_ESCALATION_LEVEL1_THRESHOLD", "48h")
	t.Setenv("ENGINE_ESCALATION_LEVEL2_THRESHOLD", "24h")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when level 2 threshold does not exceed level 1")
	}
}

func TestLoadRejectsZeroCapacity(t *testing.T) {
	t.Setenv("ENGINE_MAX_ASSIGNMENTS_PER_WORKER", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when worker capacity is below 1")
	}
}

func TestDurationOverride(t *testing.T) {
	t.Setenv("ENGINE_SWEEP_INTERVAL", "90s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Engine.SweepInterval != 90*time.Second {
		t.Fatalf("expected 90s sweep interval, got %s", cfg.Engine.SweepInterval)
	}
}
