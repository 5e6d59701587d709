package util

import (
	"strings"
	"testing"
	"time"
)

func TestEnv(t *testing.T) {
	t.Setenv("BATCH_TEST_STR", "  value  ")
	if got := Env("BATCH_TEST_STR", "def"); got != "value" {
		t.Errorf("Env = %q, want trimmed value", got)
	}
	if got := Env("BATCH_TEST_MISSING", "def"); got != "def" {
		t.Errorf("Env = %q, want default", got)
	}
}

func TestBoolEnv(t *testing.T) {
	t.Setenv("BATCH_TEST_BOOL", "true")
	if !BoolEnv("BATCH_TEST_BOOL", false) {
		t.Error("expected true")
	}
	t.Setenv("BATCH_TEST_BOOL", "nope")
	if !BoolEnv("BATCH_TEST_BOOL", true) {
		t.Error("expected default on invalid value")
	}
}

func TestDurationEnv(t *testing.T) {
	t.Setenv("BATCH_TEST_DUR", "90m")
	if got := DurationEnv("BATCH_TEST_DUR", time.Hour); got != 90*time.Minute {
		t.Errorf("DurationEnv = %v, want 90m", got)
	}
	t.Setenv("BATCH_TEST_DUR", "-1s")
	if got := DurationEnv("BATCH_TEST_DUR", time.Hour); got != time.Hour {
		t.Errorf("DurationEnv = %v, want default for negative", got)
	}
	t.Setenv("BATCH_TEST_DUR", "soon")
	if got := DurationEnv("BATCH_TEST_DUR", time.Hour); got != time.Hour {
		t.Errorf("DurationEnv = %v, want default for invalid", got)
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Error("expected unique run ids")
	}
	if !strings.HasPrefix(a, "run_") {
		t.Errorf("expected run_ prefix, got %s", a)
	}
	if NewToken() == "" {
		t.Error("expected non-empty token")
	}
}
