package redact

import (
	"testing"
)

func TestNoRulesPassthrough(t *testing.T) {
	t.Parallel()
	r, err := New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasRules() {
		t.Fatal("expected no rules")
	}
	rows := [][]any{{"secret@example.com", int64(1)}}
	out := r.Apply(rows)
	if out[0][0] != "secret@example.com" {
		t.Fatal("no-rule redactor must not modify cells")
	}
}

func TestEmailRedaction(t *testing.T) {
	t.Parallel()
	r, err := New([]Rule{
		{Pattern: `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+`, Replacement: "[EMAIL]"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := [][]any{
		{"contact alice@example.com today", int64(5)},
		{"no address here", nil},
	}
	out := r.Apply(rows)
	if out[0][0] != "contact [EMAIL] today" {
		t.Fatalf("expected email redacted, got %q", out[0][0])
	}
	if out[1][0] != "no address here" {
		t.Fatalf("non-matching cell modified: %q", out[1][0])
	}
}

func TestNonStringCellsUntouched(t *testing.T) {
	t.Parallel()
	r, err := New([]Rule{{Pattern: `\d+`, Replacement: "X"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := [][]any{{int64(12345), 67.5, nil}}
	out := r.Apply(rows)
	if out[0][0] != int64(12345) || out[0][1] != 67.5 || out[0][2] != nil {
		t.Fatal("non-string cells must pass through untouched")
	}
}

func TestMultipleRulesInOrder(t *testing.T) {
	t.Parallel()
	r, err := New([]Rule{
		{Pattern: `secret`, Replacement: "hidden"},
		{Pattern: `hidden`, Replacement: "[REDACTED]"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := r.Apply([][]any{{"top secret"}})
	if out[0][0] != "top [REDACTED]" {
		t.Fatalf("rules must apply top to bottom, got %q", out[0][0])
	}
}

func TestInvalidPattern(t *testing.T) {
	t.Parallel()
	if _, err := New([]Rule{{Pattern: `([`, Replacement: ""}}); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}
