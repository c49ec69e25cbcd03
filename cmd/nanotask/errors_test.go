package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/lease"
	"github.com/arthur-debert/nanotask/nanotask/storage"
	"github.com/arthur-debert/nanotask/nanotask/store"
	"github.com/arthur-debert/nanotask/nanotask/tree"
)

func TestNewStoreError(t *testing.T) {
	held := &lease.HeldError{Path: "tasks.json.lock", Holder: lease.Record{
		Hostname: "laptop", PID: 7, Token: "t", ExpiresAt: time.Now().Add(time.Minute),
	}}

	tests := []struct {
		name           string
		err            error
		wantCause      string
		wantSuggestion string
	}{
		{"held lease", fmt.Errorf("%w: %w", store.ErrNotInitialized, held), "the task list is being edited by another process", CommonSuggestions.UseForce},
		{"clock skew", &store.ClockSkewError{Path: "tasks.json"}, "the clocks of the machines sharing this store disagree", CommonSuggestions.CheckClocks},
		{"lost lease", store.ErrLeaseNotHeld, "the lock was lost before saving", CommonSuggestions.RetryLater},
		{"corrupt file", &storage.OpenError{Path: "tasks.json", Err: errors.New("bad json")}, "the store file could not be read", CommonSuggestions.CheckStore},
		{"missing task", fmt.Errorf("rename 9: %w", tree.ErrNotFound), "not found", CommonSuggestions.CheckID},
		{"cycle", fmt.Errorf("move: %w", tree.ErrCycle), "invalid move", ""},
		{"anything else", errors.New("disk on fire"), "store operation failed", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewStoreError("edit", tt.err)
			if e.Cause != tt.wantCause {
				t.Errorf("expected cause %q, got %q", tt.wantCause, e.Cause)
			}
			if tt.wantSuggestion != "" && !strings.Contains(e.Error(), tt.wantSuggestion) {
				t.Errorf("expected suggestion %q in %q", tt.wantSuggestion, e.Error())
			}
			if !errors.Is(e, tt.err) {
				t.Error("the original error must stay in the chain")
			}
		})
	}
}

func TestHeldErrorNamesHolder(t *testing.T) {
	held := &lease.HeldError{Holder: lease.Record{Hostname: "laptop", PID: 7, Token: "t", ExpiresAt: time.Now()}}
	e := NewStoreError("add task", held)
	if !strings.Contains(e.Details, "pid 7 on laptop") {
		t.Errorf("expected the holder in the details, got %q", e.Details)
	}
}

func TestCLIErrorFormat(t *testing.T) {
	e := &CLIError{
		Operation:   "add task",
		Cause:       "boom",
		Details:     "detail",
		Suggestions: []string{"first", "second"},
	}
	want := "Failed to add task: boom (detail)\n\nSuggestions:\n  1. first\n  2. second"
	if got := e.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	var cliErr *CLIError
	wrapped := WrapError("list", &CLIError{Cause: "inner"})
	if !errors.As(wrapped, &cliErr) || cliErr.Operation != "list" {
		t.Errorf("WrapError should fill in the operation, got %v", wrapped)
	}
	if WrapError("list", nil) != nil {
		t.Error("WrapError(nil) must be nil")
	}
}
