package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/arthur-debert/nanotask/nanotask/config"
	"github.com/arthur-debert/nanotask/nanotask/lease"
	"github.com/arthur-debert/nanotask/nanotask/storage"
	"github.com/arthur-debert/nanotask/nanotask/store"
	"github.com/arthur-debert/nanotask/nanotask/tree"
	"github.com/arthur-debert/nanotask/nanotask/workspace"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "add", "move", "list")
	Cause       string   // The underlying cause (e.g., "task not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}

	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}

	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewValidationError creates an error for validation failures
func NewValidationError(operation, field, value string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("invalid %s: %q", field, value),
		Suggestions: suggestions,
	}
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation string, underlying error, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       "configuration error",
		Details:     underlying.Error(),
		Suggestions: append(suggestions, CommonSuggestions.CheckConfig),
		Underlying:  underlying,
	}
}

// NewStoreError creates an error for store-related issues, describing the
// well-known failures of the lease and store layers.
func NewStoreError(operation string, underlying error, suggestions ...string) *CLIError {
	e := &CLIError{
		Operation:  operation,
		Cause:      "store operation failed",
		Underlying: underlying,
	}
	if underlying == nil {
		e.Suggestions = suggestions
		return e
	}
	e.Details = underlying.Error()

	var (
		held    *lease.HeldError
		skew    *store.ClockSkewError
		openErr *storage.OpenError
	)
	switch {
	case errors.As(underlying, &held):
		e.Cause = "the task list is being edited by another process"
		e.Details = held.Holder.String()
		suggestions = append(suggestions, CommonSuggestions.RetryLater, CommonSuggestions.UseForce)
	case errors.As(underlying, &skew):
		e.Cause = "the clocks of the machines sharing this store disagree"
		suggestions = append(suggestions, CommonSuggestions.CheckClocks)
	case errors.Is(underlying, store.ErrLeaseNotHeld):
		e.Cause = "the lock was lost before saving"
		suggestions = append(suggestions, CommonSuggestions.RetryLater)
	case errors.As(underlying, &openErr):
		e.Cause = "the store file could not be read"
		suggestions = append(suggestions, CommonSuggestions.CheckStore)
	case errors.Is(underlying, tree.ErrNotFound), errors.Is(underlying, workspace.ErrNotFound):
		e.Cause = "not found"
		suggestions = append(suggestions, CommonSuggestions.CheckID)
	case errors.Is(underlying, tree.ErrCycle), errors.Is(underlying, tree.ErrDegenerateMove),
		errors.Is(underlying, tree.ErrSelfTarget), errors.Is(underlying, tree.ErrRootTask):
		e.Cause = "invalid move"
	case errors.Is(underlying, tree.ErrInvalidValue), errors.Is(underlying, workspace.ErrDuplicate):
		e.Cause = "invalid data provided"
	case errors.Is(underlying, config.ErrInvalid):
		e.Cause = "configuration error"
		suggestions = append(suggestions, CommonSuggestions.CheckConfig)
	case errors.Is(underlying, fs.ErrPermission):
		e.Cause = "insufficient permissions to access the store"
		suggestions = append(suggestions, CommonSuggestions.CheckPerms)
	}
	e.Suggestions = suggestions
	return e
}

// WrapError wraps an existing error with CLI-friendly context
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}

	return NewStoreError(operation, err, suggestions...)
}

// Common error messages and suggestions
var (
	CommonSuggestions = struct {
		CheckID     string
		CheckConfig string
		CheckPerms  string
		CheckClocks string
		CheckStore  string
		RetryLater  string
		UseForce    string
		RunHelp     string
	}{
		CheckID:     "Verify the id exists (try 'nanotask list --all' first)",
		CheckConfig: "Check your configuration file or NANOTASK_* environment variables",
		CheckPerms:  "Check file permissions and directory access",
		CheckClocks: "Synchronise the clocks (e.g. with NTP) and restart nanotask",
		CheckStore:  "Inspect the store file or restore it from a backup",
		RetryLater:  "Retry once the other process has saved",
		UseForce:    "Pass --force to take over a lock left by a crashed process",
		RunHelp:     "Run command with --help for usage information",
	}
)
