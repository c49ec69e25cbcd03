package formats

import (
	"strings"
	"testing"

	"github.com/arthur-debert/nanotask/testutil"
	"github.com/google/go-cmp/cmp"
)

func noopRender([]Row, RenderOptions) string { return "" }

func TestRegister(t *testing.T) {
	// Save original registry
	originalRegistry := registry
	defer func() { registry = originalRegistry }()

	registry = make(map[string]*ListingFormat)

	tests := []struct {
		name      string
		format    *ListingFormat
		wantError bool
		errorMsg  string
	}{
		{
			name:   "valid format",
			format: &ListingFormat{Name: "test-format", Extension: ".test", Render: noopRender},
		},
		{
			name:      "invalid name with uppercase",
			format:    &ListingFormat{Name: "TestFormat", Extension: ".test", Render: noopRender},
			wantError: true,
			errorMsg:  "invalid format name",
		},
		{
			name:      "invalid name with special chars",
			format:    &ListingFormat{Name: "test@format", Extension: ".test", Render: noopRender},
			wantError: true,
			errorMsg:  "invalid format name",
		},
		{
			name:      "empty name",
			format:    &ListingFormat{Name: "", Extension: ".test", Render: noopRender},
			wantError: true,
			errorMsg:  "invalid format name",
		},
		{
			name:      "no renderer",
			format:    &ListingFormat{Name: "blank", Extension: ".txt"},
			wantError: true,
			errorMsg:  "no renderer",
		},
		{
			name:   "extension without dot",
			format: &ListingFormat{Name: "test-format-2", Extension: "test", Render: noopRender},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Register(tt.format)

			if tt.wantError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(tt.format.Extension, ".") {
				t.Errorf("extension not normalized: %q", tt.format.Extension)
			}
		})
	}

	t.Run("duplicate format", func(t *testing.T) {
		format := &ListingFormat{Name: "duplicate", Extension: ".dup", Render: noopRender}
		if err := Register(format); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}
		err := Register(format)
		if err == nil || !strings.Contains(err.Error(), "already registered") {
			t.Errorf("expected 'already registered' error, got %v", err)
		}
	})
}

func TestGetAndList(t *testing.T) {
	if diff := cmp.Diff([]string{"markdown", "plaintext"}, List()); diff != "" {
		t.Errorf("unexpected formats (-want +got):\n%s", diff)
	}

	format, err := Get("plaintext")
	if err != nil || format != PlainText {
		t.Errorf("expected the plaintext format, got %v, %v", format, err)
	}
	if _, err := Get("nonexistent"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRows(t *testing.T) {
	tr := testutil.LoadUniverse(t)
	rows := Rows(tr, tr.Flatten(false, false))

	depths := make(map[int]int, len(rows))
	for _, row := range rows {
		depths[row.Task.ID] = row.Depth
	}
	want := map[int]int{
		testutil.Personal: 0, testutil.BuyGroceries: 1, testutil.Milk: 2, testutil.Bread: 2,
		testutil.Exercise: 1, testutil.Work: 0, testutil.TeamMeeting: 1, testutil.PrepareAgenda: 2,
		testutil.Deploy: 1, testutil.RollbackPlan: 2, testutil.OldIdeas: 0,
	}
	if diff := cmp.Diff(want, depths); diff != "" {
		t.Errorf("unexpected depths (-want +got):\n%s", diff)
	}
}

func TestIsValidFormatName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"lowercase letters", "test", true},
		{"with numbers", "test123", true},
		{"with dashes", "test-format", true},
		{"with underscores", "test_format", true},
		{"uppercase letters", "Test", false},
		{"special chars", "test@format", false},
		{"spaces", "test format", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidFormatName(tt.input); got != tt.want {
				t.Errorf("isValidFormatName(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
