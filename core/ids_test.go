package core

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	t.Run("generates ID with prefix", func(t *testing.T) {
		id := NewID("ji")
		if !strings.HasPrefix(id, "ji_") {
			t.Errorf("NewID(\"ji\") = %q, want prefix \"ji_\"", id)
		}
		if len(id) != len("ji_")+26 {
			t.Errorf("NewID(\"ji\") = %q, want 26-char ULID after prefix", id)
		}
	})

	t.Run("normalizes prefix to lowercase", func(t *testing.T) {
		id := NewID("JI")
		if !strings.HasPrefix(id, "ji_") {
			t.Errorf("NewID(\"JI\") = %q, want prefix \"ji_\"", id)
		}
	})

	t.Run("generates unique IDs", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := NewID("u")
			if seen[id] {
				t.Fatalf("duplicate ID generated: %q", id)
			}
			seen[id] = true
		}
	})

	t.Run("panics on empty prefix", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("NewID(\"\") should panic")
			}
		}()
		NewID("")
	})
}

func TestIsValidULID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid generated ID", NewID("ji"), true},
		{"empty string", "", false},
		{"no separator", "ji01G0EZ1XTM37C5X11SQTDNCTM1", false},
		{"empty prefix", "_01G0EZ1XTM37C5X11SQTDNCTM1", false},
		{"uppercase prefix", "JI_01G0EZ1XTM37C5X11SQTDNCTM1", false},
		{"too short ULID", "ji_01G0EZ1XTM", false},
		{"invalid ULID characters", "ji_01G0EZ1XTM37C5X11SQTDNCTIL", false},
		{"multiple separators", "ji_extra_01G0EZ1XTM37C5X11SQTDNCTM1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidULID(tt.id); got != tt.want {
				t.Errorf("IsValidULID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
