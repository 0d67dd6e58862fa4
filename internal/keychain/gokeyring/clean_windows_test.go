//go:build windows

package gokeyring

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "password123", "password123"},
		{"utf16", "p\x00a\x00s\x00s\x00", "pass"},
		{"odd length", "p\x00a", "p\x00a"},
		{"mixed", "p\x00ab", "p\x00ab"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clean(tt.input); got != tt.want {
				t.Errorf("clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
