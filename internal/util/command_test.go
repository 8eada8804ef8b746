package util

import (
	"context"
	"runtime"
	"testing"
)

func TestHasCommand(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		expected bool
	}{
		{
			name:     "common command exists - go",
			command:  "go",
			expected: true,
		},
		{
			name:     "nonexistent command",
			command:  "this-command-definitely-does-not-exist-12345",
			expected: false,
		},
		{
			name:     "empty string",
			command:  "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasCommand(tt.command)
			if got != tt.expected {
				t.Errorf("HasCommand(%q) = %v, want %v", tt.command, got, tt.expected)
			}
		})
	}
}

func TestOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}

	got, err := Output(context.Background(), "sh", "-c", "echo '  hello  '")
	if err != nil {
		t.Fatalf("Output() unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("Output() = %q, want %q", got, "hello")
	}

	if err := Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3"); err == nil {
		t.Error("Run() expected error for non-zero exit")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Output(ctx, "sh", "-c", "sleep 1"); err == nil {
		t.Error("Output() expected error for cancelled context")
	}
}
