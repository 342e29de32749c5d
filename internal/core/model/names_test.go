package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeModelName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"dated sonnet", "claude-sonnet-4-5-20250929", "claude-sonnet-4-5"},
		{"dated opus", "claude-opus-4-20250514", "claude-opus-4"},
		{"dated haiku", "claude-3-5-haiku-20241022", "claude-3-5-haiku"},
		{"undated minor version kept", "claude-opus-4-1", "claude-opus-4-1"},
		{"undated name unchanged", "claude-sonnet-4-5", "claude-sonnet-4-5"},
		{"synthetic passes through", "<synthetic>", "<synthetic>"},
		{"empty becomes unknown", "", "unknown"},
		{"short name unchanged", "gpt-4", "gpt-4"},
		{"non numeric suffix kept", "claude-test-abcdefgh", "claude-test-abcdefgh"},
		{"seven digit suffix kept", "claude-test-2025092", "claude-test-2025092"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeModelName(tt.input))
		})
	}
}
