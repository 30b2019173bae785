package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTruncate verifies rune-aware shortening
func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "नेपाली", truncate("नेपाली", 6))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "नेप...", truncate("नेपाली कविता", 6))
}
