package crawl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGuard_Seed verifies titles from the store are known
func TestGuard_Seed(t *testing.T) {
	guard := NewGuard()
	sink := &memorySink{seed: map[string]struct{}{"पहाड": {}, "नदी": {}}}

	require.NoError(t, guard.Seed(sink))

	assert.Equal(t, 2, guard.Len())
	assert.True(t, guard.Contains("पहाड"))
	assert.False(t, guard.Contains("आकाश"))
}

// TestGuard_Add verifies titles added during a run
func TestGuard_Add(t *testing.T) {
	guard := NewGuard()

	guard.Add("आकाश")
	guard.Add("आकाश")

	assert.True(t, guard.Contains("आकाश"))
	assert.Equal(t, 1, guard.Len())
}

// TestGuard_SeedError verifies store errors are wrapped
func TestGuard_SeedError(t *testing.T) {
	cause := errors.New("unreadable")

	err := NewGuard().Seed(&memorySink{titlesErr: cause})

	assert.ErrorIs(t, err, cause)
}
