package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", h)

	assert.True(t, CheckPassword(h, "hunter2"))
	assert.False(t, CheckPassword(h, "hunter3"))
	assert.False(t, CheckPassword("not a hash", "hunter2"))
}
