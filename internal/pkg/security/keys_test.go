package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("app-secret", PurposeUpvoteMarker)
	require.NoError(t, err)
	assert.Len(t, a, 32)

	again, err := DeriveKey("app-secret", PurposeUpvoteMarker)
	require.NoError(t, err)
	assert.Equal(t, a, again)

	other, err := DeriveKey("app-secret", "marktplatz/other/v1")
	require.NoError(t, err)
	assert.NotEqual(t, a, other)

	_, err = DeriveKey("", PurposeUpvoteMarker)
	assert.Error(t, err)
}
