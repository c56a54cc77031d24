package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetGravatarURLNormalizesEmail(t *testing.T) {
	a := GetGravatarURL("  Owner@Example.com ", 64)
	b := GetGravatarURL("owner@example.com", 64)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasSuffix(a, "?s=64&d=identicon"))
}

func TestGetGravatarURLDefaultSize(t *testing.T) {
	assert.Contains(t, GetGravatarURL("owner@example.com", 0), "s=200")
}
