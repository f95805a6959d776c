package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateFileHash(t *testing.T) {
	// sha256("hello")
	hash, err := CalculateFileHash(strings.NewReader("hello"))
	require.NoError(t, err)
	require.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hash)
}

func TestCalculateFileHashEmpty(t *testing.T) {
	hash, err := CalculateFileHash(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hash)
}
