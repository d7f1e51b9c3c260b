package invite_test

import (
	"strings"
	"testing"

	"tracker-service/internal/invite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGenerator(t *testing.T) {
	gen := invite.NewCodeGenerator(12)
	seen := map[string]bool{}

	for i := 0; i < 200; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		assert.Len(t, code, 12)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(invite.CodeAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}

	assert.Len(t, seen, 200)
}

func TestCodeGenerator_InvalidLength(t *testing.T) {
	_, err := invite.NewCodeGenerator(0).Generate()
	assert.Error(t, err)
}

func TestCodeAlphabet_HasNoAmbiguousRunes(t *testing.T) {
	assert.Len(t, invite.CodeAlphabet, 32)
	assert.NotContains(t, invite.CodeAlphabet, "0")
	assert.NotContains(t, invite.CodeAlphabet, "O")
	assert.NotContains(t, invite.CodeAlphabet, "1")
	assert.NotContains(t, invite.CodeAlphabet, "I")
}
