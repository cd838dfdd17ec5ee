package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTokenGenerator(t *testing.T) {
	g := RandomTokenGenerator{Size: 16}
	a, err := g.NewToken()
	require.NoError(t, err)
	b, err := g.NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "cs_"))
	assert.Len(t, a, len("cs_")+22)
}
