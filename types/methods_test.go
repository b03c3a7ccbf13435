package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_ToBinUint16(t *testing.T) {
	tokens := Tokens{0, 1, 258, 65535}
	bin, err := tokens.ToBin(false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 1, 0, 2, 1, 255, 255}, *bin)
	assert.Equal(t, tokens, *TokensFromBin(bin))
}

func TestTokens_ToBinUint16Overflow(t *testing.T) {
	tokens := Tokens{1, 65536}
	_, err := tokens.ToBin(false)
	assert.Error(t, err)
	assert.False(t, tokens.FitsUint16())
}

func TestTokens_ToBinUint32(t *testing.T) {
	tokens := Tokens{3, 70000}
	bin, err := tokens.ToBin(true)
	require.NoError(t, err)
	assert.Len(t, *bin, 8)
	assert.Equal(t, tokens, *TokensFromBin32(bin))
}

func TestTokensFromBin_TrailingByte(t *testing.T) {
	bin := []byte{4, 0, 9}
	assert.Equal(t, Tokens{4}, *TokensFromBin(&bin))
}

func TestPair_Less(t *testing.T) {
	assert.True(t, Pair{" ", "ଗ"}.Less(Pair{"କ", "ଖ"}))
	assert.True(t, Pair{"କ", "ଖ"}.Less(Pair{"କ", "ଗ"}))
	assert.False(t, Pair{"କ", "ଖ"}.Less(Pair{"କ", "ଖ"}))
	assert.Equal(t, "କଖ", Pair{"କ", "ଖ"}.Merged())
}
