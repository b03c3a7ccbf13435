package odia_bpe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"ଏକ । ", "ଦୁଇ ।", "ତିନି"},
		SplitSentences("ଏକ । ଦୁଇ ।ତିନି"))
	assert.Equal(t, []string{"One. ", "Two?! ", "ତିନି॥\n"},
		SplitSentences("One. Two?! ତିନି॥\n"))
	assert.Empty(t, SplitSentences(""))
	assert.Equal(t, odiaParagraph,
		strings.Join(SplitSentences(odiaParagraph), ""))
}

func TestTrimSentences(t *testing.T) {
	model := baseModel(t)
	text := "କ। ଖ। ଗ।"
	tokens := model.Encode(&text)
	require.Len(t, *tokens, 8)

	trimmed, err := model.TrimSentences(tokens, TrimTop, 5)
	require.NoError(t, err)
	assert.Equal(t, "ଖ। ଗ।", model.Decode(trimmed))

	trimmed, err = model.TrimSentences(tokens, TrimBottom, 5)
	require.NoError(t, err)
	assert.Equal(t, "କ। ", model.Decode(trimmed))

	trimmed, err = model.TrimSentences(tokens, TrimNone, 5)
	require.NoError(t, err)
	assert.Empty(t, *trimmed)

	trimmed, err = model.TrimSentences(tokens, TrimTop, 8)
	require.NoError(t, err)
	assert.Equal(t, tokens, trimmed)
}

func TestTrimIncompleteSentence(t *testing.T) {
	model := baseModel(t)
	text := "କଖଗଘ କଖଗଘ। କ"
	trimmed, err := model.TrimIncompleteSentence(model.Encode(&text))
	require.NoError(t, err)
	assert.Equal(t, "କଖଗଘ କଖଗଘ।", model.Decode(trimmed))

	complete := "କଖ। ଗଘ।"
	tokens := model.Encode(&complete)
	trimmed, err = model.TrimIncompleteSentence(tokens)
	require.NoError(t, err)
	assert.Equal(t, tokens, trimmed)

	fragment := "କଖ। ଗଘଗଘଗଘ"
	tokens = model.Encode(&fragment)
	trimmed, err = model.TrimIncompleteSentence(tokens)
	require.NoError(t, err)
	assert.Equal(t, tokens, trimmed)
}
