package odia_bpe

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	ka  = "କ"
	kha = "ଖ"
	ga  = "ଗ"
	gha = "ଘ"
	a   = "ଅ"
)

// odiaSentence is a short line of Odia prose with a danda and digits.
const odiaSentence = "ଓଡ଼ିଆ ଭାଷା ଭାରତର ଏକ ପ୍ରାଚୀନ ଭାଷା । ଏହା ୧୪୦୦ ବର୍ଷ ପୁରୁଣା ।"

var odiaParagraph = strings.Repeat(odiaSentence+"\n", 8) +
	"ଓଡ଼ିଶାର ରାଜଧାନୀ ଭୁବନେଶ୍ୱର ।\nକଟକ ଏକ ପୁରୁଣା ସହର ।\n"

func trainModel(t testing.TB, texts []string, minFreq int,
	vocabSize int) *BPEModel {
	t.Helper()
	trainer, err := NewTrainer(TrainerConfig{VocabSize: vocabSize})
	require.NoError(t, err)
	model, err := trainer.Train(texts, minFreq)
	require.NoError(t, err)
	return model
}

func baseModel(t testing.TB) *BPEModel {
	return trainModel(t, nil, DEFAULT_MIN_FREQ, DEFAULT_VOCAB_SIZE)
}

func tokenOf(t testing.TB, model *BPEModel, symbol string) Token {
	t.Helper()
	token := model.Get(symbol)
	require.NotNil(t, token, "%q is not in the vocabulary", symbol)
	return *token
}

// randomText draws n runes from pool.
func randomText(rng *rand.Rand, pool []rune, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteRune(pool[rng.Intn(len(pool))])
	}
	return sb.String()
}

var odiaPool = []rune{
	0x0B15, 0x0B16, 0x0B17, 0x0B3E, 0x0B3F, 0x0B4D, 0x0B30, 0x0B2E,
	' ', ' ', ' ', '\n',
}

var mixedPool = append([]rune{'x', '1', ',', '\t', 0x0B7A}, odiaPool...)
