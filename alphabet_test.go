package odia_bpe

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOdiaAlphabet_Len(t *testing.T) {
	assert.Equal(t, 88, NewOdiaAlphabet().Len())
}

func TestOdiaAlphabet_IsBase(t *testing.T) {
	alphabet := NewOdiaAlphabet()
	for _, symbol := range []string{ka, a, "ୟ", "୧", "।", "ଂ", " ", "\n",
		"\t"} {
		assert.True(t, alphabet.IsBase(symbol), "%q", symbol)
	}
	for _, symbol := range []string{"x", "କଖ", "", "\r", "୲"} {
		assert.False(t, alphabet.IsBase(symbol), "%q", symbol)
	}
}

func TestOdiaAlphabet_Symbols(t *testing.T) {
	symbols := NewOdiaAlphabet().Symbols()
	assert.Len(t, symbols, 88)
	assert.True(t, sort.StringsAreSorted(symbols))
}

func TestNewAlphabet_Duplicates(t *testing.T) {
	alphabet := NewAlphabet([]rune{0x0B15, 0x0B16}, []rune{0x0B15})
	assert.Equal(t, 2, alphabet.Len())
}

func TestInBlock(t *testing.T) {
	assert.True(t, InBlock(0x0B00))
	assert.True(t, InBlock(0x0B7F))
	assert.True(t, InBlock(0x0B7A))
	assert.False(t, InBlock(0x0964))
	assert.False(t, InBlock('a'))
}
