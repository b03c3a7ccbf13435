package odia_bpe

import (
	"unicode"
	"unicode/utf8"
)

// Word splitting follows the alternation
//
//	' '?[଀-୿]+ | ' '?[^\s]+ | \s+(?!\S) | \s+
//
// matched leftmost-first with each alternative greedy. It is evaluated with
// a direct scan over runes instead of a regular expression, since the
// lookahead in the third alternative has no RE2 equivalent.

func isSpace(r rune) bool { return unicode.IsSpace(r) }

// consumeScript returns the end of the run of script-block runes at i.
func consumeScript(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !InBlock(r) {
			break
		}
		i += size
	}
	return i
}

// consumeNonSpace returns the end of the run of non-whitespace runes at i.
func consumeNonSpace(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if isSpace(r) {
			break
		}
		i += size
	}
	return i
}

// nextWordEnd returns the end index (exclusive) of the word starting at i.
// It always makes progress when i < len(s).
func nextWordEnd(s string, i int) int {
	if i >= len(s) {
		return i
	}
	r, size := utf8.DecodeRuneInString(s[i:])

	// Alternatives 1 and 2 with the optional leading space.
	if r == ' ' && i+size < len(s) {
		next, _ := utf8.DecodeRuneInString(s[i+size:])
		if InBlock(next) {
			return consumeScript(s, i+size)
		} else if !isSpace(next) {
			return consumeNonSpace(s, i+size)
		}
	}
	if InBlock(r) {
		return consumeScript(s, i)
	}
	if !isSpace(r) {
		return consumeNonSpace(s, i)
	}

	// Whitespace run. Track where the last rune of the run starts so that
	// alternative 3 can give it back to the following word.
	j, last := i, i
	for j < len(s) {
		r, size = utf8.DecodeRuneInString(s[j:])
		if !isSpace(r) {
			break
		}
		last = j
		j += size
	}
	if j == len(s) {
		return j
	}
	if last > i {
		return last
	}
	// A single whitespace rune before a word.
	return j
}

// SplitWords splits text into words. Concatenating the result reproduces
// text exactly.
func SplitWords(text string) []string {
	words := make([]string, 0, len(text)/4+1)
	for i := 0; i < len(text); {
		end := nextWordEnd(text, i)
		words = append(words, text[i:end])
		i = end
	}
	return words
}

// splitSymbols explodes a word into one symbol per rune.
func splitSymbols(word string) []string {
	symbols := make([]string, 0, len(word))
	for _, r := range word {
		symbols = append(symbols, string(r))
	}
	return symbols
}

// filterSymbols explodes a word, keeping only base symbols and whitespace.
// The result is empty when nothing survives.
func (alphabet *Alphabet) filterSymbols(word string) []string {
	symbols := make([]string, 0, len(word))
	for _, r := range word {
		if alphabet.isBaseRune(r) || isSpace(r) {
			symbols = append(symbols, string(r))
		}
	}
	return symbols
}
