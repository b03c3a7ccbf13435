package odia_bpe

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type TrimDirection uint

const (
	TrimTop    TrimDirection = iota
	TrimBottom TrimDirection = iota
	TrimNone   TrimDirection = iota
)

// TrimNewlines shortens tokens to at most limit tokens by dropping whole
// lines. TrimTop keeps the last lines and TrimBottom the first ones; TrimNone
// drops everything if the limit is exceeded.
func (model *BPEModel) TrimNewlines(tokens *Tokens, direction TrimDirection,
	limit uint) (*Tokens, error) {
	var err error
	trimmed := make(Tokens, 0)
	if uint(len(*tokens)) <= limit {
		return tokens, err
	} else if direction == TrimNone {
		return &trimmed, err
	}
	lines := strings.Split(model.Decode(tokens), "\n")
	var start, end, step, idx int
	switch direction {
	case TrimTop:
		start = len(lines) - 1
		end = -1
		step = -1
	case TrimBottom:
		start = 0
		end = len(lines)
		step = 1
	}
	accTokens := make(Tokens, 0)
	for idx = start; idx != end; idx += step {
		line := lines[idx]
		switch direction {
		case TrimTop:
			line = "\n" + line
		case TrimBottom:
			line = line + "\n"
		}
		newTokens := model.Encode(&line)
		if len(*newTokens)+len(accTokens) > int(limit) {
			return &accTokens, err
		}
		switch direction {
		case TrimTop:
			accTokens = append(*newTokens, accTokens...)
		case TrimBottom:
			accTokens = append(accTokens, *newTokens...)
		}
	}
	return &accTokens, err
}

// isSentenceEnd reports whether r closes a sentence: the danda, or Latin
// sentence punctuation.
func isSentenceEnd(r rune) bool {
	switch r {
	case '।', '॥', '.', '?', '!':
		return true
	}
	return false
}

// SplitSentences splits text after each run of sentence-ending punctuation,
// keeping the whitespace that follows with the sentence it ends.
// Concatenating the result reproduces text.
func SplitSentences(text string) []string {
	sentences := make([]string, 0)
	begin := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if !isSentenceEnd(r) {
			continue
		}
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if !isSentenceEnd(r) && !unicode.IsSpace(r) {
				break
			}
			i += size
		}
		sentences = append(sentences, text[begin:i])
		begin = i
	}
	if begin < len(text) {
		sentences = append(sentences, text[begin:])
	}
	return sentences
}

// TrimIncompleteSentence drops a trailing sentence fragment that has no
// closing punctuation. Tokens are returned as is when that would remove
// more than a fifth of the text.
func (model *BPEModel) TrimIncompleteSentence(tokens *Tokens) (*Tokens,
	error) {
	text := model.Decode(tokens)
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return tokens, nil
	}
	last := strings.TrimRightFunc(sentences[len(sentences)-1],
		unicode.IsSpace)
	if lastRune, _ := utf8.DecodeLastRuneInString(last); isSentenceEnd(
		lastRune) {
		return tokens, nil
	}
	trimmed := strings.TrimSpace(text[:len(text)-len(
		sentences[len(sentences)-1])])
	if float32(len(trimmed)) < float32(len(text))*0.8 {
		return tokens, nil
	}
	return model.Encode(&trimmed), nil
}

// TrimSentences shortens tokens to at most limit tokens by dropping whole
// sentences, the same way TrimNewlines drops lines.
func (model *BPEModel) TrimSentences(tokens *Tokens,
	direction TrimDirection, limit uint) (*Tokens, error) {
	var err error
	trimmed := make(Tokens, 0)
	if uint(len(*tokens)) <= limit {
		return tokens, err
	} else if direction == TrimNone {
		return &trimmed, err
	}
	sentences := SplitSentences(model.Decode(tokens))
	kept := ""
	switch direction {
	case TrimTop:
		for idx := len(sentences) - 1; idx >= 0; idx-- {
			candidate := sentences[idx] + kept
			if uint(len(*model.Encode(&candidate))) > limit {
				break
			}
			kept = candidate
		}
	case TrimBottom:
		for idx := 0; idx < len(sentences); idx++ {
			candidate := kept + sentences[idx]
			if uint(len(*model.Encode(&candidate))) > limit {
				break
			}
			kept = candidate
		}
	}
	return model.Encode(&kept), err
}
