package odia_bpe

import (
	"sort"

	"github.com/wbrown/odia_bpe/types"
)

type Token = types.Token
type Tokens = types.Tokens

// Special token names and their fixed ids.
const (
	PadTokenStr = "<PAD>"
	UnkTokenStr = "<UNK>"
	BosTokenStr = "<BOS>"
	EosTokenStr = "<EOS>"
)

const (
	PadToken Token = iota
	UnkToken
	BosToken
	EosToken
)

// UnknownMarker is emitted by Decode for ids the vocabulary does not know.
const UnknownMarker = UnkTokenStr

// DefaultSpecials returns the special token map every trained model starts
// with.
func DefaultSpecials() map[string]Token {
	return map[string]Token{
		PadTokenStr: PadToken,
		UnkTokenStr: UnkToken,
		BosTokenStr: BosToken,
		EosTokenStr: EosToken,
	}
}

// Vocabulary maps symbols to token ids and back.
type Vocabulary struct {
	Encoder map[string]Token
	Decoder map[Token]string
}

// BuildVocabulary assigns ids to the specials, the base alphabet and every
// merged symbol. Specials keep their ids; all other symbols are sorted and
// numbered contiguously after the special block. A symbol that is produced
// by more than one merge rule gets a single id.
func BuildVocabulary(alphabet *Alphabet, merges []MergeRule,
	specials map[string]Token) *Vocabulary {
	vocab := &Vocabulary{
		Encoder: make(map[string]Token, len(specials)+alphabet.Len()+len(merges)),
		Decoder: make(map[Token]string, len(specials)+alphabet.Len()+len(merges)),
	}
	for name, id := range specials {
		vocab.Encoder[name] = id
		vocab.Decoder[id] = name
	}

	seen := make(map[string]struct{}, alphabet.Len()+len(merges))
	symbols := make([]string, 0, alphabet.Len()+len(merges))
	addSymbol := func(symbol string) {
		if _, ok := seen[symbol]; ok {
			return
		}
		if _, ok := specials[symbol]; ok {
			return
		}
		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	}
	for _, symbol := range alphabet.Symbols() {
		addSymbol(symbol)
	}
	for _, rule := range merges {
		addSymbol(rule.Merged)
	}
	sort.Strings(symbols)

	next := Token(len(specials))
	for _, symbol := range symbols {
		vocab.Encoder[symbol] = next
		vocab.Decoder[next] = symbol
		next++
	}
	return vocab
}

func (vocab *Vocabulary) Len() int {
	return len(vocab.Encoder)
}
