package odia_bpe

import (
	"io"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

const BPE_LRU_SZ = 65536

// ErrEmptyEncoding is returned by CompressionRatio when the text encodes to
// no tokens at all, which includes the empty string.
var ErrEmptyEncoding = errors.New("odia_bpe: text encodes to zero tokens")

// BPEModel is a finished tokenizer: vocabulary, ordered merge table and
// special tokens. It is never mutated after construction and is safe for
// concurrent use.
type BPEModel struct {
	encoder        map[string]Token
	decoder        map[Token]string
	merges         []MergeRule
	ranks          map[Pair][]int
	specials       map[string]Token
	vocabSize      int
	normalizerName string
	normalize      normalizeFunc
	cache          *lru.ARCCache
	lruHits        atomic.Int64
	lruMisses      atomic.Int64
	PadToken       Token
	UnkToken       Token
	BosToken       Token
	EosToken       Token
}

// NewModel assembles a model from its parts after validating them the same
// way Load does. The maps and merge slice are copied.
func NewModel(vocab map[string]Token, merges []MergeRule,
	specials map[string]Token, vocabSize int,
	normalizer string) (*BPEModel, error) {
	if err := validateModel(vocab, merges, specials); err != nil {
		return nil, err
	}
	decoder := make(map[Token]string, len(vocab))
	encoder := make(map[string]Token, len(vocab))
	for symbol, id := range vocab {
		encoder[symbol] = id
		decoder[id] = symbol
	}
	return newModel(&Vocabulary{encoder, decoder}, merges, specials,
		vocabSize, normalizer)
}

func newModel(vocab *Vocabulary, merges []MergeRule,
	specials map[string]Token, vocabSize int,
	normalizer string) (*BPEModel, error) {
	normalize, err := resolveNormalizer(normalizer)
	if err != nil {
		return nil, err
	}
	cache, err := lru.NewARC(BPE_LRU_SZ)
	if err != nil {
		return nil, err
	}
	model := &BPEModel{
		encoder:        vocab.Encoder,
		decoder:        vocab.Decoder,
		merges:         append([]MergeRule(nil), merges...),
		ranks:          make(map[Pair][]int, len(merges)),
		specials:       make(map[string]Token, len(specials)),
		vocabSize:      vocabSize,
		normalizerName: normalizer,
		normalize:      normalize,
		cache:          cache,
	}
	for name, id := range specials {
		model.specials[name] = id
	}
	// Ranks are appended in increasing order, so each slice is sorted.
	for rank, rule := range model.merges {
		model.ranks[rule.Pair] = append(model.ranks[rule.Pair], rank)
	}
	model.UnkToken = model.specials[UnkTokenStr]
	model.PadToken = model.specialOr(PadTokenStr, PadToken)
	model.BosToken = model.specialOr(BosTokenStr, BosToken)
	model.EosToken = model.specialOr(EosTokenStr, EosToken)
	return model, nil
}

func (model *BPEModel) specialOr(name string, fallback Token) Token {
	if token, ok := model.specials[name]; ok {
		return token
	}
	return fallback
}

// SplitWords normalizes text the way Encode does and splits it into words.
func (model *BPEModel) SplitWords(text *string) *[]string {
	words := SplitWords(model.normalize(*text))
	return &words
}

// applyMerges replays the merge table over word. Rather than walking every
// rule, it jumps straight to the next rule (by rank) whose pair is present
// in the current word; every rule skipped over would have been a no-op, so
// the result matches a full in-order replay.
func (model *BPEModel) applyMerges(word []string) []string {
	cursor := -1
	for len(word) > 1 {
		next := -1
		for idx := 0; idx < len(word)-1; idx++ {
			ranks, ok := model.ranks[Pair{Left: word[idx], Right: word[idx+1]}]
			if !ok {
				continue
			}
			k := sort.SearchInts(ranks, cursor+1)
			if k < len(ranks) && (next == -1 || ranks[k] < next) {
				next = ranks[k]
			}
		}
		if next == -1 {
			break
		}
		word = mergeWord(word, model.merges[next])
		cursor = next
	}
	return word
}

// applyMergesInOrder is the reference replay: one full pass per rule.
func applyMergesInOrder(word []string, merges []MergeRule) []string {
	for _, rule := range merges {
		word = mergeWord(word, rule)
	}
	return word
}

func (model *BPEModel) lookup(symbols []string) Tokens {
	tokens := make(Tokens, 0, len(symbols))
	for _, symbol := range symbols {
		if token, ok := model.encoder[symbol]; ok {
			tokens = append(tokens, token)
		} else {
			tokens = append(tokens, model.UnkToken)
		}
	}
	return tokens
}

// toBPE encodes a single pre-split word. Results are cached by word; the
// returned slice is shared with the cache and must not be modified.
func (model *BPEModel) toBPE(word string) Tokens {
	if lookup, ok := model.cache.Get(word); ok {
		model.lruHits.Add(1)
		return lookup.(Tokens)
	}
	model.lruMisses.Add(1)
	tokens := model.lookup(model.applyMerges(splitSymbols(word)))
	model.cache.Add(word, tokens)
	return tokens
}

// ToBPE
// Given a single pre-split word, apply the merge table and return its
// Tokens.
func (model *BPEModel) ToBPE(word string) Tokens {
	return append(Tokens(nil), model.toBPE(word)...)
}

// Encode encodes a string into a sequence of tokens. Symbols missing from
// the vocabulary become UnkToken; encoding never fails.
func (model *BPEModel) Encode(text *string) *Tokens {
	normalized := model.normalize(*text)
	encoded := make(Tokens, 0, len(normalized)/2+1)
	for i := 0; i < len(normalized); {
		end := nextWordEnd(normalized, i)
		encoded = append(encoded, model.toBPE(normalized[i:end])...)
		i = end
	}
	return &encoded
}

// encodeInOrder encodes with the reference full-pass replay of merges,
// bypassing the cache.
func (model *BPEModel) encodeInOrder(text string, merges []MergeRule) Tokens {
	encoded := make(Tokens, 0)
	for _, word := range SplitWords(model.normalize(text)) {
		symbols := applyMergesInOrder(splitSymbols(word), merges)
		encoded = append(encoded, model.lookup(symbols)...)
	}
	return encoded
}

// EncodeWithSpecials encodes text enclosed in BosToken and EosToken.
func (model *BPEModel) EncodeWithSpecials(text *string) *Tokens {
	encoded := model.Encode(text)
	enclosed := make(Tokens, 0, len(*encoded)+2)
	enclosed = append(enclosed, model.BosToken)
	enclosed = append(enclosed, *encoded...)
	enclosed = append(enclosed, model.EosToken)
	return &enclosed
}

// EncodeReader reads reader to the end and encodes it. Segmentation needs to
// see past line ends, so the text is not encoded piecemeal.
func (model *BPEModel) EncodeReader(reader io.Reader) (*Tokens, error) {
	var sb strings.Builder
	if _, err := io.Copy(&sb, reader); err != nil {
		return nil, err
	}
	text := sb.String()
	return model.Encode(&text), nil
}

// EncodeBuffer encodes a UTF-8 byte buffer.
func (model *BPEModel) EncodeBuffer(buffer *[]byte) *Tokens {
	text := string(*buffer)
	return model.Encode(&text)
}

// Decode Tokens back into a string. Ids the vocabulary does not know decode
// to UnknownMarker.
func (model *BPEModel) Decode(encoded *Tokens) string {
	var sb strings.Builder
	for _, token := range *encoded {
		if symbol, ok := model.decoder[token]; ok {
			sb.WriteString(symbol)
		} else {
			sb.WriteString(UnknownMarker)
		}
	}
	return sb.String()
}

// CompressionRatio returns the number of characters (runes) in text divided
// by the number of tokens it encodes to. It returns ErrEmptyEncoding rather
// than dividing by zero.
func (model *BPEModel) CompressionRatio(text *string) (float64, error) {
	encoded := model.Encode(text)
	if len(*encoded) == 0 {
		return 0, ErrEmptyEncoding
	}
	return float64(utf8.RuneCountInString(*text)) / float64(len(*encoded)), nil
}

// Get
// Looks up text in the vocabulary, and returns the Token representation of
// it. If the text is not found, then nil is returned.
func (model *BPEModel) Get(text string) *Token {
	if token, ok := model.encoder[text]; !ok {
		return nil
	} else {
		return &token
	}
}

// Symbol returns the vocabulary entry for token.
func (model *BPEModel) Symbol(token Token) (string, bool) {
	symbol, ok := model.decoder[token]
	return symbol, ok
}

// Vocab returns a copy of the symbol to id mapping.
func (model *BPEModel) Vocab() map[string]Token {
	vocab := make(map[string]Token, len(model.encoder))
	for symbol, id := range model.encoder {
		vocab[symbol] = id
	}
	return vocab
}

// Merges returns a copy of the merge table in learned order.
func (model *BPEModel) Merges() []MergeRule {
	return append([]MergeRule(nil), model.merges...)
}

// Specials returns a copy of the special token map.
func (model *BPEModel) Specials() map[string]Token {
	specials := make(map[string]Token, len(model.specials))
	for name, id := range model.specials {
		specials[name] = id
	}
	return specials
}

// VocabSize is the target size the model was trained with; Len is the
// number of entries actually in the vocabulary.
func (model *BPEModel) VocabSize() int { return model.vocabSize }
func (model *BPEModel) Len() int       { return len(model.encoder) }

func (model *BPEModel) Normalizer() string { return model.normalizerName }

func (model *BPEModel) LruHits() int64   { return model.lruHits.Load() }
func (model *BPEModel) LruMisses() int64 { return model.lruMisses.Load() }
