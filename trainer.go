package odia_bpe

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const DEFAULT_VOCAB_SIZE = 5000
const DEFAULT_MIN_FREQ = 2
const DEFAULT_LOG_EVERY = 100

var ErrInvalidMinFreq = errors.New("odia_bpe: min_freq must be at least 1")

// TrainerConfig configures a Trainer. Zero values select the defaults.
type TrainerConfig struct {
	VocabSize  int
	Alphabet   *Alphabet
	Normalizer string
	// Verbose enables progress logging every LogEvery merges.
	Verbose  bool
	LogEvery int
}

// Trainer learns an ordered merge table from a corpus. A Trainer holds only
// configuration; every call to Train owns its own working state, so one
// Trainer can be reused.
type Trainer struct {
	vocabSize      int
	alphabet       *Alphabet
	specials       map[string]Token
	normalizerName string
	normalize      normalizeFunc
	verbose        bool
	logEvery       int
}

// NewTrainer validates config and returns a Trainer.
func NewTrainer(config TrainerConfig) (*Trainer, error) {
	trainer := &Trainer{
		vocabSize:      config.VocabSize,
		alphabet:       config.Alphabet,
		specials:       DefaultSpecials(),
		normalizerName: config.Normalizer,
		verbose:        config.Verbose,
		logEvery:       config.LogEvery,
	}
	if trainer.vocabSize == 0 {
		trainer.vocabSize = DEFAULT_VOCAB_SIZE
	}
	if trainer.alphabet == nil {
		trainer.alphabet = NewOdiaAlphabet()
	}
	if trainer.logEvery <= 0 {
		trainer.logEvery = DEFAULT_LOG_EVERY
	}
	minimum := len(trainer.specials) + trainer.alphabet.Len()
	if trainer.vocabSize < minimum {
		return nil, errors.Errorf(
			"odia_bpe: vocab size %d cannot hold %d specials and %d base symbols",
			trainer.vocabSize, len(trainer.specials), trainer.alphabet.Len())
	}
	normalize, err := resolveNormalizer(config.Normalizer)
	if err != nil {
		return nil, err
	}
	trainer.normalize = normalize
	return trainer, nil
}

// NumMerges is the merge budget: the vocabulary size left over once the
// specials and the base alphabet are accounted for.
func (trainer *Trainer) NumMerges() int {
	return trainer.vocabSize - len(trainer.specials) - trainer.alphabet.Len()
}

// Train learns merges from texts and returns the finished model.
func (trainer *Trainer) Train(texts []string, minFreq int) (*BPEModel, error) {
	return trainer.TrainContext(context.Background(), texts, minFreq)
}

// TrainContext is Train with cancellation. ctx is checked between merge
// iterations; a cancelled context returns ctx.Err() and no model.
func (trainer *Trainer) TrainContext(ctx context.Context, texts []string,
	minFreq int) (*BPEModel, error) {
	if minFreq < 1 {
		return nil, ErrInvalidMinFreq
	}
	begin := time.Now()
	state := trainer.collectWords(texts)
	numMerges := trainer.NumMerges()
	if trainer.verbose {
		log.Printf("Training on %s distinct words (%s total), %s merges "+
			"budgeted", humanize.Comma(int64(len(state.words))),
			humanize.Comma(int64(state.total)),
			humanize.Comma(int64(numMerges)))
	}

	for idx := 0; idx < numMerges; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pair, count, ok := bestPair(state.counts)
		if !ok {
			trainer.logStop(idx, "no pairs left")
			break
		}
		if count < minFreq {
			trainer.logStop(idx, fmt.Sprintf(
				"best pair frequency %d below %d", count, minFreq))
			break
		}
		rule := NewMergeRule(pair.Left, pair.Right)
		state.apply(rule)
		if trainer.verbose && ((idx+1)%trainer.logEvery == 0 || idx < 5) {
			log.Printf("merge %s/%s: %q + %q -> %q (freq %s)",
				humanize.Comma(int64(idx+1)), humanize.Comma(int64(numMerges)),
				rule.Pair.Left, rule.Pair.Right, rule.Merged,
				humanize.Comma(int64(count)))
		}
	}

	vocab := BuildVocabulary(trainer.alphabet, state.merges, trainer.specials)
	model, err := newModel(vocab, state.merges, trainer.specials,
		trainer.vocabSize, trainer.normalizerName)
	if err != nil {
		return nil, err
	}
	if trainer.verbose {
		log.Printf("Trained %s merges, vocabulary of %s in %0.2fs",
			humanize.Comma(int64(len(state.merges))),
			humanize.Comma(int64(vocab.Len())), time.Since(begin).Seconds())
	}
	return model, nil
}

func (trainer *Trainer) logStop(idx int, reason string) {
	if trainer.verbose {
		log.Printf("Stopped after %s merges: %s",
			humanize.Comma(int64(idx)), reason)
	}
}

// trainingWord is a distinct filtered word and the number of times it
// occurs in the corpus.
type trainingWord struct {
	symbols []string
	count   int
}

// trainingState is the mutable working set of a single Train call. Pair
// counts are kept up to date incrementally: a merge only revisits the words
// indexed under the merged pair.
type trainingState struct {
	words  []trainingWord
	total  int
	counts map[Pair]int
	where  map[Pair]map[int]struct{}
	merges []MergeRule
}

// collectWords segments and filters texts, collapsing identical words in
// first-seen order, and seeds the pair counts.
func (trainer *Trainer) collectWords(texts []string) *trainingState {
	state := &trainingState{
		counts: make(map[Pair]int),
		where:  make(map[Pair]map[int]struct{}),
	}
	index := make(map[string]int)
	for _, text := range texts {
		for _, word := range SplitWords(trainer.normalize(text)) {
			symbols := trainer.alphabet.filterSymbols(word)
			if len(symbols) == 0 {
				continue
			}
			state.total++
			key := strings.Join(symbols, "")
			if idx, ok := index[key]; ok {
				state.words[idx].count++
				continue
			}
			index[key] = len(state.words)
			state.words = append(state.words, trainingWord{symbols, 1})
		}
	}
	for idx := range state.words {
		state.addWord(idx)
	}
	return state
}

func (state *trainingState) addWord(idx int) {
	word := state.words[idx]
	addPairCounts(state.counts, word.symbols, word.count)
	for i := 0; i < len(word.symbols)-1; i++ {
		pair := Pair{Left: word.symbols[i], Right: word.symbols[i+1]}
		words, ok := state.where[pair]
		if !ok {
			words = make(map[int]struct{})
			state.where[pair] = words
		}
		words[idx] = struct{}{}
	}
}

func (state *trainingState) removeWord(idx int) {
	word := state.words[idx]
	addPairCounts(state.counts, word.symbols, -word.count)
	for i := 0; i < len(word.symbols)-1; i++ {
		pair := Pair{Left: word.symbols[i], Right: word.symbols[i+1]}
		if state.counts[pair] <= 0 {
			delete(state.counts, pair)
		}
	}
}

// apply records rule and rewrites every word containing its pair.
func (state *trainingState) apply(rule MergeRule) {
	state.merges = append(state.merges, rule)
	touched := make([]int, 0, len(state.where[rule.Pair]))
	for idx := range state.where[rule.Pair] {
		touched = append(touched, idx)
	}
	sort.Ints(touched)
	delete(state.where, rule.Pair)

	for _, idx := range touched {
		merged := mergeWord(state.words[idx].symbols, rule)
		if len(merged) == len(state.words[idx].symbols) {
			// Stale index entry, the pair is no longer in this word.
			continue
		}
		state.removeWord(idx)
		state.words[idx].symbols = merged
		state.addWord(idx)
	}
}
