package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/wbrown/odia_bpe"
	"github.com/wbrown/odia_bpe/resources"
	"github.com/yargevad/filepathx"
)

const defaultProbe = "ଓଡ଼ିଆ ଭାଷା ଏକ ପ୍ରାଚୀନ ଭାଷା ।"

// CollectTexts reads input, a single text file or a directory searched
// recursively for `.txt` files, in path order.
func CollectTexts(input string) ([]string, error) {
	stat, err := os.Stat(input)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read input `%s`", input)
	}
	paths := []string{input}
	if stat.IsDir() {
		if paths, err = filepathx.Glob(filepath.Join(input,
			"**", "*.txt")); err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, errors.Errorf("%s does not contain any .txt files",
				input)
		}
		sort.Strings(paths)
	}
	texts := make([]string, 0, len(paths))
	for _, path := range paths {
		entry, readErr := resources.ReadFile(path)
		if readErr != nil {
			return nil, readErr
		}
		texts = append(texts, string(*entry.Data))
		entry.Close()
	}
	return texts, nil
}

// TruncateTexts keeps at most maxChars characters across texts, cutting the
// last kept text on a rune boundary. Zero keeps everything.
func TruncateTexts(texts []string, maxChars int) []string {
	if maxChars <= 0 {
		return texts
	}
	kept := make([]string, 0, len(texts))
	remaining := maxChars
	for _, text := range texts {
		if remaining == 0 {
			break
		}
		runes := utf8.RuneCountInString(text)
		if runes <= remaining {
			kept = append(kept, text)
			remaining -= runes
			continue
		}
		cut, count := 0, 0
		for cut = range text {
			if count == remaining {
				break
			}
			count++
		}
		kept = append(kept, text[:cut])
		remaining = 0
	}
	return kept
}

func main() {
	input := flag.String("input", "",
		"corpus text file, or directory of .txt files")
	output := flag.String("output", "model.json", "where to save the model")
	configPath := flag.String("config", "",
		"optional JSON training config; flags set explicitly win")
	vocabSize := flag.Int("vocab_size", odia_bpe.DEFAULT_VOCAB_SIZE,
		"target vocabulary size")
	minFreq := flag.Int("min_freq", odia_bpe.DEFAULT_MIN_FREQ,
		"minimum pair frequency for a merge")
	maxChars := flag.Int("max_chars", 0,
		"truncate the corpus to this many characters, 0 for no limit")
	normalizer := flag.String("normalizer", odia_bpe.NormalizerNone,
		"input normalization [nfc, nfkc], empty for none")
	logEvery := flag.Int("log_every", odia_bpe.DEFAULT_LOG_EVERY,
		"log progress every n merges")
	probe := flag.String("probe", defaultProbe,
		"text to encode with the trained model")
	flag.Parse()
	if *input == "" {
		flag.Usage()
		log.Fatal("Must provide -input")
	}

	if *configPath != "" {
		config, err := resources.LoadTrainingConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if !explicit["vocab_size"] {
			*vocabSize = resources.IntOr(config.VocabSize, *vocabSize)
		}
		if !explicit["min_freq"] {
			*minFreq = resources.IntOr(config.MinFreq, *minFreq)
		}
		if !explicit["max_chars"] {
			*maxChars = resources.IntOr(config.MaxChars, *maxChars)
		}
		if !explicit["normalizer"] {
			*normalizer = resources.StringOr(config.Normalizer, *normalizer)
		}
		if !explicit["log_every"] {
			*logEvery = resources.IntOr(config.LogEvery, *logEvery)
		}
	}

	texts, err := CollectTexts(*input)
	if err != nil {
		log.Fatal(err)
	}
	texts = TruncateTexts(texts, *maxChars)
	chars := 0
	for _, text := range texts {
		chars += utf8.RuneCountInString(text)
	}
	log.Printf("Corpus: %s texts, %s characters", humanize.Comma(
		int64(len(texts))), humanize.Comma(int64(chars)))

	trainer, err := odia_bpe.NewTrainer(odia_bpe.TrainerConfig{
		VocabSize:  *vocabSize,
		Normalizer: *normalizer,
		Verbose:    true,
		LogEvery:   *logEvery,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	begin := time.Now()
	model, err := trainer.TrainContext(ctx, texts, *minFreq)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Trained in %0.2fs: %s symbols, %s merges",
		time.Since(begin).Seconds(), humanize.Comma(int64(model.Len())),
		humanize.Comma(int64(len(model.Merges()))))

	if *probe != "" {
		encoded := model.Encode(probe)
		log.Printf("Probe %q -> %v", *probe, *encoded)
		log.Printf("Decoded: %q", model.Decode(encoded))
		if ratio, ratioErr := model.CompressionRatio(probe); ratioErr == nil {
			log.Printf("Compression ratio: %0.2f chars/token", ratio)
		}
	}

	if err := model.SaveFile(*output); err != nil {
		log.Fatal(err)
	}
	log.Printf("Saved %s", *output)
}
