package odia_bpe

import (
	"math/rand"
	"strings"
	"testing"
	"time"
)

var benchCorpus = func() string {
	rng := rand.New(rand.NewSource(1))
	var sb strings.Builder
	for sb.Len() < 1<<20 {
		sb.WriteString(odiaSentence)
		sb.WriteString(randomText(rng, odiaPool, 64))
		sb.WriteByte('\n')
	}
	return sb.String()
}()

var benchModel *BPEModel

func loadBenchModel(b *testing.B) *BPEModel {
	if benchModel == nil {
		benchModel = trainModel(b, []string{benchCorpus[:1<<16]}, 2, 1000)
	}
	return benchModel
}

func BenchmarkBPEModel_Train(b *testing.B) {
	corpus := []string{benchCorpus[:1<<16]}
	trainer, err := NewTrainer(TrainerConfig{VocabSize: 1000})
	if err != nil {
		b.Fatal(err)
	}
	start := time.Now()
	for i := 0; i < b.N; i++ {
		if _, err := trainer.Train(corpus, 2); err != nil {
			b.Fatal(err)
		}
	}
	elapsed := time.Since(start)
	b.ReportMetric(float64(len(corpus[0])*b.N)/elapsed.Seconds(), "bytes/sec")
}

func BenchmarkSplitWords(b *testing.B) {
	wordCount := 0
	start := time.Now()
	for i := 0; i < b.N; i++ {
		wordCount += len(SplitWords(benchCorpus))
	}
	elapsed := time.Since(start)
	b.ReportMetric(float64(wordCount)/elapsed.Seconds(), "words/sec")
	b.ReportMetric(float64(len(benchCorpus)*b.N)/elapsed.Seconds(),
		"bytes/sec")
}

func BenchmarkBPEModel_ToBPE(b *testing.B) {
	b.StopTimer()
	model := loadBenchModel(b)
	words := *model.SplitWords(&benchCorpus)
	totalTokens := 0
	start := time.Now()
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		for idx := range words {
			totalTokens += len(model.toBPE(words[idx]))
		}
	}
	b.StopTimer()
	elapsed := time.Since(start)
	b.ReportMetric(float64(totalTokens)/elapsed.Seconds(), "tokens/sec")
	b.ReportMetric(float64(model.LruHits()), "lru_hits")
	b.ReportMetric(float64(model.LruMisses()), "lru_misses")
}

func BenchmarkBPEModel_Encode(b *testing.B) {
	b.StopTimer()
	model := loadBenchModel(b)
	totalTokens := 0
	start := time.Now()
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		totalTokens += len(*model.Encode(&benchCorpus))
	}
	b.StopTimer()
	elapsed := time.Since(start)
	b.ReportMetric(float64(totalTokens)/elapsed.Seconds(), "tokens/sec")
	b.ReportMetric(float64(len(benchCorpus)*b.N)/elapsed.Seconds(),
		"bytes/sec")
}

func BenchmarkBPEModel_Decode(b *testing.B) {
	b.StopTimer()
	model := loadBenchModel(b)
	encoded := model.Encode(&benchCorpus)
	start := time.Now()
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		model.Decode(encoded)
	}
	b.StopTimer()
	elapsed := time.Since(start)
	b.ReportMetric(float64(len(*encoded)*b.N)/elapsed.Seconds(),
		"tokens/sec")
}
