package odia_bpe

import "github.com/wbrown/odia_bpe/types"

type Pair = types.Pair

// MergeRule records a learned merge: Pair.Left followed by Pair.Right
// becomes Merged.
type MergeRule struct {
	Pair   Pair
	Merged string
}

func NewMergeRule(left, right string) MergeRule {
	return MergeRule{Pair{Left: left, Right: right}, left + right}
}

// CountPairs returns how often every adjacent symbol pair occurs across
// words. Pairs never span two words.
func CountPairs(words [][]string) map[Pair]int {
	pairs := make(map[Pair]int)
	for _, word := range words {
		for idx := 0; idx < len(word)-1; idx++ {
			pairs[Pair{Left: word[idx], Right: word[idx+1]}]++
		}
	}
	return pairs
}

// addPairCounts adds weight for every adjacent pair of word into counts.
func addPairCounts(counts map[Pair]int, word []string, weight int) {
	for idx := 0; idx < len(word)-1; idx++ {
		counts[Pair{Left: word[idx], Right: word[idx+1]}] += weight
	}
}

// bestPair returns the most frequent pair. Ties go to the lexicographically
// smallest pair so that training never depends on map iteration order.
func bestPair(counts map[Pair]int) (best Pair, bestCount int, ok bool) {
	for pair, count := range counts {
		if count <= 0 {
			continue
		}
		if !ok || count > bestCount || (count == bestCount && pair.Less(best)) {
			best, bestCount, ok = pair, count, true
		}
	}
	return best, bestCount, ok
}

// hasPair reports whether pair occurs in word.
func hasPair(word []string, pair Pair) bool {
	for idx := 0; idx < len(word)-1; idx++ {
		if word[idx] == pair.Left && word[idx+1] == pair.Right {
			return true
		}
	}
	return false
}

// pos finds the index of the first occurrence of seek in word past index i.
func pos(word []string, seek string, i int) int {
	for j, v := range word[i:] {
		if seek == v {
			return j + i
		}
	}
	return -1
}

// mergeWord rewrites word left to right, replacing every non-overlapping
// occurrence of rule.Pair with rule.Merged. The input is returned untouched
// when the pair is absent.
func mergeWord(word []string, rule MergeRule) []string {
	if !hasPair(word, rule.Pair) {
		return word
	}
	first, second := rule.Pair.Left, rule.Pair.Right
	newWord := make([]string, 0, len(word))
	for i := 0; i < len(word); {
		j := pos(word, first, i)
		if j == -1 {
			newWord = append(newWord, word[i:]...)
			break
		}
		newWord = append(newWord, word[i:j]...)
		i = j
		if i < len(word)-1 && word[i+1] == second {
			newWord = append(newWord, rule.Merged)
			i += 2
		} else {
			newWord = append(newWord, word[i])
			i += 1
		}
	}
	return newWord
}

// MergeWords applies one rule to every word.
func MergeWords(words [][]string, rule MergeRule) [][]string {
	merged := make([][]string, len(words))
	for idx := range words {
		merged[idx] = mergeWord(words[idx], rule)
	}
	return merged
}
