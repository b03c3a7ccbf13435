package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/odia_bpe"
	"github.com/wbrown/odia_bpe/types"
)

type SanitizerTest struct {
	Name     string
	Input    string
	Expected string
}

type SanitizerTests []SanitizerTest

var sanitizerTests = SanitizerTests{
	{"\\n handling",
		"\nfoobar\\n\n",
		"\nfoobar\n"},
	{"\\r handling",
		"\r\n\r\n",
		"\n"},
	{"Trailing spaces handling",
		"foobar  ",
		"foobar"},
	{"Extra spaces handling",
		"foo  bar",
		"foo bar"},
	{"Prefix spaces handling",
		" foo bar",
		"foo bar"},
	{"Colon with spaces handling",
		"foo : bar",
		"foo: bar"},
	{"Extra spaces with newlines",
		" foo \n   bar\nfoo ",
		"foo\nbar\nfoo"},
	{"Tabs and byte order marks",
		"\uFEFFକଟକ\tସହର",
		"କଟକ ସହର"},
	{"Double danda",
		"ଶେଷ \u0965",
		"ଶେଷ ।।"},
	{"Empty",
		"",
		""},
}

const odiaText = "ଓଡ଼ିଆ ଭାଷା ଭାରତର ଏକ ପ୍ରାଚୀନ ଭାଷା ।\nଏହା ୧୪୦୦ ବର୍ଷ ପୁରୁଣା ।\n"

func trainModel(t *testing.T) *odia_bpe.BPEModel {
	t.Helper()
	trainer, err := odia_bpe.NewTrainer(odia_bpe.TrainerConfig{
		VocabSize: 200,
	})
	require.NoError(t, err)
	model, err := trainer.Train([]string{strings.Repeat(odiaText, 4)}, 2)
	require.NoError(t, err)
	return model
}

func writeTexts(t *testing.T, texts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range texts {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	return dir
}

// contextsFrom returns a ContextsIterator over fixed contexts.
func contextsFrom(contexts []odia_bpe.Tokens) ContextsIterator {
	idx := 0
	return func() *odia_bpe.Tokens {
		if idx == len(contexts) {
			return nil
		}
		idx++
		return &contexts[idx-1]
	}
}

func TestSanitizer(t *testing.T) {
	for _, test := range sanitizerTests {
		assert.Equal(t, test.Expected, SanitizeText(test.Input), test.Name)
	}
}

func TestSanitizedRuneReader_ReadRune(t *testing.T) {
	for _, test := range sanitizerTests {
		reader := CreateTextSanitizer(bytes.NewBufferString(test.Input))
		runes := make([]rune, 0)
		for {
			r, size, _ := reader.ReadRune()
			if size > 0 {
				runes = append(runes, r)
			} else {
				break
			}
		}
		assert.Equal(t, test.Expected, string(runes), test.Name)
	}
}

func TestSanitizer_LargeInput(t *testing.T) {
	input := strings.Repeat("କଟକ  ସହର\r\n\n", 20000)
	expected := strings.Repeat("କଟକ ସହର\n", 20000)
	assert.Equal(t, expected, SanitizeText(input))
}

func TestGlobTexts(t *testing.T) {
	dir := writeTexts(t, map[string]string{
		"a.txt":        "କ",
		"nested/b.txt": "କଖ",
		"skip.md":      "x",
	})
	paths, err := GlobTexts(dir)
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	SortPathInfoBySize(paths, false)
	assert.Equal(t, "b.txt", filepath.Base(paths[0].Path))
	SortPathInfoByPath(paths, true)
	assert.Equal(t, "a.txt", filepath.Base(paths[0].Path))

	newest, modTime := FindNewestPath(paths)
	assert.NotNil(t, modTime)
	assert.NotEmpty(t, *newest)

	_, err = GlobTexts(t.TempDir())
	assert.Error(t, err)
}

func TestReorderPaths_Invalid(t *testing.T) {
	assert.Error(t, ReorderPaths(nil, "sideways"))
	assert.NoError(t, ReorderPaths(nil, "shuffle"))
}

func TestReadTexts(t *testing.T) {
	dir := writeTexts(t, map[string]string{
		"1.txt": "ପ୍ରଥମ\t ଲେଖା",
		"2.txt": "ଦ୍ୱିତୀୟ",
	})
	nextText, err := ReadTexts(dir, true, "path_ascending")
	require.NoError(t, err)
	texts := make([]string, 0)
	for reader := nextText(); reader != nil; reader = nextText() {
		body, readErr := io.ReadAll(reader)
		require.NoError(t, readErr)
		texts = append(texts, string(body))
	}
	assert.Equal(t, []string{"ପ୍ରଥମ ଲେଖା", "ଦ୍ୱିତୀୟ"}, texts)
}

func TestTokenizeTexts(t *testing.T) {
	model := trainModel(t)
	dir := writeTexts(t, map[string]string{
		"1.txt": odiaText,
		"2.txt": odiaText,
	})
	nextText, err := ReadTexts(dir, false, "path_ascending")
	require.NoError(t, err)

	textsTokenizer := NewTextsTokenizer()
	textsTokenizer.ContextSize = 16
	contexts, err := textsTokenizer.TokenizeTexts(model, nextText)
	require.NoError(t, err)

	var joined odia_bpe.Tokens
	for context := contexts(); context != nil; context = contexts() {
		assert.Len(t, *context, 16)
		for _, token := range *context {
			if token != model.PadToken {
				joined = append(joined, token)
			}
		}
	}
	text := odiaText
	single := append(*model.Encode(&text), model.EosToken)
	assert.Equal(t, append(append(odia_bpe.Tokens{}, single...),
		single...), joined)
}

func TestPartitionBoundary(t *testing.T) {
	textsTokenizer := NewTextsTokenizer()
	textsTokenizer.ContextSize = 6
	boundary := odia_bpe.Token(9)
	tokens := odia_bpe.Tokens{5, 9, 5, 5, 9, 5, 5, 5}
	assert.Equal(t, 5, textsTokenizer.PartitionBoundary(tokens, &boundary, 0))
	assert.Equal(t, 6, textsTokenizer.PartitionBoundary(tokens, nil, 0))

	textsTokenizer.BoundaryBegin = true
	assert.Equal(t, 4, textsTokenizer.PartitionBoundary(tokens, &boundary, 0))

	noBoundary := odia_bpe.Tokens{5, 5, 5, 5, 5, 5, 5}
	assert.Equal(t, 6, textsTokenizer.PartitionBoundary(noBoundary,
		&boundary, 0))
}

func TestGetAndCheckToken(t *testing.T) {
	model := trainModel(t)
	token, err := getAndCheckToken(model, "<EOS>", "EndOfText")
	require.NoError(t, err)
	assert.Equal(t, model.EosToken, token)

	token, err = getAndCheckToken(model, "\\n", "Boundary")
	require.NoError(t, err)
	assert.Equal(t, *model.Get("\n"), token)

	token, err = getAndCheckToken(model, "0", "PadToken")
	require.NoError(t, err)
	assert.Equal(t, model.PadToken, token)

	_, err = getAndCheckToken(model, "xyz abc", "PadToken")
	assert.Error(t, err)
}

func TestWriteContexts(t *testing.T) {
	contexts := []odia_bpe.Tokens{{1, 2}, {3, 4}, {5, 6}}
	outPath := filepath.Join(t.TempDir(), "out.chunk")
	total, err := WriteContexts(outPath, contextsFrom(contexts), nil, 100,
		false, false)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	bin, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, types.Tokens{1, 2, 3, 4, 5, 6}, *types.TokensFromBin(&bin))
}

func TestWriteContexts_Uint32(t *testing.T) {
	contexts := []odia_bpe.Tokens{{70000, 2}}
	outPath := filepath.Join(t.TempDir(), "out.chunk")
	_, err := WriteContexts(outPath, contextsFrom(contexts), nil, 100,
		false, false)
	assert.Error(t, err)

	total, err := WriteContexts(outPath, contextsFrom(contexts), nil, 100,
		false, true)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	bin, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, types.Tokens{70000, 2}, *types.TokensFromBin32(&bin))
}

func TestWriteContexts_Sampling(t *testing.T) {
	contexts := make([]odia_bpe.Tokens, 40)
	for idx := range contexts {
		contexts[idx] = odia_bpe.Tokens{odia_bpe.Token(idx)}
	}
	outPath := filepath.Join(t.TempDir(), "out.chunk")
	total, err := WriteContexts(outPath, contextsFrom(contexts), nil, 50,
		false, false)
	require.NoError(t, err)
	assert.Equal(t, 20, total)
}

func TestWriteContexts_Shuffle(t *testing.T) {
	contexts := make([]odia_bpe.Tokens, 50)
	for idx := range contexts {
		contexts[idx] = odia_bpe.Tokens{odia_bpe.Token(idx),
			odia_bpe.Token(idx)}
	}
	outPath := filepath.Join(t.TempDir(), "out.chunk")
	total, err := WriteContexts(outPath, contextsFrom(contexts), nil, 100,
		true, false)
	require.NoError(t, err)
	assert.Equal(t, 100, total)
	bin, err := os.ReadFile(outPath)
	require.NoError(t, err)
	written := *types.TokensFromBin(&bin)
	require.Len(t, written, 100)
	seen := make(map[odia_bpe.Token]bool)
	for idx := 0; idx < len(written); idx += 2 {
		assert.Equal(t, written[idx], written[idx+1])
		seen[written[idx]] = true
	}
	assert.Len(t, seen, 50)
}
