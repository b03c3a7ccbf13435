package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/odia_bpe"
	"github.com/yargevad/filepathx"
)

type TextsIterator func() io.Reader

type PathInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	Dir     bool
}

// GlobTexts
// Given a directory path, recursively finds all `.txt` files, returning a
// slice of PathInfo.
func GlobTexts(dirPath string) (pathInfos []PathInfo, err error) {
	textPaths, err := filepathx.Glob(dirPath + "/**/*.txt")
	if err != nil {
		return nil, err
	}
	numMatches := len(textPaths)
	if numMatches == 0 {
		return nil, errors.New(fmt.Sprintf(
			"%s does not contain any .txt files", dirPath))
	}
	pathInfos = make([]PathInfo, numMatches)
	for matchIdx := range textPaths {
		currPath := textPaths[matchIdx]
		if stat, statErr := os.Stat(currPath); statErr != nil {
			return nil, statErr
		} else {
			pathInfos[matchIdx] = PathInfo{
				Path:    currPath,
				Size:    stat.Size(),
				ModTime: stat.ModTime(),
				Dir:     stat.IsDir(),
			}
		}
	}
	return pathInfos, nil
}

func SortPathInfoBySize(pathInfos []PathInfo, ascending bool) {
	sort.SliceStable(pathInfos, func(i, j int) bool {
		if ascending {
			return pathInfos[i].Size < pathInfos[j].Size
		}
		return pathInfos[i].Size > pathInfos[j].Size
	})
}

func SortPathInfoByPath(pathInfos []PathInfo, ascending bool) {
	sort.SliceStable(pathInfos, func(i, j int) bool {
		if ascending {
			return pathInfos[i].Path < pathInfos[j].Path
		}
		return pathInfos[i].Path > pathInfos[j].Path
	})
}

func ShufflePathInfos(pathInfos []PathInfo) {
	rand.Shuffle(len(pathInfos), func(i, j int) {
		pathInfos[i], pathInfos[j] = pathInfos[j], pathInfos[i]
	})
}

// FindNewestPath
// Returns the path and modified time of the most recently modified entry.
func FindNewestPath(paths []PathInfo) (path *string, newest *time.Time) {
	var newestPath string
	var newestTime *time.Time
	for idx := range paths {
		if newestTime == nil || newestTime.Before(paths[idx].ModTime) {
			newestTime = &paths[idx].ModTime
			newestPath = paths[idx].Path
		}
	}
	return &newestPath, newestTime
}

// FindNewestText
// Given a directory, recursively scans and returns the path and modified time
// for the newest `.txt` file.
func FindNewestText(dirPath string) (path *string, newest *time.Time,
	err error) {
	matches, err := GlobTexts(dirPath)
	if err != nil {
		return nil, nil, err
	}
	path, newest = FindNewestPath(matches)
	return path, newest, nil
}

// ReorderPaths orders pathInfos in place according to sortSpec.
func ReorderPaths(pathInfos []PathInfo, sortSpec string) error {
	switch sortSpec {
	case "", "none", "shuffle":
	case "size_ascending":
		SortPathInfoBySize(pathInfos, true)
	case "size_descending":
		SortPathInfoBySize(pathInfos, false)
	case "path_ascending":
		SortPathInfoByPath(pathInfos, true)
	case "path_descending":
		SortPathInfoByPath(pathInfos, false)
	case "random":
		ShufflePathInfos(pathInfos)
	default:
		return errors.New(fmt.Sprintf("Invalid sort spec: %s", sortSpec))
	}
	return nil
}

// ReadTexts
// Consumes a directory path and recursively scans for `.txt` files, producing
// a TextsIterator function that yields each text file as an io.Reader.
func ReadTexts(dirPath string, sanitize bool, sortSpec string) (TextsIterator,
	error) {
	matches, err := GlobTexts(dirPath)
	if err != nil {
		return nil, err
	}
	if err = ReorderPaths(matches, sortSpec); err != nil {
		return nil, err
	}

	type namedReader struct {
		path   string
		handle *os.File
		reader io.Reader
	}

	// We pre-emptively do the work to set up the buffers for the next files,
	// while the prior file is being consumed.
	readers := make(chan namedReader, 4)
	go func() {
		for _, path := range matches {
			fileReader, openErr := os.Open(path.Path)
			if openErr != nil {
				log.Fatal(openErr)
			}
			var reader io.Reader
			if sanitize {
				reader = CreateTextSanitizer(fileReader)
			} else {
				reader = bufio.NewReaderSize(fileReader, 8*1024*1024)
			}
			readers <- namedReader{path.Path, fileReader, reader}
		}
		close(readers)
	}()

	var prior *os.File
	return func() io.Reader {
		if prior != nil {
			prior.Close()
			prior = nil
		}
		if reader, ok := <-readers; !ok {
			return nil
		} else {
			log.Print("Reading ", reader.path)
			prior = reader.handle
			return reader.reader
		}
	}, nil
}

// TextsTokenizer
// A struct that encapsulates the configuration for a streaming tokenizer.
type TextsTokenizer struct {
	ModelPath     string
	ContextSize   int
	Boundary      string
	BoundaryBegin bool
	PadToken      string
	EndOfText     string
}

// NewTextsTokenizer
// Creates a new TextsTokenizer struct with the default configuration.
func NewTextsTokenizer() TextsTokenizer {
	return TextsTokenizer{
		"model.json",
		2048,
		"\n",
		false,
		"",
		"",
	}
}

// getAndCheckToken
// Check if s is a valid token via vocabulary lookup, then as a numeric id; if
// neither, we try encoding and checking if it is a single token.
func getAndCheckToken(model *odia_bpe.BPEModel, s string,
	id string) (odia_bpe.Token, error) {
	s = strings.ReplaceAll(s, "\\n", "\n")
	if token := model.Get(s); token != nil {
		return *token, nil
	}
	if numeric, err := strconv.ParseUint(s, 10, 32); err == nil {
		if _, ok := model.Symbol(odia_bpe.Token(numeric)); ok {
			return odia_bpe.Token(numeric), nil
		}
	}
	tokens := model.Encode(&s)
	if len(*tokens) != 1 {
		return 0, errors.New(fmt.Sprintf(
			"'%s' is not a valid token for %s", s, id))
	}
	return (*tokens)[0], nil
}

type ContextsIterator func() *odia_bpe.Tokens

// PartitionBoundary returns where the context starting at begin should end:
// just after (or, with BoundaryBegin, at) the last boundary token that leaves
// a non-empty context, or at the hard ContextSize limit.
func (tt *TextsTokenizer) PartitionBoundary(tokens odia_bpe.Tokens,
	boundary *odia_bpe.Token, begin int) int {
	end := begin + tt.ContextSize
	if boundary == nil {
		return end
	}
	offset := 1
	if tt.BoundaryBegin {
		offset = 0
	}
	for idx := end - 1; idx >= begin; idx-- {
		if tokens[idx] == *boundary && idx+offset > begin {
			return idx + offset
		}
	}
	return end
}

// TokenizeTexts
// Consumes a TextsIterator and produces a ContextsIterator iterator function
// that returns tokenized contexts that are fixed and padded out to
// `ContextSize`. Every text is followed by the end of text token.
func (tt TextsTokenizer) TokenizeTexts(model *odia_bpe.BPEModel,
	nextText TextsIterator) (ContextsIterator, error) {
	if tt.ContextSize < 1 {
		return nil, errors.New("context size must be positive")
	}
	padToken := model.PadToken
	if tt.PadToken != "" {
		var padErr error
		if padToken, padErr = getAndCheckToken(model, tt.PadToken,
			"PadToken"); padErr != nil {
			return nil, padErr
		}
	}
	endOfText := model.EosToken
	if tt.EndOfText != "" {
		var eotErr error
		if endOfText, eotErr = getAndCheckToken(model, tt.EndOfText,
			"EndOfText"); eotErr != nil {
			return nil, eotErr
		}
	}
	var boundary *odia_bpe.Token
	if tt.Boundary != "" {
		token, boundaryErr := getAndCheckToken(model, tt.Boundary,
			"Boundary")
		if boundaryErr != nil {
			return nil, boundaryErr
		}
		boundary = &token
	}

	// Consume texts from `nextText()` and tokenize as a `goroutine`.
	tokenizedTexts := make(chan odia_bpe.Tokens, 4)
	go func() {
		for reader := nextText(); reader != nil; reader = nextText() {
			tokenized, err := model.EncodeReader(reader)
			if err != nil {
				log.Fatal(err)
			}
			tokenizedTexts <- append(*tokenized, endOfText)
		}
		close(tokenizedTexts)
	}()

	contextSize := tt.ContextSize
	var tokens odia_bpe.Tokens
	done := false
	return func() *odia_bpe.Tokens {
		for !done && len(tokens) < contextSize {
			more, ok := <-tokenizedTexts
			if !ok {
				done = true
				break
			}
			tokens = append(tokens, more...)
		}
		if len(tokens) == 0 {
			return nil
		}
		end := len(tokens)
		if end >= contextSize {
			end = tt.PartitionBoundary(tokens, boundary, 0)
		}
		chunk := make(odia_bpe.Tokens, 0, contextSize)
		chunk = append(chunk, tokens[:end]...)
		for len(chunk) < contextSize {
			chunk = append(chunk, padToken)
		}
		tokens = tokens[end:]
		return &chunk
	}, nil
}

// WriteContexts
// Consumes a ContextsIterator function and serializes the contexts to an
// aligned binary file. When model is set, contexts are echoed as they are
// written.
func WriteContexts(outPath string, nextContext ContextsIterator,
	model *odia_bpe.BPEModel, sampling int, shuffle bool,
	useUint32 bool) (int, error) {
	totalTokens := 0
	outFile, err := os.OpenFile(outPath, os.O_TRUNC|os.O_RDWR|os.O_CREATE,
		0755)
	if err != nil {
		return 0, err
	}
	defer outFile.Close()
	contexts := make(chan odia_bpe.Tokens, 2)

	go func() {
		samplingIdx := 0
		for {
			context := nextContext()
			if context == nil {
				close(contexts)
				break
			}
			// Keep `sampling` percent of contexts, in steps of 5%.
			if sampling == 100 || (samplingIdx%20) < int(sampling/5) {
				contexts <- *context
				if model != nil {
					println(len(*context))
					println("======================================")
					println(model.Decode(context))
				}
			}
			samplingIdx += 1
		}
	}()

	endpos := 0
	var buf []byte
	var contextSize int
	var target int64

	for context := range contexts {
		binContext, binErr := context.ToBin(useUint32)
		if binErr != nil {
			// Keep draining so the producer is not left blocked.
			for range contexts {
			}
			return totalTokens, binErr
		}
		if endpos == 0 {
			// On the first context, we discern the context size and make the
			// appropriately sized buffer
			contextSize = len(*binContext)
			buf = make([]byte, contextSize)
		}

		// When shuffling, a random earlier context is moved to the end of
		// the file and the new context takes its place.
		if endpos > 0 && shuffle {
			target = int64(rand.Intn(endpos/contextSize)) * int64(contextSize)
			if _, err := outFile.ReadAt(buf, target); err != nil {
				return totalTokens, err
			}
			if _, err := outFile.WriteAt(*binContext, target); err != nil {
				return totalTokens, err
			}
			if _, err := outFile.Write(buf); err != nil {
				return totalTokens, err
			}
		} else if _, err := outFile.Write(*binContext); err != nil {
			return totalTokens, err
		}

		totalTokens += len(context)
		endpos += len(*binContext)
	}

	return totalTokens, nil
}

func main() {
	modelPath := flag.String("model", "model.json",
		"model file, directory, or URL to tokenize with")
	contextSize := flag.Int("context", 2048, "context size")
	showContexts := flag.Bool("show_contexts", false,
		"show contexts as they are tokenized")
	endOfText := flag.String("eot", "",
		"end of text token to split texts, can be a token or token_id")
	padToken := flag.String("pad", "",
		"pad token to pad out contexts, can be <PAD>, or a token_id")
	boundaryToken := flag.String("boundary", "\n",
		"boundary token to split contexts on, can be a string token "+
			"or token_id; empty for hard splits")
	boundaryBegin := flag.Bool("boundary_begin", false,
		"whether to treat the boundary token as a beginning token for "+
			"a context")
	outputFile := flag.String("output", "tokenized.chunk",
		"tokenized output file")
	inputDir := flag.String("input", "",
		"input directory")
	forceRetokenization := flag.Bool("retokenize", false,
		"force retokenization even if tokenizer output is newer")
	sanitizeBool := flag.Bool("sanitize", false,
		"sanitize inputs of whitespace issues")
	reorderPaths := flag.String("reorder", "",
		"reorder input files by [size_ascending, "+
			"size_descending, path_ascending, path_descending, random, "+
			"shuffle, none]")
	samplingStr := flag.String("sampling", "100", "a integer value from "+
		"0-100 which tells the tokenizer how many chunks to keep in %, "+
		"60 keeps 60%% chunks")
	out32 := flag.Bool("out32", false,
		"write tokens as uint32 instead of uint16")
	flag.Parse()
	if *inputDir == "" {
		flag.Usage()
		log.Fatal("Must provide -input for directory source")
	}
	sampling, err := strconv.Atoi(*samplingStr)
	if err != nil {
		log.Fatal("Sampling parameter must be an integer")
	}
	if sampling > 100 || sampling < 0 {
		log.Fatal("Sampling parameter out of the 0-100 bounds")
	}
	if err := ReorderPaths(nil, *reorderPaths); err != nil {
		log.Fatal(err)
	}

	log.Printf("Tokenizer model: %s\n", *modelPath)
	log.Printf("Tokenizer input source: %s\n", *inputDir)
	log.Printf("Tokenizer output: %s\n", *outputFile)
	log.Printf("Tokenizer reordering method: %s\n", *reorderPaths)
	log.Printf("Sampling amount (in %% contexts kept): %d%%\n", sampling)

	if !*forceRetokenization {
		if outStat, outErr := os.Stat(*outputFile); !errors.Is(outErr,
			os.ErrNotExist) && outErr != nil {
			log.Fatal(outErr)
		} else if errors.Is(outErr, os.ErrNotExist) {
			log.Printf("Creating %s", *outputFile)
		} else if newestPath, newestModTime, newestErr := FindNewestText(
			*inputDir); newestErr != nil {
			log.Fatal(newestErr)
		} else if newestModTime != nil && newestModTime.Before(
			outStat.ModTime()) {
			log.Printf("Newest source `%s` is older than `%s`, "+
				"not retokenizing. "+
				"Use -retokenize to force retokenization.", *newestPath,
				*outputFile)
			os.Exit(0)
		}
	}

	textsTokenizer := NewTextsTokenizer()
	textsTokenizer.ModelPath = *modelPath
	textsTokenizer.ContextSize = *contextSize
	textsTokenizer.EndOfText = *endOfText
	textsTokenizer.PadToken = *padToken
	textsTokenizer.Boundary = *boundaryToken
	textsTokenizer.BoundaryBegin = *boundaryBegin

	model, modelErr := odia_bpe.LoadModel(textsTokenizer.ModelPath, ".")
	if modelErr != nil {
		log.Fatal(modelErr)
	}
	if !*out32 && model.Len() > 65536 {
		log.Fatalf("Vocabulary of %d does not fit uint16, use -out32",
			model.Len())
	}

	nextText, err := ReadTexts(*inputDir, *sanitizeBool, *reorderPaths)
	if err != nil {
		log.Fatal(err)
	}
	begin := time.Now()
	contexts, tokErr := textsTokenizer.TokenizeTexts(model, nextText)
	if tokErr != nil {
		log.Fatal(tokErr)
	}
	var echo *odia_bpe.BPEModel
	if *showContexts {
		echo = model
	}
	total, writeErr := WriteContexts(*outputFile, contexts, echo, sampling,
		*reorderPaths == "shuffle", *out32)
	if writeErr != nil {
		log.Fatal(writeErr)
	}
	duration := time.Since(begin).Seconds()
	log.Printf("%s tokens in %0.2fs, %0.2f tokens/s",
		humanize.Comma(int64(total)), duration, float64(total)/duration)
}
