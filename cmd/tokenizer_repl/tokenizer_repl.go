package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/wbrown/odia_bpe"
)

// A REPL for interacting with a trained `odia_bpe` model.

func main() {
	modelUri := flag.String("model", "model.json",
		"model file, directory, or URL to load")
	cacheDir := flag.String("cache", os.TempDir(),
		"where to cache remote models")
	flag.Parse()

	tokenizer, err := odia_bpe.LoadModel(*modelUri, *cacheDir)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Loaded %s: %d symbols, %d merges", *modelUri,
		tokenizer.Len(), len(tokenizer.Merges()))

	reader := bufio.NewReader(os.Stdin)
	// Provide a REPL
	for {
		fmt.Print(">>> ")
		input, err := reader.ReadString('\n')
		if err == io.EOF && input == "" {
			return
		} else if err != nil && err != io.EOF {
			log.Fatal(err)
		}
		// Remove trailing newline and replace \n with newline.
		input = strings.TrimSuffix(input, "\n")
		input = strings.Replace(input, "\\n", "\n", -1)

		tokens := tokenizer.Encode(&input)
		fmt.Printf("%v\n", *tokens)
		for _, token := range *tokens {
			symbol, ok := tokenizer.Symbol(token)
			if !ok {
				symbol = odia_bpe.UnknownMarker
			}
			fmt.Printf("|%s", symbol)
		}
		fmt.Printf("\n")
		if ratio, ratioErr := tokenizer.CompressionRatio(
			&input); ratioErr == nil {
			fmt.Printf("%d chars, %d tokens, ratio %0.2f\n",
				len([]rune(input)), len(*tokens), ratio)
		}
	}
}
