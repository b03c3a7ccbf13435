package main

import (
	"flag"
	"log"
	"os"

	"github.com/wbrown/odia_bpe"
	"github.com/wbrown/odia_bpe/resources"
	"github.com/wbrown/odia_bpe/types"
)

func main() {
	modelUri := flag.String("model", "model.json",
		"model file, directory, or URL the tokens were encoded with")
	inputFile := flag.String("input", "",
		"binary token file to detokenize")
	outputFile := flag.String("output", "detokenized.txt",
		"output file to write detokenized text")
	in32 := flag.Bool("in32", false,
		"input tokens are uint32 instead of uint16")
	flag.Parse()

	if *inputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -input")
	}
	if *outputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -output")
	}

	// check if input file exists
	if _, err := os.Stat(*inputFile); os.IsNotExist(err) {
		log.Fatal("Input file does not exist")
	}

	model, err := odia_bpe.LoadModel(*modelUri, os.TempDir())
	if err != nil {
		log.Fatal(err)
	}

	input, err := resources.ReadFile(*inputFile)
	if err != nil {
		log.Fatal(err)
	}
	defer input.Close()

	var tokens *types.Tokens
	if *in32 {
		tokens = types.TokensFromBin32(input.Data)
	} else {
		tokens = types.TokensFromBin(input.Data)
	}
	log.Printf("Decoding %d tokens from %s", len(*tokens), *inputFile)

	if err := os.WriteFile(*outputFile, []byte(model.Decode(tokens)),
		0644); err != nil {
		log.Fatal(err)
	}
}
