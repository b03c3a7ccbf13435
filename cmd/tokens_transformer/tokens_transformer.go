package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/wbrown/odia_bpe"
	"github.com/wbrown/odia_bpe/types"
)

// RetokenizeContext decodes one fixed-size context written with input and
// encodes it again with output, padded or cut to contextSize. Padding from
// the input model is dropped before decoding.
func RetokenizeContext(input, output *odia_bpe.BPEModel,
	context odia_bpe.Tokens, contextSize int) (odia_bpe.Tokens, string) {
	content := make(odia_bpe.Tokens, 0, len(context))
	for _, token := range context {
		if token != input.PadToken {
			content = append(content, token)
		}
	}
	decoded := input.Decode(&content)
	encoded := *output.Encode(&decoded)
	// trim encoded tokens to context size
	if len(encoded) > contextSize {
		encoded = encoded[:contextSize]
	}
	// pad out context
	for len(encoded) < contextSize {
		encoded = append(encoded, output.PadToken)
	}
	return encoded, decoded
}

func main() {
	inputModelUri := flag.String("input_model", "",
		"model file, directory, or URL the input was tokenized with")
	outputModelUri := flag.String("output_model", "",
		"model file, directory, or URL to retokenize with")
	contextSize := flag.Int("context_size", 2048,
		"number of tokens to use as context")
	showContexts := flag.Bool("show_contexts", false,
		"show contexts as they are retokenized")
	in32 := flag.Bool("in32", false,
		"force input tokens to be read as 32-bit")
	out32 := flag.Bool("out32", false,
		"force output tokens to be written as 32-bit")
	inputFile := flag.String("input", "",
		"input file to retokenize")
	outputFile := flag.String("output", "retokenized.tokens",
		"output file to write retokenized data")
	flag.Parse()
	if *inputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -input")
	}
	if *inputModelUri == "" || *outputModelUri == "" {
		flag.Usage()
		log.Fatal("Must provide -input_model and -output_model")
	}
	if *contextSize < 1 {
		flag.Usage()
		log.Fatal("Context size must be greater than 0")
	}
	if *inputModelUri == *outputModelUri {
		log.Fatal("Input and output models must be different")
	}
	if *inputFile == *outputFile {
		log.Fatal("Input and output files must be different")
	}
	if _, err := os.Stat(*inputFile); os.IsNotExist(err) {
		log.Fatal("Input file does not exist")
	}

	inputModel, inputErr := odia_bpe.LoadModel(*inputModelUri, os.TempDir())
	if inputErr != nil {
		log.Fatal(inputErr)
	}
	input32Bit := *in32 || inputModel.Len() > 65536
	outputModel, outputErr := odia_bpe.LoadModel(*outputModelUri,
		os.TempDir())
	if outputErr != nil {
		log.Fatal(outputErr)
	}
	output32Bit := *out32 || outputModel.Len() > 65536

	inputFileHandle, inputOpenErr := os.Open(*inputFile)
	if inputOpenErr != nil {
		log.Fatal(inputOpenErr)
	}
	defer inputFileHandle.Close()
	outputFileHandle, outputOpenErr := os.Create(*outputFile)
	if outputOpenErr != nil {
		log.Fatal(outputOpenErr)
	}
	defer outputFileHandle.Close()

	tokenSize := types.TokenSize
	if input32Bit {
		tokenSize = types.TokenSize32
	}
	contextBuffer := make([]byte, *contextSize*tokenSize)
	contexts := 0
	for {
		bytesRead, readErr := io.ReadFull(inputFileHandle, contextBuffer)
		if bytesRead == 0 {
			break
		}
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			log.Fatal(readErr)
		}
		chunk := contextBuffer[:bytesRead]
		var context *odia_bpe.Tokens
		if input32Bit {
			context = types.TokensFromBin32(&chunk)
		} else {
			context = types.TokensFromBin(&chunk)
		}
		encoded, decoded := RetokenizeContext(inputModel, outputModel,
			*context, *contextSize)
		bytesToWrite, binErr := encoded.ToBin(output32Bit)
		if binErr != nil {
			log.Fatal(binErr)
		}
		if _, writeErr := outputFileHandle.Write(
			*bytesToWrite); writeErr != nil {
			log.Fatal(writeErr)
		}
		if *showContexts {
			log.Printf("Input: %s", decoded)
			log.Printf("Output: %s", outputModel.Decode(&encoded))
		}
		contexts++
	}
	log.Printf("Retokenized %d contexts", contexts)
}
