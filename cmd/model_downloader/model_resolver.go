package main

import (
	"flag"
	"log"
	"os"

	"github.com/wbrown/odia_bpe/resources"
)

func main() {
	modelId := flag.String("model", "",
		"model URL or path to fetch")
	destPath := flag.String("dest", "./",
		"where to download the model to")
	authToken := flag.String("auth", os.Getenv("ODIA_BPE_TOKEN"),
		"bearer token for remote fetches")
	flag.Parse()
	if *modelId == "" {
		flag.Usage()
		log.Fatal("Must provide -model")
	}

	resources.AuthToken = *authToken
	if err := os.MkdirAll(*destPath, 0755); err != nil {
		log.Fatal(err)
	}
	rsrcs, rsrcErr := resources.ResolveModel(*modelId, *destPath)
	if rsrcErr != nil {
		log.Fatalf("Error downloading model resources: %s", rsrcErr)
	}
	defer rsrcs.Cleanup()
	for name := range *rsrcs {
		log.Printf("Resolved %s", name)
	}
}
