package odia_bpe

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Supported input normalizations. The empty name leaves text untouched.
const (
	NormalizerNone = ""
	NormalizerNFC  = "nfc"
	NormalizerNFKC = "nfkc"
)

type normalizeFunc func(string) string

func identity(text string) string { return text }

func resolveNormalizer(name string) (normalizeFunc, error) {
	switch name {
	case NormalizerNone:
		return identity, nil
	case NormalizerNFC:
		return norm.NFC.String, nil
	case NormalizerNFKC:
		return norm.NFKC.String, nil
	default:
		return nil, fmt.Errorf("unknown normalizer %q", name)
	}
}
