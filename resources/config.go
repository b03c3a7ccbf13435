package resources

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// TrainingConfig holds the training settings a driver reads from
// `tokenizer_config.json`. Nil fields are unset and leave the caller's
// defaults in place.
type TrainingConfig struct {
	VocabSize  *int    `json:"vocab_size,omitempty"`
	MinFreq    *int    `json:"min_freq,omitempty"`
	MaxChars   *int    `json:"max_chars,omitempty"`
	Normalizer *string `json:"normalizer,omitempty"`
	LogEvery   *int    `json:"log_every,omitempty"`
}

// ParseTrainingConfig decodes a training config, rejecting unknown fields.
func ParseTrainingConfig(data []byte) (*TrainingConfig, error) {
	var config TrainingConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling training config")
	}
	if config.VocabSize != nil && *config.VocabSize <= 0 {
		return nil, errors.New("vocab_size must be positive")
	}
	if config.MinFreq != nil && *config.MinFreq < 1 {
		return nil, errors.New("min_freq must be at least 1")
	}
	if config.MaxChars != nil && *config.MaxChars < 0 {
		return nil, errors.New("max_chars must not be negative")
	}
	return &config, nil
}

// LoadTrainingConfig reads and parses the training config at path.
func LoadTrainingConfig(path string) (*TrainingConfig, error) {
	entry, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer entry.Close()
	return ParseTrainingConfig(*entry.Data)
}

// IntOr returns *value, or fallback when value is nil.
func IntOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

// StringOr returns *value, or fallback when value is nil.
func StringOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}
