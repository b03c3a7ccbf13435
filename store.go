package odia_bpe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/wbrown/odia_bpe/resources"
)

// MergeDelimiter joins the two halves of a pair in a persisted merge key.
const MergeDelimiter = "|"

// ErrMalformedModel matches every *FormatError via errors.Is.
var ErrMalformedModel = errors.New("odia_bpe: malformed model")

// FormatError reports a persisted model that does not match the schema, or
// a model that cannot be persisted without corrupting it.
type FormatError struct {
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("odia_bpe: malformed model: %s", e.Reason)
	}
	return fmt.Sprintf("odia_bpe: malformed model field `%s`: %s",
		e.Field, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrMalformedModel
}

func formatErrorf(field string, format string, args ...interface{}) error {
	return &FormatError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// marshalString encodes s as a JSON string without HTML escaping, so that
// `<UNK>` stays readable on disk.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalJSON writes the rule as a single-entry object {"first|second":
// "merged"}.
func (rule MergeRule) MarshalJSON() ([]byte, error) {
	key, err := marshalString(rule.Pair.Left + MergeDelimiter + rule.Pair.Right)
	if err != nil {
		return nil, err
	}
	value, err := marshalString(rule.Merged)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(key)+len(value)+3)
	out = append(out, '{')
	out = append(out, key...)
	out = append(out, ':')
	out = append(out, value...)
	out = append(out, '}')
	return out, nil
}

// tokenTable marshals as a JSON object with keys in id order.
type tokenTable map[string]Token

func (table tokenTable) MarshalJSON() ([]byte, error) {
	symbols := make([]string, 0, len(table))
	for symbol := range table {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool {
		return table[symbols[i]] < table[symbols[j]]
	})
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, symbol := range symbols {
		if idx > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(symbol)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(fmt.Sprintf(":%d", table[symbol]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type modelJSON struct {
	Vocab         tokenTable  `json:"vocab"`
	Merges        []MergeRule `json:"merges"`
	VocabSize     int         `json:"vocab_size"`
	SpecialTokens tokenTable  `json:"special_tokens"`
	Normalizer    string      `json:"normalizer,omitempty"`
}

// Save writes the model as indented JSON. It fails with a *FormatError if
// any merge symbol contains MergeDelimiter, since such a rule could not be
// read back unambiguously.
func (model *BPEModel) Save(writer io.Writer) error {
	for idx, rule := range model.merges {
		if strings.Contains(rule.Pair.Left, MergeDelimiter) ||
			strings.Contains(rule.Pair.Right, MergeDelimiter) {
			return formatErrorf(fmt.Sprintf("merges[%d]", idx),
				"symbol contains the merge delimiter %q", MergeDelimiter)
		}
	}
	merges := model.merges
	if merges == nil {
		merges = []MergeRule{}
	}
	doc := modelJSON{
		Vocab:         tokenTable(model.encoder),
		Merges:        merges,
		VocabSize:     model.vocabSize,
		SpecialTokens: tokenTable(model.specials),
		Normalizer:    model.normalizerName,
	}
	enc := json.NewEncoder(writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "cannot write model")
	}
	return nil
}

// SaveFile writes the model to path, replacing any existing file.
func (model *BPEModel) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := model.Save(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "cannot write model to `%s`", path)
	}
	return nil
}

// Load reads a model written by Save. It also accepts the older layout in
// which `merges` is an object keyed by "first|second"; keys are then taken
// in document order.
func Load(reader io.Reader) (*BPEModel, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read model")
	}
	return LoadBytes(data)
}

// LoadFile memory-maps path and loads the model from it.
func LoadFile(path string) (*BPEModel, error) {
	entry, err := resources.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer entry.Close()
	model, err := LoadBytes(*entry.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load `%s`", path)
	}
	return model, nil
}

// LoadModel resolves uri as a model file, a model directory or a base URL
// and loads the model from it. Remote models are cached in dir.
func LoadModel(uri string, dir string) (*BPEModel, error) {
	rsrcs, err := resources.ResolveModel(uri, dir)
	if err != nil {
		return nil, err
	}
	defer rsrcs.Cleanup()
	entry, ok := (*rsrcs)[resources.MODEL_FILE]
	if !ok {
		return nil, errors.Errorf("no %s at `%s`", resources.MODEL_FILE, uri)
	}
	model, err := LoadBytes(*entry.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load `%s`", uri)
	}
	return model, nil
}

func unmarshalField(fields map[string]json.RawMessage, name string,
	target interface{}, required bool) error {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if required {
			return formatErrorf(name, "required field is missing")
		}
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return formatErrorf(name, "%v", err)
	}
	return nil
}

// LoadBytes parses and validates a persisted model.
func LoadBytes(data []byte) (*BPEModel, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, formatErrorf("", "%v", err)
	}
	var vocab map[string]Token
	var vocabSize int
	var specials map[string]Token
	var normalizer string
	if err := unmarshalField(fields, "vocab", &vocab, true); err != nil {
		return nil, err
	}
	if err := unmarshalField(fields, "vocab_size", &vocabSize,
		true); err != nil {
		return nil, err
	}
	if err := unmarshalField(fields, "special_tokens", &specials,
		true); err != nil {
		return nil, err
	}
	if err := unmarshalField(fields, "normalizer", &normalizer,
		false); err != nil {
		return nil, err
	}
	if _, err := resolveNormalizer(normalizer); err != nil {
		return nil, formatErrorf("normalizer", "%v", err)
	}
	raw, ok := fields["merges"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, formatErrorf("merges", "required field is missing")
	}
	merges, err := parseMerges(raw)
	if err != nil {
		return nil, err
	}
	if vocabSize < len(vocab) {
		return nil, formatErrorf("vocab_size",
			"%d is smaller than the vocabulary (%d entries)",
			vocabSize, len(vocab))
	}
	return NewModel(vocab, merges, specials, vocabSize, normalizer)
}

func parseMerges(raw json.RawMessage) ([]MergeRule, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, formatErrorf("merges", "empty value")
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, formatErrorf("merges", "%v", err)
		}
		merges := make([]MergeRule, 0, len(items))
		for idx, item := range items {
			field := fmt.Sprintf("merges[%d]", idx)
			var entry map[string]string
			if err := json.Unmarshal(item, &entry); err != nil {
				return nil, formatErrorf(field, "%v", err)
			}
			if len(entry) != 1 {
				return nil, formatErrorf(field,
					"expected a single \"first|second\" entry, found %d",
					len(entry))
			}
			for key, merged := range entry {
				rule, err := parseMergeEntry(field, key, merged)
				if err != nil {
					return nil, err
				}
				merges = append(merges, rule)
			}
		}
		return merges, nil
	case '{':
		return parseLegacyMerges(trimmed)
	default:
		return nil, formatErrorf("merges", "expected an array or object")
	}
}

// parseLegacyMerges reads an object of "first|second": "merged" entries,
// preserving the order the keys appear in.
func parseLegacyMerges(raw []byte) ([]MergeRule, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, formatErrorf("merges", "%v", err)
	}
	merges := make([]MergeRule, 0)
	for dec.More() {
		field := fmt.Sprintf("merges[%d]", len(merges))
		keyToken, err := dec.Token()
		if err != nil {
			return nil, formatErrorf(field, "%v", err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, formatErrorf(field, "unexpected key %v", keyToken)
		}
		var merged string
		if err := dec.Decode(&merged); err != nil {
			return nil, formatErrorf(field, "%v", err)
		}
		rule, err := parseMergeEntry(field, key, merged)
		if err != nil {
			return nil, err
		}
		merges = append(merges, rule)
	}
	return merges, nil
}

func parseMergeEntry(field, key, merged string) (MergeRule, error) {
	parts := strings.Split(key, MergeDelimiter)
	if len(parts) != 2 {
		return MergeRule{}, formatErrorf(field,
			"key %q must contain exactly one %q", key, MergeDelimiter)
	}
	if parts[0] == "" || parts[1] == "" {
		return MergeRule{}, formatErrorf(field, "key %q has an empty half",
			key)
	}
	if merged != parts[0]+parts[1] {
		return MergeRule{}, formatErrorf(field,
			"merged symbol %q is not the concatenation of %q", merged, key)
	}
	return NewMergeRule(parts[0], parts[1]), nil
}

// validateModel checks the invariants a usable model needs: a contiguous,
// duplicate-free id space, specials that agree with the vocabulary, and
// merges whose results are in the vocabulary.
func validateModel(vocab map[string]Token, merges []MergeRule,
	specials map[string]Token) error {
	if len(vocab) == 0 {
		return formatErrorf("vocab", "vocabulary is empty")
	}
	seen := make([]string, len(vocab))
	filled := make([]bool, len(vocab))
	for symbol, id := range vocab {
		if int64(id) >= int64(len(vocab)) {
			return formatErrorf("vocab",
				"id %d of %q is outside the contiguous range 0..%d",
				id, symbol, len(vocab)-1)
		}
		if filled[id] {
			return formatErrorf("vocab", "id %d is shared by %q and %q",
				id, seen[id], symbol)
		}
		seen[id] = symbol
		filled[id] = true
	}
	if _, ok := specials[UnkTokenStr]; !ok {
		return formatErrorf("special_tokens", "missing %s", UnkTokenStr)
	}
	for name, id := range specials {
		if vocabId, ok := vocab[name]; !ok || vocabId != id {
			return formatErrorf("special_tokens",
				"%s=%d does not match the vocabulary", name, id)
		}
	}
	for idx, rule := range merges {
		if rule.Merged != rule.Pair.Left+rule.Pair.Right {
			return formatErrorf(fmt.Sprintf("merges[%d]", idx),
				"merged symbol %q is not %q+%q", rule.Merged,
				rule.Pair.Left, rule.Pair.Right)
		}
		if _, ok := vocab[rule.Merged]; !ok {
			return formatErrorf(fmt.Sprintf("merges[%d]", idx),
				"merged symbol %q is not in the vocabulary", rule.Merged)
		}
	}
	return nil
}
