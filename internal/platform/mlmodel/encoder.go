package mlmodel

import (
	"encoding/json"
	"fmt"
	"os"
)

// Encoder maps the categorical arrival-mode vocabulary to the integer codes
// the classifier was fitted with. The vocabulary is fixed at training time;
// a category outside it is a hard error, not a recoverable condition.
type Encoder struct {
	classes []string
	codes   map[string]int
}

type encoderArtifact struct {
	Classes []string `json:"classes"`
}

// LoadEncoder reads a fitted label-encoder artifact from disk.
func LoadEncoder(path string) (*Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read encoder artifact: %w", err)
	}
	var art encoderArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode encoder artifact %s: %w", path, err)
	}
	return NewEncoder(art.Classes)
}

// NewEncoder builds an encoder over an ordered class vocabulary.
func NewEncoder(classes []string) (*Encoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("encoder artifact has no classes")
	}
	codes := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := codes[c]; dup {
			return nil, fmt.Errorf("encoder artifact has duplicate class %q", c)
		}
		codes[c] = i
	}
	return &Encoder{classes: classes, codes: codes}, nil
}

// Transform returns the integer code for a category. Unseen categories
// error out and the caller is expected to surface that, not mask it.
func (e *Encoder) Transform(category string) (int, error) {
	code, ok := e.codes[category]
	if !ok {
		return 0, fmt.Errorf("unseen category %q: encoder was fitted on %v", category, e.classes)
	}
	return code, nil
}

// Classes returns the fitted vocabulary in code order.
func (e *Encoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}
