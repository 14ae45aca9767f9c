// Package seqtag labels every token of a sequence with a categorical
// tag (part-of-speech, named entities) using a BiRNN encoder and a
// linear-chain CRF decoder.
//
//	t, _ := seqtag.New()
//	tags, _ := t.TagTokens([][]string{{"john", "smith", "lives", "in", "paris"}})
//	ents, _ := t.TagHTML(htmlString)
package seqtag

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/happyhackingspace/seqtag/eval"
	"github.com/happyhackingspace/seqtag/internal/htmltext"
	"github.com/happyhackingspace/seqtag/internal/textutil"
	"github.com/happyhackingspace/seqtag/model"
)

// Tagger wraps a trained sequence tagging model.
type Tagger struct {
	m *model.Model
}

// BlockResult holds the tagging output for one visible-text block of an
// HTML document.
type BlockResult struct {
	Tokens   []string    `json:"tokens"`
	Tags     []string    `json:"tags"`
	Entities []eval.Span `json:"entities,omitempty"`
}

// New loads the tagger from "model.json", searching the current
// directory and parent directories up to the module root (where go.mod
// lives).
func New() (*Tagger, error) {
	path, err := findModel("model.json")
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	return Load(path)
}

func findModel(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("model.json not found")
}

// Load loads a trained tagger from a model file.
func Load(path string) (*Tagger, error) {
	m, err := model.Load(path)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	return &Tagger{m: m}, nil
}

// NewFromModel wraps an already constructed model.
func NewFromModel(m *model.Model) *Tagger {
	return &Tagger{m: m}
}

// Save writes the tagger to a model file.
func (t *Tagger) Save(path string) error {
	if t.m == nil {
		return fmt.Errorf("seqtag: tagger not initialized")
	}
	if err := t.m.Save(path); err != nil {
		return fmt.Errorf("seqtag: %w", err)
	}
	return nil
}

// Params returns the model hyperparameters as "key=value" strings.
func (t *Tagger) Params() []string {
	if t.m == nil {
		return nil
	}
	return t.m.Config.Params()
}

// TagTokens labels pre-tokenized sequences, returning one tag per
// token, in input order.
func (t *Tagger) TagTokens(sequences [][]string) ([][]string, error) {
	if t.m == nil {
		return nil, fmt.Errorf("seqtag: tagger not initialized")
	}
	tags, err := t.m.Predict(sequences)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	return tags, nil
}

// TagText tokenizes a plain-text string and labels it.
func (t *Tagger) TagText(text string) (tokens, tags []string, err error) {
	tokens = textutil.Tokenize(text)
	if len(tokens) == 0 {
		return nil, nil, nil
	}
	out, err := t.TagTokens([][]string{tokens})
	if err != nil {
		return nil, nil, err
	}
	return tokens, out[0], nil
}

// TagHTML extracts the visible text blocks of an HTML document, labels
// each one, and collects the labeled spans. Returns an empty slice (not
// nil) if the document has no visible text.
func (t *Tagger) TagHTML(htmlStr string) ([]BlockResult, error) {
	if t.m == nil {
		return nil, fmt.Errorf("seqtag: tagger not initialized")
	}
	doc, err := htmltext.LoadString(htmlStr)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}

	blocks := htmltext.TokenBlocks(doc)
	tags, err := t.m.Predict(blocks)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}

	out := make([]BlockResult, len(blocks))
	for i := range blocks {
		out[i] = BlockResult{
			Tokens:   blocks[i],
			Tags:     tags[i],
			Entities: eval.ExtractSpans(blocks[i], tags[i]),
		}
	}
	return out, nil
}

// ModelDir returns the per-user cache directory for downloaded model
// files.
func ModelDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "seqtag")
}
