// Package model ties the encoder and the CRF layer into a sequence
// tagging model.
package model

import (
	"fmt"
	"math/rand"

	"github.com/happyhackingspace/seqtag/batch"
	"github.com/happyhackingspace/seqtag/crf"
	"github.com/happyhackingspace/seqtag/encoder"
	"github.com/happyhackingspace/seqtag/internal/wordvec"
	"github.com/happyhackingspace/seqtag/vocab"
)

// DefaultBatchSize is the number of sequences per prediction sub-batch.
const DefaultBatchSize = 10

// Config holds model hyperparameters.
type Config struct {
	CellType       string `json:"cell_type"`
	EmbeddingDim   int    `json:"embedding_dim"`
	HiddenDim      int    `json:"hidden_dim"`
	BatchSize      int    `json:"batch_size"`
	Seed           int64  `json:"seed"`
	EmbeddingsPath string `json:"embeddings_path,omitempty"`
}

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return Config{
		CellType:     encoder.CellLSTM,
		EmbeddingDim: 100,
		HiddenDim:    100,
		BatchSize:    DefaultBatchSize,
		Seed:         1,
	}
}

// Params renders the configuration as one "key=value" string per
// hyperparameter, for evaluation reports.
func (c Config) Params() []string {
	return []string{
		fmt.Sprintf("cell_type=%s", c.CellType),
		fmt.Sprintf("embedding_dim=%d", c.EmbeddingDim),
		fmt.Sprintf("hidden_dim=%d", c.HiddenDim),
		fmt.Sprintf("batch_size=%d", c.BatchSize),
		fmt.Sprintf("seed=%d", c.Seed),
	}
}

// Progress receives completed and total sub-batch counts during
// prediction.
type Progress func(done, total int)

// Model is a BiRNN-CRF sequence tagger.
type Model struct {
	Config  Config
	Tags    *vocab.TagIndex
	Encoder encoder.Encoder
	CRF     *crf.Layer
}

// New builds a randomly initialized model over the given word and tag
// inventories. When the config names a pretrained embeddings file, the
// embedding table is initialized from it and its words extend the
// vocabulary.
func New(cfg Config, words, tagSet []string) (*Model, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	wordIdx := vocab.NewWordIndex()
	for _, w := range words {
		wordIdx.Add(w)
	}
	tags := vocab.NewTagIndex()
	for _, tag := range tagSet {
		tags.Add(tag)
	}

	enc, err := encoder.NewBiRNN(wordIdx, cfg.CellType, cfg.EmbeddingDim, cfg.HiddenDim, tags.StatesNum(), rng)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if cfg.EmbeddingsPath != "" {
		vecs, err := wordvec.ReadFile(cfg.EmbeddingsPath)
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		if vecs.Dim != cfg.EmbeddingDim {
			return nil, fmt.Errorf("model: embeddings have dim %d, config wants %d", vecs.Dim, cfg.EmbeddingDim)
		}
		if err := enc.SetPretrained(vecs.Words, vecs.Vecs); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
	}

	return &Model{
		Config:  cfg,
		Tags:    tags,
		Encoder: enc,
		CRF:     crf.NewLayer(tags.ClassNum(), rng),
	}, nil
}

// Loss returns the mean negative log-likelihood of the gold tags for
// the batch.
func (m *Model) Loss(words, tags [][]string) (float64, error) {
	if len(words) != len(tags) {
		return 0, fmt.Errorf("model: %d word rows, %d tag rows: %w", len(words), len(tags), crf.ErrShapeMismatch)
	}
	for i := range words {
		if len(words[i]) != len(tags[i]) {
			return 0, fmt.Errorf("model: row %d has %d words, %d tags: %w", i, len(words[i]), len(tags[i]), crf.ErrShapeMismatch)
		}
	}

	lengths := batch.Lengths(words)
	maxLen := batch.MaxLen(lengths)
	mask, err := batch.Mask(lengths, maxLen)
	if err != nil {
		return 0, fmt.Errorf("model: %w", err)
	}
	features := m.Encoder.Features(words, lengths)
	batch.ApplyMask(features, mask)

	tagIdx, err := m.encodeTags(tags, maxLen)
	if err != nil {
		return 0, err
	}
	loss, err := m.CRF.Loss(features, tagIdx, mask)
	if err != nil {
		return 0, fmt.Errorf("model: %w", err)
	}
	return loss, nil
}

// encodeTags converts tag strings to padded index rows. Padded
// positions carry the reserved padding index.
func (m *Model) encodeTags(tags [][]string, maxLen int) ([][]int, error) {
	out := make([][]int, len(tags))
	for i := range tags {
		out[i] = make([]int, maxLen)
		for t, tag := range tags[i] {
			idx := m.Tags.Get(tag)
			if idx < 0 {
				return nil, fmt.Errorf("model: unknown tag %q", tag)
			}
			out[i][t] = idx
		}
	}
	return out, nil
}

// Predict returns the Viterbi-decoded tag sequence for every input
// sequence, in input order.
func (m *Model) Predict(words [][]string) ([][]string, error) {
	return m.PredictProgress(words, nil)
}

// PredictProgress predicts in fixed-size sub-batches (the last may be
// smaller), invoking progress after each one. Sub-batch boundaries
// never split a sequence and never change output order.
func (m *Model) PredictProgress(words [][]string, progress Progress) ([][]string, error) {
	batchSize := m.Config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	total := (len(words) + batchSize - 1) / batchSize

	out := make([][]string, 0, len(words))
	for i := 0; i < len(words); i += batchSize {
		part, err := m.predictBatch(words[i:min(i+batchSize, len(words))])
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
		if progress != nil {
			progress(i/batchSize+1, total)
		}
	}
	return out, nil
}

// predictBatch reorders one sub-batch by length, decodes it, and
// restores the original order.
func (m *Model) predictBatch(words [][]string) ([][]string, error) {
	lengths := batch.Lengths(words)
	sortIdx, restoreIdx := batch.SortIndex(lengths)
	sortedWords := batch.Reorder(words, sortIdx)
	sortedLens := batch.Reorder(lengths, sortIdx)

	maxLen := batch.MaxLen(sortedLens)
	mask, err := batch.Mask(sortedLens, maxLen)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	features := m.Encoder.Features(sortedWords, sortedLens)
	batch.ApplyMask(features, mask)

	paths, err := m.CRF.Decode(features, mask)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	paths = batch.Reorder(paths, restoreIdx)

	tags := make([][]string, len(paths))
	for i, path := range paths {
		tags[i] = make([]string, len(path))
		for t, idx := range path {
			tags[i][t] = m.Tags.Tag(idx)
		}
	}
	return tags, nil
}
