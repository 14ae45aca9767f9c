package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/happyhackingspace/seqtag/crf"
	"github.com/happyhackingspace/seqtag/encoder"
	"github.com/happyhackingspace/seqtag/vocab"
)

// checkpoint is the JSON layout of a saved model.
type checkpoint struct {
	Config  Config          `json:"config"`
	Tags    *vocab.TagIndex `json:"tags"`
	Encoder *encoder.BiRNN  `json:"encoder"`
	CRF     *crf.Layer      `json:"crf"`
}

// Save serializes the model to a JSON checkpoint.
func (m *Model) Save(path string) error {
	enc, ok := m.Encoder.(*encoder.BiRNN)
	if !ok {
		return fmt.Errorf("model: encoder %T cannot be serialized", m.Encoder)
	}
	data, err := json.MarshalIndent(checkpoint{
		Config:  m.Config,
		Tags:    m.Tags,
		Encoder: enc,
		CRF:     m.CRF,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load deserializes a model from a JSON checkpoint.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	var ck checkpoint
	if err := json.Unmarshal(data, &ck); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if ck.Tags == nil || ck.Encoder == nil || ck.CRF == nil {
		return nil, fmt.Errorf("model: checkpoint %s is incomplete", path)
	}
	if err := ck.Encoder.Build(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return &Model{
		Config:  ck.Config,
		Tags:    ck.Tags,
		Encoder: ck.Encoder,
		CRF:     ck.CRF,
	}, nil
}
