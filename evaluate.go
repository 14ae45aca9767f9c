package seqtag

import (
	"fmt"
	"log/slog"

	"github.com/happyhackingspace/seqtag/eval"
	"github.com/happyhackingspace/seqtag/internal/corpus"
	"github.com/happyhackingspace/seqtag/model"
)

// EvalConfig holds configuration for corpus evaluation.
type EvalConfig struct {
	// MatchRatio is the span similarity threshold; 0 means
	// eval.DefaultRatio.
	MatchRatio float64
	// ReportPath, when set, receives a plain-text report listing the
	// model hyperparameters followed by the scores block.
	ReportPath string
	// OutputPath, when set, receives the corpus with predicted tags.
	OutputPath string
	// Progress, when set, is invoked once per prediction sub-batch.
	Progress model.Progress
}

// EvalResult holds corpus evaluation results.
type EvalResult struct {
	TokenAccuracy float64
	Spans         eval.Result
	Sequences     int
	Tokens        int
}

// Scores formats the metric block written to evaluation reports.
func (r *EvalResult) Scores() string {
	return fmt.Sprintf("token accuracy = %.2f%%\n%s\n", r.TokenAccuracy, r.Spans)
}

// Evaluate tags a gold CoNLL-style corpus and scores the predictions:
// token-level accuracy plus fuzzy span-level precision/recall/F1.
func Evaluate(t *Tagger, corpusPath string, cfg *EvalConfig) (*EvalResult, error) {
	if cfg == nil {
		cfg = &EvalConfig{}
	}
	ratio := cfg.MatchRatio
	if ratio == 0 {
		ratio = eval.DefaultRatio
	}

	words, goldTags, err := corpus.ReadFile(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("seqtag: corpus %s has no sequences", corpusPath)
	}
	slog.Debug("Corpus loaded", "path", corpusPath, "sequences", len(words))

	progress := cfg.Progress
	if progress == nil {
		progress = func(done, total int) {
			slog.Debug("Predicting", "batch", done, "total", total)
		}
	}
	predTags, err := t.m.PredictProgress(words, progress)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}

	result := &EvalResult{
		TokenAccuracy: eval.TokenAccuracy(goldTags, predTags),
		Spans:         eval.F1FromTags(words, goldTags, predTags, ratio),
		Sequences:     len(words),
	}
	for _, w := range words {
		result.Tokens += len(w)
	}

	if cfg.OutputPath != "" {
		if err := corpus.WriteFile(cfg.OutputPath, words, predTags); err != nil {
			return nil, fmt.Errorf("seqtag: %w", err)
		}
		slog.Debug("Predictions written", "path", cfg.OutputPath)
	}
	if cfg.ReportPath != "" {
		if err := eval.WriteReport(cfg.ReportPath, t.Params(), result.Scores()); err != nil {
			return nil, fmt.Errorf("seqtag: %w", err)
		}
		slog.Debug("Report written", "path", cfg.ReportPath)
	}
	return result, nil
}
