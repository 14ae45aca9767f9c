package seqtag

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/happyhackingspace/seqtag/model"
)

const newsHTML = `<html><head><style>p { color: red; }</style></head><body>
<script>var x = 1;</script>
<p>john smith lives in paris</p>
<div>the paris office</div>
</body></html>`

func newTestTagger(t *testing.T) *Tagger {
	t.Helper()
	cfg := model.Config{
		CellType:     "lstm",
		EmbeddingDim: 8,
		HiddenDim:    6,
		BatchSize:    4,
		Seed:         1,
	}
	words := []string{"john", "smith", "lives", "in", "paris", "the", "office"}
	tags := []string{"O", "B-PER", "I-PER", "B-LOC"}
	m, err := model.New(cfg, words, tags)
	if err != nil {
		t.Fatal(err)
	}
	return NewFromModel(m)
}

func TestTagTokens(t *testing.T) {
	tagger := newTestTagger(t)
	seqs := [][]string{
		{"john", "smith", "lives", "in", "paris"},
		{"the", "office"},
	}
	tags, err := tagger.TagTokens(seqs)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != len(seqs) {
		t.Fatalf("got %d tag rows, want %d", len(tags), len(seqs))
	}
	for i := range seqs {
		if len(tags[i]) != len(seqs[i]) {
			t.Errorf("row %d: got %d tags, want %d", i, len(tags[i]), len(seqs[i]))
		}
	}
}

func TestTagText(t *testing.T) {
	tagger := newTestTagger(t)
	tokens, tags, err := tagger.TagText("john smith lives in paris")
	if err != nil {
		t.Fatal(err)
	}
	wantTokens := []string{"john", "smith", "lives", "in", "paris"}
	if !reflect.DeepEqual(tokens, wantTokens) {
		t.Errorf("tokens = %v, want %v", tokens, wantTokens)
	}
	if len(tags) != len(tokens) {
		t.Errorf("got %d tags, want %d", len(tags), len(tokens))
	}
}

func TestTagTextEmpty(t *testing.T) {
	tagger := newTestTagger(t)
	tokens, tags, err := tagger.TagText("   ")
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 0 || len(tags) != 0 {
		t.Errorf("got tokens %v, tags %v, want none", tokens, tags)
	}
}

func TestTagHTML(t *testing.T) {
	tagger := newTestTagger(t)
	results, err := tagger.TagHTML(newsHTML)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d blocks, want 2", len(results))
	}
	wantFirst := []string{"john", "smith", "lives", "in", "paris"}
	if !reflect.DeepEqual(results[0].Tokens, wantFirst) {
		t.Errorf("first block tokens = %v, want %v", results[0].Tokens, wantFirst)
	}
	for i, r := range results {
		if len(r.Tags) != len(r.Tokens) {
			t.Errorf("block %d: %d tags for %d tokens", i, len(r.Tags), len(r.Tokens))
		}
	}
}

func TestTaggerNotInitialized(t *testing.T) {
	tagger := &Tagger{}
	if _, err := tagger.TagTokens([][]string{{"john"}}); err == nil {
		t.Error("expected error for uninitialized tagger")
	}
	if _, err := tagger.TagHTML(newsHTML); err == nil {
		t.Error("expected error for uninitialized tagger")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tagger := newTestTagger(t)
	path := filepath.Join(t.TempDir(), "model.json")
	if err := tagger.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	seqs := [][]string{{"john", "smith"}, {"paris"}}
	want, err := tagger.TagTokens(seqs)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.TagTokens(seqs)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("loaded tagger output %v, want %v", got, want)
	}
}

func TestLoadNonExistent(t *testing.T) {
	if _, err := Load("nonexistent.json"); err == nil {
		t.Error("expected error for nonexistent model")
	}
}

func TestEvaluate(t *testing.T) {
	tagger := newTestTagger(t)
	dir := t.TempDir()

	corpusPath := filepath.Join(dir, "gold.txt")
	gold := "john B-PER\nsmith I-PER\n\nparis B-LOC\n"
	if err := os.WriteFile(corpusPath, []byte(gold), 0644); err != nil {
		t.Fatal(err)
	}

	reportPath := filepath.Join(dir, "report.txt")
	outputPath := filepath.Join(dir, "pred.txt")
	result, err := Evaluate(tagger, corpusPath, &EvalConfig{
		ReportPath: reportPath,
		OutputPath: outputPath,
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Sequences != 2 {
		t.Errorf("sequences = %d, want 2", result.Sequences)
	}
	if result.Tokens != 3 {
		t.Errorf("tokens = %d, want 3", result.Tokens)
	}
	if result.TokenAccuracy < 0 || result.TokenAccuracy > 100 {
		t.Errorf("token accuracy = %v, want within [0, 100]", result.TokenAccuracy)
	}

	report, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(report)
	if !strings.HasPrefix(text, "cell_type=lstm\n") {
		t.Errorf("report does not start with hyperparameters:\n%s", text)
	}
	if !strings.Contains(text, "token accuracy = ") || !strings.Contains(text, "F1 = ") {
		t.Errorf("report missing scores block:\n%s", text)
	}

	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("predictions file not written: %v", err)
	}
}

func TestEvaluateEmptyCorpus(t *testing.T) {
	tagger := newTestTagger(t)
	corpusPath := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(corpusPath, []byte("\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Evaluate(tagger, corpusPath, nil); err == nil {
		t.Error("expected error for empty corpus")
	}
}
