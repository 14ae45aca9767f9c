package eval

import (
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultRatio is the similarity threshold for span matching.
const DefaultRatio = 0.999

// Result holds corpus-level span matching scores. Metrics are
// percentages in [0, 100].
type Result struct {
	F1        float64 `json:"f1"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
}

// String formats the metric block of an evaluation report.
func (r Result) String() string {
	return fmt.Sprintf("F1 = %.2f%%, precision = %.2f%%, recall = %.2f%% (TP = %d, FP = %d, FN = %d)",
		r.F1, r.Precision, r.Recall, r.TP, r.FP, r.FN)
}

// Similarity returns a normalized closeness of two strings in [0, 1]:
// 1 for identical strings, 0 for completely dissimilar ones. It is
// symmetric.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// Match reports whether a candidate span matches a reference span:
// labels must be equal and the surface texts at least ratio similar.
func Match(cand, ref Span, ratio float64) bool {
	return cand.Label == ref.Label && Similarity(cand.Text, ref.Text) >= ratio
}

// F1FromSpans scores predicted spans against gold spans, sequence by
// sequence. A gold span counts as a true positive if any predicted
// span in the same sequence matches it; matched predictions are not
// consumed, so one prediction may satisfy several gold spans. A
// predicted span with no matching gold span counts as a false
// positive.
func F1FromSpans(gold, pred [][]Span, ratio float64) Result {
	var tp, fp, fn int
	for i := range gold {
		var predicted []Span
		if i < len(pred) {
			predicted = pred[i]
		}

		for _, g := range gold[i] {
			matched := false
			for _, p := range predicted {
				if Match(p, g, ratio) {
					matched = true
					break
				}
			}
			if matched {
				tp++
			} else {
				fn++
			}
		}
		for _, p := range predicted {
			matched := false
			for _, g := range gold[i] {
				if Match(p, g, ratio) {
					matched = true
					break
				}
			}
			if !matched {
				fp++
			}
		}
	}
	return newResult(tp, fp, fn)
}

// F1FromTags extracts spans from gold and predicted tag sequences and
// scores them with F1FromSpans.
func F1FromTags(tokens, goldTags, predTags [][]string, ratio float64) Result {
	gold := make([][]Span, len(tokens))
	pred := make([][]Span, len(tokens))
	for i := range tokens {
		gold[i] = ExtractSpans(tokens[i], goldTags[i])
		pred[i] = ExtractSpans(tokens[i], predTags[i])
	}
	return F1FromSpans(gold, pred, ratio)
}

// TokenAccuracy returns the percentage of positions where the
// predicted tag equals the gold tag.
func TokenAccuracy(gold, pred [][]string) float64 {
	var matched, total int
	for i := range gold {
		for t := range gold[i] {
			total++
			if i < len(pred) && t < len(pred[i]) && pred[i][t] == gold[i][t] {
				matched++
			}
		}
	}
	return 100 * float64(matched) / float64(max(total, 1))
}

func newResult(tp, fp, fn int) Result {
	return Result{
		F1:        100 * float64(2*tp) / float64(max(2*tp+fp+fn, 1)),
		Precision: 100 * float64(tp) / float64(max(tp+fp, 1)),
		Recall:    100 * float64(tp) / float64(max(tp+fn, 1)),
		TP:        tp,
		FP:        fp,
		FN:        fn,
	}
}
