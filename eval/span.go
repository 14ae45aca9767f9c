// Package eval scores predicted tag sequences against gold
// annotations, matching labeled spans with a fuzzy text similarity.
package eval

import "strings"

// Span is a labeled token range with its surface text. Start and End
// are inclusive token positions; spans within one sequence do not
// overlap and are ordered by Start.
type Span struct {
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// ExtractSpans scans BIO-style tags left to right. "B-X" opens a span
// with label X; a following "I-X" of the same label extends it; any
// other tag closes it. "O" produces no span. An "I-" with no matching
// open span is dropped.
func ExtractSpans(tokens, tags []string) []Span {
	var spans []Span
	start := -1
	label := ""

	flush := func(end int) {
		if start < 0 {
			return
		}
		spans = append(spans, Span{
			Label: label,
			Start: start,
			End:   end,
			Text:  strings.Join(tokens[start:end+1], " "),
		})
		start = -1
	}

	for t, tag := range tags {
		switch {
		case strings.HasPrefix(tag, "B-"):
			flush(t - 1)
			start = t
			label = tag[2:]
		case strings.HasPrefix(tag, "I-") && start >= 0 && tag[2:] == label:
			// extends the open span
		default:
			flush(t - 1)
		}
	}
	flush(len(tags) - 1)
	return spans
}
