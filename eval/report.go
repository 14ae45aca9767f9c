package eval

import (
	"os"
	"strings"
)

// WriteReport writes a plain-text evaluation report: one configuration
// parameter per line, then the scores block verbatim.
func WriteReport(path string, params []string, scores string) error {
	var b strings.Builder
	for _, p := range params {
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString(scores)
	return os.WriteFile(path, []byte(b.String()), 0644)
}
