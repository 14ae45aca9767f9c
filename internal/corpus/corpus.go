// Package corpus reads and writes CoNLL-style tagged corpora.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read parses a CoNLL-style corpus: one token per line with
// whitespace-separated columns, the tag in the last column, and a
// blank line between sequences. -DOCSTART- lines are skipped.
func Read(r io.Reader) (words, tags [][]string, err error) {
	var curWords, curTags []string
	flush := func() {
		if len(curWords) == 0 {
			return
		}
		words = append(words, curWords)
		tags = append(tags, curTags)
		curWords, curTags = nil, nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "-DOCSTART-") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("corpus: line %q has no tag column", line)
		}
		curWords = append(curWords, fields[0])
		curTags = append(curTags, fields[len(fields)-1])
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("corpus: %w", err)
	}
	flush()
	return words, tags, nil
}

// ReadFile reads a CoNLL-style corpus from a file.
func ReadFile(path string) (words, tags [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Write emits token/tag pairs, one pair per line, with a blank line
// between sequences.
func Write(w io.Writer, words, tags [][]string) error {
	bw := bufio.NewWriter(w)
	for i := range words {
		for t := range words[i] {
			tag := ""
			if i < len(tags) && t < len(tags[i]) {
				tag = tags[i][t]
			}
			if _, err := fmt.Fprintf(bw, "%s %s\n", words[i][t], tag); err != nil {
				return fmt.Errorf("corpus: %w", err)
			}
		}
		if _, err := fmt.Fprintln(bw); err != nil {
			return fmt.Errorf("corpus: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile writes token/tag pairs to a file.
func WriteFile(path string, words, tags [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	if err := Write(f, words, tags); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
