// Package wordvec loads pretrained word vectors from plain-text
// embedding files.
package wordvec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Vectors holds a loaded embedding table.
type Vectors struct {
	Dim   int
	Words []string
	Vecs  [][]float64
}

// Read parses a plain-text embedding file where each line is a word
// followed by its vector components. A leading "count dim" header line
// is skipped if present. All vectors must share one dimensionality.
func Read(r io.Reader) (*Vectors, error) {
	v := &Vectors{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		if lineNo == 1 && len(fields) == 2 {
			if _, err1 := strconv.Atoi(fields[0]); err1 == nil {
				if _, err2 := strconv.Atoi(fields[1]); err2 == nil {
					continue
				}
			}
		}

		if len(fields) < 2 {
			return nil, fmt.Errorf("wordvec: line %d has no vector components", lineNo)
		}
		vec := make([]float64, len(fields)-1)
		for i, f := range fields[1:] {
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("wordvec: line %d: %w", lineNo, err)
			}
			vec[i] = x
		}

		if v.Dim == 0 {
			v.Dim = len(vec)
		} else if len(vec) != v.Dim {
			return nil, fmt.Errorf("wordvec: line %d has dim %d, want %d", lineNo, len(vec), v.Dim)
		}
		v.Words = append(v.Words, fields[0])
		v.Vecs = append(v.Vecs, vec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wordvec: %w", err)
	}
	return v, nil
}

// ReadFile loads an embedding file from disk.
func ReadFile(path string) (*Vectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wordvec: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}
