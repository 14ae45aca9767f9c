// Package vocab maps between strings and the integer indices used by
// the tagging model.
package vocab

import "strings"

// PadTag is the string stored at the reserved padding index.
const PadTag = "<pad>"

// UnkWord is the string stored at the reserved unknown-word index.
const UnkWord = "<unk>"

// TagIndex maps between tag strings and integer indices.
//
// Index 0 is reserved for padding. Real tags occupy 1..ClassNum().
// The start-of-sequence index is ClassNum()+1 and has no string form;
// it exists only as a state of the transition table.
type TagIndex struct {
	ToIdx map[string]int `json:"to_idx"`
	ToTag []string       `json:"to_tag"`
}

// NewTagIndex creates a tag index containing only the padding entry.
func NewTagIndex() *TagIndex {
	t := &TagIndex{ToIdx: make(map[string]int)}
	t.Add(PadTag)
	return t
}

// Add adds a tag if not already present, returns its index.
func (t *TagIndex) Add(tag string) int {
	if idx, ok := t.ToIdx[tag]; ok {
		return idx
	}
	idx := len(t.ToTag)
	t.ToIdx[tag] = idx
	t.ToTag = append(t.ToTag, tag)
	return idx
}

// Get returns the index for a tag, or -1 if not found.
func (t *TagIndex) Get(tag string) int {
	if idx, ok := t.ToIdx[tag]; ok {
		return idx
	}
	return -1
}

// Tag returns the tag string for an index, or the padding tag for
// indices outside the real tag range.
func (t *TagIndex) Tag(idx int) string {
	if idx < 0 || idx >= len(t.ToTag) {
		return PadTag
	}
	return t.ToTag[idx]
}

// ClassNum returns the number of real tags (excluding padding).
func (t *TagIndex) ClassNum() int {
	return len(t.ToTag) - 1
}

// PadIdx returns the reserved padding index.
func (t *TagIndex) PadIdx() int {
	return 0
}

// StartIdx returns the reserved start-of-sequence index.
func (t *TagIndex) StartIdx() int {
	return t.ClassNum() + 1
}

// StatesNum returns the total number of states: real tags plus the
// padding and start-of-sequence indices.
func (t *TagIndex) StatesNum() int {
	return t.ClassNum() + 2
}

// WordIndex maps between word strings and embedding row indices.
//
// Index 0 is reserved for padding, index 1 for unknown words.
type WordIndex struct {
	ToIdx  map[string]int `json:"to_idx"`
	ToWord []string       `json:"to_word"`
}

// NewWordIndex creates a word index containing the padding and
// unknown-word entries.
func NewWordIndex() *WordIndex {
	w := &WordIndex{ToIdx: make(map[string]int)}
	w.Add(PadTag)
	w.Add(UnkWord)
	return w
}

// Add adds a word if not already present, returns its index.
func (w *WordIndex) Add(word string) int {
	if idx, ok := w.ToIdx[word]; ok {
		return idx
	}
	idx := len(w.ToWord)
	w.ToIdx[word] = idx
	w.ToWord = append(w.ToWord, word)
	return idx
}

// Idx returns the index for a word, falling back to the lowercased
// form and finally to the unknown-word index.
func (w *WordIndex) Idx(word string) int {
	if idx, ok := w.ToIdx[word]; ok {
		return idx
	}
	if idx, ok := w.ToIdx[strings.ToLower(word)]; ok {
		return idx
	}
	return w.UnkIdx()
}

// PadIdx returns the reserved padding index.
func (w *WordIndex) PadIdx() int {
	return 0
}

// UnkIdx returns the reserved unknown-word index.
func (w *WordIndex) UnkIdx() int {
	return 1
}

// Size returns the number of entries, reserved ones included.
func (w *WordIndex) Size() int {
	return len(w.ToWord)
}
