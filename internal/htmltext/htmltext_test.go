package htmltext

import (
	"reflect"
	"strings"
	"testing"
)

const testHTML = `
<html><head><title>ignored</title><style>body { color: red }</style></head>
<body>
<h1>John Smith</h1>
<p>He lives in   Paris
and works remotely.</p>
<script>var x = "invisible";</script>
<div>Second <b>block</b></div>
</body></html>
`

func TestBlocks(t *testing.T) {
	doc, err := LoadString(testHTML)
	if err != nil {
		t.Fatal(err)
	}

	got := Blocks(doc)
	want := []string{
		"John Smith",
		"He lives in Paris and works remotely.",
		"Second block",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Blocks = %q, want %q", got, want)
	}
}

func TestBlocksSkipsScriptAndStyle(t *testing.T) {
	doc, _ := LoadString(testHTML)
	for _, block := range Blocks(doc) {
		if strings.Contains(block, "invisible") || strings.Contains(block, "color") {
			t.Errorf("block %q contains hidden content", block)
		}
		if strings.Contains(block, "ignored") {
			t.Errorf("block %q contains head content", block)
		}
	}
}

func TestTokenBlocks(t *testing.T) {
	doc, _ := LoadString(`<p>John lives in Paris.</p><p></p><p>EU summit</p>`)
	got := TokenBlocks(doc)
	want := [][]string{
		{"John", "lives", "in", "Paris"},
		{"EU", "summit"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TokenBlocks = %v, want %v", got, want)
	}
}

func TestBlocksEmptyDocument(t *testing.T) {
	doc, _ := LoadString("<html><body></body></html>")
	if got := Blocks(doc); len(got) != 0 {
		t.Errorf("Blocks = %q, want none", got)
	}
}
