// Package htmltext extracts visible text from HTML documents for
// tagging.
package htmltext

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/happyhackingspace/seqtag/internal/textutil"
)

// Load parses HTML from a reader into a goquery Document.
func Load(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}

// LoadString parses an HTML string into a goquery Document.
func LoadString(htmlStr string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
}

// blockTags are elements that terminate a run of inline text.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "div": true, "dd": true, "dt": true, "fieldset": true,
	"figcaption": true, "footer": true, "form": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"p": true, "pre": true, "section": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true, "ol": true,
}

// skipTags are elements whose text content is never visible.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true,
}

// Blocks returns the visible text of the document as one normalized
// string per block-level run, in document order. Script and style
// content is skipped; empty runs are dropped.
func Blocks(doc *goquery.Document) []string {
	var blocks []string
	var buf []string

	flush := func() {
		var parts []string
		for _, b := range buf {
			trimmed := strings.TrimSpace(b)
			if trimmed != "" {
				parts = append(parts, textutil.NormalizeWhitespaces(trimmed))
			}
		}
		buf = buf[:0]
		if len(parts) > 0 {
			blocks = append(blocks, strings.Join(parts, " "))
		}
	}

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			buf = append(buf, n.Data)
			return
		}

		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
		if block {
			flush()
		}
	}

	for _, root := range doc.Nodes {
		visit(root)
	}
	flush()
	return blocks
}

// TokenBlocks returns the visible text of the document tokenized, one
// token sequence per non-empty block.
func TokenBlocks(doc *goquery.Document) [][]string {
	var out [][]string
	for _, block := range Blocks(doc) {
		tokens := textutil.Tokenize(block)
		if len(tokens) > 0 {
			out = append(out, tokens)
		}
	}
	return out
}
