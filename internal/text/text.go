// Package text turns event text into something worth saying out loud.
package text

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// Options controls Prepare.
type Options struct {
	// Markdown strips markdown syntax, code blocks and HTML.
	Markdown bool
	// MaxRunes truncates the result. Zero means no limit.
	MaxRunes int
}

// DefaultOptions strips markdown and keeps utterances under 500 runes.
func DefaultOptions() Options {
	return Options{Markdown: true, MaxRunes: 500}
}

// Prepare normalizes s to NFC, optionally strips markdown, collapses
// whitespace and truncates. It returns "" when nothing speakable is left.
func Prepare(s string, opts Options) string {
	s = norm.NFC.String(s)
	if opts.Markdown {
		s = stripMarkdown(s)
	}
	s = strings.Join(strings.Fields(s), " ")
	return Truncate(s, opts.MaxRunes)
}

// Truncate cuts s to at most max runes, ending in Ellipsis when cut and
// there is room for it.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= len(Ellipsis) {
		return string(runes[:max])
	}
	keep := max - len(Ellipsis)
	return strings.TrimSpace(string(runes[:keep])) + Ellipsis
}

// stripMarkdown keeps the text of each block, joined into sentences.
func stripMarkdown(s string) string {
	src := []byte(s)
	doc := goldmark.New().Parser().Parse(gtext.NewReader(src))

	var blocks []string
	var cur strings.Builder
	flush := func() {
		if b := strings.TrimSpace(cur.String()); b != "" {
			blocks = append(blocks, b)
		}
		cur.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				cur.Write(n.Segment.Value(src))
				if n.SoftLineBreak() || n.HardLineBreak() {
					cur.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				cur.Write(n.Value)
			}
		case *ast.AutoLink:
			if entering {
				cur.Write(n.Label(src))
			}
		}

		if !entering && n.Type() == ast.TypeBlock {
			flush()
		}
		return ast.WalkContinue, nil
	})
	flush()

	var out strings.Builder
	for i, b := range blocks {
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(b)
		if i < len(blocks)-1 && !endsSentence(b) {
			out.WriteByte('.')
		}
	}
	return out.String()
}

func endsSentence(s string) bool {
	switch s[len(s)-1] {
	case '.', '!', '?', ':', ';':
		return true
	}
	return false
}
