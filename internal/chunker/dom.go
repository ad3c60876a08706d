package chunker

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SectionDOM is the structured form of one book section. Book document
// parsing itself is out of scope for this module; a SectionDOM is
// whatever the external parser hands the Chunker, already reduced to a
// walkable tree.
type SectionDOM interface {
	// ExtractText concatenates visible text in document order,
	// dropping script/style-equivalent nodes and collapsing
	// whitespace runs to single spaces.
	ExtractText() string
}

// MarkdownDOM adapts a goldmark AST as a SectionDOM. This is the
// default shape for sections whose source markup is markdown.
type MarkdownDOM struct {
	source []byte
	doc    ast.Node
}

var mdParser = goldmark.New()

// NewMarkdownDOM parses raw markdown into a walkable SectionDOM.
func NewMarkdownDOM(source []byte) *MarkdownDOM {
	reader := text.NewReader(source)
	doc := mdParser.Parser().Parse(reader)
	return &MarkdownDOM{source: source, doc: doc}
}

func (m *MarkdownDOM) ExtractText() string {
	var b strings.Builder
	_ = ast.Walk(m.doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.CodeBlock:
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(v.Segment.Value(m.source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return collapseWhitespace(b.String())
}

// HTMLDOM adapts a goquery selection as a SectionDOM, for book formats
// whose sections arrive as HTML fragments (e.g. EPUB XHTML).
type HTMLDOM struct {
	sel *goquery.Selection
}

// NewHTMLDOM parses an HTML fragment into a walkable SectionDOM.
func NewHTMLDOM(fragment string) (*HTMLDOM, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()
	return &HTMLDOM{sel: doc.Selection}, nil
}

func (h *HTMLDOM) ExtractText() string {
	return collapseWhitespace(h.sel.Text())
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.TrimSpace(strings.Join(fields, " "))
}
