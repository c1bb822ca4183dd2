package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLSource queries a static HTML document.
type HTMLSource struct {
	doc *goquery.Document
}

// NewHTMLSource parses r into a queryable document.
func NewHTMLSource(r io.Reader) (*HTMLSource, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &HTMLSource{doc: doc}, nil
}

// QueryAll returns the matches of selector in document order.
func (s *HTMLSource) QueryAll(_ context.Context, selector string) ([]Element, error) {
	sel := s.doc.Find(selector)
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, node *goquery.Selection) {
		out = append(out, htmlElement{sel: node})
	})
	return out, nil
}

type htmlElement struct {
	sel *goquery.Selection
}

func (e htmlElement) TextContent() (string, error) {
	return e.sel.Text(), nil
}

// InnerText approximates rendered text: non-rendered elements are skipped
// and whitespace is collapsed line by line.
func (e htmlElement) InnerText() (string, error) {
	clone := e.sel.Clone()
	clone.Find("script, style, noscript, template").Remove()

	var lines []string
	for _, line := range strings.Split(clone.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (e htmlElement) InnerHTML() (string, error) {
	return e.sel.Html()
}

func (e htmlElement) OuterHTML() (string, error) {
	return goquery.OuterHtml(e.sel)
}
