package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webagent/pkg/extract"
)

// Content formats accepted by Session.Content.
const (
	FormatText     = "text"
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	// FormatCleaned is markup with scripts, styles and noise attributes removed.
	FormatCleaned = "cleaned"
)

const innerTextScript = `() => document.body ? document.body.innerText : ""`

// Content returns the active document in the given format.
func (s *Session) Content(format string) (string, error) {
	sc, err := s.activeScope()
	if err != nil {
		return "", err
	}

	switch format {
	case "", FormatText:
		v, err := sc.Evaluate(innerTextScript)
		if err != nil {
			return "", classify("reading page text", s.cfg.ActionTimeout, err)
		}
		text, _ := v.(string)
		return text, nil
	case FormatHTML, FormatMarkdown, FormatCleaned:
	default:
		return "", fmt.Errorf("unsupported format: %s (must be 'text', 'html', 'markdown' or 'cleaned')", format)
	}

	raw, err := sc.Content()
	if err != nil {
		return "", classify("reading page content", s.cfg.ActionTimeout, err)
	}
	switch format {
	case FormatMarkdown:
		return Markdown(raw)
	case FormatCleaned:
		cleaned, err := CleanHTML(raw, 0)
		if err != nil {
			return "", err
		}
		return cleaned.HTML, nil
	}
	return raw, nil
}

// Query runs a batch of extraction queries against the active document.
func (s *Session) Query(ctx context.Context, specs []extract.QuerySpec) (*extract.Result, error) {
	sc, err := s.activeScope()
	if err != nil {
		return nil, err
	}
	return extract.Run(ctx, liveSource{scope: sc}, specs)
}

// liveSource queries the page through the driver.
type liveSource struct {
	scope scope
}

func (l liveSource) QueryAll(_ context.Context, selector string) ([]extract.Element, error) {
	handles, err := l.scope.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", selector, err)
	}
	elements := make([]extract.Element, len(handles))
	for i, h := range handles {
		elements[i] = liveElement{h}
	}
	return elements, nil
}

type liveElement struct {
	handle playwright.ElementHandle
}

func (e liveElement) TextContent() (string, error) { return e.handle.TextContent() }
func (e liveElement) InnerText() (string, error)   { return e.handle.InnerText() }
func (e liveElement) InnerHTML() (string, error)   { return e.handle.InnerHTML() }

func (e liveElement) OuterHTML() (string, error) {
	v, err := e.handle.Evaluate("e => e.outerHTML")
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// EvalResult is the outcome of a script run in the page.
type EvalResult struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Evaluate runs script in the active document. An exception thrown by the
// script is reported in the result; only driver failures and a closed page
// are returned as errors.
func (s *Session) Evaluate(script string) (*EvalResult, error) {
	sc, err := s.activeScope()
	if err != nil {
		return nil, err
	}

	v, err := sc.Evaluate(script)
	if err != nil {
		if isDriverTimeout(err) || isClosed(err) {
			return nil, classify("script evaluation", s.cfg.ActionTimeout, err)
		}
		return &EvalResult{Success: false, Error: err.Error()}, nil
	}
	return &EvalResult{Success: true, Result: v}, nil
}

// Title returns the active document's title.
func (s *Session) Title() string {
	sc, err := s.activeScope()
	if err != nil {
		return ""
	}
	title, _ := sc.Title()
	return title
}
