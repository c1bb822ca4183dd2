// Package extract runs batches of named selector queries against a document
// and shapes the matches into compact results.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Mode selects what is read from a matched element.
type Mode string

const (
	ModeText      Mode = "text"
	ModeInnerText Mode = "innerText"
	ModeHTML      Mode = "html"
	ModeOuterHTML Mode = "outerHTML"
)

// Modes lists the recognised extraction modes.
var Modes = []Mode{ModeText, ModeInnerText, ModeHTML, ModeOuterHTML}

const (
	// DefaultMaxResults applies when a query sets neither index nor maxResults.
	DefaultMaxResults = 5
	// MarkupLimit is the length, in characters, markup results are cut to.
	MarkupLimit = 1000
)

// Element is one matched node.
type Element interface {
	TextContent() (string, error)
	InnerText() (string, error)
	InnerHTML() (string, error)
	OuterHTML() (string, error)
}

// Source resolves selectors within a document, in document order.
type Source interface {
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}

// QuerySpec is one named query.
type QuerySpec struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
	Extract  Mode   `json:"extract,omitempty"`
	// Index selects one match; negative values count from the end.
	Index *int `json:"index,omitempty"`
	// MaxResults caps the matches returned: 1 yields a single string, 0 all.
	MaxResults        *int `json:"maxResults,omitempty"`
	AllowLargeResults bool `json:"allowLargeResults,omitempty"`
}

// Meta reports how many matches a query returned out of how many existed.
type Meta struct {
	Returned int `json:"returned"`
	Total    int `json:"total"`
}

// Result holds per-query values (string, []string or nil), metadata for
// queries that matched, and notes about partially returned queries.
type Result struct {
	Results  map[string]any  `json:"results"`
	Metadata map[string]Meta `json:"metadata"`
	Notes    []string        `json:"notes,omitempty"`
}

// ErrInvalidQuery is wrapped by every validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// Validate checks a batch before anything is queried.
func Validate(specs []QuerySpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w: at least one query is required", ErrInvalidQuery)
	}
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		switch {
		case spec.Name == "":
			return fmt.Errorf("%w: query %d has no name", ErrInvalidQuery, i)
		case seen[spec.Name]:
			return fmt.Errorf("%w: duplicate query name %q", ErrInvalidQuery, spec.Name)
		case strings.TrimSpace(spec.Selector) == "":
			return fmt.Errorf("%w: query %q has no selector", ErrInvalidQuery, spec.Name)
		case spec.MaxResults != nil && *spec.MaxResults < 0:
			return fmt.Errorf("%w: query %q has negative maxResults", ErrInvalidQuery, spec.Name)
		}
		seen[spec.Name] = true
	}
	return nil
}

// Run executes every spec against src.
func Run(ctx context.Context, src Source, specs []QuerySpec) (*Result, error) {
	if err := Validate(specs); err != nil {
		return nil, err
	}

	res := &Result{
		Results:  make(map[string]any, len(specs)),
		Metadata: make(map[string]Meta, len(specs)),
	}
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		elements, err := src.QueryAll(ctx, spec.Selector)
		if err != nil {
			return nil, fmt.Errorf("query %q (%s): %w", spec.Name, spec.Selector, err)
		}
		value, meta, err := shape(spec, elements)
		if err != nil {
			return nil, fmt.Errorf("query %q (%s): %w", spec.Name, spec.Selector, err)
		}
		res.Results[spec.Name] = value
		if meta == nil {
			continue
		}
		res.Metadata[spec.Name] = *meta
		if meta.Total > meta.Returned {
			res.Notes = append(res.Notes, fmt.Sprintf(
				"query %q returned %d of %d matches; set maxResults to 0 for all or use index to pick one",
				spec.Name, meta.Returned, meta.Total))
		}
	}
	return res, nil
}

func shape(spec QuerySpec, elements []Element) (any, *Meta, error) {
	total := len(elements)
	if total == 0 {
		return nil, nil, nil
	}

	if spec.Index != nil {
		i := *spec.Index
		if i < 0 {
			i += total
		}
		if i < 0 || i >= total {
			return nil, nil, nil
		}
		s, err := read(spec, elements[i])
		if err != nil {
			return nil, nil, err
		}
		return s, &Meta{Returned: 1, Total: total}, nil
	}

	limit := DefaultMaxResults
	if spec.MaxResults != nil {
		limit = *spec.MaxResults
	}
	if limit == 1 {
		s, err := read(spec, elements[0])
		if err != nil {
			return nil, nil, err
		}
		return s, &Meta{Returned: 1, Total: total}, nil
	}
	if limit == 0 || limit > total {
		limit = total
	}

	values := make([]string, 0, limit)
	for _, el := range elements[:limit] {
		s, err := read(spec, el)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, s)
	}
	return values, &Meta{Returned: limit, Total: total}, nil
}

func read(spec QuerySpec, el Element) (string, error) {
	switch spec.Extract {
	case ModeInnerText:
		s, err := el.InnerText()
		return strings.TrimSpace(s), err
	case ModeHTML:
		s, err := el.InnerHTML()
		return truncate(s, spec.AllowLargeResults), err
	case ModeOuterHTML:
		s, err := el.OuterHTML()
		return truncate(s, spec.AllowLargeResults), err
	default:
		s, err := el.TextContent()
		return strings.TrimSpace(s), err
	}
}

func truncate(s string, allowLarge bool) string {
	n := utf8.RuneCountInString(s)
	if allowLarge || n <= MarkupLimit {
		return s
	}
	cut := 0
	for i := range s {
		if cut == MarkupLimit {
			return s[:i] + fmt.Sprintf(
				"... [truncated %d of %d characters; set allowLargeResults to get the full markup]",
				n-MarkupLimit, n)
		}
		cut++
	}
	return s
}
