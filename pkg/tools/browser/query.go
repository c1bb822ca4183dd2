package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/extract"
	"github.com/entrhq/webagent/pkg/tools"
)

// QueryTool runs a batch of named CSS selector queries.
type QueryTool struct {
	manager *webbrowser.Manager
}

// NewQueryTool creates a new query_page tool.
func NewQueryTool(manager *webbrowser.Manager) *QueryTool {
	return &QueryTool{manager: manager}
}

// Name returns the tool name.
func (t *QueryTool) Name() string {
	return "query_page"
}

// Description returns the tool description.
func (t *QueryTool) Description() string {
	return `Run several named CSS selector queries in one call against the active document, or against the given html instead.

Each query returns at most maxResults matches (default 5; 1 returns a single string; 0 returns all), or exactly one match when index is set (negative counts from the end). Markup results over 1000 characters are cut unless allowLargeResults is set. When more matches exist than were returned, a note says so: raise maxResults rather than repeating the query.`
}

// Schema returns the tool's JSON schema.
func (t *QueryTool) Schema() map[string]interface{} {
	modes := make([]string, len(extract.Modes))
	for i, m := range extract.Modes {
		modes[i] = string(m)
	}
	return tools.BaseToolSchema(
		map[string]interface{}{
			"queries": map[string]interface{}{
				"type":        "array",
				"description": "Queries to run; names must be unique",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name":              prop("string", "Key of this query in the results"),
						"selector":          prop("string", "CSS selector"),
						"extract":           enumProp("What to read from each match. Default: text", modes...),
						"index":             prop("integer", "Return only this match; -1 is the last"),
						"maxResults":        prop("integer", "Maximum matches to return. Default: 5; 0 means all"),
						"allowLargeResults": prop("boolean", "Do not cut long markup results"),
					},
					"required": []string{"name", "selector"},
				},
			},
			"html": prop("string", "Markup to query instead of the browser page; no browser is started"),
		},
		[]string{"queries"},
	)
}

// QueryInput represents the parameters for query_page.
type QueryInput struct {
	Queries []extract.QuerySpec `json:"queries"`
	HTML    *string             `json:"html"`
}

// Execute runs the queries.
func (t *QueryTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input QueryInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	if err := extract.Validate(input.Queries); err != nil {
		return "", nil, err
	}

	var (
		result *extract.Result
		err    error
	)
	if input.HTML != nil {
		src, serr := extract.NewHTMLSource(strings.NewReader(*input.HTML))
		if serr != nil {
			return "", nil, serr
		}
		result, err = extract.Run(ctx, src, input.Queries)
	} else {
		session, aerr := t.manager.Acquire(ctx)
		if aerr != nil {
			return "", nil, aerr
		}
		result, err = session.Query(ctx, input.Queries)
	}
	if err != nil {
		return "", nil, err
	}

	text := tools.Text(result.Results)
	if len(result.Notes) > 0 {
		text = fmt.Sprintf("%s\n\nNote:\n- %s", text, strings.Join(result.Notes, "\n- "))
	}
	return text, structured(result), nil
}
