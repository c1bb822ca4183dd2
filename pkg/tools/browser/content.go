package browser

import (
	"context"
	"encoding/json"
	"fmt"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tokenizer"
	"github.com/entrhq/webagent/pkg/tools"
)

// ContentTool returns the active document as text, markup or Markdown.
type ContentTool struct {
	manager   *webbrowser.Manager
	tokenizer *tokenizer.Tokenizer
	maxTokens int
}

// NewContentTool creates a new get_page_content tool. Output longer than
// maxTokens is cut; 0 disables the cap. tok may be nil, in which case
// tokens are estimated.
func NewContentTool(manager *webbrowser.Manager, tok *tokenizer.Tokenizer, maxTokens int) *ContentTool {
	return &ContentTool{manager: manager, tokenizer: tok, maxTokens: maxTokens}
}

// Name returns the tool name.
func (t *ContentTool) Name() string {
	return "get_page_content"
}

// Description returns the tool description.
func (t *ContentTool) Description() string {
	return "Get the content of the active document (the page, or the selected iframe). Formats: 'text' (rendered text, default), 'html' (raw markup), 'markdown' (readable structure with links), 'cleaned' (markup without scripts, styles and noise). Large pages are truncated; use query_page to read specific parts."
}

// Schema returns the tool's JSON schema.
func (t *ContentTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"format": enumProp("Output format. Default: text",
				webbrowser.FormatText, webbrowser.FormatHTML, webbrowser.FormatMarkdown, webbrowser.FormatCleaned),
		},
		nil,
	)
}

// ContentInput represents the parameters for get_page_content.
type ContentInput struct {
	Format string `json:"format"`
}

// Execute reads the page.
func (t *ContentTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input ContentInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	if input.Format == "" {
		input.Format = webbrowser.FormatText
	}
	switch input.Format {
	case webbrowser.FormatText, webbrowser.FormatHTML, webbrowser.FormatMarkdown, webbrowser.FormatCleaned:
	default:
		return "", nil, fmt.Errorf("unsupported format: %s (must be 'text', 'html', 'markdown' or 'cleaned')", input.Format)
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	content, err := session.Content(input.Format)
	if err != nil {
		return "", nil, err
	}

	text, meta := t.limit(content)
	meta["format"] = input.Format
	meta["url"] = session.URL()
	return text, meta, nil
}

// limit applies the token budget and describes the outcome.
func (t *ContentTool) limit(content string) (string, map[string]interface{}) {
	total := t.tokenizer.CountTokens(content)
	meta := map[string]interface{}{
		"tokens":    total,
		"truncated": false,
	}

	cut, truncated := t.tokenizer.Truncate(content, t.maxTokens)
	if !truncated {
		return content, meta
	}
	meta["truncated"] = true
	meta["returnedTokens"] = t.maxTokens
	return fmt.Sprintf("%s\n\n[Content truncated: showing %d of %d tokens. Use query_page to read specific sections.]",
		cut, t.maxTokens, total), meta
}
