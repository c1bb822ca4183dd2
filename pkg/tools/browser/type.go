package browser

import (
	"context"
	"encoding/json"
	"fmt"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

// TypeTool enters text into a form field.
type TypeTool struct {
	manager *webbrowser.Manager
}

// NewTypeTool creates a new type tool.
func NewTypeTool(manager *webbrowser.Manager) *TypeTool {
	return &TypeTool{manager: manager}
}

// Name returns the tool name.
func (t *TypeTool) Name() string {
	return "type"
}

// Description returns the tool description.
func (t *TypeTool) Description() string {
	return "Type text into an input field of the active document. Text prefixed with 'base64:' is decoded before typing, so secrets need not appear in plain text."
}

// Schema returns the tool's JSON schema.
func (t *TypeTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"selector": prop("string", "CSS selector for the input field (e.g., '#email', 'input[name=q]')"),
			"text":     prop("string", "Text to enter; replaces the field's current value"),
			"delay":    prop("integer", "Delay between key strokes in milliseconds. Default: 0 (fill at once)"),
		},
		[]string{"selector", "text"},
	)
}

// TypeInput represents the parameters for typing.
type TypeInput struct {
	Selector string  `json:"selector"`
	Text     *string `json:"text"`
	Delay    *int    `json:"delay"`
}

// Execute types into a field.
func (t *TypeTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input TypeInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	if input.Selector == "" {
		return "", nil, fmt.Errorf("selector is required")
	}
	if input.Text == nil {
		return "", nil, fmt.Errorf("text is required")
	}
	if _, err := webbrowser.DecodeSecret(*input.Text); err != nil {
		return "", nil, err
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	if err := session.Type(input.Selector, *input.Text, ms(input.Delay, 0)); err != nil {
		return "", nil, err
	}

	// The text itself is not echoed back; it may be a secret.
	return fmt.Sprintf("Typed into %s", input.Selector), map[string]interface{}{
		"selector": input.Selector,
	}, nil
}
