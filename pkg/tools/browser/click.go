package browser

import (
	"context"
	"encoding/json"
	"fmt"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

// ClickTool clicks an element in the active document.
type ClickTool struct {
	manager *webbrowser.Manager
}

// NewClickTool creates a new click tool.
func NewClickTool(manager *webbrowser.Manager) *ClickTool {
	return &ClickTool{manager: manager}
}

// Name returns the tool name.
func (t *ClickTool) Name() string {
	return "click"
}

// Description returns the tool description.
func (t *ClickTool) Description() string {
	return "Click an element in the active document. The selector is first tried as visible text, then as a CSS selector."
}

// Schema returns the tool's JSON schema.
func (t *ClickTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"selector":   prop("string", "Visible text or CSS selector of the element to click (e.g., 'Sign in', '#submit')"),
			"clickCount": prop("integer", "Number of clicks; 2 for a double click. Default: 1"),
			"button":     enumProp("Mouse button to use. Default: left", "left", "right", "middle"),
		},
		[]string{"selector"},
	)
}

// ClickInput represents the parameters for clicking.
type ClickInput struct {
	Selector   string `json:"selector"`
	ClickCount int    `json:"clickCount"`
	Button     string `json:"button"`
}

// Execute clicks an element.
func (t *ClickTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input ClickInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	if input.Selector == "" {
		return "", nil, fmt.Errorf("selector is required")
	}
	switch input.Button {
	case "", "left", "right", "middle":
	default:
		return "", nil, fmt.Errorf("invalid button: %s (must be 'left', 'right' or 'middle')", input.Button)
	}
	if input.ClickCount < 0 {
		return "", nil, fmt.Errorf("clickCount cannot be negative")
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}

	used, err := session.Click(input.Selector, webbrowser.ClickOptions{
		Button:     input.Button,
		ClickCount: input.ClickCount,
	})
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("Clicked %s", used), map[string]interface{}{
		"clicked": used,
		"url":     session.URL(),
	}, nil
}
