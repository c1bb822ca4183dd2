package browser

import (
	"context"
	"encoding/json"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

// CloseTool closes the browser.
type CloseTool struct {
	manager *webbrowser.Manager
}

// NewCloseTool creates a new close_browser tool.
func NewCloseTool(manager *webbrowser.Manager) *CloseTool {
	return &CloseTool{manager: manager}
}

// Name returns the tool name.
func (t *CloseTool) Name() string {
	return "close_browser"
}

// Description returns the tool description.
func (t *CloseTool) Description() string {
	return "Close the browser. The next browser tool starts a fresh one. Captured console messages and dialogs are kept unless clearBuffers is set."
}

// Schema returns the tool's JSON schema.
func (t *CloseTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"clearBuffers": prop("boolean", "Also discard captured console messages and dialogs. Default: false"),
		},
		nil,
	)
}

// Execute closes the browser.
func (t *CloseTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input struct {
		ClearBuffers bool `json:"clearBuffers"`
	}
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}

	wasOpen := t.manager.Active()
	if err := t.manager.Teardown(ctx); err != nil {
		return "", nil, err
	}
	if input.ClearBuffers {
		t.manager.ClearBuffers()
	}

	text := "Browser closed"
	if !wasOpen {
		text = "No browser was open"
	}
	return text, map[string]interface{}{
		"closed":         wasOpen,
		"buffersCleared": input.ClearBuffers,
	}, nil
}
