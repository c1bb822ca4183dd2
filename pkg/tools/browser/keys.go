package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

// PressKeyTool presses a key or key combination.
type PressKeyTool struct {
	manager *webbrowser.Manager
}

// NewPressKeyTool creates a new press_key tool.
func NewPressKeyTool(manager *webbrowser.Manager) *PressKeyTool {
	return &PressKeyTool{manager: manager}
}

// Name returns the tool name.
func (t *PressKeyTool) Name() string {
	return "press_key"
}

// Description returns the tool description.
func (t *PressKeyTool) Description() string {
	return "Press a key or key combination on the page, e.g. 'Enter', 'Tab', 'Control+A' or 'Control+Shift+T'. Modifiers are held in the order given and released in reverse."
}

// Schema returns the tool's JSON schema.
func (t *PressKeyTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"key":   prop("string", "Key or combination joined with '+' (e.g., 'Enter', 'Control+C')"),
			"delay": prop("integer", "Milliseconds to wait before pressing. Default: 0"),
		},
		[]string{"key"},
	)
}

// PressKeyInput represents the parameters for a key press.
type PressKeyInput struct {
	Key   string `json:"key"`
	Delay *int   `json:"delay"`
}

// Execute presses the key.
func (t *PressKeyTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input PressKeyInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	mods, key := webbrowser.ParseCombo(input.Key)
	if key == "" {
		return "", nil, fmt.Errorf("key is required")
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	if err := session.PressKey(ctx, input.Key, ms(input.Delay, 0)); err != nil {
		return "", nil, err
	}

	pressed := strings.Join(append(mods, key), "+")
	return fmt.Sprintf("Pressed %s", pressed), map[string]interface{}{
		"key":       key,
		"modifiers": mods,
	}, nil
}
