package browser

import (
	"context"
	"encoding/json"
	"fmt"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

const defaultScrollAmount = 500

// ScrollTool scrolls the active document.
type ScrollTool struct {
	manager *webbrowser.Manager
}

// NewScrollTool creates a new scroll tool.
func NewScrollTool(manager *webbrowser.Manager) *ScrollTool {
	return &ScrollTool{manager: manager}
}

// Name returns the tool name.
func (t *ScrollTool) Name() string {
	return "scroll"
}

// Description returns the tool description.
func (t *ScrollTool) Description() string {
	return "Scroll the active document and report the resulting scroll position."
}

// Schema returns the tool's JSON schema.
func (t *ScrollTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"direction": enumProp("Direction to scroll", "up", "down", "left", "right"),
			"amount":    prop("integer", "Pixels to scroll. Default: 500"),
		},
		[]string{"direction"},
	)
}

// ScrollInput represents the parameters for scrolling.
type ScrollInput struct {
	Direction string `json:"direction"`
	Amount    *int   `json:"amount"`
}

// Execute scrolls the page.
func (t *ScrollTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input ScrollInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	switch input.Direction {
	case "up", "down", "left", "right":
	default:
		return "", nil, fmt.Errorf("invalid direction: %q (must be 'up', 'down', 'left' or 'right')", input.Direction)
	}
	amount := defaultScrollAmount
	if input.Amount != nil {
		if *input.Amount < 0 {
			return "", nil, fmt.Errorf("amount cannot be negative")
		}
		amount = *input.Amount
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	pos, err := session.Scroll(input.Direction, amount)
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("Scrolled %s by %dpx; position is now (%.0f, %.0f)", input.Direction, amount, pos.X, pos.Y),
		structured(pos), nil
}
