package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

const (
	defaultWaitTimeout = 14 * time.Second
	maxPlainWait       = 60 * time.Second
)

// WaitTool waits for an element state, or for a fixed time.
type WaitTool struct {
	manager *webbrowser.Manager
}

// NewWaitTool creates a new wait tool.
func NewWaitTool(manager *webbrowser.Manager) *WaitTool {
	return &WaitTool{manager: manager}
}

// Name returns the tool name.
func (t *WaitTool) Name() string {
	return "wait"
}

// Description returns the tool description.
func (t *WaitTool) Description() string {
	return "Wait for an element of the active document to reach a state, or, without a selector, pause for a fixed time. Useful for dynamic content and loading indicators."
}

// Schema returns the tool's JSON schema.
func (t *WaitTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"selector": prop("string", "CSS selector for the element to wait for (e.g., '.loading-spinner', '#content')"),
			"state":    enumProp("State to wait for. Default: visible", "attached", "detached", "visible", "hidden"),
			"timeout":  prop("integer", "With a selector: maximum wait in milliseconds (default 14000). Without: how long to pause (max 60000)"),
		},
		nil,
	)
}

// WaitInput represents the parameters for waiting.
type WaitInput struct {
	Selector string `json:"selector"`
	State    string `json:"state"`
	Timeout  *int   `json:"timeout"`
}

// Execute waits.
func (t *WaitTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input WaitInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	switch input.State {
	case "", "attached", "detached", "visible", "hidden":
	default:
		return "", nil, fmt.Errorf("invalid state: %s (must be 'attached', 'detached', 'visible' or 'hidden')", input.State)
	}

	if input.Selector == "" {
		if input.Timeout == nil {
			return "", nil, fmt.Errorf("selector or timeout is required")
		}
		d := ms(input.Timeout, 0)
		if d > maxPlainWait {
			return "", nil, fmt.Errorf("timeout cannot exceed %s without a selector", maxPlainWait)
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case <-timer.C:
		}
		return fmt.Sprintf("Waited %s", d), map[string]interface{}{"waitedMs": d.Milliseconds()}, nil
	}

	state := input.State
	if state == "" {
		state = "visible"
	}
	timeout := ms(input.Timeout, defaultWaitTimeout)

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	start := time.Now()
	if err := session.WaitForSelector(input.Selector, state, timeout); err != nil {
		return "", nil, err
	}
	elapsed := time.Since(start)

	return fmt.Sprintf("Element %s is %s (waited %s)", input.Selector, state, elapsed.Round(time.Millisecond)),
		map[string]interface{}{
			"selector": input.Selector,
			"state":    state,
			"waitedMs": elapsed.Milliseconds(),
		}, nil
}
