package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/events"
	"github.com/entrhq/webagent/pkg/tools"
)

// ConsoleLogsTool reads captured console messages.
type ConsoleLogsTool struct {
	manager *webbrowser.Manager
}

// NewConsoleLogsTool creates a new get_console_logs tool.
func NewConsoleLogsTool(manager *webbrowser.Manager) *ConsoleLogsTool {
	return &ConsoleLogsTool{manager: manager}
}

// Name returns the tool name.
func (t *ConsoleLogsTool) Name() string {
	return "get_console_logs"
}

// Description returns the tool description.
func (t *ConsoleLogsTool) Description() string {
	return "Get console messages logged by the page since the browser started, oldest first. Messages are captured automatically; no browser is started by this call."
}

// Schema returns the tool's JSON schema.
func (t *ConsoleLogsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"clear":  prop("boolean", "Empty the buffer after reading. Default: false"),
			"filter": prop("string", "Keep messages whose type is this (e.g., 'error') or whose text contains it, case-insensitively"),
			"limit":  prop("integer", "Return only the most recent N matching messages"),
		},
		nil,
	)
}

// EventQueryInput is the shared input of the event buffer tools.
type EventQueryInput struct {
	Clear  bool   `json:"clear"`
	Filter string `json:"filter"`
	Limit  *int   `json:"limit"`
}

// Execute reads the buffer.
func (t *ConsoleLogsTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input EventQueryInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	limit, err := eventLimit(input.Limit, 0)
	if err != nil {
		return "", nil, err
	}
	if err := t.manager.Sync(ctx); err != nil {
		return "", nil, err
	}

	logs := t.manager.Console().Query(events.ConsoleFilter(input.Filter), limit, input.Clear)

	var b strings.Builder
	if len(logs) == 0 {
		b.WriteString("No console messages captured.")
	} else {
		fmt.Fprintf(&b, "%d console message(s):\n", len(logs))
		for _, l := range logs {
			fmt.Fprintf(&b, "[%s] %s: %s", l.Timestamp.Format("15:04:05.000"), l.Type, l.Text)
			if l.Location != "" {
				fmt.Fprintf(&b, " (%s)", l.Location)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n"), map[string]interface{}{
		"logs":    logs,
		"count":   len(logs),
		"cleared": input.Clear,
	}, nil
}

func eventLimit(limit *int, fallback int) (int, error) {
	if limit == nil {
		return fallback, nil
	}
	if *limit < 0 {
		return 0, fmt.Errorf("limit cannot be negative")
	}
	return *limit, nil
}
