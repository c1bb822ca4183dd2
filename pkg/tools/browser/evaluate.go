package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

// EvaluateTool runs JavaScript in the active document.
type EvaluateTool struct {
	manager *webbrowser.Manager
}

// NewEvaluateTool creates a new execute_console tool.
func NewEvaluateTool(manager *webbrowser.Manager) *EvaluateTool {
	return &EvaluateTool{manager: manager}
}

// Name returns the tool name.
func (t *EvaluateTool) Name() string {
	return "execute_console"
}

// Description returns the tool description.
func (t *EvaluateTool) Description() string {
	return "Evaluate a JavaScript expression or function in the active document and return its JSON-serializable result. Errors thrown by the script are reported as a failed result."
}

// Schema returns the tool's JSON schema.
func (t *EvaluateTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"script": prop("string", "JavaScript to evaluate, e.g. 'document.title' or '() => [...document.links].length'"),
		},
		[]string{"script"},
	)
}

// EvaluateInput represents the parameters for execute_console.
type EvaluateInput struct {
	Script string `json:"script"`
}

// Execute evaluates the script.
func (t *EvaluateTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input EvaluateInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(input.Script) == "" {
		return "", nil, fmt.Errorf("script is required")
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	res, err := session.Evaluate(input.Script)
	if err != nil {
		return "", nil, err
	}
	if !res.Success {
		return "", nil, &tools.Failure{
			Message: "script error: " + res.Error,
			Details: structured(res),
		}
	}
	return tools.Text(res.Result), structured(res), nil
}
