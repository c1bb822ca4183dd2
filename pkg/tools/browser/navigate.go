package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

// NavigateTool loads a URL in the session's page.
type NavigateTool struct {
	manager *webbrowser.Manager
}

// NewNavigateTool creates a new navigate tool.
func NewNavigateTool(manager *webbrowser.Manager) *NavigateTool {
	return &NavigateTool{manager: manager}
}

// Name returns the tool name.
func (t *NavigateTool) Name() string {
	return "navigate"
}

// Description returns the tool description.
func (t *NavigateTool) Description() string {
	return "Navigate the browser to a URL. Starts the browser if needed. Afterwards the main page is the active document, even if an iframe was selected before."
}

// Schema returns the tool's JSON schema.
func (t *NavigateTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"url":       prop("string", "URL to navigate to (must include protocol, e.g., https://example.com)"),
			"waitUntil": enumProp("When to consider navigation complete. Default: load", webbrowser.WaitUntilStates...),
			"timeout":   prop("integer", "Navigation timeout in milliseconds. Default: 60000"),
		},
		[]string{"url"},
	)
}

// NavigateInput represents the parameters for navigation.
type NavigateInput struct {
	URL       string `json:"url"`
	WaitUntil string `json:"waitUntil"`
	Timeout   *int   `json:"timeout"`
}

// Execute navigates to a URL.
func (t *NavigateTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input NavigateInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(input.URL) == "" {
		return "", nil, fmt.Errorf("url is required")
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}

	info, err := session.Navigate(input.URL, webbrowser.NavigateOptions{
		WaitUntil: input.WaitUntil,
		Timeout:   ms(input.Timeout, 0),
	})
	if err != nil {
		return "", nil, err
	}
	return pageSummary("Navigation successful", info), structured(info), nil
}

func pageSummary(headline string, info *webbrowser.PageInfo) string {
	var b strings.Builder
	b.WriteString(headline)
	b.WriteString("\n\nPage Details:\n")
	fmt.Fprintf(&b, "- URL: %s\n", info.URL)
	fmt.Fprintf(&b, "- Title: %s\n", info.Title)
	if info.Status != 0 {
		fmt.Fprintf(&b, "- Status: %d\n", info.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

// HistoryTool moves through the page's history or reloads it.
type HistoryTool struct {
	manager *webbrowser.Manager
	name    string
}

// NewGoBackTool creates the go_back tool.
func NewGoBackTool(manager *webbrowser.Manager) *HistoryTool {
	return &HistoryTool{manager: manager, name: "go_back"}
}

// NewGoForwardTool creates the go_forward tool.
func NewGoForwardTool(manager *webbrowser.Manager) *HistoryTool {
	return &HistoryTool{manager: manager, name: "go_forward"}
}

// NewRefreshTool creates the refresh tool.
func NewRefreshTool(manager *webbrowser.Manager) *HistoryTool {
	return &HistoryTool{manager: manager, name: "refresh"}
}

// Name returns the tool name.
func (t *HistoryTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *HistoryTool) Description() string {
	switch t.name {
	case "go_back":
		return "Go back to the previous page in the browser history."
	case "go_forward":
		return "Go forward to the next page in the browser history."
	}
	return "Reload the current page."
}

// Schema returns the tool's JSON schema.
func (t *HistoryTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute performs the history step.
func (t *HistoryTool) Execute(ctx context.Context, _ json.RawMessage) (string, map[string]interface{}, error) {
	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}

	var info *webbrowser.PageInfo
	switch t.name {
	case "go_back":
		info, err = session.GoBack()
	case "go_forward":
		info, err = session.GoForward()
	default:
		info, err = session.Reload()
	}
	if err != nil {
		return "", nil, err
	}
	return pageSummary("Done", info), structured(info), nil
}
