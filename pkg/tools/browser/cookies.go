package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

// GetCookiesTool reads the browser's cookies.
type GetCookiesTool struct {
	manager *webbrowser.Manager
}

// NewGetCookiesTool creates a new get_cookies tool.
func NewGetCookiesTool(manager *webbrowser.Manager) *GetCookiesTool {
	return &GetCookiesTool{manager: manager}
}

// Name returns the tool name.
func (t *GetCookiesTool) Name() string {
	return "get_cookies"
}

// Description returns the tool description.
func (t *GetCookiesTool) Description() string {
	return "Get the browser's cookies, optionally only those sent to the given URLs."
}

// Schema returns the tool's JSON schema.
func (t *GetCookiesTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"urls": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Only return cookies that apply to these URLs",
			},
		},
		nil,
	)
}

// GetCookiesInput represents the parameters for get_cookies.
type GetCookiesInput struct {
	URLs []string `json:"urls"`
}

// Execute reads cookies.
func (t *GetCookiesTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input GetCookiesInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	cookies, err := session.Cookies(input.URLs...)
	if err != nil {
		return "", nil, err
	}

	names := make([]string, len(cookies))
	for i, c := range cookies {
		names[i] = fmt.Sprintf("%s (%s%s)", c.Name, c.Domain, c.Path)
	}
	text := "No cookies."
	if len(cookies) > 0 {
		text = fmt.Sprintf("%d cookie(s): %s", len(cookies), strings.Join(names, ", "))
	}
	return text, map[string]interface{}{"cookies": cookies}, nil
}

// SetCookieTool adds a cookie to the browser.
type SetCookieTool struct {
	manager *webbrowser.Manager
}

// NewSetCookieTool creates a new set_cookie tool.
func NewSetCookieTool(manager *webbrowser.Manager) *SetCookieTool {
	return &SetCookieTool{manager: manager}
}

// Name returns the tool name.
func (t *SetCookieTool) Name() string {
	return "set_cookie"
}

// Description returns the tool description.
func (t *SetCookieTool) Description() string {
	return "Add a cookie to the browser. The domain defaults to the current page's host and the path to '/'."
}

// Schema returns the tool's JSON schema.
func (t *SetCookieTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"name":   prop("string", "Cookie name"),
			"value":  prop("string", "Cookie value"),
			"domain": prop("string", "Cookie domain. Default: the current page's host"),
			"path":   prop("string", "Cookie path. Default: /"),
		},
		[]string{"name", "value"},
	)
}

// SetCookieInput represents the parameters for set_cookie.
type SetCookieInput struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// Execute adds the cookie.
func (t *SetCookieTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input SetCookieInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	if input.Name == "" {
		return "", nil, fmt.Errorf("name is required")
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	cookie, err := session.SetCookie(input.Name, input.Value, input.Domain, input.Path)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Cookie %s set for %s%s", cookie.Name, cookie.Domain, cookie.Path), structured(cookie), nil
}
