package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/frames"
	"github.com/entrhq/webagent/pkg/tools"
)

// SwitchFrameTool makes an iframe the active document.
type SwitchFrameTool struct {
	manager *webbrowser.Manager
}

// NewSwitchFrameTool creates a new switch_to_iframe tool.
func NewSwitchFrameTool(manager *webbrowser.Manager) *SwitchFrameTool {
	return &SwitchFrameTool{manager: manager}
}

// Name returns the tool name.
func (t *SwitchFrameTool) Name() string {
	return "switch_to_iframe"
}

// Description returns the tool description.
func (t *SwitchFrameTool) Description() string {
	return "Make an iframe the active document, so clicking, typing, scrolling, waiting, content and queries work inside it. Give exactly one of selector, name or index (as listed by list_iframes)."
}

// Schema returns the tool's JSON schema.
func (t *SwitchFrameTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"selector": prop("string", "CSS selector of the iframe element"),
			"name":     prop("string", "The frame's name attribute"),
			"index":    prop("integer", "The frame's index from list_iframes"),
		},
		nil,
	)
}

// SwitchFrameInput represents the parameters for switch_to_iframe.
type SwitchFrameInput struct {
	Selector string `json:"selector"`
	Name     string `json:"name"`
	Index    *int   `json:"index"`
}

// Execute switches the frame.
func (t *SwitchFrameTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input SwitchFrameInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	loc := frames.Locator{Selector: input.Selector, Name: input.Name, Index: input.Index}
	set := 0
	for _, ok := range []bool{loc.Selector != "", loc.Name != "", loc.Index != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return "", nil, fmt.Errorf("exactly one of selector, name or index is required")
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	info, err := session.SwitchFrame(loc)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Switched to iframe %d (name: %q, url: %s)", info.Index, info.Name, info.URL), structured(info), nil
}

// SwitchToMainTool makes the main page the active document.
type SwitchToMainTool struct {
	manager *webbrowser.Manager
}

// NewSwitchToMainTool creates a new switch_to_main_content tool.
func NewSwitchToMainTool(manager *webbrowser.Manager) *SwitchToMainTool {
	return &SwitchToMainTool{manager: manager}
}

// Name returns the tool name.
func (t *SwitchToMainTool) Name() string {
	return "switch_to_main_content"
}

// Description returns the tool description.
func (t *SwitchToMainTool) Description() string {
	return "Make the main page the active document again after switch_to_iframe."
}

// Schema returns the tool's JSON schema.
func (t *SwitchToMainTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute switches back.
func (t *SwitchToMainTool) Execute(ctx context.Context, _ json.RawMessage) (string, map[string]interface{}, error) {
	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	session.SwitchToMain()
	return "Switched to main content", map[string]interface{}{"main": true, "url": session.URL()}, nil
}

// ListFramesTool lists the page's iframes.
type ListFramesTool struct {
	manager *webbrowser.Manager
}

// NewListFramesTool creates a new list_iframes tool.
func NewListFramesTool(manager *webbrowser.Manager) *ListFramesTool {
	return &ListFramesTool{manager: manager}
}

// Name returns the tool name.
func (t *ListFramesTool) Name() string {
	return "list_iframes"
}

// Description returns the tool description.
func (t *ListFramesTool) Description() string {
	return "List the page's iframes with the index, name and URL to pass to switch_to_iframe."
}

// Schema returns the tool's JSON schema.
func (t *ListFramesTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute lists frames.
func (t *ListFramesTool) Execute(ctx context.Context, _ json.RawMessage) (string, map[string]interface{}, error) {
	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	list := session.ListFrames()
	if list == nil {
		list = []frames.Info{}
	}

	if len(list) == 0 {
		return "The page has no iframes.", map[string]interface{}{"frames": list}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d iframe(s):\n", len(list))
	for _, f := range list {
		fmt.Fprintf(&b, "- index %d, name %q: %s\n", f.Index, f.Name, f.URL)
	}
	return strings.TrimRight(b.String(), "\n"), map[string]interface{}{"frames": list}, nil
}

// CurrentFrameTool reports the active document.
type CurrentFrameTool struct {
	manager *webbrowser.Manager
}

// NewCurrentFrameTool creates a new get_current_frame tool.
func NewCurrentFrameTool(manager *webbrowser.Manager) *CurrentFrameTool {
	return &CurrentFrameTool{manager: manager}
}

// Name returns the tool name.
func (t *CurrentFrameTool) Name() string {
	return "get_current_frame"
}

// Description returns the tool description.
func (t *CurrentFrameTool) Description() string {
	return "Report whether the main page or an iframe is the active document."
}

// Schema returns the tool's JSON schema.
func (t *CurrentFrameTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute reports the frame.
func (t *CurrentFrameTool) Execute(ctx context.Context, _ json.RawMessage) (string, map[string]interface{}, error) {
	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	state, err := session.CurrentFrame()
	if err != nil {
		return "", nil, err
	}
	if state.Main {
		return fmt.Sprintf("Main content is active (%s)", state.URL), structured(state), nil
	}
	return fmt.Sprintf("Iframe %d is active (name: %q, url: %s)", state.Index, state.Name, state.URL), structured(state), nil
}
