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

const defaultDialogLimit = 50

// DialogsTool reads the record of dialogs the page raised.
type DialogsTool struct {
	manager *webbrowser.Manager
}

// NewDialogsTool creates a new get_dialogs tool.
func NewDialogsTool(manager *webbrowser.Manager) *DialogsTool {
	return &DialogsTool{manager: manager}
}

// Name returns the tool name.
func (t *DialogsTool) Name() string {
	return "get_dialogs"
}

// Description returns the tool description.
func (t *DialogsTool) Description() string {
	return "Get the alert, confirm, prompt and beforeunload dialogs the page raised and how each was answered. Dialogs are always answered automatically, so the page never blocks on one."
}

// Schema returns the tool's JSON schema.
func (t *DialogsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"clear":  prop("boolean", "Empty the record after reading. Default: false"),
			"filter": prop("string", "Keep dialogs whose type is this (e.g., 'confirm') or whose message contains it, case-insensitively"),
			"limit":  prop("integer", "Return only the most recent N matching dialogs. Default: 50; 0 means all"),
		},
		nil,
	)
}

// Execute reads the record.
func (t *DialogsTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input EventQueryInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	limit, err := eventLimit(input.Limit, defaultDialogLimit)
	if err != nil {
		return "", nil, err
	}
	if err := t.manager.Sync(ctx); err != nil {
		return "", nil, err
	}

	handler := t.manager.Dialogs()
	dialogs := handler.Records().Query(events.DialogFilter(input.Filter), limit, input.Clear)

	var b strings.Builder
	if len(dialogs) == 0 {
		b.WriteString("No dialogs captured.")
	} else {
		fmt.Fprintf(&b, "%d dialog(s):\n", len(dialogs))
		for _, d := range dialogs {
			fmt.Fprintf(&b, "[%s] %s %q -> %s", d.Timestamp.Format("15:04:05.000"), d.Type, d.Message, d.Response)
			if d.PromptText != nil {
				fmt.Fprintf(&b, " with %q", *d.PromptText)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n"), map[string]interface{}{
		"dialogs": dialogs,
		"count":   len(dialogs),
		"cleared": input.Clear,
		"config":  handler.Config(),
	}, nil
}

// ConfigureDialogsTool changes how later dialogs are answered.
type ConfigureDialogsTool struct {
	manager *webbrowser.Manager
}

// NewConfigureDialogsTool creates a new configure_dialog_handler tool.
func NewConfigureDialogsTool(manager *webbrowser.Manager) *ConfigureDialogsTool {
	return &ConfigureDialogsTool{manager: manager}
}

// Name returns the tool name.
func (t *ConfigureDialogsTool) Name() string {
	return "configure_dialog_handler"
}

// Description returns the tool description.
func (t *ConfigureDialogsTool) Description() string {
	return "Configure how dialogs raised from now on are answered. Omitted fields keep their value. With autoHandle off, dialogs are still accepted so the page cannot hang."
}

// Schema returns the tool's JSON schema.
func (t *ConfigureDialogsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"autoHandle":    prop("boolean", "Answer dialogs with defaultAction"),
			"defaultAction": enumProp("How to answer dialogs", string(events.ActionAccept), string(events.ActionDismiss)),
			"promptText":    prop("string", "Text entered into accepted prompt dialogs"),
		},
		nil,
	)
}

// ConfigureDialogsInput represents the parameters for configure_dialog_handler.
type ConfigureDialogsInput struct {
	AutoHandle    *bool   `json:"autoHandle"`
	DefaultAction *string `json:"defaultAction"`
	PromptText    *string `json:"promptText"`
}

// Execute updates the configuration.
func (t *ConfigureDialogsTool) Execute(_ context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input ConfigureDialogsInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}

	update := events.DialogUpdate{
		AutoHandle: input.AutoHandle,
		PromptText: input.PromptText,
	}
	if input.DefaultAction != nil {
		action := events.Action(strings.ToLower(*input.DefaultAction))
		if action != events.ActionAccept && action != events.ActionDismiss {
			return "", nil, fmt.Errorf("invalid defaultAction: %s (must be 'accept' or 'dismiss')", *input.DefaultAction)
		}
		update.DefaultAction = &action
	}

	cfg := t.manager.Dialogs().Configure(update)
	return fmt.Sprintf("Dialog handler updated: autoHandle=%t, defaultAction=%s, promptText=%q",
		cfg.AutoHandle, cfg.DefaultAction, cfg.PromptText), structured(cfg), nil
}
