package events

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Dialog is the slice of a browser dialog the handler needs. Playwright's
// Dialog satisfies it.
type Dialog interface {
	Type() string
	Message() string
	DefaultValue() string
	Accept(promptText ...string) error
	Dismiss() error
}

// Action is how a dialog gets resolved.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDismiss Action = "dismiss"
)

// DialogConfig controls automatic dialog resolution.
type DialogConfig struct {
	AutoHandle    bool   `json:"autoHandle" yaml:"auto_handle"`
	DefaultAction Action `json:"defaultAction" yaml:"default_action"`
	PromptText    string `json:"promptText" yaml:"prompt_text"`
}

// DefaultDialogConfig accepts everything with an empty prompt answer.
func DefaultDialogConfig() DialogConfig {
	return DialogConfig{AutoHandle: true, DefaultAction: ActionAccept}
}

// DialogUpdate is a partial DialogConfig; nil fields are left alone.
type DialogUpdate struct {
	AutoHandle    *bool
	DefaultAction *Action
	PromptText    *string
}

// DialogRecord describes a dialog after it was resolved.
type DialogRecord struct {
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	DefaultValue string    `json:"defaultValue,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Handled      bool      `json:"handled"`
	Response     Action    `json:"response,omitempty"`
	// PromptText is set only when a prompt was accepted with text.
	PromptText *string `json:"promptText,omitempty"`
}

// DialogFilter matches on type equality or message substring, case-insensitively.
func DialogFilter(filter string) func(DialogRecord) bool {
	if filter == "" {
		return nil
	}
	needle := strings.ToLower(filter)
	return func(r DialogRecord) bool {
		return strings.ToLower(r.Type) == needle || strings.Contains(strings.ToLower(r.Message), needle)
	}
}

// State is the dialog handler's position in its Idle -> Presented ->
// Resolving -> Idle cycle.
type State int32

const (
	StateIdle State = iota
	StatePresented
	StateResolving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePresented:
		return "presented"
	case StateResolving:
		return "resolving"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// DialogHandler resolves every dialog it is given and records the outcome.
// A dialog is never left pending: with auto handling off it is still accepted.
type DialogHandler struct {
	mu      sync.RWMutex
	config  DialogConfig
	state   atomic.Int32
	records *Buffer[DialogRecord]
	onError func(error)
	now     func() time.Time
}

// NewDialogHandler creates a handler appending to records.
func NewDialogHandler(records *Buffer[DialogRecord], config DialogConfig) *DialogHandler {
	return &DialogHandler{
		config:  config,
		records: records,
		onError: func(error) {},
		now:     time.Now,
	}
}

// OnError sets the callback for accept/dismiss failures. They never
// propagate; the dialog is recorded as handled either way.
func (h *DialogHandler) OnError(fn func(error)) {
	if fn == nil {
		fn = func(error) {}
	}
	h.onError = fn
}

// Records returns the buffer resolved dialogs are appended to.
func (h *DialogHandler) Records() *Buffer[DialogRecord] {
	return h.records
}

// State reports the current state.
func (h *DialogHandler) State() State {
	return State(h.state.Load())
}

// Config returns a copy of the current configuration.
func (h *DialogHandler) Config() DialogConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Configure merges update into the configuration and returns the result.
// Dialogs already presented keep the configuration they were presented with.
func (h *DialogHandler) Configure(update DialogUpdate) DialogConfig {
	h.mu.Lock()
	defer h.mu.Unlock()

	if update.AutoHandle != nil {
		h.config.AutoHandle = *update.AutoHandle
	}
	if update.DefaultAction != nil {
		h.config.DefaultAction = *update.DefaultAction
	}
	if update.PromptText != nil {
		h.config.PromptText = *update.PromptText
	}
	return h.config
}

// Handle resolves d with the current configuration and appends the
// resulting record.
func (h *DialogHandler) Handle(d Dialog) DialogRecord {
	return h.resolve(d, h.present())
}

// presentation is the policy and time captured when a dialog arrives.
type presentation struct {
	config DialogConfig
	at     time.Time
}

func (h *DialogHandler) present() presentation {
	return presentation{config: h.Config(), at: h.now()}
}

// resolve applies the configuration captured at presentation.
func (h *DialogHandler) resolve(d Dialog, p presentation) DialogRecord {
	rec := DialogRecord{
		Type:         d.Type(),
		Message:      d.Message(),
		DefaultValue: d.DefaultValue(),
		Timestamp:    p.at,
	}
	h.state.Store(int32(StatePresented))

	action, promptText := decide(p.config, rec.Type)

	h.state.Store(int32(StateResolving))
	var err error
	switch {
	case action == ActionDismiss:
		err = d.Dismiss()
	case promptText != nil:
		err = d.Accept(*promptText)
	default:
		err = d.Accept()
	}
	if err != nil {
		h.onError(fmt.Errorf("%s dialog %q: %w", action, rec.Message, err))
	}

	rec.Handled = true
	rec.Response = action
	rec.PromptText = promptText
	h.append(rec)

	h.state.Store(int32(StateIdle))
	return rec
}

func (h *DialogHandler) append(rec DialogRecord) {
	if !rec.Handled {
		panic("events: dialog record appended before resolution")
	}
	h.records.Append(rec)
}

// decide picks the resolution for a dialog of the given type. Only accepted
// prompts under auto handling receive prompt text.
func decide(cfg DialogConfig, dialogType string) (Action, *string) {
	if !cfg.AutoHandle {
		return ActionAccept, nil
	}
	if cfg.DefaultAction == ActionDismiss {
		return ActionDismiss, nil
	}
	if dialogType == "prompt" {
		text := cfg.PromptText
		return ActionAccept, &text
	}
	return ActionAccept, nil
}
