package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

const defaultLoginSettle = 14 * time.Second

// LoginTool fills in and submits a login form.
type LoginTool struct {
	manager *webbrowser.Manager
}

// NewLoginTool creates a new login tool.
func NewLoginTool(manager *webbrowser.Manager) *LoginTool {
	return &LoginTool{manager: manager}
}

// Name returns the tool name.
func (t *LoginTool) Name() string {
	return "login"
}

// Description returns the tool description.
func (t *LoginTool) Description() string {
	return "Log in through a form: fill the username and password fields, click submit and wait for the network to go idle. Values prefixed with 'base64:' are decoded first."
}

// Schema returns the tool's JSON schema.
func (t *LoginTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"usernameSelector": prop("string", "CSS selector of the username field"),
			"passwordSelector": prop("string", "CSS selector of the password field"),
			"submitSelector":   prop("string", "CSS selector of the submit button"),
			"username":         prop("string", "Username, optionally 'base64:' encoded"),
			"password":         prop("string", "Password, optionally 'base64:' encoded"),
			"timeout":          prop("integer", "Milliseconds to wait for network idle after submitting. Default: 14000"),
		},
		[]string{"usernameSelector", "passwordSelector", "submitSelector", "username", "password"},
	)
}

// LoginInput represents the parameters for a login.
type LoginInput struct {
	UsernameSelector string `json:"usernameSelector"`
	PasswordSelector string `json:"passwordSelector"`
	SubmitSelector   string `json:"submitSelector"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	Timeout          *int   `json:"timeout"`
}

// Execute logs in.
func (t *LoginTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input LoginInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	switch {
	case input.UsernameSelector == "":
		return "", nil, fmt.Errorf("usernameSelector is required")
	case input.PasswordSelector == "":
		return "", nil, fmt.Errorf("passwordSelector is required")
	case input.SubmitSelector == "":
		return "", nil, fmt.Errorf("submitSelector is required")
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	settled, err := session.Login(webbrowser.LoginOptions{
		UsernameSelector: input.UsernameSelector,
		PasswordSelector: input.PasswordSelector,
		SubmitSelector:   input.SubmitSelector,
		Username:         input.Username,
		Password:         input.Password,
		SettleTimeout:    ms(input.Timeout, defaultLoginSettle),
	})
	if err != nil {
		return "", nil, err
	}

	msg := "Login form submitted"
	if !settled {
		msg += "; the page was still loading when the wait ended"
	}
	return fmt.Sprintf("%s. Current URL: %s", msg, session.URL()), map[string]interface{}{
		"settled": settled,
		"url":     session.URL(),
	}, nil
}
