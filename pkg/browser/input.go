package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// textMatchTimeout bounds the attempt to click by visible text before the
// selector is tried as-is.
const textMatchTimeout = 5 * time.Second

// ClickOptions configures Click.
type ClickOptions struct {
	// Button is "left", "right" or "middle"; empty means left.
	Button     string
	ClickCount int
}

// Click clicks the first element whose text is selector, or failing that
// the element matching selector. It returns the locator that was clicked.
func (s *Session) Click(selector string, opts ClickOptions) (string, error) {
	cur, err := s.target()
	if err != nil {
		return "", err
	}

	textLocator := fmt.Sprintf("text=%q", selector)
	if err := s.click(cur, textLocator, opts, textMatchTimeout); err == nil {
		return textLocator, nil
	}

	if err := s.click(cur, selector, opts, s.cfg.ActionTimeout); err != nil {
		return "", classify(fmt.Sprintf("click on %q", selector), s.cfg.ActionTimeout, err)
	}
	return selector, nil
}

func (s *Session) click(cur targetContext, selector string, opts ClickOptions, timeout time.Duration) error {
	var button *playwright.MouseButton
	if opts.Button != "" {
		b := playwright.MouseButton(opts.Button)
		button = &b
	}
	var count *int
	if opts.ClickCount > 0 {
		count = &opts.ClickCount
	}

	if f, ok := cur.Frame(); ok {
		return f.Click(selector, playwright.FrameClickOptions{Button: button, ClickCount: count, Timeout: millis(timeout)})
	}
	return s.Page.Click(selector, playwright.PageClickOptions{Button: button, ClickCount: count, Timeout: millis(timeout)})
}

// Type enters text into the element matching selector. A zero delay fills
// the field at once; otherwise the field is cleared and typed key by key.
// Text prefixed with "base64:" is decoded first.
func (s *Session) Type(selector, text string, delay time.Duration) error {
	value, err := DecodeSecret(text)
	if err != nil {
		return err
	}
	cur, err := s.target()
	if err != nil {
		return err
	}

	op := fmt.Sprintf("typing into %q", selector)
	if delay <= 0 {
		return classify(op, s.cfg.ActionTimeout, s.fill(cur, selector, value))
	}

	if err := s.fill(cur, selector, ""); err != nil {
		return classify(op, s.cfg.ActionTimeout, err)
	}
	d := millis(delay)
	if f, ok := cur.Frame(); ok {
		err = f.Type(selector, value, playwright.FrameTypeOptions{Delay: d})
	} else {
		err = s.Page.Type(selector, value, playwright.PageTypeOptions{Delay: d})
	}
	return classify(op, s.cfg.ActionTimeout, err)
}

func (s *Session) fill(cur targetContext, selector, value string) error {
	if f, ok := cur.Frame(); ok {
		return f.Fill(selector, value)
	}
	return s.Page.Fill(selector, value)
}

// DecodeSecret returns text with a "base64:" prefix decoded.
func DecodeSecret(text string) (string, error) {
	switch {
	case strings.HasPrefix(text, "base64:"):
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(text, "base64:"))
		if err != nil {
			return "", fmt.Errorf("invalid base64 value: %w", err)
		}
		return string(raw), nil
	case strings.HasPrefix(text, "dpapi:"):
		return "", fmt.Errorf("dpapi-encoded values are not supported on this platform")
	}
	return text, nil
}

var modifierAliases = map[string]string{
	"control": "Control",
	"ctrl":    "Control",
	"shift":   "Shift",
	"alt":     "Alt",
	"option":  "Alt",
	"meta":    "Meta",
	"cmd":     "Meta",
	"command": "Meta",
}

// ParseCombo splits a key combination such as "Control+Shift+T" into its
// modifiers, in order, and the final key. A lone "+" is the plus key.
func ParseCombo(combo string) (modifiers []string, key string) {
	body := combo
	if strings.HasSuffix(combo, "++") || combo == "+" {
		body, key = strings.TrimSuffix(combo, "+"), "+"
		body = strings.TrimSuffix(body, "+")
	}

	parts := strings.Split(body, "+")
	if key == "" {
		key = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if canonical, ok := modifierAliases[strings.ToLower(p)]; ok {
			p = canonical
		}
		modifiers = append(modifiers, p)
	}
	return modifiers, strings.TrimSpace(key)
}

// PressKey presses a key or combination after waiting delay. Modifiers go
// down in order and come up in reverse, even when the press fails.
func (s *Session) PressKey(ctx context.Context, combo string, delay time.Duration) error {
	mods, key := ParseCombo(combo)
	if key == "" {
		return fmt.Errorf("no key in %q", combo)
	}
	if err := sleep(ctx, delay); err != nil {
		return err
	}

	kb := s.Page.Keyboard()
	var err error
	pressed := make([]string, 0, len(mods))
	for _, m := range mods {
		if err = kb.Down(m); err != nil {
			break
		}
		pressed = append(pressed, m)
	}
	if err == nil {
		err = kb.Press(key)
	}
	for i := len(pressed) - 1; i >= 0; i-- {
		if upErr := kb.Up(pressed[i]); upErr != nil && err == nil {
			err = upErr
		}
	}
	if err != nil {
		return fmt.Errorf("pressing %s failed: %w", combo, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Position is a scroll offset in CSS pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

const scrollScript = `([dx, dy]) => {
	window.scrollBy(dx, dy);
	return [window.scrollX, window.scrollY];
}`

// Scroll scrolls the active document by amount pixels in direction.
func (s *Session) Scroll(direction string, amount int) (Position, error) {
	var dx, dy int
	switch direction {
	case "up":
		dy = -amount
	case "down":
		dy = amount
	case "left":
		dx = -amount
	case "right":
		dx = amount
	default:
		return Position{}, fmt.Errorf("invalid direction: %s (must be 'up', 'down', 'left' or 'right')", direction)
	}

	sc, err := s.activeScope()
	if err != nil {
		return Position{}, err
	}
	v, err := sc.Evaluate(scrollScript, []int{dx, dy})
	if err != nil {
		return Position{}, classify("scroll", s.cfg.ActionTimeout, err)
	}

	var pos Position
	if xy, ok := v.([]interface{}); ok && len(xy) == 2 {
		pos.X, pos.Y = toFloat(xy[0]), toFloat(xy[1])
	}
	return pos, nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// WaitForSelector waits for selector to reach state ("attached", "detached",
// "visible" or "hidden") in the active document.
func (s *Session) WaitForSelector(selector, state string, timeout time.Duration) error {
	if state == "" {
		state = "visible"
	}
	cur, err := s.target()
	if err != nil {
		return err
	}

	st := playwright.WaitForSelectorState(state)
	if f, ok := cur.Frame(); ok {
		_, err = f.WaitForSelector(selector, playwright.FrameWaitForSelectorOptions{State: &st, Timeout: millis(timeout)})
	} else {
		_, err = s.Page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{State: &st, Timeout: millis(timeout)})
	}
	return classify(fmt.Sprintf("waiting for %q to be %s", selector, state), timeout, err)
}

// LoginOptions describes a form login.
type LoginOptions struct {
	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string
	Username         string
	Password         string
	// SettleTimeout bounds the wait for network idle after submitting.
	SettleTimeout time.Duration
}

// Login fills in credentials, submits the form and waits for the network to
// go idle. It reports whether the page settled in time; not settling is not
// an error.
func (s *Session) Login(opts LoginOptions) (bool, error) {
	password, err := DecodeSecret(opts.Password)
	if err != nil {
		return false, err
	}
	username, err := DecodeSecret(opts.Username)
	if err != nil {
		return false, err
	}
	cur, err := s.target()
	if err != nil {
		return false, err
	}

	if err := s.fill(cur, opts.UsernameSelector, username); err != nil {
		return false, classify(fmt.Sprintf("filling username field %q", opts.UsernameSelector), s.cfg.ActionTimeout, err)
	}
	if err := s.fill(cur, opts.PasswordSelector, password); err != nil {
		return false, classify(fmt.Sprintf("filling password field %q", opts.PasswordSelector), s.cfg.ActionTimeout, err)
	}
	if err := s.click(cur, opts.SubmitSelector, ClickOptions{}, s.cfg.ActionTimeout); err != nil {
		return false, classify(fmt.Sprintf("clicking submit %q", opts.SubmitSelector), s.cfg.ActionTimeout, err)
	}

	err = s.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: millis(opts.SettleTimeout),
	})
	if err != nil {
		if isDriverTimeout(err) {
			s.logger.Debugf("page did not reach network idle within %s after login", opts.SettleTimeout)
			return false, nil
		}
		return false, classify("waiting after login", opts.SettleTimeout, err)
	}
	return true, nil
}
