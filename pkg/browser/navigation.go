package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// WaitUntilStates are the values Navigate accepts for WaitUntil.
var WaitUntilStates = []string{"load", "domcontentloaded", "networkidle", "commit"}

// NavigateOptions configures page navigation.
type NavigateOptions struct {
	// WaitUntil is one of WaitUntilStates; empty means "load".
	WaitUntil string
	// Timeout of zero uses the configured navigation timeout.
	Timeout time.Duration
}

// PageInfo describes the page after a navigation.
type PageInfo struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Status int    `json:"status,omitempty"`
}

// Navigate loads url. The main document becomes the target again.
func (s *Session) Navigate(url string, opts NavigateOptions) (*PageInfo, error) {
	if opts.WaitUntil == "" {
		opts.WaitUntil = "load"
	}
	if !validWaitUntil(opts.WaitUntil) {
		return nil, fmt.Errorf("invalid waitUntil value: %s (must be 'load', 'domcontentloaded', 'networkidle' or 'commit')", opts.WaitUntil)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = s.cfg.NavigationTimeout
	}

	waitUntil := playwright.WaitUntilState(opts.WaitUntil)
	gotoOpts := playwright.PageGotoOptions{WaitUntil: &waitUntil}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = millis(opts.Timeout)
	}

	resp, err := s.Page.Goto(url, gotoOpts)
	s.frames.SwitchToMain()
	if err != nil {
		return nil, classify(fmt.Sprintf("navigation to %s", url), opts.Timeout, err)
	}
	return s.pageInfo(resp), nil
}

func validWaitUntil(state string) bool {
	for _, v := range WaitUntilStates {
		if v == state {
			return true
		}
	}
	return false
}

// GoBack goes one entry back in history. With no history the page stays put
// and the returned status is zero.
func (s *Session) GoBack() (*PageInfo, error) {
	resp, err := s.Page.GoBack()
	s.frames.SwitchToMain()
	if err != nil {
		return nil, classify("go back", s.cfg.NavigationTimeout, err)
	}
	return s.pageInfo(resp), nil
}

// GoForward goes one entry forward in history.
func (s *Session) GoForward() (*PageInfo, error) {
	resp, err := s.Page.GoForward()
	s.frames.SwitchToMain()
	if err != nil {
		return nil, classify("go forward", s.cfg.NavigationTimeout, err)
	}
	return s.pageInfo(resp), nil
}

// Reload reloads the page.
func (s *Session) Reload() (*PageInfo, error) {
	resp, err := s.Page.Reload()
	s.frames.SwitchToMain()
	if err != nil {
		return nil, classify("reload", s.cfg.NavigationTimeout, err)
	}
	return s.pageInfo(resp), nil
}

func (s *Session) pageInfo(resp playwright.Response) *PageInfo {
	info := &PageInfo{URL: s.Page.URL()}
	if title, err := s.Page.Title(); err == nil {
		info.Title = title
	}
	if resp != nil {
		info.Status = resp.Status()
	}
	return info
}
