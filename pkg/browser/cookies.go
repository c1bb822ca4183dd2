package browser

import (
	"fmt"
	"net/url"

	"github.com/playwright-community/playwright-go"
)

// Cookie is a browser cookie as reported to clients.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Cookies returns the context's cookies, limited to those that apply to
// urls when any are given.
func (s *Session) Cookies(urls ...string) ([]Cookie, error) {
	raw, err := s.Context.Cookies(urls...)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

// SetCookie adds a cookie. Path defaults to "/" and domain to the host of
// the current page.
func (s *Session) SetCookie(name, value, domain, path string) (Cookie, error) {
	if name == "" {
		return Cookie{}, fmt.Errorf("cookie name is required")
	}
	if path == "" {
		path = "/"
	}
	if domain == "" {
		domain = hostOf(s.Page.URL())
		if domain == "" {
			return Cookie{}, fmt.Errorf("domain is required when no page is loaded")
		}
	}

	err := s.Context.AddCookies([]playwright.OptionalCookie{{
		Name:   name,
		Value:  value,
		Domain: playwright.String(domain),
		Path:   playwright.String(path),
	}})
	if err != nil {
		return Cookie{}, fmt.Errorf("failed to set cookie %s: %w", name, err)
	}
	return Cookie{Name: name, Value: value, Domain: domain, Path: path}, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.Hostname()
}
