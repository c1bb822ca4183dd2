package browser

import (
	"image"
	"image/png"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webagent/pkg/config"
	"github.com/entrhq/webagent/pkg/frames"
	"github.com/entrhq/webagent/pkg/logging"
)

// The fakes embed the driver interfaces and override only what the code
// under test calls; anything else panics on the nil embedded value.

type fakeBrowser struct {
	playwright.Browser
	closed int
}

func (b *fakeBrowser) Close(...playwright.BrowserCloseOptions) error {
	b.closed++
	return nil
}

type fakeContext struct {
	playwright.BrowserContext
	stored    []playwright.Cookie
	added     []playwright.OptionalCookie
	requested []string
}

func (c *fakeContext) Cookies(urls ...string) ([]playwright.Cookie, error) {
	c.requested = urls
	return c.stored, nil
}

func (c *fakeContext) AddCookies(cookies []playwright.OptionalCookie) error {
	c.added = append(c.added, cookies...)
	return nil
}

type fakeKeyboard struct {
	playwright.Keyboard
	log      []string
	pressErr error
}

func (k *fakeKeyboard) Down(key string) error {
	k.log = append(k.log, "down:"+key)
	return nil
}

func (k *fakeKeyboard) Up(key string) error {
	k.log = append(k.log, "up:"+key)
	return nil
}

func (k *fakeKeyboard) Press(key string, _ ...playwright.KeyboardPressOptions) error {
	k.log = append(k.log, "press:"+key)
	return k.pressErr
}

type fakeFrame struct {
	playwright.Frame
	name     string
	url      string
	detached bool
	clicks   []string
}

func (f *fakeFrame) Name() string     { return f.name }
func (f *fakeFrame) URL() string      { return f.url }
func (f *fakeFrame) IsDetached() bool { return f.detached }

func (f *fakeFrame) Click(selector string, _ ...playwright.FrameClickOptions) error {
	f.clicks = append(f.clicks, selector)
	return nil
}

type fakeHandle struct {
	playwright.ElementHandle
	text string
	html string
}

func (h *fakeHandle) TextContent() (string, error) { return h.text, nil }
func (h *fakeHandle) InnerText() (string, error)   { return strings.TrimSpace(h.text), nil }
func (h *fakeHandle) InnerHTML() (string, error)   { return h.html, nil }

func (h *fakeHandle) Evaluate(string, ...interface{}) (interface{}, error) {
	return "<div>" + h.html + "</div>", nil
}

type fakePage struct {
	playwright.Page

	url     string
	title   string
	content string
	frames  []playwright.Frame

	consoleHandlers []func(playwright.ConsoleMessage)
	dialogHandlers  []func(playwright.Dialog)
	defaultTimeout  float64

	keyboard *fakeKeyboard
	clicks   []string
	clickErr func(selector string) error
	filled   map[string]string
	gotos    []string
	handles  map[string][]playwright.ElementHandle

	evalResult interface{}
	evalErr    error
	evalArgs   []interface{}
}

func newFakePage() *fakePage {
	p := &fakePage{
		url:      "about:blank",
		keyboard: &fakeKeyboard{},
		filled:   map[string]string{},
		handles:  map[string][]playwright.ElementHandle{},
	}
	p.frames = []playwright.Frame{&fakeFrame{url: "about:blank"}}
	return p
}

func (p *fakePage) OnConsole(fn func(playwright.ConsoleMessage)) {
	p.consoleHandlers = append(p.consoleHandlers, fn)
}

func (p *fakePage) OnDialog(fn func(playwright.Dialog)) {
	p.dialogHandlers = append(p.dialogHandlers, fn)
}

func (p *fakePage) SetDefaultTimeout(timeout float64)   { p.defaultTimeout = timeout }
func (p *fakePage) SetDefaultNavigationTimeout(float64) {}
func (p *fakePage) URL() string                         { return p.url }
func (p *fakePage) Title() (string, error)              { return p.title, nil }
func (p *fakePage) Content() (string, error)            { return p.content, nil }
func (p *fakePage) Frames() []playwright.Frame          { return p.frames }
func (p *fakePage) MainFrame() playwright.Frame         { return p.frames[0] }
func (p *fakePage) Keyboard() playwright.Keyboard       { return p.keyboard }

func (p *fakePage) emitConsole(msg playwright.ConsoleMessage) {
	for _, fn := range p.consoleHandlers {
		fn(msg)
	}
}

func (p *fakePage) emitDialog(d playwright.Dialog) {
	for _, fn := range p.dialogHandlers {
		fn(d)
	}
}

func (p *fakePage) Click(selector string, _ ...playwright.PageClickOptions) error {
	p.clicks = append(p.clicks, selector)
	if p.clickErr != nil {
		return p.clickErr(selector)
	}
	return nil
}

func (p *fakePage) Fill(selector, value string, _ ...playwright.PageFillOptions) error {
	p.filled[selector] = value
	return nil
}

func (p *fakePage) Evaluate(_ string, arg ...interface{}) (interface{}, error) {
	p.evalArgs = arg
	return p.evalResult, p.evalErr
}

func (p *fakePage) Goto(url string, _ ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.gotos = append(p.gotos, url)
	p.url = url
	return nil, nil
}

func (p *fakePage) QuerySelectorAll(selector string) ([]playwright.ElementHandle, error) {
	return p.handles[selector], nil
}

func (p *fakePage) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	f, err := os.Create(*options[0].Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return nil, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 1600, 900)))
}

type fakeConsole struct {
	playwright.ConsoleMessage
	kind string
	text string
}

func (c *fakeConsole) Type() string { return c.kind }
func (c *fakeConsole) Text() string { return c.text }

func (c *fakeConsole) Location() *playwright.ConsoleMessageLocation {
	return &playwright.ConsoleMessageLocation{URL: "https://example.test/app.js", LineNumber: 12}
}

type fakeDialog struct {
	playwright.Dialog
	kind    string
	message string

	mu        sync.Mutex
	accepted  []string
	dismissed bool
}

func (d *fakeDialog) Type() string         { return d.kind }
func (d *fakeDialog) Message() string      { return d.message }
func (d *fakeDialog) DefaultValue() string { return "" }

func (d *fakeDialog) Accept(promptText ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accepted = append(d.accepted, strings.Join(promptText, ""))
	return nil
}

func (d *fakeDialog) Dismiss() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dismissed = true
	return nil
}

func newTestSession(t *testing.T, page *fakePage) (*Session, *fakeContext) {
	t.Helper()
	bctx := &fakeContext{}
	s := newSession(&fakeBrowser{}, bctx, page, frames.NewTracker[playwright.Frame](),
		config.DefaultConfig().Browser, logging.Discard("browser"))
	return s, bctx
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}
