package browser

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webagent/pkg/config"
	"github.com/entrhq/webagent/pkg/frames"
	"github.com/entrhq/webagent/pkg/logging"
)

// Session is the live browser, context and page triple.
type Session struct {
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	CreatedAt time.Time

	mu         sync.Mutex
	lastUsedAt time.Time

	frames *frames.Tracker[playwright.Frame]
	cfg    config.BrowserConfig
	logger *logging.Logger
}

func newSession(b playwright.Browser, bctx playwright.BrowserContext, page playwright.Page,
	tracker *frames.Tracker[playwright.Frame], cfg config.BrowserConfig, logger *logging.Logger) *Session {
	now := time.Now()
	return &Session{
		Browser:    b,
		Context:    bctx,
		Page:       page,
		CreatedAt:  now,
		lastUsedAt: now,
		frames:     tracker,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsedAt = time.Now()
	s.mu.Unlock()
}

// LastUsedAt is when the session was last acquired.
func (s *Session) LastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}

// URL is the page's current address.
func (s *Session) URL() string {
	return s.Page.URL()
}

// scope is what the page and its frames have in common.
type scope interface {
	QuerySelectorAll(selector string) ([]playwright.ElementHandle, error)
	Content() (string, error)
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
	URL() string
	Title() (string, error)
}

type targetContext = frames.Context[playwright.Frame]

// target resolves the active document. It fails when the selected frame
// has been detached, in which case later calls target the main page.
func (s *Session) target() (targetContext, error) {
	return s.frames.Resolve()
}

func (s *Session) activeScope() (scope, error) {
	cur, err := s.target()
	if err != nil {
		return nil, err
	}
	if f, ok := cur.Frame(); ok {
		return f, nil
	}
	return s.Page, nil
}

// pageFrames adapts a page to the frame tracker.
type pageFrames struct {
	page playwright.Page
}

func (p pageFrames) Frames() []playwright.Frame  { return p.page.Frames() }
func (p pageFrames) MainFrame() playwright.Frame { return p.page.MainFrame() }

func (p pageFrames) FrameBySelector(selector string) (playwright.Frame, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, fmt.Errorf("no element matches")
	}
	f, err := handles[0].ContentFrame()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("element is not an iframe")
	}
	return f, nil
}

// FrameState describes the active document.
type FrameState struct {
	Main  bool   `json:"main"`
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
	URL   string `json:"url"`
}

// SwitchFrame makes a frame the target of later operations. On failure the
// current target is unchanged.
func (s *Session) SwitchFrame(loc frames.Locator) (frames.Info, error) {
	info, err := s.frames.Switch(pageFrames{s.Page}, loc)
	if err != nil {
		if errors.Is(err, frames.ErrNotFound) {
			return info, &ResolutionError{Kind: "frame", Locator: describeLocator(loc), Err: err}
		}
		return info, err
	}
	return info, nil
}

func describeLocator(loc frames.Locator) string {
	switch {
	case loc.Index != nil:
		return fmt.Sprintf("index %d", *loc.Index)
	case loc.Selector != "":
		return fmt.Sprintf("selector %q", loc.Selector)
	default:
		return fmt.Sprintf("name %q", loc.Name)
	}
}

// SwitchToMain targets the main document again.
func (s *Session) SwitchToMain() {
	s.frames.SwitchToMain()
}

// ListFrames describes the page's iframes.
func (s *Session) ListFrames() []frames.Info {
	return frames.List[playwright.Frame](pageFrames{s.Page})
}

// CurrentFrame describes the active document.
func (s *Session) CurrentFrame() (FrameState, error) {
	cur, err := s.target()
	if err != nil {
		return FrameState{}, err
	}
	f, ok := cur.Frame()
	if !ok {
		return FrameState{Main: true, URL: s.Page.URL()}, nil
	}

	index := -1
	for i, candidate := range s.Page.Frames() {
		if candidate == f {
			index = i
			break
		}
	}
	return FrameState{Index: index, Name: f.Name(), URL: f.URL()}, nil
}
