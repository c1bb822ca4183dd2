// Package frames tracks which document tool operations target: the main page
// or one of its iframes.
package frames

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound is returned when a locator matches no frame.
	ErrNotFound = errors.New("frame not found")
	// ErrDetached is returned when the stored frame left the page. The tracker
	// has already been reset to the main document when it is returned.
	ErrDetached = errors.New("current frame is detached")
	// ErrLocator is returned for a locator that names zero or several criteria.
	ErrLocator = errors.New("provide exactly one of selector, name or index")
)

// Frame is what the tracker needs to know about a frame handle.
type Frame interface {
	comparable
	Name() string
	URL() string
	IsDetached() bool
}

// Page exposes a page's frames. Frames returns them in document order with
// the main frame first.
type Page[F Frame] interface {
	Frames() []F
	MainFrame() F
	// FrameBySelector resolves selector to an element and returns the frame
	// it hosts, failing when nothing matches or the element hosts no frame.
	FrameBySelector(selector string) (F, error)
}

// Locator picks a frame. Exactly one field must be set.
type Locator struct {
	Selector string
	Name     string
	Index    *int
}

// Info describes a frame for callers.
type Info struct {
	// Index is the frame's position in the page's frame list and can be
	// passed back as Locator.Index.
	Index int    `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// Context is the active document: either the main page or one frame.
type Context[F Frame] struct {
	frame   F
	inFrame bool
}

// Main is the main-document context.
func Main[F Frame]() Context[F] {
	return Context[F]{}
}

// InFrame is the context of frame f.
func InFrame[F Frame](f F) Context[F] {
	return Context[F]{frame: f, inFrame: true}
}

// IsMain reports whether the context is the main document.
func (c Context[F]) IsMain() bool {
	return !c.inFrame
}

// Frame returns the frame and true, or the zero value and false for main.
func (c Context[F]) Frame() (F, bool) {
	return c.frame, c.inFrame
}

// Tracker holds the active context. The zero value is not usable; use NewTracker.
type Tracker[F Frame] struct {
	mu      sync.Mutex
	current Context[F]
}

// NewTracker returns a tracker pointing at the main document.
func NewTracker[F Frame]() *Tracker[F] {
	return &Tracker[F]{current: Main[F]()}
}

// Switch makes the frame matched by loc current. On failure the current
// context is left unchanged.
func (t *Tracker[F]) Switch(page Page[F], loc Locator) (Info, error) {
	set := 0
	if loc.Selector != "" {
		set++
	}
	if loc.Name != "" {
		set++
	}
	if loc.Index != nil {
		set++
	}
	if set != 1 {
		return Info{}, ErrLocator
	}

	frame, err := find(page, loc)
	if err != nil {
		return Info{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if frame == page.MainFrame() {
		t.current = Main[F]()
	} else {
		t.current = InFrame(frame)
	}
	return Info{Index: indexOf(page.Frames(), frame), Name: frame.Name(), URL: frame.URL()}, nil
}

func find[F Frame](page Page[F], loc Locator) (F, error) {
	var zero F
	switch {
	case loc.Index != nil:
		all := page.Frames()
		i := *loc.Index
		if i < 0 || i >= len(all) {
			return zero, fmt.Errorf("%w: index %d out of range (0-%d)", ErrNotFound, i, len(all)-1)
		}
		return all[i], nil
	case loc.Selector != "":
		f, err := page.FrameBySelector(loc.Selector)
		if err != nil {
			return zero, fmt.Errorf("%w: selector %q: %v", ErrNotFound, loc.Selector, err)
		}
		return f, nil
	default:
		for _, f := range page.Frames() {
			if f.Name() == loc.Name {
				return f, nil
			}
		}
		return zero, fmt.Errorf("%w: no iframe named %q", ErrNotFound, loc.Name)
	}
}

func indexOf[F Frame](all []F, f F) int {
	for i, candidate := range all {
		if candidate == f {
			return i
		}
	}
	return -1
}

// SwitchToMain resets the context to the main document.
func (t *Tracker[F]) SwitchToMain() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = Main[F]()
}

// Current returns the active context without checking it.
func (t *Tracker[F]) Current() Context[F] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Resolve returns the active context for an operation. A detached frame
// resets the tracker to main and yields ErrDetached.
func (t *Tracker[F]) Resolve() (Context[F], error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if f, ok := t.current.Frame(); ok && f.IsDetached() {
		t.current = Main[F]()
		return t.current, fmt.Errorf("%w (was %q at %s); switched back to main content", ErrDetached, f.Name(), f.URL())
	}
	return t.current, nil
}

// List describes every frame except the main one.
func List[F Frame](page Page[F]) []Info {
	main := page.MainFrame()
	infos := []Info{}
	for i, f := range page.Frames() {
		if f == main {
			continue
		}
		infos = append(infos, Info{Index: i, Name: f.Name(), URL: f.URL()})
	}
	return infos
}
