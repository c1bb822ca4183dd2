// Package browser owns the single browser session and drives its page.
package browser

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webagent/pkg/config"
	"github.com/entrhq/webagent/pkg/events"
	"github.com/entrhq/webagent/pkg/frames"
	"github.com/entrhq/webagent/pkg/logging"
)

// launchFunc starts a browser and returns its context and first page.
type launchFunc func() (playwright.Browser, playwright.BrowserContext, playwright.Page, error)

// Manager lazily creates the one browser session and captures its console
// messages and dialogs. Captured events outlive the session that produced
// them.
type Manager struct {
	mu      sync.Mutex
	cfg     config.BrowserConfig
	logger  *logging.Logger
	launch  launchFunc
	pw      *playwright.Playwright
	session *Session

	console *events.Buffer[events.ConsoleRecord]
	dialogs *events.DialogHandler
	queue   *events.Queue
	frames  *frames.Tracker[playwright.Frame]
}

// NewManager creates a manager. No browser is started until Acquire.
func NewManager(cfg *config.Config, logger *logging.Logger) *Manager {
	m := &Manager{
		cfg:     cfg.Browser,
		logger:  logger,
		console: events.NewBuffer[events.ConsoleRecord](cfg.Console.BufferSize),
		frames:  frames.NewTracker[playwright.Frame](),
	}
	m.dialogs = events.NewDialogHandler(
		events.NewBuffer[events.DialogRecord](cfg.Dialogs.BufferSize),
		cfg.Dialogs.DialogConfig,
	)
	m.dialogs.OnError(func(err error) {
		logger.Warnf("%v", err)
	})
	m.queue = events.NewQueue(m.console, m.dialogs)
	m.launch = m.launchChromium
	return m
}

// Console returns the console message buffer.
func (m *Manager) Console() *events.Buffer[events.ConsoleRecord] {
	return m.console
}

// Dialogs returns the dialog handler.
func (m *Manager) Dialogs() *events.DialogHandler {
	return m.dialogs
}

// Active reports whether a session is open.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// Acquire returns the open session, creating it first if needed.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.touch()
		return m.session, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, bctx, page, err := m.launch()
	if err != nil {
		return nil, err
	}

	if m.cfg.ActionTimeout > 0 {
		page.SetDefaultTimeout(float64(m.cfg.ActionTimeout.Milliseconds()))
	}
	if m.cfg.NavigationTimeout > 0 {
		page.SetDefaultNavigationTimeout(float64(m.cfg.NavigationTimeout.Milliseconds()))
	}
	page.OnConsole(m.onConsole)
	page.OnDialog(m.onDialog)

	m.frames.SwitchToMain()
	m.session = newSession(b, bctx, page, m.frames, m.cfg, m.logger)
	m.logger.Infof("browser session started (headless=%t, viewport %dx%d)",
		m.cfg.Headless, m.cfg.ViewportWidth, m.cfg.ViewportHeight)
	return m.session, nil
}

func (m *Manager) launchChromium() (playwright.Browser, playwright.BrowserContext, playwright.Page, error) {
	if m.pw == nil {
		// Driver output would corrupt the protocol stream on stdout.
		opts := &playwright.RunOptions{
			Verbose: false,
			Stdout:  io.Discard,
			Stderr:  io.Discard,
		}
		if !m.cfg.SkipInstall {
			if err := playwright.Install(opts); err != nil {
				return nil, nil, nil, fmt.Errorf("failed to install playwright: %w", err)
			}
		}
		pw, err := playwright.Run(opts)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to start playwright: %w", err)
		}
		m.pw = pw
	}

	b, err := m.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.cfg.Headless),
		Args:     m.cfg.Args,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.cfg.ViewportWidth,
			Height: m.cfg.ViewportHeight,
		},
		UserAgent: playwright.String(m.cfg.UserAgent),
	})
	if err != nil {
		_ = b.Close()
		return nil, nil, nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = b.Close()
		return nil, nil, nil, fmt.Errorf("failed to create page: %w", err)
	}
	return b, bctx, page, nil
}

func (m *Manager) onConsole(msg playwright.ConsoleMessage) {
	rec := events.ConsoleRecord{
		Type:      msg.Type(),
		Text:      msg.Text(),
		Timestamp: time.Now(),
	}
	if loc := msg.Location(); loc != nil && loc.URL != "" {
		rec.Location = fmt.Sprintf("%s:%d", loc.URL, loc.LineNumber)
	}
	m.queue.Push(events.Event{Console: &rec})
}

func (m *Manager) onDialog(d playwright.Dialog) {
	m.queue.Push(events.Event{Dialog: d})
}

// Sync waits until every event delivered so far is in the buffers.
func (m *Manager) Sync(ctx context.Context) error {
	return m.queue.Flush(ctx)
}

// Teardown closes the browser if one is open. Captured events are kept.
// Calling it without a session is a no-op.
func (m *Manager) Teardown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teardownLocked(ctx)
}

func (m *Manager) teardownLocked(ctx context.Context) error {
	s := m.session
	m.session = nil
	m.frames.SwitchToMain()
	if s == nil {
		return nil
	}

	// Let events from the closing page land before the handles go away.
	if err := m.queue.Flush(ctx); err != nil {
		m.logger.Warnf("event flush before teardown: %v", err)
	}
	if err := s.Browser.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	m.logger.Infof("browser session closed after %s, idle for %s",
		time.Since(s.CreatedAt).Round(time.Second), time.Since(s.LastUsedAt()).Round(time.Second))
	return nil
}

// ClearBuffers empties the console and dialog buffers.
func (m *Manager) ClearBuffers() {
	m.console.ReadAll(true)
	m.dialogs.Records().ReadAll(true)
}

// Shutdown tears the session down and stops the driver process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.teardownLocked(ctx)
	m.queue.Close()

	if m.pw != nil {
		if stopErr := m.pw.Stop(); stopErr != nil && err == nil {
			err = fmt.Errorf("failed to stop playwright: %w", stopErr)
		}
		m.pw = nil
	}
	return err
}
