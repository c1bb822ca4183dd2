package browser

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webagent/pkg/config"
	"github.com/entrhq/webagent/pkg/events"
	"github.com/entrhq/webagent/pkg/logging"
)

type launcher struct {
	browsers []*fakeBrowser
	pages    []*fakePage
	err      error
}

func (l *launcher) launch() (playwright.Browser, playwright.BrowserContext, playwright.Page, error) {
	if l.err != nil {
		return nil, nil, nil, l.err
	}
	b, p := &fakeBrowser{}, newFakePage()
	l.browsers = append(l.browsers, b)
	l.pages = append(l.pages, p)
	return b, &fakeContext{}, p, nil
}

func newTestManager(t *testing.T) (*Manager, *launcher) {
	t.Helper()
	m := NewManager(config.DefaultConfig(), logging.Discard("browser"))
	l := &launcher{}
	m.launch = l.launch
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m, l
}

func TestAcquireIsIdempotent(t *testing.T) {
	m, l := newTestManager(t)
	ctx := context.Background()

	first, err := m.Acquire(ctx)
	require.NoError(t, err)
	second, err := m.Acquire(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	require.Len(t, l.pages, 1)
	assert.Len(t, l.pages[0].consoleHandlers, 1, "console listener registered once")
	assert.Len(t, l.pages[0].dialogHandlers, 1, "dialog listener registered once")
	assert.Equal(t, float64(30000), l.pages[0].defaultTimeout)
	assert.True(t, m.Active())
}

func TestAcquireMarksSessionUsed(t *testing.T) {
	var logs bytes.Buffer
	m := NewManager(config.DefaultConfig(), logging.NewWriterLogger("browser", &logs))
	m.launch = (&launcher{}).launch
	defer m.Shutdown(context.Background())
	ctx := context.Background()

	s, err := m.Acquire(ctx)
	require.NoError(t, err)
	created := s.LastUsedAt()
	assert.Equal(t, s.CreatedAt, created)

	_, err = m.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, s.LastUsedAt().Before(created))

	require.NoError(t, m.Teardown(ctx))
	assert.Contains(t, logs.String(), "idle for")
}

func TestTeardownReleasesEverything(t *testing.T) {
	m, l := newTestManager(t)
	ctx := context.Background()

	s, err := m.Acquire(ctx)
	require.NoError(t, err)
	assert.NotNil(t, s.Browser)
	assert.NotNil(t, s.Context)
	assert.NotNil(t, s.Page)

	require.NoError(t, m.Teardown(ctx))
	assert.False(t, m.Active())
	assert.Equal(t, 1, l.browsers[0].closed)

	require.NoError(t, m.Teardown(ctx), "teardown without a session is a no-op")
	assert.Equal(t, 1, l.browsers[0].closed)

	_, err = m.Acquire(ctx)
	require.NoError(t, err)
	require.Len(t, l.pages, 2)
	assert.Len(t, l.pages[1].consoleHandlers, 1, "new page gets its own listeners")
	assert.Len(t, l.pages[1].dialogHandlers, 1)
}

func TestTeardownResetsFrameContext(t *testing.T) {
	m, l := newTestManager(t)
	ctx := context.Background()

	s, err := m.Acquire(ctx)
	require.NoError(t, err)
	l.pages[0].frames = append(l.pages[0].frames, &fakeFrame{name: "child"})
	_, err = s.SwitchFrame(locatorName("child"))
	require.NoError(t, err)

	require.NoError(t, m.Teardown(ctx))
	assert.True(t, m.frames.Current().IsMain())
}

func TestFailedLaunchLeavesNoSession(t *testing.T) {
	m, l := newTestManager(t)
	l.err = errors.New("no chromium")

	_, err := m.Acquire(context.Background())
	assert.ErrorContains(t, err, "no chromium")
	assert.False(t, m.Active())

	l.err = nil
	_, err = m.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, m.Active())
}

func TestAcquireHonoursCancelledContext(t *testing.T) {
	m, l := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, l.pages)
}

func TestConsoleMessagesAreCaptured(t *testing.T) {
	m, l := newTestManager(t)
	ctx := context.Background()
	_, err := m.Acquire(ctx)
	require.NoError(t, err)

	page := l.pages[0]
	page.emitConsole(&fakeConsole{kind: "log", text: "one"})
	page.emitConsole(&fakeConsole{kind: "error", text: "two"})
	page.emitConsole(&fakeConsole{kind: "warning", text: "three"})
	require.NoError(t, m.Sync(ctx))

	records := m.Console().ReadAll(false)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{records[0].Text, records[1].Text, records[2].Text})
	assert.Equal(t, "error", records[1].Type)
	assert.Equal(t, "https://example.test/app.js:12", records[0].Location)
}

func TestDialogsAreResolvedAndRecorded(t *testing.T) {
	m, l := newTestManager(t)
	ctx := context.Background()
	_, err := m.Acquire(ctx)
	require.NoError(t, err)

	answer := "yes"
	m.Dialogs().Configure(events.DialogUpdate{PromptText: &answer})

	d := &fakeDialog{kind: "prompt", message: "Continue?"}
	l.pages[0].emitDialog(d)
	require.NoError(t, m.Sync(ctx))

	assert.Equal(t, []string{"yes"}, d.accepted)
	records := m.Dialogs().Records().ReadAll(false)
	require.Len(t, records, 1)
	assert.True(t, records[0].Handled)
	assert.Equal(t, events.ActionAccept, records[0].Response)
	require.NotNil(t, records[0].PromptText)
	assert.Equal(t, "yes", *records[0].PromptText)
}

func TestBuffersSurviveTeardown(t *testing.T) {
	m, l := newTestManager(t)
	ctx := context.Background()
	_, err := m.Acquire(ctx)
	require.NoError(t, err)

	l.pages[0].emitConsole(&fakeConsole{kind: "log", text: "kept"})
	require.NoError(t, m.Teardown(ctx))
	assert.Equal(t, 1, m.Console().Len())

	m.ClearBuffers()
	assert.Equal(t, 0, m.Console().Len())
	assert.Equal(t, 0, m.Dialogs().Records().Len())
}

func TestShutdownAcceptsLateDialogs(t *testing.T) {
	m, l := newTestManager(t)
	ctx := context.Background()
	_, err := m.Acquire(ctx)
	require.NoError(t, err)
	page := l.pages[0]

	require.NoError(t, m.Shutdown(ctx))

	d := &fakeDialog{kind: "confirm", message: "Leave?"}
	page.emitDialog(d)
	assert.Equal(t, []string{""}, d.accepted)
}
