package browser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webagent/pkg/config"
	"github.com/entrhq/webagent/pkg/imaging"
	"github.com/entrhq/webagent/pkg/logging"
	"github.com/entrhq/webagent/pkg/ocr"
	"github.com/entrhq/webagent/pkg/retention"
)

type staticRecognizer struct{ text string }

func (r staticRecognizer) Recognize(context.Context, string, string) (string, error) {
	return r.text, nil
}

func (r staticRecognizer) Close() error { return nil }

func newTestScreenshotter(t *testing.T, dir string, worker *ocr.Worker) *Screenshotter {
	t.Helper()
	cleaner, err := retention.NewCleaner(retention.DefaultPolicy())
	require.NoError(t, err)
	logger := logging.Discard("screenshots")
	sweeper := retention.NewSweeper(cleaner, logger)
	t.Cleanup(sweeper.Close)

	cfg := config.DefaultConfig().Screenshots
	cfg.Directory = dir
	return NewScreenshotter(cfg, worker, sweeper, logger)
}

func TestProcessLowRes(t *testing.T) {
	dir := t.TempDir()
	sc := newTestScreenshotter(t, dir, nil)
	src := filepath.Join(dir, "temp-capture.png")
	writeTestPNG(t, src, 1920, 1080)

	shot, err := sc.Process(context.Background(), src, filepath.Join(dir, "home.jpg"), ShotOptions{Thumbnail: true, AutoOCR: true})
	require.NoError(t, err)

	assert.Equal(t, imaging.Size{Width: 800, Height: 450}, shot.Size)
	assert.Equal(t, filepath.Join(dir, "home_thumb.jpg"), shot.Thumbnail)
	assert.FileExists(t, shot.Thumbnail)
	assert.Contains(t, shot.OCRError, "not configured", "recognition failures do not fail the capture")
}

func TestProcessHiResKeepsSize(t *testing.T) {
	dir := t.TempDir()
	worker := ocr.NewWorker(func() (ocr.Recognizer, error) {
		return staticRecognizer{text: "Welcome back"}, nil
	})
	sc := newTestScreenshotter(t, dir, worker)
	src := filepath.Join(dir, "temp-capture.png")
	writeTestPNG(t, src, 1920, 1080)

	shot, err := sc.Process(context.Background(), src, filepath.Join(dir, "full.jpg"), ShotOptions{HiRes: true, AutoOCR: true})
	require.NoError(t, err)

	assert.Equal(t, imaging.Size{Width: 1920, Height: 1080}, shot.Size)
	assert.Empty(t, shot.Thumbnail)
	assert.Equal(t, "Welcome back", shot.Text)
	assert.True(t, worker.Started())
}

func TestCaptureRemovesTempFileAndSweeps(t *testing.T) {
	dir := t.TempDir()
	sc := newTestScreenshotter(t, dir, nil)
	s, _ := newTestSession(t, newFakePage())

	shot, err := sc.Capture(context.Background(), s, ShotOptions{Filename: "checkout.png"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "checkout.jpg"), shot.Path)
	sc.sweeper.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"checkout.jpg"}, names)
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestCaptureSweepsOnlyConfiguredDirectory(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	sc := newTestScreenshotter(t, dir, nil)
	s, _ := newTestSession(t, newFakePage())

	for i := 0; i < 25; i++ {
		writeTestPNG(t, filepath.Join(other, fmt.Sprintf("photo-%02d.png", i)), 2, 2)
		writeTestPNG(t, filepath.Join(dir, fmt.Sprintf("old-%02d.png", i)), 2, 2)
	}

	_, err := sc.Capture(context.Background(), s, ShotOptions{Directory: other})
	require.NoError(t, err)
	sc.sweeper.Wait()
	assert.Equal(t, 26, countFiles(t, other), "directories outside the configured one are never pruned")

	_, err = sc.Capture(context.Background(), s, ShotOptions{})
	require.NoError(t, err)
	sc.sweeper.Wait()
	assert.Equal(t, retention.DefaultPolicy().MaxFiles, countFiles(t, dir))
}

func TestCaptureReportsUnusableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	var logs bytes.Buffer
	sc := newTestScreenshotter(t, t.TempDir(), nil)
	sc.logger = logging.NewWriterLogger("screenshots", &logs)
	s, _ := newTestSession(t, newFakePage())

	_, err := sc.Capture(context.Background(), s, ShotOptions{Directory: filepath.Join(blocker, "shots")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Contains(t, logs.String(), "failed to create screenshot directory")
}

func TestCaptureMissingElement(t *testing.T) {
	dir := t.TempDir()
	sc := newTestScreenshotter(t, dir, nil)
	s, _ := newTestSession(t, newFakePage())

	_, err := sc.Capture(context.Background(), s, ShotOptions{Selector: "#chart"})
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "element", re.Kind)
}

func TestFileName(t *testing.T) {
	sc := newTestScreenshotter(t, t.TempDir(), nil)
	sc.now = func() time.Time { return time.Date(2026, 10, 19, 15, 30, 0, 250e6, time.UTC) }

	assert.Equal(t, "screenshot-20261019-153000-250.jpg", sc.fileName(""))
	assert.Equal(t, "passwd.jpg", sc.fileName("../../etc/passwd.png"))
	assert.Equal(t, "my_page.jpg", sc.fileName("my page.jpeg"))
	assert.Equal(t, "shot-temp-1.jpg", sc.fileName("temp-1"))
	assert.Equal(t, "logo-thumb.jpg", sc.fileName("logo_thumb.png"))
	assert.True(t, strings.HasPrefix(sc.fileName("..."), "screenshot-"))
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	sc := newTestScreenshotter(t, dir, nil)
	writeTestPNG(t, filepath.Join(dir, "home.png"), 10, 10)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	path, err := sc.Resolve("home.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "home.png"), path)

	for _, name := range []string{"", "../home.png", "nested", ".hidden", "missing.jpg", "a/home.png"} {
		_, err := sc.Resolve(name)
		assert.Error(t, err, name)
	}
}
