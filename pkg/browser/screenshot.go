package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webagent/pkg/config"
	"github.com/entrhq/webagent/pkg/imaging"
	"github.com/entrhq/webagent/pkg/logging"
	"github.com/entrhq/webagent/pkg/ocr"
	"github.com/entrhq/webagent/pkg/retention"
)

// ShotOptions configures a screenshot.
type ShotOptions struct {
	FullPage bool
	// Selector captures one element of the active document instead of the page.
	Selector string
	// Filename without extension; empty generates a timestamped name.
	Filename string
	// Directory overrides the configured screenshot directory.
	Directory string
	// HiRes keeps the captured size at the higher JPEG quality.
	HiRes     bool
	Thumbnail bool
	AutoOCR   bool
	Language  string
}

// Shot is a saved screenshot.
type Shot struct {
	Path      string       `json:"path"`
	Size      imaging.Size `json:"size"`
	Thumbnail string       `json:"thumbnail,omitempty"`
	Text      string       `json:"text,omitempty"`
	OCRError  string       `json:"ocrError,omitempty"`
}

// Screenshotter captures screenshots and turns them into JPEG artifacts,
// optionally with a thumbnail and recognised text. Every capture into the
// configured directory schedules a retention sweep of it.
type Screenshotter struct {
	cfg     config.ScreenshotConfig
	ocr     *ocr.Worker
	sweeper *retention.Sweeper
	logger  *logging.Logger
	now     func() time.Time
}

// NewScreenshotter creates a screenshotter. worker may be nil when text
// recognition is unavailable.
func NewScreenshotter(cfg config.ScreenshotConfig, worker *ocr.Worker, sweeper *retention.Sweeper, logger *logging.Logger) *Screenshotter {
	return &Screenshotter{
		cfg:     cfg,
		ocr:     worker,
		sweeper: sweeper,
		logger:  logger,
		now:     time.Now,
	}
}

// Directory is the default screenshot directory.
func (sc *Screenshotter) Directory() string {
	return sc.cfg.Directory
}

// Resolve returns the path of the artifact called name in the default
// directory. name must be a bare file name.
func (sc *Screenshotter) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid screenshot name: %q", name)
	}
	path := filepath.Join(sc.cfg.Directory, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("screenshot not found: %s", name)
	}
	if info.IsDir() {
		return "", fmt.Errorf("invalid screenshot name: %q", name)
	}
	return path, nil
}

// Capture takes a screenshot of s and saves it.
func (sc *Screenshotter) Capture(ctx context.Context, s *Session, opts ShotOptions) (*Shot, error) {
	dir := opts.Directory
	if dir == "" {
		dir = sc.cfg.Directory
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		sc.logger.Warnf("failed to create screenshot directory %s: %v", dir, err)
	}

	temp := filepath.Join(dir, "temp-"+uuid.NewString()+".png")
	defer func() {
		if err := os.Remove(temp); err != nil && !os.IsNotExist(err) {
			sc.logger.Warnf("failed to remove %s: %v", temp, err)
		}
	}()
	if err := sc.capture(s, temp, opts); err != nil {
		if _, statErr := os.Stat(dir); statErr != nil {
			return nil, fmt.Errorf("screenshot directory %s unavailable (%v): %w", dir, statErr, err)
		}
		return nil, err
	}

	shot, err := sc.Process(ctx, temp, filepath.Join(dir, sc.fileName(opts.Filename)), opts)
	if err != nil {
		return nil, err
	}
	if sc.managed(dir) {
		sc.sweeper.Trigger(dir)
	}
	return shot, nil
}

// managed reports whether dir is the configured screenshot directory.
// Retention only ever prunes that one.
func (sc *Screenshotter) managed(dir string) bool {
	want, err := filepath.Abs(sc.cfg.Directory)
	if err != nil {
		return false
	}
	got, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return got == want
}

func (sc *Screenshotter) capture(s *Session, path string, opts ShotOptions) error {
	if opts.Selector == "" {
		_, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
			Path:     playwright.String(path),
			FullPage: playwright.Bool(opts.FullPage),
		})
		return classify("screenshot", s.cfg.ActionTimeout, err)
	}

	doc, err := s.activeScope()
	if err != nil {
		return err
	}
	handles, err := doc.QuerySelectorAll(opts.Selector)
	if err != nil {
		return classify(fmt.Sprintf("query %q", opts.Selector), s.cfg.ActionTimeout, err)
	}
	if len(handles) == 0 {
		return &ResolutionError{Kind: "element", Locator: fmt.Sprintf("%q", opts.Selector)}
	}
	_, err = handles[0].Screenshot(playwright.ElementHandleScreenshotOptions{Path: playwright.String(path)})
	return classify(fmt.Sprintf("screenshot of %q", opts.Selector), s.cfg.ActionTimeout, err)
}

// Process encodes a captured PNG as the final artifact at dst and builds
// the derivatives opts asks for. Recognition failures are reported in the
// result, not as errors.
func (sc *Screenshotter) Process(ctx context.Context, src, dst string, opts ShotOptions) (*Shot, error) {
	enc := imaging.Options{Width: sc.cfg.LowResWidth, Quality: sc.cfg.LowResQuality}
	if opts.HiRes {
		enc = imaging.Options{Quality: sc.cfg.HiResQuality}
	}
	size, err := imaging.Resize(src, dst, enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}
	shot := &Shot{Path: dst, Size: size}

	if opts.Thumbnail {
		thumb := retention.ThumbnailPath(dst)
		if _, err := imaging.Resize(dst, thumb, imaging.Options{Width: sc.cfg.ThumbnailWidth, Quality: sc.cfg.LowResQuality}); err != nil {
			sc.logger.Warnf("thumbnail for %s: %v", dst, err)
		} else {
			shot.Thumbnail = thumb
		}
	}

	if opts.AutoOCR {
		text, err := sc.Recognize(ctx, dst, opts.Language)
		if err != nil {
			shot.OCRError = err.Error()
		} else {
			shot.Text = text
		}
	}
	return shot, nil
}

// Recognize extracts the text of a saved screenshot.
func (sc *Screenshotter) Recognize(ctx context.Context, path, language string) (string, error) {
	if sc.ocr == nil {
		return "", fmt.Errorf("text recognition is not configured")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("screenshot not found: %w", err)
	}
	return sc.ocr.Recognize(ctx, path, language)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (sc *Screenshotter) fileName(requested string) string {
	name := safeName(requested)
	if name == "" {
		name = "screenshot-" + strings.ReplaceAll(sc.now().Format("20060102-150405.000"), ".", "-")
	}
	if strings.HasPrefix(name, "temp-") {
		name = "shot-" + name
	}
	return name + ".jpg"
}

// safeName reduces a requested file name to a safe stem without extension.
func safeName(requested string) string {
	if requested == "" {
		return ""
	}
	name := strings.TrimSuffix(filepath.Base(requested), filepath.Ext(requested))
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "._")
	// A _thumb stem would be taken for a derived file and never pruned.
	if stem, ok := strings.CutSuffix(name, "_thumb"); ok {
		name = stem + "-thumb"
	}
	return name
}

// PDF prints the page to a PDF file in dir.
func (s *Session) PDF(dir, filename string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	name := safeName(filename)
	if name == "" {
		name = "page-" + time.Now().Format("20060102-150405")
	}
	path := filepath.Join(dir, name+".pdf")

	_, err := s.Page.PDF(playwright.PagePdfOptions{
		Path:            playwright.String(path),
		PrintBackground: playwright.Bool(true),
	})
	if err != nil {
		return "", classify("pdf export", s.cfg.ActionTimeout, err)
	}
	return path, nil
}
