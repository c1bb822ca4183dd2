package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/retention"
	"github.com/entrhq/webagent/pkg/security/workspace"
	"github.com/entrhq/webagent/pkg/tools"
)

// ScreenshotScheme is the URI scheme screenshots are served under.
const ScreenshotScheme = "screenshot://"

// ScreenshotURI returns the resource URI of the artifact at path.
func ScreenshotURI(path string) string {
	return ScreenshotScheme + filepath.Base(path)
}

// ScreenshotTool captures the page or one element.
type ScreenshotTool struct {
	manager *webbrowser.Manager
	shots   *webbrowser.Screenshotter
	guard   *workspace.Guard
}

// NewScreenshotTool creates a new screenshot tool. Directories callers name
// must pass guard; with a nil guard only the default directory is used.
func NewScreenshotTool(manager *webbrowser.Manager, shots *webbrowser.Screenshotter, guard *workspace.Guard) *ScreenshotTool {
	return &ScreenshotTool{manager: manager, shots: shots, guard: guard}
}

// Name returns the tool name.
func (t *ScreenshotTool) Name() string {
	return "screenshot"
}

// Description returns the tool description.
func (t *ScreenshotTool) Description() string {
	return "Take a screenshot of the page or of one element and save it as a JPEG. By default the image is scaled to 800px wide; hiRes keeps the full size. Saved screenshots can be read back through their screenshot:// URI."
}

// Schema returns the tool's JSON schema.
func (t *ScreenshotTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"fullPage":  prop("boolean", "Capture the full scrollable page instead of the viewport. Default: false"),
			"selector":  prop("string", "CSS selector of one element of the active document to capture"),
			"filename":  prop("string", "File name without directory; default is a timestamped name"),
			"directory": prop("string", "Directory to save into instead of the configured one; must be within the working directory or an allowed directory"),
			"hiRes":     prop("boolean", "Keep the captured resolution at higher quality. Default: false"),
			"thumbnail": prop("boolean", "Also save a small thumbnail. Default: false"),
			"autoOcr":   prop("boolean", "Extract the text in the image. Default: false"),
			"language":  prop("string", "Language hint for text extraction (e.g., 'eng', 'deu')"),
		},
		nil,
	)
}

// ScreenshotInput represents the parameters for a screenshot.
type ScreenshotInput struct {
	FullPage  bool   `json:"fullPage"`
	Selector  string `json:"selector"`
	Filename  string `json:"filename"`
	Directory string `json:"directory"`
	HiRes     bool   `json:"hiRes"`
	Thumbnail bool   `json:"thumbnail"`
	AutoOCR   bool   `json:"autoOcr"`
	Language  string `json:"language"`
}

// Execute takes the screenshot.
func (t *ScreenshotTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input ScreenshotInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	if input.Directory != "" {
		if t.guard == nil {
			return "", nil, fmt.Errorf("saving outside the screenshot directory is disabled")
		}
		dir, err := t.guard.ValidatePath(input.Directory)
		if err != nil {
			return "", nil, err
		}
		input.Directory = dir
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	shot, err := t.shots.Capture(ctx, session, webbrowser.ShotOptions{
		FullPage:  input.FullPage,
		Selector:  input.Selector,
		Filename:  input.Filename,
		Directory: input.Directory,
		HiRes:     input.HiRes,
		Thumbnail: input.Thumbnail,
		AutoOCR:   input.AutoOCR,
		Language:  input.Language,
	})
	if err != nil {
		return "", nil, err
	}

	result := structured(shot)
	var b strings.Builder
	fmt.Fprintf(&b, "Screenshot saved: %s (%dx%d)", shot.Path, shot.Size.Width, shot.Size.Height)
	if input.Directory == "" {
		result["uri"] = ScreenshotURI(shot.Path)
		fmt.Fprintf(&b, "\nURI: %s", result["uri"])
	}
	if shot.Thumbnail != "" {
		fmt.Fprintf(&b, "\nThumbnail: %s", shot.Thumbnail)
	}
	switch {
	case shot.OCRError != "":
		fmt.Fprintf(&b, "\nText extraction failed: %s", shot.OCRError)
	case shot.Text != "":
		fmt.Fprintf(&b, "\n\nExtracted text:\n%s", shot.Text)
	}
	return b.String(), result, nil
}

// ParseScreenshotTool extracts the text of a saved screenshot.
type ParseScreenshotTool struct {
	shots *webbrowser.Screenshotter
}

// NewParseScreenshotTool creates a new parse_screenshot tool.
func NewParseScreenshotTool(shots *webbrowser.Screenshotter) *ParseScreenshotTool {
	return &ParseScreenshotTool{shots: shots}
}

// Name returns the tool name.
func (t *ParseScreenshotTool) Name() string {
	return "parse_screenshot"
}

// Description returns the tool description.
func (t *ParseScreenshotTool) Description() string {
	return "Extract the text from a saved screenshot. Does not need an open browser."
}

// Schema returns the tool's JSON schema.
func (t *ParseScreenshotTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"filename": prop("string", "Name of a screenshot in the screenshot directory, as listed by list_screenshots"),
			"language": prop("string", "Language hint (e.g., 'eng', 'deu')"),
		},
		[]string{"filename"},
	)
}

// ParseScreenshotInput represents the parameters for parse_screenshot.
type ParseScreenshotInput struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
}

// Execute runs text recognition.
func (t *ParseScreenshotTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input ParseScreenshotInput
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}
	path, err := t.shots.Resolve(strings.TrimPrefix(input.Filename, ScreenshotScheme))
	if err != nil {
		return "", nil, err
	}

	text, err := t.shots.Recognize(ctx, path, input.Language)
	if err != nil {
		return "", nil, err
	}
	return text, map[string]interface{}{
		"filename": filepath.Base(path),
		"text":     text,
	}, nil
}

// ScreenshotEntry describes a saved screenshot.
type ScreenshotEntry struct {
	Name     string    `json:"name"`
	URI      string    `json:"uri"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ListScreenshotsTool lists saved screenshots, newest first.
type ListScreenshotsTool struct {
	shots   *webbrowser.Screenshotter
	matcher *retention.PatternMatcher
}

// NewListScreenshotsTool creates a new list_screenshots tool.
func NewListScreenshotsTool(shots *webbrowser.Screenshotter) *ListScreenshotsTool {
	// The default patterns are constants and always compile.
	matcher, _ := retention.NewPatternMatcher(retention.DefaultIncludePatterns, retention.DefaultExcludePatterns)
	return &ListScreenshotsTool{shots: shots, matcher: matcher}
}

// Name returns the tool name.
func (t *ListScreenshotsTool) Name() string {
	return "list_screenshots"
}

// Description returns the tool description.
func (t *ListScreenshotsTool) Description() string {
	return "List saved screenshots in the screenshot directory, newest first, with their screenshot:// URIs."
}

// Schema returns the tool's JSON schema.
func (t *ListScreenshotsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"limit": prop("integer", "Maximum number of entries. Default: all"),
		},
		nil,
	)
}

// Execute lists the directory.
func (t *ListScreenshotsTool) Execute(_ context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input struct {
		Limit int `json:"limit"`
	}
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}

	entries, err := t.list()
	if err != nil {
		return "", nil, err
	}
	if input.Limit > 0 && len(entries) > input.Limit {
		entries = entries[:input.Limit]
	}

	if len(entries) == 0 {
		return "No screenshots saved.", map[string]interface{}{"screenshots": entries}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d screenshot(s):\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s (%d bytes, %s)\n", e.URI, e.Size, e.Modified.Format(time.RFC3339))
	}
	return strings.TrimRight(b.String(), "\n"), map[string]interface{}{"screenshots": entries}, nil
}

func (t *ListScreenshotsTool) list() ([]ScreenshotEntry, error) {
	dir := t.shots.Directory()
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ScreenshotEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read screenshot directory: %w", err)
	}

	entries := []ScreenshotEntry{}
	for _, f := range files {
		if f.IsDir() || !t.matcher.IsCandidate(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			// Removed by a retention sweep since the listing.
			continue
		}
		entries = append(entries, ScreenshotEntry{
			Name:     f.Name(),
			URI:      ScreenshotScheme + f.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Modified.After(entries[j].Modified)
	})
	return entries, nil
}
