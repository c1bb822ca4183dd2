package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/tools"
)

// SavePDFTool prints the page to a PDF file.
type SavePDFTool struct {
	manager *webbrowser.Manager
	shots   *webbrowser.Screenshotter
}

// NewSavePDFTool creates a new save_pdf tool. Files go to the screenshot
// directory.
func NewSavePDFTool(manager *webbrowser.Manager, shots *webbrowser.Screenshotter) *SavePDFTool {
	return &SavePDFTool{manager: manager, shots: shots}
}

// Name returns the tool name.
func (t *SavePDFTool) Name() string {
	return "save_pdf"
}

// Description returns the tool description.
func (t *SavePDFTool) Description() string {
	return "Save the current page as a PDF file (headless browser only) and report its page count."
}

// Schema returns the tool's JSON schema.
func (t *SavePDFTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"filename": prop("string", "File name without directory; default is a timestamped name"),
		},
		nil,
	)
}

// Execute prints the page.
func (t *SavePDFTool) Execute(ctx context.Context, arguments json.RawMessage) (string, map[string]interface{}, error) {
	var input struct {
		Filename string `json:"filename"`
	}
	if err := tools.DecodeArgs(arguments, &input); err != nil {
		return "", nil, err
	}

	session, err := t.manager.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	path, err := session.PDF(t.shots.Directory(), input.Filename)
	if err != nil {
		return "", nil, err
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("saved %s but could not read it back: %w", path, err)
	}
	return fmt.Sprintf("PDF saved: %s (%d page(s))", path, pages), map[string]interface{}{
		"path":  path,
		"pages": pages,
	}, nil
}
