// Package server exposes tools and saved screenshots over the Model Context
// Protocol.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/entrhq/webagent/pkg/logging"
	"github.com/entrhq/webagent/pkg/ocr"
	"github.com/entrhq/webagent/pkg/tools"
	browsertools "github.com/entrhq/webagent/pkg/tools/browser"
)

const instructions = `Controls one shared browser session. The browser starts on the first tool call and stays open until close_browser.

Console messages and dialogs are captured in the background; dialogs are answered automatically. Interaction and reading tools act on the active document, which is the main page unless switch_to_iframe selected a frame.`

// Resolver maps a screenshot name to its file.
type Resolver interface {
	Resolve(name string) (string, error)
}

// Server serves tools over MCP. Tool calls run one at a time because they
// share a single browser page.
type Server struct {
	mcp    *mcp.Server
	logger *logging.Logger
	shots  Resolver
	callMu sync.Mutex
}

// New creates a server offering toolset and, when shots is non-nil, the
// screenshot resource template.
func New(name, version string, toolset []tools.Tool, shots Resolver, logger *logging.Logger) *Server {
	s := &Server{
		mcp: mcp.NewServer(
			&mcp.Implementation{Name: name, Version: version},
			&mcp.ServerOptions{Instructions: instructions},
		),
		logger: logger,
		shots:  shots,
	}

	for _, tool := range toolset {
		s.mcp.AddTool(&mcp.Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.Schema(),
		}, s.handler(tool))
	}

	if shots != nil {
		s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
			Name:        "screenshot",
			URITemplate: browsertools.ScreenshotScheme + "{name}",
			Description: "A saved screenshot, by the file name list_screenshots reports",
			MIMEType:    "image/jpeg",
		}, s.readScreenshot)
	}
	return s
}

// Run serves over stdin and stdout until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single client over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}

func (s *Server) handler(tool tools.Tool) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.callMu.Lock()
		defer s.callMu.Unlock()

		start := time.Now()
		text, data, err := tool.Execute(ctx, req.Params.Arguments)
		elapsed := time.Since(start).Round(time.Millisecond)

		if err != nil {
			var failure *tools.Failure
			if errors.As(err, &failure) {
				s.logger.Debugf("%s failed after %s: %s", tool.Name(), elapsed, failure.Message)
				return failureResult(failure), nil
			}
			s.logger.Warnf("%s error after %s: %v", tool.Name(), elapsed, err)
			return nil, fmt.Errorf("%s: %w", tool.Name(), err)
		}

		s.logger.Debugf("%s completed in %s", tool.Name(), elapsed)
		result := &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}
		if data != nil {
			result.StructuredContent = data
		}
		return result, nil
	}
}

func failureResult(f *tools.Failure) *mcp.CallToolResult {
	data := map[string]interface{}{}
	for k, v := range f.Details {
		data[k] = v
	}
	data["success"] = false
	data["error"] = f.Message

	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: f.Message}},
		StructuredContent: data,
		IsError:           true,
	}
}

func (s *Server) readScreenshot(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	name := strings.TrimPrefix(uri, browsertools.ScreenshotScheme)

	path, err := s.shots.Resolve(name)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		// A retention sweep may have removed it since Resolve.
		if os.IsNotExist(err) {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: ocr.MIMEType(path),
			Blob:     data,
		}},
	}, nil
}
