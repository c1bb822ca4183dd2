package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webagent/pkg/logging"
	"github.com/entrhq/webagent/pkg/tools"
)

type fakeTool struct {
	name string
	run  func(args json.RawMessage) (string, map[string]interface{}, error)
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "test tool " + f.name }

func (f *fakeTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{
		"value": map[string]interface{}{"type": "string"},
	}, nil)
}

func (f *fakeTool) Execute(_ context.Context, args json.RawMessage) (string, map[string]interface{}, error) {
	return f.run(args)
}

type dirResolver struct{ dir string }

func (r dirResolver) Resolve(name string) (string, error) {
	path := filepath.Join(r.dir, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverT, clientT := mcp.NewInMemoryTransports()

	ss, err := s.Connect(ctx, serverT)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func newTestServer(t *testing.T, resolver Resolver) *mcp.ClientSession {
	echo := &fakeTool{name: "echo", run: func(args json.RawMessage) (string, map[string]interface{}, error) {
		var in struct {
			Value string `json:"value"`
		}
		if err := tools.DecodeArgs(args, &in); err != nil {
			return "", nil, err
		}
		return "echo: " + in.Value, map[string]interface{}{"value": in.Value}, nil
	}}
	script := &fakeTool{name: "script", run: func(json.RawMessage) (string, map[string]interface{}, error) {
		return "", nil, &tools.Failure{Message: "script error: boom", Details: map[string]interface{}{"line": 3}}
	}}
	broken := &fakeTool{name: "broken", run: func(json.RawMessage) (string, map[string]interface{}, error) {
		return "", nil, fmt.Errorf("selector %q not found", "#missing")
	}}

	s := New("webagent", "test", []tools.Tool{echo, script, broken}, resolver, logging.Discard("server"))
	return connect(t, s)
}

func TestListTools(t *testing.T) {
	cs := newTestServer(t, nil)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"echo", "script", "broken"}, names)
}

func TestCallToolSuccess(t *testing.T) {
	cs := newTestServer(t, nil)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "echo",
		Arguments: map[string]interface{}{"value": "hi"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Equal(t, "echo: hi", res.Content[0].(*mcp.TextContent).Text)
	assert.Equal(t, map[string]interface{}{"value": "hi"}, res.StructuredContent)
}

func TestCallToolFailureIsResult(t *testing.T) {
	cs := newTestServer(t, nil)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "script"})
	require.NoError(t, err, "caller-caused failures are not protocol errors")
	assert.True(t, res.IsError)
	assert.Equal(t, "script error: boom", res.Content[0].(*mcp.TextContent).Text)
	assert.Equal(t, map[string]interface{}{
		"success": false,
		"error":   "script error: boom",
		"line":    float64(3),
	}, res.StructuredContent)
}

func TestCallToolErrorNamesTool(t *testing.T) {
	cs := newTestServer(t, nil)

	_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `broken: selector "#missing" not found`)
}

func TestReadScreenshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.jpg"), []byte("jpeg-bytes"), 0o644))
	cs := newTestServer(t, dirResolver{dir: dir})

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "screenshot://home.jpg"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "image/jpeg", res.Contents[0].MIMEType)
	assert.Equal(t, []byte("jpeg-bytes"), res.Contents[0].Blob)

	_, err = cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "screenshot://gone.jpg"})
	assert.Error(t, err)
}
