package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/axnav"
	"github.com/aretw0/axnav/pkg/adapters/fixture"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/tree"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const desktop = `
applications:
  - pid: 101
    name: TextEdit
    root:
      role: AXApplication
      title: TextEdit
      children:
        - role: AXWindow
          title: Main
          children:
            - role: AXButton
              title: OK
              actions: [AXPress]
            - role: AXTextField
              title: Name
              attributes:
                AXValue: Ada
`

func setup(t *testing.T) (*Server, *fixture.Provider) {
	t.Helper()
	fx, err := fixture.Parse([]byte(desktop))
	require.NoError(t, err)
	p := fixture.New(fx)
	t.Cleanup(func() { _ = p.Close() })
	in, err := axnav.New(p)
	require.NoError(t, err)
	t.Cleanup(in.Close)
	return NewServer(in), p
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, text(t, res))
	var v T
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &v))
	return v
}

func TestListApplications(t *testing.T) {
	s, _ := setup(t)
	res, err := s.handleListApplications(context.Background(), call("list_applications", nil))
	require.NoError(t, err)
	apps := decode[[]domain.AppInfo](t, res)
	require.Len(t, apps, 1)
	assert.Equal(t, 101, apps[0].PID)
}

func TestGetTree(t *testing.T) {
	s, _ := setup(t)
	res, err := s.handleGetTree(context.Background(), call("get_tree", map[string]any{"pid": float64(101)}))
	require.NoError(t, err)
	root := decode[tree.View](t, res)
	require.Len(t, root.Children, 1)
	assert.Len(t, root.Children[0].Children, 2)

	res, err = s.handleGetTree(context.Background(), call("get_tree", map[string]any{"pid": float64(101), "depth": float64(1 << 20)}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "depth past the limit is rejected even with the root loaded")
	assert.Contains(t, text(t, res), "invalid-argument")

	res, err = s.handleGetTree(context.Background(), call("get_tree", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "invalid-argument")
}

func TestFindAndResolve(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()

	res, err := s.handleFindElements(ctx, call("find_elements", map[string]any{"pid": float64(101), "role": "text"}))
	require.NoError(t, err)
	found := decode[[]tree.View](t, res)
	require.Len(t, found, 1)
	assert.Equal(t, "AXApplication[TextEdit]/AXWindow[Main]/AXTextField[Name]", found[0].Path)

	res, err = s.handleResolvePath(ctx, call("resolve_path", map[string]any{"pid": float64(101), "path": "AXWindow[Main]/AXTextField[Name]"}))
	require.NoError(t, err)
	el := decode[tree.ElementView](t, res)
	v, err := el.Attributes["AXValue"].AsString()
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)

	res, err = s.handleResolvePath(ctx, call("resolve_path", map[string]any{"pid": float64(101), "path": "AXWindow[Gone]"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "hint: element may have been removed")
}

func TestPerformAction(t *testing.T) {
	s, p := setup(t)
	ctx := context.Background()

	res, err := s.handlePerformAction(ctx, call("perform_action", map[string]any{
		"pid": float64(101), "path": "AXWindow[Main]/AXButton[OK]", "action": "AXPress",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError, text(t, res))
	require.Len(t, p.Performed(), 1)
	assert.Equal(t, "AXPress", p.Performed()[0].Action)

	res, err = s.handlePerformAction(ctx, call("perform_action", map[string]any{
		"pid": float64(101), "path": "AXWindow[Main]/AXButton[OK]", "action": "AXExplode",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Len(t, p.Performed(), 1)
}

func TestNavigate(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()
	nav := func(command string) map[string]any {
		res, err := s.handleNavigate(ctx, call("navigate", map[string]any{"session": "agent", "command": command}))
		require.NoError(t, err)
		return decode[map[string]any](t, res)
	}

	assert.Equal(t, "browsing", nav("open 101")["state"])
	assert.Equal(t, "AXApplication[TextEdit]/AXWindow[Main]", nav("1")["selection"])
	assert.Contains(t, nav("help")["help"], "# Commands")
	assert.NotNil(t, nav("execute 9")["error"])
	assert.Equal(t, "terminated", nav("quit")["state"])

	res, err := s.handleNavigate(ctx, call("navigate", map[string]any{"command": "apps"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestToolsAreRegistered(t *testing.T) {
	s, _ := setup(t)
	msg := s.mcpServer.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	for _, name := range []string{"list_applications", "get_tree", "find_elements", "resolve_path", "perform_action", "navigate"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}
