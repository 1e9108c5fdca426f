package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/axnav"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/navigator"
	"github.com/aretw0/axnav/pkg/runner"
	"github.com/aretw0/axnav/pkg/tree"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// DefaultTreeDepth is how many levels get_tree returns when no depth is
// given.
const DefaultTreeDepth = 2

// Inspector is the part of axnav.Inspector the MCP server drives.
type Inspector interface {
	navigator.Inspector
	Materialize(ctx context.Context, root *tree.Node, depth int) error
	Describe(ctx context.Context, n *tree.Node) (tree.ElementView, error)
}

var _ Inspector = (*axnav.Inspector)(nil)

// Server wraps the inspector and exposes it as an MCP Server.
type Server struct {
	insp      Inspector
	sessions  *navigator.Sessions
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(insp Inspector) *Server {
	s := &Server{
		insp:      insp,
		sessions:  navigator.NewSessions(insp, slog.Default()),
		mcpServer: server.NewMCPServer("axnav-mcp", strings.TrimSpace(axnav.Version), server.WithToolCapabilities(false)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_applications",
		mcp.WithDescription("List the running applications that can be inspected."),
	), s.handleListApplications)

	s.mcpServer.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Return an application's UI tree, loading it a few levels deep."),
		mcp.WithNumber("pid", mcp.Required(), mcp.Description("Process id of the application")),
		mcp.WithNumber("depth", mcp.Description("Levels to load below the root (default 2)")),
	), s.handleGetTree)

	s.mcpServer.AddTool(mcp.NewTool("find_elements",
		mcp.WithDescription("Find elements whose role or title contains the given text, case-insensitively."),
		mcp.WithNumber("pid", mcp.Required(), mcp.Description("Process id of the application")),
		mcp.WithString("role", mcp.Description("Role substring, e.g. button")),
		mcp.WithString("title", mcp.Description("Title substring")),
		mcp.WithNumber("depth", mcp.Description("Maximum search depth")),
	), s.handleFindElements)

	s.mcpServer.AddTool(mcp.NewTool("resolve_path",
		mcp.WithDescription("Describe the element at a role[title]/role[title] path below the application root, with its actions and attributes."),
		mcp.WithNumber("pid", mcp.Required(), mcp.Description("Process id of the application")),
		mcp.WithString("path", mcp.Description("Path below the root; empty describes the root")),
	), s.handleResolvePath)

	s.mcpServer.AddTool(mcp.NewTool("perform_action",
		mcp.WithDescription("Perform an action such as AXPress on the element at a path. Actions are never retried."),
		mcp.WithNumber("pid", mcp.Required(), mcp.Description("Process id of the application")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path below the application root")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name, e.g. AXPress")),
	), s.handlePerformAction)

	s.mcpServer.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Run one interactive navigator command (apps, open <pid>, <n>, expand, goto <path>, ...) in a named session."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session id; each id keeps its own selection")),
		mcp.WithString("command", mcp.Required(), mcp.Description("Navigator command line; help lists them")),
	), s.handleNavigate)
}

func (s *Server) handleListApplications(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apps, err := s.insp.Applications(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if apps == nil {
		apps = []domain.AppInfo{}
	}
	return jsonResult(apps)
}

func (s *Server) handleGetTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.root(ctx, request)
	if err != nil {
		return toolError(err), nil
	}
	depth := request.GetInt("depth", DefaultTreeDepth)
	if depth < 0 {
		return toolError(domain.Invalidf("get_tree", "depth must not be negative")), nil
	}
	if err := s.insp.Materialize(ctx, root, depth); err != nil {
		if !root.ChildrenLoaded() || errors.Is(err, domain.ErrInvalidArgument) {
			return toolError(err), nil
		}
		slog.Debug("MCP get_tree: partial tree", "root", root.Label(), "err", err)
	}
	return jsonResult(tree.ViewOf(root, depth))
}

func (s *Server) handleFindElements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.root(ctx, request)
	if err != nil {
		return toolError(err), nil
	}
	nodes, err := s.insp.Find(ctx, root, request.GetString("role", ""), request.GetString("title", ""), request.GetInt("depth", 0))
	if err != nil {
		return toolError(err), nil
	}
	views := make([]tree.View, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, tree.ViewOf(n, 0))
	}
	return jsonResult(views)
}

func (s *Server) handleResolvePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.resolve(ctx, request)
	if err != nil {
		return toolError(err), nil
	}
	view, err := s.insp.Describe(ctx, n)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(view)
}

func (s *Server) handlePerformAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := request.RequireString("action")
	if err != nil {
		return toolError(domain.Invalidf("perform_action", "%v", err)), nil
	}
	n, err := s.resolve(ctx, request)
	if err != nil {
		return toolError(err), nil
	}
	if err := s.insp.Perform(ctx, n, action); err != nil {
		slog.Warn("MCP perform_action failed", "element", n.Label(), "action", action, "err", err)
		return toolError(err), nil
	}
	return jsonResult(map[string]string{"performed": action, "path": tree.PathOf(n)})
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := request.RequireString("session")
	if err != nil || session == "" {
		return toolError(domain.Invalidf("navigate", "session is required")), nil
	}
	line, err := runner.SanitizeInput(request.GetString("command", ""))
	if err != nil {
		slog.Warn("MCP navigate: input rejected", "err", err)
		return toolError(domain.Invalidf("navigate", "%v", err)), nil
	}

	return jsonResult(runner.NewWireResponse(s.sessions.Execute(ctx, session, line)))
}

func (s *Server) root(ctx context.Context, request mcp.CallToolRequest) (*tree.Node, error) {
	pid, err := request.RequireInt("pid")
	if err != nil {
		return nil, domain.Invalidf("open application", "%v", err)
	}
	return s.insp.Application(ctx, pid)
}

func (s *Server) resolve(ctx context.Context, request mcp.CallToolRequest) (*tree.Node, error) {
	root, err := s.root(ctx, request)
	if err != nil {
		return nil, err
	}
	path := request.GetString("path", "")
	if path == "" {
		return root, nil
	}
	return s.insp.Resolve(ctx, root, path)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("axnav://applications", "Running applications",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		apps, err := s.insp.Applications(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list applications: %w", err)
		}
		data, err := json.Marshal(apps)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "axnav://applications",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError reports err to the agent with its recovery hint.
func toolError(err error) *mcp.CallToolResult {
	text := err.Error()
	if hint := domain.HintFor(err); hint != "" {
		text += " (hint: " + hint + ")"
	}
	return mcp.NewToolResultError(text)
}
