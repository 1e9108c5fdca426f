package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/axnav"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/governor"
	"github.com/aretw0/axnav/pkg/navigator"
	"github.com/aretw0/axnav/pkg/runner"
	"github.com/aretw0/axnav/pkg/tree"
	"github.com/go-chi/chi/v5"
)

// DefaultDepth is how many levels GET /apps/{pid}/tree returns when no
// depth is given.
const DefaultDepth = 2

// Inspector is the part of axnav.Inspector the API serves.
type Inspector interface {
	navigator.Inspector
	Materialize(ctx context.Context, root *tree.Node, depth int) error
	Describe(ctx context.Context, n *tree.Node) (tree.ElementView, error)
	Governor() *governor.Governor
}

// Server holds the inspector and the navigator sessions opened over the API.
type Server struct {
	Inspector Inspector
	Streams   *StreamManager
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler

	sessions *navigator.Sessions
}

// NewServer creates a server. Register Streams.Hooks() with the inspector
// to feed GET /events.
func NewServer(insp Inspector) *Server {
	return &Server{
		Inspector: insp,
		Streams:   NewStreamManager(),
		sessions:  navigator.NewSessions(insp, slog.Default()),
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.Health)
	r.Get("/info", s.Info)
	r.Get("/apps", s.ListApplications)
	r.Route("/apps/{pid}", func(r chi.Router) {
		r.Get("/tree", s.Tree)
		r.Get("/find", s.Find)
		r.Get("/element", s.Element)
		r.Post("/actions", s.Perform)
	})
	r.Post("/navigator", s.Navigate)
	r.Get("/events", s.SubscribeEvents)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health reports liveness and whether the governor is refusing calls.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	st := s.Inspector.Governor().State()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"degraded":    st.Degraded,
		"in_flight":   st.InFlight,
		"cpu_percent": st.LastSample,
	})
}

func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": axnav.Version})
}

func (s *Server) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.Inspector.Applications(r.Context())
	if err != nil {
		slog.Warn("list applications failed", "err", err)
		writeError(w, err)
		return
	}
	if apps == nil {
		apps = []domain.AppInfo{}
	}
	writeJSON(w, http.StatusOK, apps)
}

// Tree returns the application root materialized depth levels deep.
// Subtrees that fail to load are returned unexpanded.
func (s *Server) Tree(w http.ResponseWriter, r *http.Request) {
	root, ok := s.root(w, r)
	if !ok {
		return
	}
	depth, err := intParam(r, "depth", DefaultDepth)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Inspector.Materialize(r.Context(), root, depth); err != nil {
		if !root.ChildrenLoaded() || errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, err)
			return
		}
		slog.Debug("partial tree", "root", root.Label(), "err", err)
	}
	writeJSON(w, http.StatusOK, tree.ViewOf(root, depth))
}

func (s *Server) Find(w http.ResponseWriter, r *http.Request) {
	root, ok := s.root(w, r)
	if !ok {
		return
	}
	depth, err := intParam(r, "depth", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	nodes, err := s.Inspector.Find(r.Context(), root, q.Get("role"), q.Get("title"), depth)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]tree.View, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, tree.ViewOf(n, 0))
	}
	writeJSON(w, http.StatusOK, views)
}

// Element returns the node at ?path= with its actions and attributes.
// Without a path it describes the application root.
func (s *Server) Element(w http.ResponseWriter, r *http.Request) {
	n, ok := s.resolve(w, r, r.URL.Query().Get("path"))
	if !ok {
		return
	}
	view, err := s.Inspector.Describe(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PerformRequest is the body of POST /apps/{pid}/actions.
type PerformRequest struct {
	Path   string `json:"path"`
	Action string `json:"action"`
}

func (s *Server) Perform(w http.ResponseWriter, r *http.Request) {
	var body PerformRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.Invalidf("perform", "invalid request body: %v", err))
		return
	}
	n, ok := s.resolve(w, r, body.Path)
	if !ok {
		return
	}
	if err := s.Inspector.Perform(r.Context(), n, body.Action); err != nil {
		slog.Warn("perform failed", "element", n.Label(), "action", body.Action, "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"performed": body.Action, "path": tree.PathOf(n)})
}

// NavigateRequest is the body of POST /navigator. Each session id owns an
// independent navigator; quit ends it.
type NavigateRequest struct {
	Session string `json:"session"`
	Command string `json:"command"`
}

func (s *Server) Navigate(w http.ResponseWriter, r *http.Request) {
	var body NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.Invalidf("navigate", "invalid request body: %v", err))
		return
	}
	if body.Session == "" {
		writeError(w, domain.Invalidf("navigate", "session is required"))
		return
	}
	line, err := runner.SanitizeInput(body.Command)
	if err != nil {
		writeError(w, domain.Invalidf("navigate", "%v", err))
		return
	}

	resp := s.sessions.Execute(r.Context(), body.Session, line)
	writeJSON(w, http.StatusOK, runner.NewWireResponse(resp))
}

// Sessions returns the number of open navigator sessions.
func (s *Server) Sessions() int {
	return s.sessions.Len()
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		slog.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) (*tree.Node, bool) {
	pid, err := strconv.Atoi(chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, domain.Invalidf("open application", "pid must be a number"))
		return nil, false
	}
	root, err := s.Inspector.Application(r.Context(), pid)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return root, true
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request, path string) (*tree.Node, bool) {
	root, ok := s.root(w, r)
	if !ok || path == "" {
		return root, ok
	}
	n, err := s.Inspector.Resolve(r.Context(), root, path)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return n, true
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, domain.Invalidf("query", "%s must be a non-negative number", name)
	}
	return v, nil
}

var _ Inspector = (*axnav.Inspector)(nil)
