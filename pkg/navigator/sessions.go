package navigator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/axnav/internal/logging"
)

// Sessions keeps one navigator per client-chosen id, for surfaces where
// many users browse through the same inspector.
type Sessions struct {
	insp   Inspector
	logger *slog.Logger

	mu   sync.Mutex
	navs map[string]*Navigator
}

// NewSessions creates an empty registry over insp.
func NewSessions(insp Inspector, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sessions{insp: insp, logger: logger, navs: make(map[string]*Navigator)}
}

// Execute runs line in the session named id, starting it if needed. A
// session that quits is forgotten; the next command under its id starts
// over.
func (s *Sessions) Execute(ctx context.Context, id, line string) Response {
	nav := s.get(id)
	resp := nav.Execute(ctx, line)
	if resp.State == Terminated {
		s.mu.Lock()
		if s.navs[id] == nav {
			delete(s.navs, id)
		}
		s.mu.Unlock()
		s.logger.Info("navigator session ended", "session", id)
	}
	return resp
}

func (s *Sessions) get(id string) *Navigator {
	s.mu.Lock()
	defer s.mu.Unlock()
	nav, ok := s.navs[id]
	if !ok {
		nav = New(s.insp, WithLogger(s.logger.With("session", id)))
		s.navs[id] = nav
		s.logger.Info("navigator session started", "session", id)
	}
	return nav
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.navs)
}
