package server

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// SessionMetrics receives session count changes. *instrumentation.Metrics implements it.
type SessionMetrics interface {
	IncrementActiveSessions(ctx context.Context)
	DecrementActiveSessions(ctx context.Context)
}

// SessionTracker keeps track of connected MCP client sessions.
// It is driven by the mcp-go register/unregister session hooks.
type SessionTracker struct {
	sessions map[string]time.Time // Maps session ID to registration time
	mu       sync.RWMutex
	metrics  SessionMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionTracker creates a new session tracker. metrics may be nil.
func NewSessionTracker(metrics SessionMetrics, logger *slog.Logger) *SessionTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionTracker{
		sessions: make(map[string]time.Time),
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Hooks returns mcp-go hooks that feed the tracker. Pass them to the MCP
// server with mcpserver.WithHooks.
func (t *SessionTracker) Hooks() *mcpserver.Hooks {
	hooks := &mcpserver.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		t.Register(ctx, session.SessionID())
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		t.Unregister(ctx, session.SessionID())
	})
	return hooks
}

// Register records a new session. Registering a known session is a no-op.
func (t *SessionTracker) Register(ctx context.Context, sessionID string) {
	t.mu.Lock()
	if _, ok := t.sessions[sessionID]; ok {
		t.mu.Unlock()
		return
	}
	t.sessions[sessionID] = t.now()
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.IncrementActiveSessions(ctx)
	}
	t.logger.Debug("session registered", "session_id", sessionID)
}

// Unregister removes a session. Unknown sessions are ignored.
func (t *SessionTracker) Unregister(ctx context.Context, sessionID string) {
	t.mu.Lock()
	started, ok := t.sessions[sessionID]
	if ok {
		delete(t.sessions, sessionID)
	}
	t.mu.Unlock()

	if !ok {
		return
	}
	if t.metrics != nil {
		t.metrics.DecrementActiveSessions(ctx)
	}
	t.logger.Debug("session unregistered", "session_id", sessionID, "duration", t.now().Sub(started))
}

// Active returns the number of connected sessions.
func (t *SessionTracker) Active() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// ListSessions returns all active session IDs, sorted.
func (t *SessionTracker) ListSessions() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sessions := make([]string, 0, len(t.sessions))
	for sessionID := range t.sessions {
		sessions = append(sessions, sessionID)
	}
	sort.Strings(sessions)
	return sessions
}
