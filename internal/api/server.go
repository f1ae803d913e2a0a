// Package api provides the HTTP server and handlers.
package api

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/termfolio/termfolio/internal/auth"
	"github.com/termfolio/termfolio/internal/events"
	"github.com/termfolio/termfolio/internal/logging"
	"github.com/termfolio/termfolio/internal/metrics"
	"github.com/termfolio/termfolio/internal/protocol"
	"github.com/termfolio/termfolio/internal/quota"
	"github.com/termfolio/termfolio/internal/session"
	"github.com/termfolio/termfolio/internal/vfs"
	"github.com/termfolio/termfolio/webapp"
)

const maxBodySize = 64 << 10

// Pool gzip writers to reduce allocations on tree and exec responses.
var gzipPool = sync.Pool{
	New: func() any { return gzip.NewWriter(nil) },
}

// Server is the HTTP server.
type Server struct {
	sessions *session.Manager
	auth     *auth.Auth

	// SSE
	broadcaster *events.Broadcaster

	// nil disables POST /api/v1/remount
	reload session.Loader

	// nil means unlimited
	limiter *quota.RateLimiter
}

// NewServer creates a new server. broadcaster and reload may be nil.
func NewServer(
	sessions *session.Manager,
	authHandler *auth.Auth,
	broadcaster *events.Broadcaster,
	reload session.Loader,
) *Server {
	return &Server{
		sessions:    sessions,
		auth:        authHandler,
		broadcaster: broadcaster,
		reload:      reload,
	}
}

// SetRateLimiter limits the session endpoints per session.
func (s *Server) SetRateLimiter(l *quota.RateLimiter) {
	s.limiter = l
}

// sessionHandler serves a request bound to a live session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// Handler returns the HTTP handler with all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/session", s.handleCreateSession)
	mux.HandleFunc("POST /api/v1/admin/token", s.auth.HandleAdminLogin)

	// Web terminal (no auth, the app creates its session via API)
	appFS, _ := fs.Sub(webapp.Assets, ".")
	mux.Handle("/app/", http.StripPrefix("/app/", http.FileServer(http.FS(appFS))))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/app/", http.StatusMovedPermanently)
	})

	// Session endpoints
	mux.Handle("GET /api/v1/session", s.withSession(s.handleGetSession))
	mux.Handle("DELETE /api/v1/session", s.withSession(s.handleEndSession))
	mux.Handle("POST /api/v1/exec", s.withSession(s.handleExec))
	mux.Handle("POST /api/v1/complete", s.withSession(s.handleComplete))
	mux.Handle("POST /api/v1/hint", s.withSession(s.handleHint))
	mux.Handle("POST /api/v1/key", s.withSession(s.handleKey))
	mux.Handle("POST /api/v1/view", s.withSession(s.handleView))
	mux.Handle("POST /api/v1/wallet", s.withSession(s.handleWallet))
	mux.Handle("GET /api/v1/history", s.withSession(s.handleHistory))

	// Read endpoints
	mux.Handle("GET /api/v1/mounts", s.auth.Middleware(http.HandlerFunc(s.handleMounts)))
	mux.Handle("GET /api/v1/tree/{mount}", s.auth.Middleware(http.HandlerFunc(s.handleTree)))

	// SSE endpoint
	mux.Handle("GET /api/v1/events", s.auth.Middleware(http.HandlerFunc(s.handleEvents)))

	// Admin endpoints
	mux.Handle("POST /api/v1/remount", s.auth.Middleware(auth.RequireAdmin(http.HandlerFunc(s.handleRemount))))

	// Apply logging and metrics middleware
	return logging.Middleware(metrics.Middleware(mux))
}

// withSession requires a token and looks up the session it is bound to.
// Each session is charged against the rate limiter.
func (s *Server) withSession(h sessionHandler) http.Handler {
	limit := quota.Middleware(s.limiter, sessionKey)
	return s.auth.Middleware(limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.GetClaims(r.Context())
		if claims == nil || claims.SessionID == "" {
			s.sendError(w, http.StatusForbidden, "token is not bound to a session")
			return
		}
		sess, ok := s.sessions.Get(claims.SessionID)
		if !ok {
			s.sendError(w, http.StatusNotFound, "session expired or ended")
			return
		}
		h(w, r.WithContext(logging.WithSession(r.Context(), sess.ID())), sess)
	})))
}

func sessionKey(r *http.Request) (string, bool) {
	claims := auth.GetClaims(r.Context())
	if claims == nil || claims.SessionID == "" {
		return "", false
	}
	return claims.SessionID, true
}

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, protocol.HealthResponse{
		Status:   "ok",
		Sessions: s.sessions.Count(),
		Mounts:   len(s.sessions.Mounts().Aliases()),
	})
}

// ─── SSE Events ─────────────────────────────────────────────────────────────

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.broadcaster == nil {
		s.sendError(w, http.StatusNotImplemented, "events not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Subscribe first so nothing published after the headers is missed.
	// A reconnecting client names the last event it saw.
	claims := auth.GetClaims(r.Context())
	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)
	ch, missed := s.broadcaster.SubscribeSince(lastID)
	defer s.broadcaster.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	for _, event := range missed {
		writeEvent(w, event, claims)
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if writeEvent(w, event, claims) {
				flusher.Flush()
			}
		}
	}
}

// writeEvent writes one SSE frame and reports whether it wrote anything.
func writeEvent(w http.ResponseWriter, event events.Event, claims *auth.Claims) bool {
	if !visible(event, claims) {
		return false
	}
	data, err := events.MarshalEvent(event)
	if err != nil {
		return false
	}
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.ID, event.Type, data)
	return true
}

// visible hides other visitors' session events from non-admin tokens.
func visible(e events.Event, claims *auth.Claims) bool {
	if e.Session == "" || claims == nil || claims.Admin {
		return true
	}
	return e.Session == claims.SessionID
}

// ─── Mounts ─────────────────────────────────────────────────────────────────

func (s *Server) handleMounts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, protocol.RemountResponse{Mounts: s.mountCounts()})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("mount")
	fsys, ok := s.sessions.Mounts().FS(alias)
	if !ok {
		s.sendError(w, http.StatusNotFound, "no such mount: "+alias)
		return
	}
	p := r.URL.Query().Get("path")
	if p == "" {
		p = "/"
	}
	root, ok := fsys.Tree(p)
	if !ok {
		s.sendError(w, http.StatusNotFound, "no such path: "+p)
		return
	}
	resp := protocol.TreeResponse{Mount: alias, Root: root, Count: vfs.CountNodes(root) - 1}
	s.writeJSON(w, r, resp)
}

func (s *Server) handleRemount(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		s.sendError(w, http.StatusNotImplemented, "remount not configured")
		return
	}
	if err := s.sessions.Remount(r.Context(), s.reload); err != nil {
		s.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, r, protocol.RemountResponse{Mounts: s.mountCounts()})
}

func (s *Server) mountCounts() map[string]int {
	t := s.sessions.Mounts()
	counts := make(map[string]int)
	for _, alias := range t.Aliases() {
		if fsys, ok := t.FS(alias); ok {
			counts[alias] = fsys.Len()
		}
	}
	return counts
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

// decode reads a JSON body of at most maxBodySize bytes.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	s.respond(w, r, http.StatusOK, v)
}

// respond encodes v as JSON, gzipped when the client accepts it.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if !acceptsGzip(r) {
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logging.WithContext(r.Context()).Warn("write response", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Add("Vary", "Accept-Encoding")
	w.WriteHeader(code)
	gw := gzipPool.Get().(*gzip.Writer)
	gw.Reset(w)
	if err := json.NewEncoder(gw).Encode(v); err != nil {
		logging.WithContext(r.Context()).Warn("write response", zap.Error(err))
	}
	gw.Close()
	gzipPool.Put(gw)
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(protocol.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
