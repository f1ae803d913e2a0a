package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/termfolio/termfolio/internal/logging"
	"github.com/termfolio/termfolio/internal/protocol"
	"github.com/termfolio/termfolio/internal/session"
	"github.com/termfolio/termfolio/internal/wallet"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context(), r.UserAgent())
	if err != nil {
		logging.WithContext(r.Context()).Error("create session", zap.Error(err))
		s.sendError(w, http.StatusServiceUnavailable, "could not create session")
		return
	}

	token, expires, err := s.auth.Issue(sess.ID(), false)
	if err != nil {
		s.endSession(r.Context(), sess.ID())
		logging.WithContext(r.Context()).Error("issue token", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	banner := sess.Banner(r.Context())
	s.respond(w, r, http.StatusCreated, protocol.SessionResponse{
		Token:     token,
		ExpiresAt: expires,
		SessionID: sess.ID(),
		Prompt:    sess.Snapshot().Prompt,
		Banner:    banner,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.writeJSON(w, r, sess.Snapshot())
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.endSession(r.Context(), sess.ID())
	w.WriteHeader(http.StatusNoContent)
}

// endSession drops the session. Failing to clear its variables is logged,
// not reported to the client.
func (s *Server) endSession(ctx context.Context, id string) {
	if err := s.sessions.End(ctx, id); err != nil {
		logging.WithContext(ctx).Warn("end session", zap.String("session", id), zap.Error(err))
	}
}

func (s *Server) handleExec(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req protocol.ExecRequest
	if err := decode(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.writeJSON(w, r, sess.Submit(r.Context(), req.Line))
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req protocol.InputRequest
	if err := decode(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.writeJSON(w, r, sess.Complete(req.Input))
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req protocol.InputRequest
	if err := decode(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	hint, ok := sess.Hint(req.Input)
	s.writeJSON(w, r, protocol.HintResponse{Hint: hint, OK: ok})
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req protocol.KeyRequest
	if err := decode(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reply, err := sess.Key(session.Key(req.Key), req.Input)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, r, reply)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req protocol.ViewRequest
	if err := decode(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := session.ParseView(req.View)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.SetView(view)
	s.writeJSON(w, r, sess.Snapshot())
}

// handleWallet records a wallet the browser connected itself. An empty
// address disconnects.
func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req protocol.WalletRequest
	if err := decode(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Address == "" {
		sess.SetWallet(wallet.Guest())
		s.writeJSON(w, r, sess.Snapshot())
		return
	}
	state, err := wallet.Connect(req.Address, req.ENS, req.ChainID)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.SetWallet(state)
	s.writeJSON(w, r, sess.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	snap := sess.Snapshot()
	s.writeJSON(w, r, protocol.HistoryResponse{History: snap.History, Output: snap.Output})
}
