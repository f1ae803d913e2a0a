// Package protocol defines the API request/response types.
package protocol

import (
	"time"

	"github.com/termfolio/termfolio/internal/output"
	"github.com/termfolio/termfolio/internal/vfs"
)

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// SessionResponse is returned by POST /api/v1/session
type SessionResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	SessionID string        `json:"session_id"`
	Prompt    string        `json:"prompt"`
	Banner    []output.Line `json:"banner"`
}

// ExecRequest is the body for POST /api/v1/exec
type ExecRequest struct {
	Line string `json:"line"`
}

// InputRequest is the body for POST /api/v1/complete and /api/v1/hint
type InputRequest struct {
	Input string `json:"input"`
}

// HintResponse is returned by POST /api/v1/hint
type HintResponse struct {
	Hint string `json:"hint"`
	OK   bool   `json:"ok"`
}

// KeyRequest is the body for POST /api/v1/key. Key is one of tab, right,
// up, down, escape, ctrl+c, type or other.
type KeyRequest struct {
	Key   string `json:"key"`
	Input string `json:"input"`
}

// ViewRequest is the body for POST /api/v1/view
type ViewRequest struct {
	View string `json:"view"`
}

// HistoryResponse is returned by GET /api/v1/history
type HistoryResponse struct {
	History []string      `json:"history"`
	Output  []output.Line `json:"output"`
}

// TreeResponse is returned by GET /api/v1/tree/{mount}. Count is the
// number of entries below Root.
type TreeResponse struct {
	Mount string    `json:"mount"`
	Root  *vfs.Node `json:"root"`
	Count int       `json:"count"`
}

// RemountResponse is returned by POST /api/v1/remount
type RemountResponse struct {
	Mounts map[string]int `json:"mounts"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Mounts   int    `json:"mounts"`
}

// WalletRequest is the body for POST /api/v1/wallet
type WalletRequest struct {
	Address string `json:"address"`
	ChainID uint64 `json:"chain_id,omitempty"`
	ENS     string `json:"ens,omitempty"`
}
