// Package rpcapi exposes the node's control surface over HTTP:
// starting and stopping the miner, and inspecting the current tip and
// longest chain. Routing uses httptreemux-style handler wiring.
package rpcapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dimfeld/httptreemux/v5"

	"empower1.com/empower1blockchain/internal/blocktree"
	"empower1.com/empower1blockchain/internal/miner"
)

// Logger is the minimal logging surface the API needs.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Server wires the node's blocktree and miner handle into an HTTP
// control API.
type Server struct {
	Tree  *blocktree.Tree
	Miner miner.Handle
	Log   Logger

	router *httptreemux.TreeMux
}

// NewServer builds the route table. Call Handler to get the
// http.Handler to serve.
func NewServer(tree *blocktree.Tree, m miner.Handle, log Logger) *Server {
	s := &Server{Tree: tree, Miner: m, Log: log, router: httptreemux.New()}
	s.router.POST("/v1/miner/start", s.handleMinerStart)
	s.router.POST("/v1/miner/exit", s.handleMinerExit)
	s.router.GET("/v1/tip", s.handleTip)
	s.router.GET("/v1/chain", s.handleChain)
	return s
}

// Handler returns the http.Handler to mount on a listener.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Errorf("rpcapi: failed to encode response: %v", err)
	}
}

// handleMinerStart starts continuous mining. The optional
// ?lambda_ms=N query parameter sets the per-attempt pacing; 0 (the
// default) mines as fast as possible.
func (s *Server) handleMinerStart(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	lambda := time.Duration(0)
	if raw := r.URL.Query().Get("lambda_ms"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lambda_ms"})
			return
		}
		lambda = time.Duration(ms) * time.Millisecond
	}
	s.Miner.Start(lambda)
	s.Log.Infof("rpcapi: miner started with lambda=%s", lambda)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleMinerExit(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	s.Miner.Exit()
	s.Log.Infof("rpcapi: miner exit requested")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "exiting"})
}

func (s *Server) handleTip(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	tip := s.Tree.Tip()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"tip":    tip.String(),
		"length": s.Tree.LengthOfLongestChain(),
	})
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	hashes := s.Tree.BlocksInLongestChain()
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = h.String()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"chain": out})
}
