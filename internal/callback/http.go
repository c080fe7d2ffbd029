// Package callback implements the two asynchronous callback ingresses
// described in spec.md §4.8 and §4.9: a loopback HTTP listener and a
// filesystem drop-directory poller, both converging on the pending
// request registry's Resolve.
package callback

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
)

// Resolver is the single rendezvous every callback ingress converges
// on, per spec.md §9. It is satisfied by *registry.Registry.
type Resolver interface {
	Resolve(id string, approved bool) bool
	Pending(id string) bool
	Snapshot() int
}

// HTTPServer is the loopback-only HTTP callback listener (spec.md §4.8).
//
// Grounded on haasonsaas-nexus's internal/gateway/http_server.go
// stdlib net/http.ServeMux + graceful Shutdown pattern.
type HTTPServer struct {
	addr     string
	resolver Resolver
	server   *http.Server
}

// NewHTTPServer returns an HTTPServer bound to addr (expected to be a
// 127.0.0.1 address; Start refuses to bind a non-loopback interface).
func NewHTTPServer(addr string, resolver Resolver) *HTTPServer {
	s := &HTTPServer{addr: addr, resolver: resolver}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/callback", s.handleCallback)
	mux.HandleFunc("/channel-callback", s.handleChannelCallback)

	s.server = &http.Server{
		Addr:    addr,
		Handler: withCORS(mux),
	}
	return s
}

// Start begins serving in the background. It returns once the
// listener is bound (or an error if binding fails, or if addr is not a
// loopback address).
func (s *HTTPServer) Start(ctx context.Context) error {
	host, _, err := net.SplitHostPort(s.addr)
	if err != nil {
		return fmt.Errorf("callback: http addr %s: %w", s.addr, err)
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return fmt.Errorf("callback: http addr %s is not a loopback address", s.addr)
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("callback: http listen %s: %w", s.addr, err)
	}
	go func() { _ = s.server.Serve(ln) }()
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"pending": s.resolver.Snapshot(),
	})
}

type callbackBody struct {
	RequestID string `json:"requestId"`
	Approved  *bool  `json:"approved"`
}

func (s *HTTPServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var body callbackBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if body.RequestID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing requestId"})
		return
	}
	if body.Approved == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing approved"})
		return
	}

	resolved := s.resolver.Resolve(body.RequestID, *body.Approved)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "resolved": resolved})
}

type channelCallbackBody struct {
	CallbackData string `json:"callback_data"`
}

func (s *HTTPServer) handleChannelCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var body channelCallbackBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}

	id, approved, ok := ParseToken(body.CallbackData)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid callback_data"})
		return
	}

	resolved := s.resolver.Resolve(id, approved)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "resolved": resolved})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
