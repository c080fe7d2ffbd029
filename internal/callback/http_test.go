package callback

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeResolver struct {
	pending map[string]bool
	resolved map[string]bool
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{pending: map[string]bool{}, resolved: map[string]bool{}}
}

func (f *fakeResolver) Resolve(id string, approved bool) bool {
	if !f.pending[id] {
		return false
	}
	delete(f.pending, id)
	f.resolved[id] = approved
	return true
}

func (f *fakeResolver) Pending(id string) bool { return f.pending[id] }
func (f *fakeResolver) Snapshot() int           { return len(f.pending) }

func TestHealthEndpoint(t *testing.T) {
	r := newFakeResolver()
	r.pending["a"] = true
	srv := NewHTTPServer("127.0.0.1:0", r)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected status field: %v", body["status"])
	}
}

func TestCallbackResolvesPending(t *testing.T) {
	r := newFakeResolver()
	r.pending["0123456789abcdef"] = true
	srv := NewHTTPServer("127.0.0.1:0", r)

	body, _ := json.Marshal(map[string]any{"requestId": "0123456789abcdef", "approved": true})
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["resolved"] != true {
		t.Errorf("expected resolved=true, got %v", resp)
	}
	if !r.resolved["0123456789abcdef"] {
		t.Errorf("expected id to be resolved approved")
	}
}

func TestCallbackUnknownIDIsSilentNoOp(t *testing.T) {
	r := newFakeResolver()
	srv := NewHTTPServer("127.0.0.1:0", r)

	body, _ := json.Marshal(map[string]any{"requestId": "0123456789abcdef", "approved": true})
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unknown id must not be an HTTP error, got %d", rec.Code)
	}

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["resolved"] != false {
		t.Errorf("expected resolved=false for unknown id, got %v", resp)
	}
}

func TestCallbackMissingRequestID(t *testing.T) {
	r := newFakeResolver()
	srv := NewHTTPServer("127.0.0.1:0", r)

	body, _ := json.Marshal(map[string]any{"approved": true})
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
}

func TestChannelCallbackParsesToken(t *testing.T) {
	r := newFakeResolver()
	r.pending["0123456789abcdef"] = true
	srv := NewHTTPServer("127.0.0.1:0", r)

	body, _ := json.Marshal(map[string]any{"callback_data": "ag:deny:0123456789abcdef"})
	req := httptest.NewRequest(http.MethodPost, "/channel-callback", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if approved, ok := r.resolved["0123456789abcdef"]; !ok || approved {
		t.Errorf("expected id resolved denied, got (%v, %v)", approved, ok)
	}
}

func TestOptionsPreflightIsPermissive(t *testing.T) {
	r := newFakeResolver()
	srv := NewHTTPServer("127.0.0.1:0", r)

	req := httptest.NewRequest(http.MethodOptions, "/callback", nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("got status %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("got Access-Control-Allow-Origin %q, want \"*\"", got)
	}
}
