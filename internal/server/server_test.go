package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"reverie/internal/chat"
	"reverie/internal/mind"
	"reverie/internal/model"
	"reverie/internal/store"
	"reverie/internal/types"
)

const testToken = "test-token"

type echoModel struct{}

func (echoModel) Generate(ctx context.Context, req model.Request) (string, error) {
	return "echo: " + req.Prompt, nil
}

func newTestServer(t *testing.T) (*Server, *store.Store, *chat.Runner) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	runner := chat.NewRunner()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runner.Close(ctx)
	})

	client := echoModel{}
	handler := chat.NewHandler(st, client, mind.New(st, client), runner)
	return New(handler, st, testToken, zap.NewNop()), st, runner
}

func doJSON(t *testing.T, srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestAuth_MissingOrWrongToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", "", `{"user_id":"ada","text":"hi"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/chat", "wrong", `{"user_id":"ada","text":"hi"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong token, got %d", rec.Code)
	}
}

func TestChat_RoundTrip(t *testing.T) {
	srv, st, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", testToken, `{"user_id":"ada","text":"hello there"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Reply != "echo: hello there" {
		t.Errorf("Unexpected reply: %q", resp.Reply)
	}

	count, _ := st.CountUserTurns("ada")
	if count != 1 {
		t.Errorf("Expected 1 user turn persisted, got %d", count)
	}
}

func TestChat_BadRequests(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", testToken, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/chat", testToken, `{"user_id":"ada","text":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank text, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/chat", testToken, `{"user_id":"","text":"hi"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for missing user identity, got %d", rec.Code)
	}
}

func TestPersona_Lifecycle(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/persona?user_id=ada", testToken, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before first chat, got %d", rec.Code)
	}

	doJSON(t, srv, http.MethodPost, "/v1/chat", testToken, `{"user_id":"ada","text":"hi"}`)

	rec = doJSON(t, srv, http.MethodGet, "/v1/persona?user_id=ada", testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 after first chat, got %d", rec.Code)
	}

	var resp personaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Text != mind.DefaultPersonaText {
		t.Errorf("Expected default persona, got %q", resp.Text)
	}
}

func TestDeleteMemory(t *testing.T) {
	srv, st, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/v1/chat", testToken, `{"user_id":"ada","text":"remember this"}`)

	rec := doJSON(t, srv, http.MethodDelete, "/v1/memory?user_id=ada", testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	count, _ := st.CountUserTurns("ada")
	if count != 0 {
		t.Errorf("Expected turns erased, got %d", count)
	}
	persona, _ := st.GetPersona("ada")
	if persona != nil {
		t.Error("Expected persona erased")
	}
	if snaps, _ := st.CountSnapshots("ada", types.KindDaydream); snaps != 0 {
		t.Errorf("Expected archive erased, got %d", snaps)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/v1/memory", testToken, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without user_id, got %d", rec.Code)
	}
}
