package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayumi-hirano/schedcal/internal/session"
	"github.com/ayumi-hirano/schedcal/libs/auth"
	"github.com/ayumi-hirano/schedcal/libs/kv"
)

const testSecret = "test-secret"

type testEnv struct {
	store    *kv.MemoryStore
	registry *session.Registry
	signer   TokenSigner
	auth     *AuthHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := kv.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := session.NewRegistry(store, logger)
	signer := NewHS256Signer(testSecret)
	return &testEnv{
		store:    store,
		registry: registry,
		signer:   signer,
		auth:     NewAuthHandler(signer, store, registry, 24*time.Hour),
	}
}

// token issues an access token for a fixed test identity, bypassing the
// register flow.
func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	now := time.Now()
	token, err := e.signer.Sign(auth.Claims{
		Sub:   userID,
		Email: userID + "@example.com",
		Iat:   now.Unix(),
		Exp:   now.Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	return httptest.NewRequest(method, target, &buf)
}

func authedRequest(t *testing.T, e *testEnv, method, target string, body any, userID string) *http.Request {
	t.Helper()
	r := jsonRequest(t, method, target, body)
	r.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	return r
}

// do routes the request through RequireAuth like the real mux does.
func do(e *testEnv, handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	RequireAuth(e.signer, handler)(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}
