package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	password := "pass123"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	e := newTestEnv(t)

	w := httptest.NewRecorder()
	e.auth.Register(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", registerRequest{
		Email:    "Hana@Example.com",
		Password: "pass123",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[loginResponse](t, w)
	if created.AccessToken == "" || created.RefreshToken == "" || created.TokenType != "Bearer" {
		t.Fatalf("unexpected register response: %+v", created)
	}

	// Email lookup is case-insensitive via normalization.
	w = httptest.NewRecorder()
	e.auth.Login(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", loginRequest{
		Email:    "hana@example.com",
		Password: "pass123",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	e.auth.Login(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", loginRequest{
		Email:    "hana@example.com",
		Password: "wrong",
	}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newTestEnv(t)

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		w := httptest.NewRecorder()
		e.auth.Register(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", registerRequest{
			Email:    "hana@example.com",
			Password: "pass123",
		}))
		if w.Code != want {
			t.Fatalf("attempt %d: expected %d, got %d", i, want, w.Code)
		}
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	e := newTestEnv(t)

	w := httptest.NewRecorder()
	e.auth.Register(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", registerRequest{
		Email:    "hana@example.com",
		Password: "pass123",
	}))
	first := decode[loginResponse](t, w)

	w = httptest.NewRecorder()
	e.auth.Refresh(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh", refreshRequest{
		RefreshToken: first.RefreshToken,
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	second := decode[loginResponse](t, w)
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected refresh token to rotate")
	}

	// The old token is single use.
	w = httptest.NewRecorder()
	e.auth.Refresh(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh", refreshRequest{
		RefreshToken: first.RefreshToken,
	}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for reused refresh token, got %d", w.Code)
	}
}

func TestLogoutRevokesAndEvicts(t *testing.T) {
	e := newTestEnv(t)

	w := httptest.NewRecorder()
	e.auth.Register(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", registerRequest{
		Email:    "hana@example.com",
		Password: "pass123",
	}))
	creds := decode[loginResponse](t, w)

	claims, err := e.signer.Verify(creds.AccessToken)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if _, err := e.registry.Get(t.Context(), claims.Sub); err != nil {
		t.Fatalf("load session: %v", err)
	}

	w = httptest.NewRecorder()
	e.auth.Logout(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/logout", logoutRequest{
		RefreshToken: creds.RefreshToken,
	}))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if e.registry.Active(claims.Sub) {
		t.Fatal("expected session evicted on logout")
	}

	// Logout with an unknown token still succeeds.
	w = httptest.NewRecorder()
	e.auth.Logout(w, jsonRequest(t, http.MethodPost, "/api/v1/auth/logout", logoutRequest{
		RefreshToken: "does-not-exist",
	}))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for unknown token, got %d", w.Code)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	e := newTestEnv(t)

	w := httptest.NewRecorder()
	RequireAuth(e.signer, e.auth.Me)(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	r := authedRequest(t, e, http.MethodGet, "/api/v1/auth/me", nil, "user-1")
	w = do(e, e.auth.Me, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	me := decode[meResponse](t, w)
	if me.UserID != "user-1" {
		t.Fatalf("expected user-1, got %q", me.UserID)
	}
}
