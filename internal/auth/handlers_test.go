package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-chirper/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	s := testutil.NewStore(t)
	gate := NewGate("test-secret", time.Hour, s)
	svc := NewService(s, gate)
	svc.cost = bcrypt.MinCost

	app := testutil.NewApp()
	RegisterRoutes(app.Group("/auth"), svc, Middleware(gate, zap.NewNop()), CookieOptions{})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return resp
}

func TestAuthHandlersRegisterLoginMe(t *testing.T) {
	app := newAuthApp(t)

	resp := postJSON(t, app, "/auth/register", RegisterRequest{Handle: "alice", Password: "secret1", Gender: "Female"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status: %d", resp.StatusCode)
	}
	var registered map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&registered)
	if _, leaked := registered["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}

	resp = postJSON(t, app, "/auth/login", LoginRequest{Handle: "alice", Password: "secret1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: %d", resp.StatusCode)
	}
	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil || tokens.Token == "" {
		t.Fatalf("expected token: %v", err)
	}

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != tokens.Token || !cookie.HttpOnly {
		t.Fatalf("expected http-only token cookie, got %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tokens.Token})
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("me status: %v %d", err, resp.StatusCode)
	}
}

func TestAuthHandlersBadRequests(t *testing.T) {
	app := newAuthApp(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for malformed body, got %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/auth/register", RegisterRequest{Handle: "alice", Password: "secret1", Gender: "Unknown"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for gender, got %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/auth/login", LoginRequest{Handle: "nobody", Password: "secret1"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized login, got %d", resp.StatusCode)
	}
}

func TestAuthMeRequiresCredential(t *testing.T) {
	app := newAuthApp(t)
	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}
}

func TestAuthLogoutClearsCookies(t *testing.T) {
	app := newAuthApp(t)
	resp := postJSON(t, app, "/auth/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status: %d", resp.StatusCode)
	}
	cleared := map[string]bool{}
	for _, c := range resp.Cookies() {
		if c.Value == "" {
			cleared[c.Name] = true
		}
	}
	if !cleared["token"] || !cleared["jwtToken"] {
		t.Fatalf("expected both cookies cleared, got %v", cleared)
	}
}
