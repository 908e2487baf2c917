package tweet

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-chirper/internal/auth"
	"backend-chirper/internal/store"
	"backend-chirper/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type client struct {
	t    *testing.T
	app  *fiber.App
	gate *auth.Gate
}

func newClient(t *testing.T, e env) client {
	t.Helper()
	gate := auth.NewGate("test-secret", time.Hour, e.store)
	app := testutil.NewApp()
	RegisterRoutes(app.Group("/user/tweets"), e.svc, auth.Middleware(gate, zap.NewNop()))
	return client{t: t, app: app, gate: gate}
}

func (c client) do(method, path string, as store.Account, body any) *http.Response {
	c.t.Helper()
	var req *http.Request
	if body != nil {
		raw, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	token, _, err := c.gate.Issue(as.Handle, as.ID)
	if err != nil {
		c.t.Fatalf("issue: %v", err)
	}
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := c.app.Test(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestTweetHandlersLifecycle(t *testing.T) {
	e := newEnv(t)
	c := newClient(t, e)

	resp := c.do(http.MethodPost, "/user/tweets", e.bob, TextRequest{Text: "hello"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %d", resp.StatusCode)
	}
	var post store.Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil || post.ID == "" {
		t.Fatalf("decode post: %v", err)
	}

	resp = c.do(http.MethodGet, "/user/tweets/feed", e.alice, nil)
	var feed []store.Post
	_ = json.NewDecoder(resp.Body).Decode(&feed)
	if resp.StatusCode != http.StatusOK || len(feed) != 1 || feed[0].ID != post.ID {
		t.Fatalf("unexpected feed %d %+v", resp.StatusCode, feed)
	}

	resp = c.do(http.MethodGet, "/user/tweets", e.bob, nil)
	var mine []store.Post
	_ = json.NewDecoder(resp.Body).Decode(&mine)
	if len(mine) != 1 {
		t.Fatalf("expected one own tweet, got %d", len(mine))
	}

	if resp := c.do(http.MethodGet, "/user/tweets/"+post.ID, e.alice, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %d", resp.StatusCode)
	}

	resp = c.do(http.MethodPost, "/user/tweets/"+post.ID+"/like", e.alice, nil)
	var like LikeResult
	_ = json.NewDecoder(resp.Body).Decode(&like)
	if resp.StatusCode != http.StatusOK || !like.Liked {
		t.Fatalf("expected liked, got %d %+v", resp.StatusCode, like)
	}
	if resp := c.do(http.MethodGet, "/user/tweets/"+post.ID+"/likes", e.bob, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("likes status: %d", resp.StatusCode)
	}

	if resp := c.do(http.MethodPost, "/user/tweets/"+post.ID+"/replies", e.alice, TextRequest{Text: "hi"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("reply status: %d", resp.StatusCode)
	}
	resp = c.do(http.MethodGet, "/user/tweets/"+post.ID+"/replies", e.alice, nil)
	var replies []store.Reply
	_ = json.NewDecoder(resp.Body).Decode(&replies)
	if len(replies) != 1 {
		t.Fatalf("expected one reply, got %d", len(replies))
	}

	if resp := c.do(http.MethodDelete, "/user/tweets/"+post.ID, e.alice, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 deleting someone else's tweet, got %d", resp.StatusCode)
	}
	if resp := c.do(http.MethodDelete, "/user/tweets/"+post.ID, e.bob, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}
	if resp := c.do(http.MethodGet, "/user/tweets/"+post.ID, e.bob, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestTweetHandlersRules(t *testing.T) {
	e := newEnv(t)
	c := newClient(t, e)
	post := testutil.Post(t, e.store, e.bob, "hello")

	cases := []struct {
		name   string
		method string
		path   string
		as     store.Account
		body   any
		status int
	}{
		{"view without follow", http.MethodGet, "/user/tweets/" + post.ID, e.carol, nil, http.StatusForbidden},
		{"likes without follow", http.MethodGet, "/user/tweets/" + post.ID + "/likes", e.carol, nil, http.StatusForbidden},
		{"like without follow", http.MethodPost, "/user/tweets/" + post.ID + "/like", e.carol, nil, http.StatusForbidden},
		{"reply without follow", http.MethodPost, "/user/tweets/" + post.ID + "/replies", e.carol, TextRequest{Text: "hi"}, http.StatusForbidden},
		{"replies without follow", http.MethodGet, "/user/tweets/" + post.ID + "/replies", e.carol, nil, http.StatusForbidden},
		{"missing tweet", http.MethodGet, "/user/tweets/" + uuid.NewString(), e.alice, nil, http.StatusNotFound},
		{"malformed id", http.MethodGet, "/user/tweets/nope", e.alice, nil, http.StatusNotFound},
		{"empty text", http.MethodPost, "/user/tweets", e.alice, TextRequest{Text: " "}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if resp := c.do(tc.method, tc.path, tc.as, tc.body); resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
		})
	}
}

func TestTweetHandlersRequireCredential(t *testing.T) {
	e := newEnv(t)
	c := newClient(t, e)

	resp, err := c.app.Test(httptest.NewRequest(http.MethodGet, "/user/tweets/feed", nil))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401: %v", err)
	}
}

func TestTweetHandlersBadPayload(t *testing.T) {
	e := newEnv(t)
	c := newClient(t, e)

	token, _, _ := c.gate.Issue(e.alice.Handle, e.alice.ID)
	req := httptest.NewRequest(http.MethodPost, "/user/tweets", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := c.app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400: %v", err)
	}
}
