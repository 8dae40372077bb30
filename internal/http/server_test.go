package httpapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campfire-hq/campfire/internal/auth"
	"github.com/campfire-hq/campfire/internal/config"
	"github.com/campfire-hq/campfire/internal/content"
	"github.com/campfire-hq/campfire/internal/store/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := sqlite.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{TokenTTL: time.Hour, JWTSecret: "test-secret", BcryptCost: 4, MinPasswordLen: 6}
	authSvc := auth.NewService(st, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost, cfg.MinPasswordLen)
	contentSvc := content.NewService(st)
	return NewServer(st, authSvc, contentSvc, cfg)
}

func doJSON(t *testing.T, server *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	return resp
}

func registerUser(t *testing.T, server *Server, username string) string {
	t.Helper()
	resp := doJSON(t, server, http.MethodPost, "/api/auth/register", "",
		`{"username":"`+username+`","password":"secret123"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register %s: %d: %s", username, resp.Code, resp.Body.String())
	}
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	return payload.AccessToken
}

func TestRegisterLoginFlow(t *testing.T) {
	server := newTestServer(t)

	token := registerUser(t, server, "alice")
	if token == "" {
		t.Fatalf("expected token from register")
	}

	// Duplicate username gets a 400
	resp := doJSON(t, server, http.MethodPost, "/api/auth/register", "",
		`{"username":"alice","password":"other-secret"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate username, got %d", resp.Code)
	}

	resp = doJSON(t, server, http.MethodPost, "/api/auth/login", "",
		`{"username":"alice","password":"secret123"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("login: %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	if payload.AccessToken == "" || payload.Username != "alice" {
		t.Fatalf("unexpected login payload: %s", resp.Body.String())
	}

	resp = doJSON(t, server, http.MethodPost, "/api/auth/login", "",
		`{"username":"alice","password":"wrong"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", resp.Code)
	}
}

func TestLogout(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "alice")

	resp := doJSON(t, server, http.MethodPost, "/api/auth/logout", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("logout: %d: %s", resp.Code, resp.Body.String())
	}

	// Token is stateless, so it still works afterwards
	resp = doJSON(t, server, http.MethodGet, "/api/users/profile", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected token to stay valid after logout, got %d", resp.Code)
	}

	resp = doJSON(t, server, http.MethodPost, "/api/auth/logout", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous logout, got %d", resp.Code)
	}
}

func TestProfile(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, server, http.MethodPost, "/api/auth/register", "",
		`{"username":"alice","password":"secret123","email":"alice@example.com","name":"Alice","surname":"Anders"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: %d: %s", resp.Code, resp.Body.String())
	}
	var reg struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &reg); err != nil {
		t.Fatalf("json parse: %v", err)
	}

	resp = doJSON(t, server, http.MethodGet, "/api/users/profile", reg.AccessToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("profile: %d: %s", resp.Code, resp.Body.String())
	}
	var profile map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &profile); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	if profile["username"] != "alice" || profile["email"] != "alice@example.com" ||
		profile["name"] != "Alice" || profile["surname"] != "Anders" {
		t.Fatalf("unexpected profile: %v", profile)
	}

	resp = doJSON(t, server, http.MethodGet, "/api/users/profile", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestCreatePostRequiresAuth(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, server, http.MethodPost, "/api/posts", "", `{"title":"Hello"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	resp = doJSON(t, server, http.MethodPost, "/api/posts", "garbage-token", `{"title":"Hello"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.Code)
	}
}

func TestPostLifecycle(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "alice")

	resp := doJSON(t, server, http.MethodPost, "/api/posts", token,
		`{"title":"Hello","content":"First post"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create post: %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	if created.Post.ID == "" {
		t.Fatalf("expected post id")
	}

	// Public read, no token
	resp = doJSON(t, server, http.MethodGet, "/api/posts/"+created.Post.ID, "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("get post: %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, server, http.MethodGet, "/api/posts", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list posts: %d", resp.Code)
	}

	resp = doJSON(t, server, http.MethodGet, "/api/posts/mine", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("my posts: %d", resp.Code)
	}
	var mine struct {
		Posts []struct {
			ID string `json:"id"`
		} `json:"posts"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &mine); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	if len(mine.Posts) != 1 || mine.Posts[0].ID != created.Post.ID {
		t.Fatalf("unexpected my posts: %s", resp.Body.String())
	}

	resp = doJSON(t, server, http.MethodDelete, "/api/posts/"+created.Post.ID, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("delete post: %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, server, http.MethodGet, "/api/posts/"+created.Post.ID, "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestDeleteForeignPost(t *testing.T) {
	server := newTestServer(t)
	aliceToken := registerUser(t, server, "alice")
	malloryToken := registerUser(t, server, "mallory")

	resp := doJSON(t, server, http.MethodPost, "/api/posts", aliceToken, `{"title":"Mine"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create post: %d", resp.Code)
	}
	var created struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("json parse: %v", err)
	}

	foreign := doJSON(t, server, http.MethodDelete, "/api/posts/"+created.Post.ID, malloryToken, "")
	missing := doJSON(t, server, http.MethodDelete, "/api/posts/no-such-post", malloryToken, "")
	if foreign.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign delete, got %d", foreign.Code)
	}
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing post, got %d", missing.Code)
	}
	if foreign.Body.String() != missing.Body.String() {
		t.Fatalf("delete probes must be indistinguishable: %q vs %q", foreign.Body.String(), missing.Body.String())
	}

	// Post is still readable
	resp = doJSON(t, server, http.MethodGet, "/api/posts/"+created.Post.ID, "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("post should survive foreign delete, got %d", resp.Code)
	}
}

func TestCommentAndVoteFlow(t *testing.T) {
	server := newTestServer(t)
	aliceToken := registerUser(t, server, "alice")
	bobToken := registerUser(t, server, "bob")

	resp := doJSON(t, server, http.MethodPost, "/api/posts", aliceToken, `{"title":"Discuss"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create post: %d", resp.Code)
	}
	var created struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	postID := created.Post.ID

	resp = doJSON(t, server, http.MethodPost, "/api/posts/"+postID+"/comments", bobToken,
		`{"content":"nice one"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("add comment: %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, server, http.MethodPost, "/api/posts/"+postID+"/comments", bobToken,
		`{"content":"   "}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty comment, got %d", resp.Code)
	}

	resp = doJSON(t, server, http.MethodPost, "/api/posts/"+postID+"/votes", bobToken,
		`{"kind":"upvote"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("vote: %d: %s", resp.Code, resp.Body.String())
	}

	// Re-vote flips the kind, count stays 1
	resp = doJSON(t, server, http.MethodPost, "/api/posts/"+postID+"/votes", bobToken,
		`{"kind":"downvote"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("re-vote: %d: %s", resp.Code, resp.Body.String())
	}
	var voted struct {
		Post struct {
			Comments []struct {
				Content string `json:"content"`
			} `json:"comments"`
			Votes []struct {
				Kind string `json:"kind"`
			} `json:"votes"`
		} `json:"post"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &voted); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	if len(voted.Post.Votes) != 1 || voted.Post.Votes[0].Kind != "downvote" {
		t.Fatalf("expected single downvote, got %s", resp.Body.String())
	}
	if len(voted.Post.Comments) != 1 {
		t.Fatalf("expected 1 comment in payload, got %d", len(voted.Post.Comments))
	}

	resp = doJSON(t, server, http.MethodPost, "/api/posts/"+postID+"/votes", bobToken,
		`{"kind":"sideways"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid kind, got %d", resp.Code)
	}
}

func TestListUsers(t *testing.T) {
	server := newTestServer(t)
	registerUser(t, server, "alice")
	registerUser(t, server, "bob")

	resp := doJSON(t, server, http.MethodGet, "/api/users", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list users: %d", resp.Code)
	}
	var payload struct {
		Users []map[string]any `json:"users"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json parse: %v", err)
	}
	if len(payload.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(payload.Users))
	}
	for _, u := range payload.Users {
		if _, ok := u["email"]; ok {
			t.Fatalf("user summary must not leak email: %v", u)
		}
	}
}
