package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agora/internal/auth"
	"agora/internal/db"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := db.Connect(context.Background(), "sqlite://:memory:", logger)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })

	tokens := auth.NewTokenManager("test-secret")
	return New(Dependencies{
		Services:    services.New(st, tokens, logger),
		Tokens:      tokens,
		Store:       st,
		Logger:      logger,
		CORSOrigins: []string{"*"},
		Swagger:     true,
	})
}

func do(t *testing.T, r http.Handler, method, path, token, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: response is not an envelope: %q", method, path, w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

type authData struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

type postData struct {
	ID       string   `json:"_id"`
	OwnerID  string   `json:"owner_id"`
	Title    string   `json:"title"`
	Rating   int      `json:"rating"`
	Comments []string `json:"comments"`
}

func register(t *testing.T, r http.Handler, name, email string) string {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/users", "",
		`{"name":"`+name+`","email":"`+email+`","password":"pw123456"}`)
	if code != http.StatusCreated {
		t.Fatalf("register %s: status %d (%s)", email, code, env.Error)
	}
	return decode[authData](t, env.Data).Token
}

func TestForumScenario(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodPost, "/users", "", `{"name":"alice","email":"a@x.com","password":"pw123456"}`)
	if code != http.StatusCreated || !env.Success {
		t.Fatalf("register: %d %+v", code, env)
	}
	res := decode[authData](t, env.Data)
	if res.Name != "alice" || res.Token == "" {
		t.Fatalf("unexpected register data: %+v", res)
	}
	token := res.Token

	code, env = do(t, r, http.MethodPost, "/users/login", "", `{"email":"a@x.com","password":"wrong"}`)
	if code != http.StatusForbidden || env.Success {
		t.Errorf("wrong password login: %d %+v", code, env)
	}

	code, env = do(t, r, http.MethodPost, "/posts", token, `{"title":"Hi","description":"intro","content":"hello world"}`)
	if code != http.StatusCreated {
		t.Fatalf("create post: %d %+v", code, env)
	}
	post := decode[postData](t, env.Data)
	if post.Rating != 0 || post.Comments == nil || len(post.Comments) != 0 {
		t.Errorf("unexpected new post: %+v", post)
	}

	code, env = do(t, r, http.MethodPost, "/comments", token, `{"post_id":"`+post.ID+`","content":"first!"}`)
	if code != http.StatusCreated {
		t.Fatalf("create comment: %d %+v", code, env)
	}
	parent := decode[postData](t, env.Data)
	if parent.ID != post.ID || len(parent.Comments) != 1 {
		t.Fatalf("comment create should return the post with one comment, got %+v", parent)
	}
	commentID := parent.Comments[0]

	code, _ = do(t, r, http.MethodDelete, "/posts/"+post.ID, token, "")
	if code != http.StatusOK {
		t.Fatalf("delete post: %d", code)
	}

	code, env = do(t, r, http.MethodGet, "/comments/"+commentID, "", "")
	if code != http.StatusNotFound || env.Success {
		t.Errorf("comment after cascade: %d %+v", code, env)
	}
}

func TestAuthorizationStatuses(t *testing.T) {
	r := setupRouter(t)
	alice := register(t, r, "alice", "alice@example.com")
	bob := register(t, r, "bob", "bob@example.com")

	code, env := do(t, r, http.MethodPost, "/users", "", `{"name":"again","email":"alice@example.com","password":"x"}`)
	if code != http.StatusConflict {
		t.Errorf("duplicate email: %d %+v", code, env)
	}

	code, _ = do(t, r, http.MethodPost, "/posts", "", `{"title":"t","description":"d","content":"c"}`)
	if code != http.StatusUnauthorized {
		t.Errorf("anonymous create: %d", code)
	}
	code, _ = do(t, r, http.MethodPost, "/posts", "garbage", `{"title":"t","description":"d","content":"c"}`)
	if code != http.StatusUnauthorized {
		t.Errorf("bad token create: %d", code)
	}

	_, env = do(t, r, http.MethodPost, "/posts", alice, `{"title":"t","description":"d","content":"c"}`)
	post := decode[postData](t, env.Data)
	_, env = do(t, r, http.MethodPost, "/comments", alice, `{"post_id":"`+post.ID+`","content":"mine"}`)
	commentID := decode[postData](t, env.Data).Comments[0]

	forbidden := []struct{ method, path, body string }{
		{http.MethodPut, "/posts/" + post.ID, `{"title":"stolen"}`},
		{http.MethodDelete, "/posts/" + post.ID, ""},
		{http.MethodPut, "/comments/" + commentID, `{"content":"stolen"}`},
		{http.MethodDelete, "/comments/" + commentID, ""},
		{http.MethodGet, "/users", ""},
	}
	for _, tc := range forbidden {
		if code, env := do(t, r, tc.method, tc.path, bob, tc.body); code != http.StatusForbidden {
			t.Errorf("%s %s as non-owner: %d %+v", tc.method, tc.path, code, env)
		}
	}

	code, _ = do(t, r, http.MethodPost, "/comments", bob, `{"content":"no parent"}`)
	if code != http.StatusBadRequest {
		t.Errorf("comment without post_id: %d", code)
	}
	code, _ = do(t, r, http.MethodPost, "/comments", bob, `{"post_id":"nope","content":"x"}`)
	if code != http.StatusNotFound {
		t.Errorf("comment on missing post: %d", code)
	}
	_, env = do(t, r, http.MethodGet, "/comments", "", "")
	if got := decode[[]json.RawMessage](t, env.Data); len(got) != 1 {
		t.Errorf("failed comment creates left records behind: %d comments", len(got))
	}
}

func TestVotesAndMalformedBodies(t *testing.T) {
	r := setupRouter(t)
	alice := register(t, r, "alice", "alice@example.com")
	bob := register(t, r, "bob", "bob@example.com")

	_, env := do(t, r, http.MethodPost, "/posts", alice, `{"title":"t","description":"d","content":"c"}`)
	post := decode[postData](t, env.Data)

	for i := 0; i < 3; i++ {
		if code, _ := do(t, r, http.MethodPut, "/posts/upvote/"+post.ID, bob, ""); code != http.StatusOK {
			t.Fatalf("upvote: %d", code)
		}
	}
	code, env := do(t, r, http.MethodPut, "/posts/downvote/"+post.ID, alice, "")
	if code != http.StatusOK {
		t.Fatalf("downvote: %d", code)
	}
	if got := decode[services.Rating](t, env.Data); got.Rating != 2 {
		t.Errorf("rating = %d, want 2", got.Rating)
	}

	code, _ = do(t, r, http.MethodPut, "/posts/upvote/"+post.ID, "", "")
	if code != http.StatusUnauthorized {
		t.Errorf("anonymous upvote: %d", code)
	}

	code, _ = do(t, r, http.MethodPost, "/posts", alice, `{"title": "t",`)
	if code != http.StatusBadRequest {
		t.Errorf("malformed body: %d", code)
	}
	code, _ = do(t, r, http.MethodPut, "/posts/"+post.ID, alice, `{}`)
	if code != http.StatusBadRequest {
		t.Errorf("empty patch: %d", code)
	}

	code, env = do(t, r, http.MethodGet, "/posts/light", "", "")
	if code != http.StatusOK {
		t.Fatalf("light listing: %d", code)
	}
	light := decode[[]map[string]any](t, env.Data)
	if len(light) != 1 {
		t.Fatalf("light listing has %d posts", len(light))
	}
	if _, ok := light[0]["content"]; ok {
		t.Error("light listing leaks content")
	}
	if _, ok := light[0]["comments"]; ok {
		t.Error("light listing leaks comment ids")
	}
}

func TestUserRoutes(t *testing.T) {
	r := setupRouter(t)
	alice := register(t, r, "alice", "alice@example.com")
	id, err := auth.NewTokenManager("test-secret").Decode(alice)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	code, env := do(t, r, http.MethodGet, "/users/"+id.ID, "", "")
	if code != http.StatusOK {
		t.Fatalf("public profile: %d", code)
	}
	profile := decode[map[string]any](t, env.Data)
	if _, ok := profile["email"]; ok {
		t.Error("public profile leaks email")
	}

	if code, _ := do(t, r, http.MethodPut, "/users/"+id.ID, alice, `{"name":"al"}`); code != http.StatusNotImplemented {
		t.Errorf("update self: %d", code)
	}
	if code, _ := do(t, r, http.MethodDelete, "/users/"+id.ID, alice, ""); code != http.StatusOK {
		t.Errorf("delete self: %d", code)
	}
	if code, _ := do(t, r, http.MethodGet, "/users/"+id.ID, "", ""); code != http.StatusNotFound {
		t.Errorf("profile after delete: %d", code)
	}
	// the token outlives the account but no longer authenticates
	if code, _ := do(t, r, http.MethodPost, "/posts", alice, `{"title":"t","description":"d","content":"c"}`); code != http.StatusUnauthorized {
		t.Errorf("create with deleted account: %d", code)
	}
}

func TestHealthAndDocs(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodGet, "/healthz", "", "")
	if code != http.StatusOK || !env.Success {
		t.Errorf("healthz: %d %+v", code, env)
	}

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"/posts/upvote/{id}"`)) {
		t.Errorf("swagger doc: %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "https://client.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS allow origin = %q", got)
	}
}

func TestRouteTable(t *testing.T) {
	r := setupRouter(t)

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	want := []string{
		"GET /healthz",
		"GET /swagger/*any",
		"POST /users",
		"POST /users/login",
		"GET /users",
		"GET /users/:id",
		"PUT /users/:id",
		"DELETE /users/:id",
		"GET /posts",
		"GET /posts/light",
		"POST /posts",
		"GET /posts/:id",
		"PUT /posts/:id",
		"DELETE /posts/:id",
		"PUT /posts/upvote/:id",
		"PUT /posts/downvote/:id",
		"GET /comments",
		"POST /comments",
		"GET /comments/:id",
		"PUT /comments/:id",
		"DELETE /comments/:id",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %q not registered", route)
		}
	}
	if len(registered) != len(want) {
		t.Errorf("registered %d routes, want %d", len(registered), len(want))
	}
}
