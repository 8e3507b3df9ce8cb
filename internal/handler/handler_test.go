package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/relateos/internal/auth"
	"github.com/mmynk/relateos/internal/service"
	"github.com/mmynk/relateos/internal/storage/sqlite"
)

type testAPI struct {
	router *gin.Engine
	store  *sqlite.SQLiteStore
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()

	tempDir := t.TempDir()
	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	staticDir := filepath.Join(tempDir, "static")
	os.MkdirAll(staticDir, 0o755)
	os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>app</html>"), 0o644)
	os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log(1)"), 0o644)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	h := NewHandler(
		service.NewAuthService(authenticator, jwtManager, store, logger),
		service.NewGroupService(store, logger),
		store,
	)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r, jwtManager)
	r.NoRoute(Fallback(staticDir))

	return &testAPI{router: r, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return v
}

func (a *testAPI) signup(t *testing.T, email, name string) SessionResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email": email, "password": "password123", "name": name,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s: expected 201, got %d: %s", email, w.Code, w.Body.String())
	}
	return decode[SessionResponse](t, w)
}

func TestAuthRoutes(t *testing.T) {
	api := setupTestAPI(t)
	session := api.signup(t, "ana@example.com", "Ana")

	if session.Token == "" || session.User.Name != "Ana" {
		t.Errorf("unexpected session %+v", session)
	}

	tests := []struct {
		name string
		path string
		body gin.H
		want int
	}{
		{"duplicate signup", "/api/auth/signup", gin.H{"email": "ana@example.com", "password": "password123", "name": "A"}, http.StatusConflict},
		{"weak password", "/api/auth/signup", gin.H{"email": "bo@example.com", "password": "short", "name": "Bo"}, http.StatusBadRequest},
		{"missing fields", "/api/auth/signup", gin.H{"email": "cy@example.com"}, http.StatusBadRequest},
		{"good login", "/api/auth/login", gin.H{"email": "ana@example.com", "password": "password123"}, http.StatusOK},
		{"bad login", "/api/auth/login", gin.H{"email": "ana@example.com", "password": "wrong-password"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, tt.path, "", tt.body)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}

	w := api.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}
	if me := decode[UserResponse](t, w); me.ID != session.User.ID {
		t.Errorf("me returned %+v", me)
	}

	if w := api.do(t, http.MethodGet, "/api/auth/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("me without token: expected 401, got %d", w.Code)
	}
}

func TestGroupRoutes(t *testing.T) {
	api := setupTestAPI(t)
	alice := api.signup(t, "alice@example.com", "Alice")
	bob := api.signup(t, "bob@example.com", "Bob")

	w := api.do(t, http.MethodPost, "/api/groups", alice.Token, gin.H{
		"name": "Mom's 60th", "code_name": "Operation Pearl", "target_amount": 300,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create group: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	group := decode[GroupResponse](t, w)
	if len(group.InviteCode) != 6 {
		t.Errorf("invite code %q should be 6 characters", group.InviteCode)
	}

	groupPath := "/api/groups/" + group.ID

	// Bob is not a member yet.
	if w := api.do(t, http.MethodGet, groupPath, bob.Token, nil); w.Code != http.StatusNotFound {
		t.Errorf("non-member get: expected 404, got %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/api/groups/join", bob.Token, gin.H{"invite_code": strings.ToLower(group.InviteCode)})
	if w.Code != http.StatusOK {
		t.Fatalf("join: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[map[string]string](t, w); got["id"] != group.ID {
		t.Errorf("join returned %v", got)
	}

	if w := api.do(t, http.MethodPost, "/api/groups/join", bob.Token, gin.H{"invite_code": "NOPE00"}); w.Code != http.StatusNotFound {
		t.Errorf("bad invite code: expected 404, got %d", w.Code)
	}

	w = api.do(t, http.MethodPost, groupPath+"/ideas", bob.Token, gin.H{"title": "Spa day"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add idea: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	idea := decode[IdeaResponse](t, w)

	w = api.do(t, http.MethodPost, groupPath+"/ideas/"+idea.ID+"/vote", alice.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("vote: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if voted := decode[IdeaResponse](t, w); voted.VoteCount != 1 || voted.Votes[0] != alice.User.ID {
		t.Errorf("unexpected votes %+v", voted)
	}

	w = api.do(t, http.MethodPost, groupPath+"/ideas/"+idea.ID+"/vote", alice.Token, nil)
	if unvoted := decode[IdeaResponse](t, w); unvoted.VoteCount != 0 {
		t.Errorf("second toggle should remove the vote, got %+v", unvoted)
	}

	if w := api.do(t, http.MethodPost, groupPath+"/ideas/missing/vote", alice.Token, nil); w.Code != http.StatusNotFound {
		t.Errorf("vote on missing idea: expected 404, got %d", w.Code)
	}

	for _, c := range []struct {
		token  string
		amount float64
	}{{alice.Token, 200}, {bob.Token, 150}} {
		if w := api.do(t, http.MethodPost, groupPath+"/contribute", c.token, gin.H{"amount": c.amount}); w.Code != http.StatusCreated {
			t.Fatalf("contribute: expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}
	if w := api.do(t, http.MethodPost, groupPath+"/contribute", bob.Token, gin.H{"amount": -10}); w.Code != http.StatusBadRequest {
		t.Errorf("negative contribution: expected 400, got %d", w.Code)
	}

	w = api.do(t, http.MethodGet, groupPath+"/pool", bob.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pool: expected 200, got %d", w.Code)
	}
	pool := decode[PoolResponse](t, w)
	if pool.Total != 350 || pool.Progress != 1 || pool.Remaining != 0 {
		t.Errorf("unexpected pool %+v", pool)
	}

	w = api.do(t, http.MethodGet, groupPath, alice.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get group: expected 200, got %d", w.Code)
	}
	detail := decode[GroupDetailResponse](t, w)
	if len(detail.MemberList) != 2 || len(detail.Ideas) != 1 || len(detail.Contributions) != 2 {
		t.Errorf("unexpected detail %+v", detail)
	}
	if detail.CodeName != "Operation Pearl" {
		t.Errorf("code name = %q", detail.CodeName)
	}

	w = api.do(t, http.MethodGet, "/api/groups", bob.Token, nil)
	if groups := decode[[]GroupResponse](t, w); len(groups) != 1 {
		t.Errorf("expected bob to list 1 group, got %d", len(groups))
	}
}

func TestGroupRoutes_RequireAuth(t *testing.T) {
	api := setupTestAPI(t)

	if w := api.do(t, http.MethodGet, "/api/groups", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if w := api.do(t, http.MethodPost, "/api/groups", "forged", gin.H{"name": "x"}); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for forged token, got %d", w.Code)
	}
}

func TestFallback(t *testing.T) {
	api := setupTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown api route: expected 404, got %d", w.Code)
	}
	if body := decode[map[string]string](t, w); !strings.Contains(body["error"], "/api/nothing-here") {
		t.Errorf("unexpected body %v", body)
	}

	w = api.do(t, http.MethodGet, "/app.js", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "console.log(1)" {
		t.Errorf("static file: got %d %q", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodGet, "/groups/123", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "app") {
		t.Errorf("client route should serve index.html, got %d %q", w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	api := setupTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	api.store.Close()
	w = api.do(t, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after close, got %d", w.Code)
	}
}
