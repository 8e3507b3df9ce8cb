package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/relateos/internal/auth"
	"github.com/mmynk/relateos/internal/models"
)

func newTestJWT(t *testing.T) (*auth.JWTManager, string) {
	t.Helper()
	m := auth.NewJWTManager("test-secret", time.Hour)
	token, err := m.Generate(&models.User{ID: "user-1", Email: "ana@example.com", DisplayName: "Ana"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return m, token
}

func setupTestRouter(jwtManager *auth.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("https://relateos.app"), RequestLogger())
	r.GET("/me", RequireAuth(jwtManager), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "email": GetEmail(c)})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	jwtManager, token := newTestJWT(t)
	r := setupTestRouter(jwtManager)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestCORS(t *testing.T) {
	jwtManager, _ := newTestJWT(t)
	r := setupTestRouter(jwtManager)

	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", "https://relateos.app")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://relateos.app" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for unknown origin = %q, want none", got)
	}
}

func TestIdentityFromRequest(t *testing.T) {
	jwtManager, token := newTestJWT(t)
	identify := IdentityFromRequest(jwtManager)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	if user, err := identify(req); err != nil || user != "user-1" {
		t.Errorf("query token: (%q, %v)", user, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if user, err := identify(req); err != nil || user != "user-1" {
		t.Errorf("header token: (%q, %v)", user, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	if _, err := identify(req); !errors.Is(err, auth.ErrMissingToken) {
		t.Errorf("no token: err = %v, want ErrMissingToken", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws?token=forged", nil)
	if _, err := identify(req); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("bad token: err = %v, want ErrInvalidToken", err)
	}
}
