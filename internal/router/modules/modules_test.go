package modules

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	userapp "github.com/oksasatya/user-directory/internal/application"
	"github.com/oksasatya/user-directory/internal/domain/entity"
	"github.com/oksasatya/user-directory/internal/infrastructure/memory"
	handlers "github.com/oksasatya/user-directory/internal/interface/http"
)

type tokenTable map[string]entity.IdentityClaims

func (t tokenTable) Verify(token string) (entity.IdentityClaims, error) {
	c, ok := t[token]
	if !ok {
		return entity.IdentityClaims{}, errors.New("unknown token")
	}
	return c, nil
}

func newUserRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.NewUserRepository()
	svc := userapp.NewService(store, memory.NewTxManager(store), nil)
	tokens := tokenTable{
		"admin-token": {Subject: "a", Name: "Admin", Roles: []string{"admin"}},
		"user-token":  {Subject: "u", Name: "Plain", Email: "plain@ex.io", Roles: []string{"user"}},
	}
	r := gin.New()
	NewUserModule(handlers.NewUserHandler(svc, nil), tokens, nil, "admin", 60).Register(r.Group("/api"))
	return r
}

func TestUserModuleAccess(t *testing.T) {
	r := newUserRouter(t)
	tests := []struct {
		name   string
		method string
		target string
		token  string
		want   int
	}{
		{"anonymous list", http.MethodGet, "/api/v1/users", "", http.StatusUnauthorized},
		{"non-admin list", http.MethodGet, "/api/v1/users", "user-token", http.StatusForbidden},
		{"admin list", http.MethodGet, "/api/v1/users", "admin-token", http.StatusOK},
		{"non-admin whoami", http.MethodGet, "/api/v1/users/whoami", "user-token", http.StatusOK},
		{"non-admin register", http.MethodGet, "/api/v1/users/register", "user-token", http.StatusOK},
		{"non-admin delete", http.MethodDelete, "/api/v1/users/nickname/plain", "user-token", http.StatusForbidden},
		{"admin missing user", http.MethodGet, "/api/v1/users/nickname/ghost", "admin-token", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestOpsModule(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name       string
		ping       func(context.Context) error
		target     string
		metrics    bool
		want       int
		wantInBody string
	}{
		{"healthy", func(context.Context) error { return nil }, "/healthz", false, http.StatusOK, `"status":"ok"`},
		{"storage down", func(context.Context) error { return errors.New("down") }, "/healthz", false, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"metrics on", nil, "/metrics", true, http.StatusOK, "user_events_publish_failures_total"},
		{"metrics off", nil, "/metrics", false, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			NewOpsModule(tt.ping, tt.metrics).Register(&r.RouterGroup)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if w.Code != tt.want || !strings.Contains(w.Body.String(), tt.wantInBody) {
				t.Fatalf("status %d body %s", w.Code, w.Body.String())
			}
		})
	}
}
