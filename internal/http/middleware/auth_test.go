package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pledgetrack/backend/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authTestRouter(m *auth.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(Auth(m))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"agent_id": c.GetString(ContextAgentID)})
	})
	return r
}

func TestAuthMissingToken(t *testing.T) {
	r := authTestRouter(auth.NewJWTManager("secret", time.Hour))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthValidToken(t *testing.T) {
	m := auth.NewJWTManager("secret", time.Hour)
	r := authTestRouter(m)

	token, err := m.Generate("AGT001", "BR07")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAuthWrongSecret(t *testing.T) {
	r := authTestRouter(auth.NewJWTManager("secret", time.Hour))
	other := auth.NewJWTManager("other", time.Hour)

	token, err := other.Generate("AGT001", "BR07")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
