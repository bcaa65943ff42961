package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/lingobridge-backend/internal/logger"
)

func signToken(t *testing.T, secret string, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func newAuthRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", secret)
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	router := gin.New()
	router.Use(NewAuthMiddleware(log).RequireAuth())
	router.GET("/whoami", func(c *gin.Context) {
		userID, ok := UserIDFrom(c)
		if !ok {
			c.String(http.StatusInternalServerError, "missing user")
			return
		}
		c.String(http.StatusOK, userID.String())
	})
	return router
}

func TestRequireAuthAcceptsValidBearer(t *testing.T) {
	router := newAuthRouter(t, "secret")
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", userID.String()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != userID.String() {
		t.Fatalf("body: got %q, want %q", rec.Body.String(), userID)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	router := newAuthRouter(t, "secret")

	cases := map[string]string{
		"missing header":    "",
		"wrong secret":      "Bearer " + signToken(t, "other", uuid.New().String()),
		"non-uuid subject":  "Bearer " + signToken(t, "secret", "alice"),
		"malformed token":   "Bearer definitely.not.a.jwt",
		"wrong auth scheme": "Basic dXNlcjpwYXNz",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401", rec.Code)
			}
		})
	}
}
