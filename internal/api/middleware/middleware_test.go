package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexhewitt/mcgann-boxing-sub000/config"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/api/handler"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mapBlacklist map[string]bool

func (m mapBlacklist) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	m[jti] = true
	return nil
}

func (m mapBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return m[jti], nil
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "middleware-test-secret-2026",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth ──

func authRouter(mgr *jwt.Manager, bl mapBlacklist) *gin.Engine {
	r := gin.New()
	r.GET("/me", JWTAuth(mgr, bl), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestJWTAuth_SetsCaller(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateAccessToken("u1", "coach", "c1")

	var userID, role, coachID string
	r := gin.New()
	r.GET("/me", JWTAuth(mgr, mapBlacklist{}), func(c *gin.Context) {
		userID = c.GetString(handler.CtxUserID)
		role = c.GetString(handler.CtxRole)
		coachID = c.GetString(handler.CtxCoachID)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(r, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if userID != "u1" || role != "coach" || coachID != "c1" {
		t.Errorf("unexpected context: %q %q %q", userID, role, coachID)
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	mgr := newTestJWT()
	refresh, _ := mgr.GenerateRefreshToken("u1", "member", "")

	cases := map[string]string{
		"missing header": "",
		"no scheme":      "abc",
		"garbage token":  "Bearer not-a-jwt",
		"refresh token":  "Bearer " + refresh,
	}
	r := authRouter(mgr, mapBlacklist{})
	for name, header := range cases {
		req := httptest.NewRequest("GET", "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if w := serve(r, req); w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestJWTAuth_RevokedToken(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateAccessToken("u1", "member", "")
	claims, _ := mgr.ParseToken(token)

	bl := mapBlacklist{claims.ID: true}
	r := authRouter(mgr, bl)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := serve(r, req); w.Code != http.StatusUnauthorized {
		t.Errorf("revoked token must be rejected, got %d", w.Code)
	}
}

func TestJWTAuth_NilBlacklist(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateAccessToken("u1", "member", "")

	r := gin.New()
	r.GET("/me", JWTAuth(mgr, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Errorf("expected 200 without a blacklist, got %d", w.Code)
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	for role, want := range map[string]int{
		"admin":  http.StatusOK,
		"coach":  http.StatusForbidden,
		"member": http.StatusForbidden,
		"":       http.StatusUnauthorized,
	} {
		r := gin.New()
		r.GET("/admin", func(c *gin.Context) {
			if role != "" {
				c.Set(handler.CtxRole, role)
			}
		}, RoleAuth("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

		if w := serve(r, httptest.NewRequest("GET", "/admin", nil)); w.Code != want {
			t.Errorf("role %q: expected %d, got %d", role, want, w.Code)
		}
	}
}

// ── RateLimit ──

func TestRateLimit_LocalFallback(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimit(nil, 3, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w := serve(r, httptest.NewRequest("GET", "/ping", nil)); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	w := serve(r, httptest.NewRequest("GET", "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the burst, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimit_KeyedByClient(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimit(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	a := httptest.NewRequest("GET", "/ping", nil)
	a.RemoteAddr = "10.0.0.1:1234"
	b := httptest.NewRequest("GET", "/ping", nil)
	b.RemoteAddr = "10.0.0.2:1234"

	if w := serve(r, a); w.Code != http.StatusOK {
		t.Fatalf("first client: %d", w.Code)
	}
	if w := serve(r, b); w.Code != http.StatusOK {
		t.Errorf("second client must have its own bucket, got %d", w.Code)
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.POST("/echo", BodyLimit(16), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, httptest.NewRequest("POST", "/echo", strings.NewReader("small"))); w.Code != http.StatusOK {
		t.Errorf("small body: expected 200, got %d", w.Code)
	}
	big := httptest.NewRequest("POST", "/echo", strings.NewReader(strings.Repeat("x", 64)))
	if w := serve(r, big); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body: expected 413, got %d", w.Code)
	}
}

// ── RequestID / CORS ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/", RequestID(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	if got := serve(r, req).Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("inbound id should be kept, got %q", got)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", 100))
	if got := serve(r, req).Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("oversized id should be replaced by a UUID, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://book.mcgannboxing.test/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "https://book.mcgannboxing.test")
	w := serve(r, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://book.mcgannboxing.test" {
		t.Error("allowed origin should be echoed")
	}

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "https://evil.test")
	if serve(r, req).Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be echoed")
	}
}
