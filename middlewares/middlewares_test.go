package middlewares

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

func newTokens(t *testing.T) *utils.TokenService {
	t.Helper()
	svc, err := utils.NewTokenService(utils.TokenConfig{
		AccessSecret:  []byte("access-test"),
		RefreshSecret: []byte("refresh-test"),
	})
	require.NoError(t, err)
	return svc
}

func tokenFor(t *testing.T, svc *utils.TokenService, role models.Role, kind models.TokenKind) string {
	t.Helper()
	u := &models.User{ID: 7, FullName: "Ada", Email: "ada@example.com", Role: role}
	var tok utils.SignedToken
	var err error
	if kind == models.TokenRefresh {
		tok, err = svc.IssueRefreshToken(u)
	} else {
		tok, err = svc.IssueAccessToken(u)
	}
	require.NoError(t, err)
	return tok.Token
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequireAuth(t *testing.T) {
	tokens := newTokens(t)
	r := gin.New()
	r.GET("/any", RequireAuth(tokens), func(c *gin.Context) {
		p, _ := CurrentPrincipal(c)
		c.JSON(http.StatusOK, p)
	})
	r.POST("/menu", RequireAuth(tokens, models.RoleAdmin, models.RoleStaff), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	cases := []struct {
		name   string
		method string
		path   string
		header string
		code   int
		reason string
	}{
		{"no header", "GET", "/any", "", http.StatusUnauthorized, utils.ReasonNoCredential},
		{"not bearer", "GET", "/any", "Basic abc", http.StatusUnauthorized, utils.ReasonNoCredential},
		{"garbage", "GET", "/any", "Bearer nope", http.StatusUnauthorized, utils.ReasonInvalidCredential},
		{"refresh token", "GET", "/any", "Bearer " + tokenFor(t, tokens, models.RoleAdmin, models.TokenRefresh), http.StatusUnauthorized, utils.ReasonInvalidCredential},
		{"customer", "GET", "/any", "Bearer " + tokenFor(t, tokens, models.RoleCustomer, models.TokenAccess), http.StatusOK, ""},
		{"customer on menu", "POST", "/menu", "Bearer " + tokenFor(t, tokens, models.RoleCustomer, models.TokenAccess), http.StatusForbidden, utils.ReasonForbidden},
		{"staff on menu", "POST", "/menu", "Bearer " + tokenFor(t, tokens, models.RoleStaff, models.TokenAccess), http.StatusCreated, ""},
		{"admin on menu", "POST", "/menu", "bearer " + tokenFor(t, tokens, models.RoleAdmin, models.TokenAccess), http.StatusCreated, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			if tc.reason != "" {
				var body utils.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tc.reason, body.Reason)
			}
		})
	}
}

func TestAuthorizeCarriesVerifierReason(t *testing.T) {
	tokens := newTokens(t)
	_, err := Authorize(tokens, tokenFor(t, tokens, models.RoleAdmin, models.TokenRefresh))
	assert.ErrorIs(t, err, utils.ErrTokenBadSignature)
	assert.True(t, utils.IsKind(err, utils.KindAuthentication))
}

func TestRoleCheckAndSelfOrRoles(t *testing.T) {
	tokens := newTokens(t)
	r := gin.New()
	authed := r.Group("/", RequireAuth(tokens))
	authed.DELETE("/users/:id", RoleCheck(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	authed.GET("/users/:id", SelfOrRoles("id", models.RoleAdmin, models.RoleStaff), func(c *gin.Context) { c.Status(http.StatusOK) })

	customer := "Bearer " + tokenFor(t, tokens, models.RoleCustomer, models.TokenAccess)
	staff := "Bearer " + tokenFor(t, tokens, models.RoleStaff, models.TokenAccess)

	cases := []struct {
		method, path, header string
		code                 int
	}{
		{"DELETE", "/users/7", customer, http.StatusForbidden},
		{"GET", "/users/7", customer, http.StatusOK},
		{"GET", "/users/8", customer, http.StatusForbidden},
		{"GET", "/users/abc", customer, http.StatusBadRequest},
		{"GET", "/users/8", staff, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", tc.header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.code, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestWebSocketAuthUsesQueryToken(t *testing.T) {
	tokens := newTokens(t)
	r := gin.New()
	r.GET("/ws", WebSocketAuthMiddleware(tokens, models.RoleStaff, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws?token="+tokenFor(t, tokens, models.RoleStaff, models.TokenAccess), nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws?token="+tokenFor(t, tokens, models.RoleCustomer, models.TokenAccess), nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiterLocalFallback(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", NewRateLimiter("test", 2, nil).RateLimit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	rl := NewRateLimiter("test", 2, nil)
	rl.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		allowed, _, _ := rl.takeLocal(fmt.Sprintf("10.0.0.%d", i))
		assert.True(t, allowed)
	}
	assert.Len(t, rl.local, 50)

	now = now.Add(90 * time.Second)
	allowed, _, _ := rl.takeLocal("10.0.0.1")
	assert.True(t, allowed)
	assert.Len(t, rl.local, 50)

	// past the idle window only recently seen clients stay
	now = now.Add(100 * time.Second)
	allowed, _, _ = rl.takeLocal("10.0.0.99")
	assert.True(t, allowed)
	assert.Len(t, rl.local, 2)
	assert.Contains(t, rl.local, "10.0.0.1")
	assert.Contains(t, rl.local, "10.0.0.99")
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), LoggerMiddleware(), SecurityHeaders())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "7f1c1a4e-8f4a-4a7e-9c55-0d6a1c1e2b3f")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "7f1c1a4e-8f4a-4a7e-9c55-0d6a1c1e2b3f", w.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares([]string{"http://localhost:3000"}))
	r.POST("/orders", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest("OPTIONS", "/orders", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("POST", "/orders", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
