package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/model"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAuth maps tokens to users; unknown tokens are invalid and "expired" is
// expired.
type stubAuth struct {
	users map[string]*model.User
	calls int
}

func (s *stubAuth) Authenticate(token string) (*model.User, error) {
	s.calls++
	if token == "expired" {
		return nil, apperror.ErrExpired
	}
	user, ok := s.users[token]
	if !ok {
		return nil, apperror.ErrInvalidToken
	}
	return user, nil
}

func newStubAuth() *stubAuth {
	return &stubAuth{users: map[string]*model.User{
		"alice":    {ID: 1, Username: "alice", IsActive: true},
		"admin":    {ID: 2, Username: "admin", IsActive: true, IsAdmin: true},
		"dormant":  {ID: 3, Username: "dormant", IsActive: false},
		"inactive": {ID: 4, Username: "inactive", IsActive: false, IsAdmin: true},
	}}
}

func serve(r *gin.Engine, target, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	req.RemoteAddr = "10.0.0.1:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func echoUser(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.String(http.StatusOK, user.Username)
}

func TestGuards(t *testing.T) {
	auth := newStubAuth()
	r := gin.New()
	r.GET("/me", ActiveUser(auth), echoUser)
	r.GET("/admin", AdminUser(auth), echoUser)

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic alice", http.StatusUnauthorized},
		{"invalid token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"expired token", "/me", "Bearer expired", http.StatusUnauthorized},
		{"active user", "/me", "Bearer alice", http.StatusOK},
		{"lower-case scheme", "/me", "bearer alice", http.StatusOK},
		{"inactive user", "/me", "Bearer dormant", http.StatusBadRequest},
		{"admin route as user", "/admin", "Bearer alice", http.StatusForbidden},
		{"admin route as admin", "/admin", "Bearer admin", http.StatusOK},
		{"admin route unauthenticated", "/admin", "Bearer nope", http.StatusUnauthorized},
		{"inactive admin", "/admin", "Bearer inactive", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(r, tc.path, tc.header)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, w.Code, w.Body.String())
			}
			if tc.status == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Fatalf("401 must carry WWW-Authenticate: Bearer")
			}
		})
	}
}

func TestQueryTokenUser(t *testing.T) {
	auth := newStubAuth()
	r := gin.New()
	r.GET("/pdf", QueryTokenUser(auth), echoUser)

	if w := serve(r, "/pdf?token=alice", ""); w.Code != http.StatusOK || w.Body.String() != "alice" {
		t.Fatalf("query token: got %d %q", w.Code, w.Body.String())
	}
	if w := serve(r, "/pdf", "Bearer admin"); w.Code != http.StatusOK {
		t.Fatalf("header fallback: got %d", w.Code)
	}
	if w := serve(r, "/pdf?token=expired", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired: got %d", w.Code)
	}
	if w := serve(r, "/pdf", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing: got %d", w.Code)
	}
}

type countingLimiter struct {
	limit int
	seen  map[string]int
}

func (l *countingLimiter) Allow(key string) bool {
	l.seen[key]++
	return l.seen[key] <= l.limit
}

func TestRateLimitRunsBeforeTokenCheck(t *testing.T) {
	auth := newStubAuth()
	limiter := &countingLimiter{limit: 5, seen: map[string]int{}}
	r := gin.New()
	r.GET("/pdf", RateLimit(limiter), QueryTokenUser(auth), echoUser)

	for i := 0; i < 5; i++ {
		if w := serve(r, "/pdf?token=alice", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	calls := auth.calls

	for _, target := range []string{"/pdf?token=alice", "/pdf?token=garbage", "/pdf"} {
		if w := serve(r, target, ""); w.Code != http.StatusTooManyRequests {
			t.Fatalf("%s: expected 429, got %d", target, w.Code)
		}
	}
	if auth.calls != calls {
		t.Fatalf("token must not be verified once rate limited")
	}
	if limiter.seen["10.0.0.1"] != 8 {
		t.Fatalf("expected requests keyed by client ip, got %v", limiter.seen)
	}
}
