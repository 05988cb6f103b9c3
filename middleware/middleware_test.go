package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinerozz/tracking-backend/pkg/utils"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func init() {
	gin.SetMode(gin.TestMode)
}

type countingLimiter struct{ remaining int }

func (l *countingLimiter) Allow(context.Context, string, int, time.Duration) bool {
	l.remaining--
	return l.remaining >= 0
}

func adminRouter() *gin.Engine {
	r := gin.New()
	r.GET("/admin", AdminMiddleware("secret", discard), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestAdminMiddleware(t *testing.T) {
	t.Parallel()

	admin, err := utils.GenerateToken("secret", "ops", true, time.Hour)
	require.NoError(t, err)
	editor, err := utils.GenerateToken("secret", "ed", false, time.Hour)
	require.NoError(t, err)
	forged, err := utils.GenerateToken("wrong", "ops", true, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		cookie  string
		want    int
		message string
	}{
		{name: "missing", want: http.StatusUnauthorized, message: "unauthorized: missing authentication token"},
		{name: "bearer admin", header: "Bearer " + admin, want: http.StatusOK},
		{name: "cookie admin", cookie: admin, want: http.StatusOK},
		{name: "not admin", header: "Bearer " + editor, want: http.StatusForbidden, message: "forbidden: admin access required"},
		{name: "bad signature", header: "Bearer " + forged, want: http.StatusUnauthorized, message: "unauthorized: invalid authentication token"},
	}

	r := adminRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.message != "" {
				assert.JSONEq(t, `{"message":"`+tt.message+`","success":false}`, w.Body.String())
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.POST("/x", RateLimitMiddleware(&countingLimiter{remaining: 2}, "view", 2, time.Minute, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://blog.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://blog.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
