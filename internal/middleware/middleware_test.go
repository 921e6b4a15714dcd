package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/jobhunt-api/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimit(t *testing.T) {
	rl := middleware.NewRateLimiter(1) // burst 2
	defer rl.Stop()

	r := gin.New()
	r.Use(rl.Limit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, code)
		}
	}
	if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", code)
	}
	if code := do("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetRequestID(c))
	})

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"generated", "", false},
		{"propagated", "abc-123", true},
		{"propagated_uuid", "3f2c1a9e-8d4b-4c7e-9a1f-0b6d5e4c3a21", true},
		{"max_length", strings.Repeat("a", 64), true},
		{"too_long", strings.Repeat("a", 65), false},
		{"spaces", "abc 123", false},
		{"log_injection", `abc"}{"level":"error`, false},
		{"non_ascii", "ïd-1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(middleware.HeaderRequestID, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(middleware.HeaderRequestID)
			if got == "" {
				t.Fatal("response has no request ID")
			}
			if tt.keep && got != tt.header {
				t.Errorf("request ID = %q, want %q", got, tt.header)
			}
			if !tt.keep {
				if got == tt.header {
					t.Errorf("request ID %q was reused, want a fresh one", got)
				}
				if _, err := uuid.Parse(got); err != nil {
					t.Errorf("generated request ID %q is not a uuid: %v", got, err)
				}
			}
			if w.Body.String() != got {
				t.Errorf("context request ID = %q, header = %q", w.Body.String(), got)
			}
		})
	}
}
