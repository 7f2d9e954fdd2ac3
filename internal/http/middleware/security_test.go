package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders_BaselineAndExposeHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestID()) // sets X-Request-ID on the response
	r.Use(SecurityHeaders(SecurityOptions{}))
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("baseline headers always set", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		r.ServeHTTP(w, req)

		h := w.Header()
		if h.Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("X-Content-Type-Options = %q", h.Get("X-Content-Type-Options"))
		}
		if h.Get("X-Frame-Options") != "DENY" {
			t.Fatalf("X-Frame-Options = %q", h.Get("X-Frame-Options"))
		}
		if h.Get("Referrer-Policy") != "no-referrer" {
			t.Fatalf("Referrer-Policy = %q", h.Get("Referrer-Policy"))
		}
		// Optional headers must be absent when not enabled.
		if h.Get("Permissions-Policy") != "" || h.Get("Cache-Control") != "" ||
			h.Get("Strict-Transport-Security") != "" {
			t.Fatalf("unexpected optional headers set: %v", h)
		}
		// X-Request-ID was set by RequestID(), so it must be exposed.
		if h.Get("Access-Control-Expose-Headers") != "X-Request-ID" {
			t.Fatalf("Access-Control-Expose-Headers = %q", h.Get("Access-Control-Expose-Headers"))
		}
	})

	t.Run("expose header appended without duplication", func(t *testing.T) {
		r2 := gin.New()
		// Seed an existing expose header before SecurityHeaders runs.
		r2.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Expose-Headers", "ETag")
			c.Next()
		})
		r2.Use(RequestID())
		r2.Use(SecurityHeaders(SecurityOptions{}))
		r2.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		r2.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Expose-Headers"); got != "ETag, X-Request-ID" {
			t.Fatalf("Access-Control-Expose-Headers = %q; want %q", got, "ETag, X-Request-ID")
		}

		// Second run with X-Request-ID already exposed must not duplicate it.
		r3 := gin.New()
		r3.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
			c.Next()
		})
		r3.Use(RequestID())
		r3.Use(SecurityHeaders(SecurityOptions{}))
		r3.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w2 := httptest.NewRecorder()
		req2 := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		r3.ServeHTTP(w2, req2)
		if got := w2.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-ID" {
			t.Fatalf("Access-Control-Expose-Headers = %q; want no duplicate", got)
		}
	})
}

func TestSecurityHeaders_PolicyNoStoreAndHSTS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	opt := SecurityOptions{
		EnableHSTS:   true,
		HSTSMaxAge:   time.Hour,
		NoStore:      true,
		EnablePolicy: true,
	}
	r := gin.New()
	r.Use(SecurityHeaders(opt))
	r.GET("/api/qr/list", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("policy and no-store headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/qr/list", nil)
		r.ServeHTTP(w, req)

		h := w.Header()
		if h.Get("Permissions-Policy") == "" {
			t.Fatalf("expected Permissions-Policy set")
		}
		if h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
			t.Fatalf("X-Permitted-Cross-Domain-Policies = %q", h.Get("X-Permitted-Cross-Domain-Policies"))
		}
		if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
			t.Fatalf("no-store headers missing: %v", h)
		}
		// Plain HTTP request, so HSTS must be absent even when enabled.
		if h.Get("Strict-Transport-Security") != "" {
			t.Fatalf("HSTS set on plain HTTP request")
		}
	})

	t.Run("HSTS via TLS", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/qr/list", nil)
		req.TLS = &tls.ConnectionState{}
		r.ServeHTTP(w, req)

		want := "max-age=3600; includeSubDomains; preload"
		if got := w.Header().Get("Strict-Transport-Security"); got != want {
			t.Fatalf("Strict-Transport-Security = %q; want %q", got, want)
		}
	})

	t.Run("HSTS via X-Forwarded-Proto", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/qr/list", nil)
		req.Header.Set("X-Forwarded-Proto", "HTTPS")
		r.ServeHTTP(w, req)
		if w.Header().Get("Strict-Transport-Security") == "" {
			t.Fatalf("expected HSTS for X-Forwarded-Proto: https")
		}
	})

	t.Run("max-age defaults to 180 days", func(t *testing.T) {
		r2 := gin.New()
		r2.Use(SecurityHeaders(SecurityOptions{EnableHSTS: true}))
		r2.GET("/api/qr/list", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/qr/list", nil)
		req.TLS = &tls.ConnectionState{}
		r2.ServeHTTP(w, req)

		want := "max-age=" + strconv.Itoa(int((180*24*time.Hour).Seconds())) + "; includeSubDomains; preload"
		if got := w.Header().Get("Strict-Transport-Security"); got != want {
			t.Fatalf("Strict-Transport-Security = %q; want %q", got, want)
		}
	})
}

func Test_isHTTPS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(req) {
		t.Fatalf("plain request reported as HTTPS")
	}
	req.TLS = &tls.ConnectionState{}
	if !isHTTPS(req) {
		t.Fatalf("TLS request not reported as HTTPS")
	}
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.Header.Set("X-Forwarded-Proto", "https")
	if !isHTTPS(req2) {
		t.Fatalf("forwarded HTTPS not detected")
	}
	req2.Header.Set("X-Forwarded-Proto", "http")
	if isHTTPS(req2) {
		t.Fatalf("forwarded HTTP misreported as HTTPS")
	}
}

func Test_itoa_and_strconvItoa(t *testing.T) {
	for _, n := range []int{1, 9, 10, 42, 1234567890, -1, -42} {
		if got, want := itoa(n), strconv.Itoa(n); got != want {
			t.Fatalf("itoa(%d) = %q; want %q", n, got, want)
		}
	}
	if itoa(0) != "0" {
		t.Fatalf("itoa(0) = %q; want \"0\"", itoa(0))
	}
}
