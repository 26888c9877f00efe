package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/lllypuk/rollcall/internal/middleware"
)

func TestDefaultCORSConfig(t *testing.T) {
	config := middleware.DefaultCORSConfig()

	assert.Equal(t, []string{"*"}, config.AllowOrigins)
	assert.ElementsMatch(t, []string{
		http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodOptions,
	}, config.AllowMethods)
	assert.Contains(t, config.AllowHeaders, echo.HeaderContentType)
	assert.Contains(t, config.AllowHeaders, middleware.RequestIDHeader)
	assert.Contains(t, config.ExposeHeaders, "X-Ratelimit-Remaining")
	assert.False(t, config.AllowCredentials)
	assert.Equal(t, middleware.DefaultCORSMaxAge, config.MaxAge)
}

func newCORSEcho(mw echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw)
	e.GET("/api/v1/users/:userId", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func TestCORS_SimpleRequest(t *testing.T) {
	tests := []struct {
		name       string
		mw         echo.MiddlewareFunc
		origin     string
		wantOrigin string
	}{
		{
			name:       "default allows any origin",
			mw:         middleware.CORS(middleware.DefaultCORSConfig()),
			origin:     "http://example.com",
			wantOrigin: "*",
		},
		{
			name:       "listed origin is echoed",
			mw:         middleware.CORSWithOrigins("http://localhost:8081", "https://app.rollcall.dev"),
			origin:     "https://app.rollcall.dev",
			wantOrigin: "https://app.rollcall.dev",
		},
		{
			name:       "unlisted origin gets no header",
			mw:         middleware.CORSWithOrigins("http://localhost:8081"),
			origin:     "http://evil.example",
			wantOrigin: "",
		},
		{
			name:       "empty origin list keeps wildcard",
			mw:         middleware.CORSWithOrigins(),
			origin:     "http://example.com",
			wantOrigin: "*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newCORSEcho(tt.mw)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/abc", nil)
			req.Header.Set(echo.HeaderOrigin, tt.origin)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	e := newCORSEcho(middleware.CORS(middleware.DefaultCORSConfig()))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/abc", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:8081")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPut)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPut)
	assert.Equal(t, "86400", rec.Header().Get(echo.HeaderAccessControlMaxAge))
}
