package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	runRequest := func(t *testing.T, path string) *httptest.ResponseRecorder {
		t.Helper()

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		next := func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		}
		require.NoError(t, SecurityHeadersMiddleware()(next)(c))
		return rec
	}

	t.Run("正常系: 基本的なセキュリティヘッダーが設定される", func(t *testing.T) {
		rec := runRequest(t, "/api/v1/verify")

		assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
		assert.NotContains(t, rec.Header().Get("Content-Security-Policy"), "unpkg.com")
	})

	t.Run("正常系: SwaggerパスではCDNを許可", func(t *testing.T) {
		rec := runRequest(t, "/swagger")

		assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://unpkg.com")
	})

	t.Run("正常系: HTTP接続ではHSTSを設定しない", func(t *testing.T) {
		rec := runRequest(t, "/api/v1/verify")

		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	})
}
