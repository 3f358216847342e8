package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"card-server/internal/infrastructure/config"
	otelinfra "card-server/internal/infrastructure/observability/otel"
)

// AdminSecretMiddleware 管理API認証ミドルウェア
// X-Admin-Tokenヘッダーの値を管理者パスワードと照合する。
func AdminSecretMiddleware(cfg *config.AdminConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			// 管理APIが無効化されている場合はエラー
			if !cfg.Enabled {
				logger.Warn(ctx, "Admin API is disabled", nil)
				return c.JSON(http.StatusForbidden, fail("Admin API is disabled"))
			}

			token := c.Request().Header.Get("X-Admin-Token")
			if token == "" {
				logger.Warn(ctx, "Missing X-Admin-Token header", nil)
				return c.JSON(http.StatusUnauthorized, fail("Missing X-Admin-Token header"))
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Password)) != 1 {
				logger.Warn(ctx, "Invalid admin token", nil)
				return c.JSON(http.StatusUnauthorized, fail("Invalid admin token"))
			}

			// IP制限のチェック（設定されている場合）
			if len(cfg.AllowedIPs) > 0 {
				clientIP := ClientIP(c)
				if !isIPAllowed(clientIP, cfg.AllowedIPs) {
					logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
						"ip": clientIP,
					})
					return c.JSON(http.StatusForbidden, fail("IP address not allowed"))
				}
			}

			return next(c)
		}
	}
}

// ClientIP クライアントのIPアドレスを取得
// X-Forwarded-Forの先頭、X-Real-IP、RemoteAddrの順に参照する。
func ClientIP(c echo.Context) string {
	forwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if forwardedFor != "" {
		ips := strings.Split(forwardedFor, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	realIP := c.Request().Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	addr := c.Request().RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// isIPAllowed IPアドレスが許可リストに含まれているかチェック
func isIPAllowed(ip string, allowedIPs []string) bool {
	for _, allowedIP := range allowedIPs {
		if ip == allowedIP {
			return true
		}
		// CIDR表記は簡易的にプレフィックスマッチのみ
		if strings.Contains(allowedIP, "/") {
			if strings.HasPrefix(ip, strings.Split(allowedIP, "/")[0]) {
				return true
			}
		}
	}
	return false
}
