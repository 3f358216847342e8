package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"card-server/internal/application/administration"
	"card-server/internal/application/verification"
	"card-server/internal/domain/card_code"
	otelinfra "card-server/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
// 成功レスポンスと同じエンベロープ形式（success=false）を使用する。
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// IPレート制限によるブロック
	var rateLimited *verification.RateLimitedError
	if errors.As(err, &rateLimited) {
		logger.Warn(ctx, "Request blocked by rate limit", map[string]interface{}{
			"retry_after_minutes": rateLimited.RetryAfterMinutes,
		})
		c.Response().Header().Set("Retry-After", strconv.Itoa(rateLimited.RetryAfterMinutes*60))
		return c.JSON(http.StatusTooManyRequests, fail(err.Error()))
	}

	if errors.Is(err, card_code.ErrCodeNotFound) {
		logger.Warn(ctx, "Card code not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, fail(err.Error()))
	}

	if errors.Is(err, card_code.ErrCodeExhausted) {
		logger.Warn(ctx, "Card code exhausted", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, fail(err.Error()))
	}

	if errors.Is(err, card_code.ErrCodeAlreadyExists) {
		logger.Warn(ctx, "Card code already exists", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, fail(err.Error()))
	}

	if errors.Is(err, administration.ErrInvalidPassword) {
		logger.Warn(ctx, "Invalid admin password", nil)
		return c.JSON(http.StatusUnauthorized, fail(err.Error()))
	}

	// 入力検証エラー
	if isValidationError(err) {
		logger.Warn(ctx, "Validation error", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, fail(err.Error()))
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, fail(message))
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, fail("An unexpected error occurred"))
}

// isValidationError 400として扱う入力検証エラーかどうかを判定
func isValidationError(err error) bool {
	return errors.Is(err, verification.ErrCodeRequired) ||
		errors.Is(err, administration.ErrContentRequired) ||
		errors.Is(err, administration.ErrInvalidMaxUses) ||
		errors.Is(err, administration.ErrBatchTooLarge) ||
		errors.Is(err, administration.ErrCustomCodeWithBatch) ||
		errors.Is(err, administration.ErrPasswordRequired)
}

// fail 失敗レスポンスを作成
func fail(message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message}
}
