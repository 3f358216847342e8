package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"card-server/internal/application/verification"
	"card-server/internal/presentation/rest/middleware"
)

// CardVerificationHandler カード券引き換えハンドラー
type CardVerificationHandler struct {
	verificationService *verification.VerificationApplicationService
}

// NewCardVerificationHandler 新しいCardVerificationHandlerを作成
func NewCardVerificationHandler(verificationService *verification.VerificationApplicationService) *CardVerificationHandler {
	return &CardVerificationHandler{
		verificationService: verificationService,
	}
}

// Verify カード券コードを引き換える
// POST /api/v1/verify
func (h *CardVerificationHandler) Verify(c echo.Context) error {
	var reqBody struct {
		Code string `json:"code"`
	}

	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req := verification.VerifyRequest{
		Code:     reqBody.Code,
		ClientIP: middleware.ClientIP(c),
	}

	resp, err := h.verificationService.Verify(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, OK(VerifyResult{
		Content:       resp.Content,
		RemainingUses: resp.RemainingUses,
		MaxUses:       resp.MaxUses,
	}))
}
