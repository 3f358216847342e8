package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"card-server/internal/application/administration"
)

// CardAdminHandler カード券管理ハンドラー
type CardAdminHandler struct {
	adminService *administration.AdministrationApplicationService
}

// NewCardAdminHandler 新しいCardAdminHandlerを作成
func NewCardAdminHandler(adminService *administration.AdministrationApplicationService) *CardAdminHandler {
	return &CardAdminHandler{
		adminService: adminService,
	}
}

// Authenticate 管理者パスワードを検証する
// POST /api/v1/admin/auth
func (h *CardAdminHandler) Authenticate(c echo.Context) error {
	var reqBody struct {
		Password string `json:"password"`
	}

	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req := administration.AuthenticateRequest{Password: reqBody.Password}
	if err := h.adminService.Authenticate(c.Request().Context(), req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, OK(map[string]string{"status": "authenticated"}))
}

// ListCards 全カード券を取得する
// GET /api/v1/admin/cards
func (h *CardAdminHandler) ListCards(c echo.Context) error {
	cards, err := h.adminService.ListCards(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, OK(toCardItems(cards)))
}

// CreateCards カード券を作成する
// POST /api/v1/admin/cards
// batchCountが2以上の場合は配列、1の場合は単一オブジェクトを返す。
func (h *CardAdminHandler) CreateCards(c echo.Context) error {
	var reqBody struct {
		Content    string `json:"content"`
		MaxUses    int    `json:"maxUses"`
		BatchCount int    `json:"batchCount"`
		CustomCode string `json:"customCode"`
	}

	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req := administration.CreateCardsRequest{
		Content:    reqBody.Content,
		MaxUses:    reqBody.MaxUses,
		BatchCount: reqBody.BatchCount,
		CustomCode: reqBody.CustomCode,
	}

	resp, err := h.adminService.CreateCards(c.Request().Context(), req)
	if err != nil {
		return err
	}

	if reqBody.BatchCount > 1 {
		return c.JSON(http.StatusCreated, OK(toCardItems(resp.Cards)))
	}
	return c.JSON(http.StatusCreated, OK(toCardItem(resp.Cards[0])))
}

// DeleteCard IDでカード券を削除する
// DELETE /api/v1/admin/cards?id=<card_id>
func (h *CardAdminHandler) DeleteCard(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	if err := h.adminService.DeleteCard(c.Request().Context(), id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, OK(map[string]string{"id": id}))
}
