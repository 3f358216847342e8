package rest

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	adminapp "card-server/internal/application/administration"
	verifyapp "card-server/internal/application/verification"
	"card-server/internal/domain/card_code"
	"card-server/internal/infrastructure/config"
	otelinfra "card-server/internal/infrastructure/observability/otel"
)

// stubCardCodeRepository ルーティング検証用の空実装
type stubCardCodeRepository struct{}

func (s *stubCardCodeRepository) Create(ctx context.Context, card *card_code.CardCode) error {
	return nil
}

func (s *stubCardCodeRepository) CreateBatch(ctx context.Context, cards []*card_code.CardCode) error {
	return nil
}

func (s *stubCardCodeRepository) FindByCode(ctx context.Context, code string) (*card_code.CardCode, error) {
	return nil, card_code.ErrCodeNotFound
}

func (s *stubCardCodeRepository) FindByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*card_code.CardCode, error) {
	return nil, card_code.ErrCodeNotFound
}

func (s *stubCardCodeRepository) Update(ctx context.Context, tx *sql.Tx, card *card_code.CardCode) error {
	return nil
}

func (s *stubCardCodeRepository) AddUseRecord(ctx context.Context, tx *sql.Tx, cardID string, record card_code.UseRecord) error {
	return nil
}

func (s *stubCardCodeRepository) FindAll(ctx context.Context) ([]*card_code.CardCode, error) {
	return []*card_code.CardCode{}, nil
}

func (s *stubCardCodeRepository) Delete(ctx context.Context, id string) (bool, error) {
	return false, nil
}

// stubTransactionManager トランザクションなしでfnを実行する
type stubTransactionManager struct{}

func (s *stubTransactionManager) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	return fn(nil)
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	cfg := &config.Config{
		Admin: config.AdminConfig{
			Enabled:  true,
			Password: "admin-secret",
		},
	}

	tracer := noop.NewTracerProvider().Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	repo := &stubCardCodeRepository{}
	verificationService := verifyapp.NewVerificationApplicationService(repo, nil, &stubTransactionManager{}, logger, metrics, tracer)
	adminService := adminapp.NewAdministrationApplicationService(repo, "admin-password", logger, metrics, tracer)

	router, err := NewRouter(cfg, logger, metrics, verificationService, adminService)
	require.NoError(t, err)
	return router
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name           string
		method         string
		target         string
		body           string
		headers        map[string]string
		expectedStatus int
	}{
		{
			name:           "正常系: ヘルスチェック",
			method:         http.MethodGet,
			target:         "/health",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "正常系: 引き換えエンドポイントは認証不要",
			method:         http.MethodPost,
			target:         "/api/v1/verify",
			body:           `{"code":"MISSING"}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "異常系: 管理エンドポイントはトークンなしで401",
			method:         http.MethodGet,
			target:         "/api/v1/admin/cards",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "正常系: 管理エンドポイントはトークンありでアクセス可能",
			method:         http.MethodGet,
			target:         "/api/v1/admin/cards",
			headers:        map[string]string{"X-Admin-Token": "admin-secret"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "正常系: 管理者認証エンドポイントはトークン不要",
			method:         http.MethodPost,
			target:         "/api/v1/admin/auth",
			body:           `{"password":"admin-password"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "正常系: OpenAPI仕様書を取得",
			method:         http.MethodGet,
			target:         "/openapi.yaml",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.target, body)
			req.Header.Set("Content-Type", "application/json")
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			rec := httptest.NewRecorder()

			router.echo.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.echo.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
