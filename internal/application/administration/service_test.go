package administration

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"card-server/internal/domain/card_code"
	otelinfra "card-server/internal/infrastructure/observability/otel"
)

// MockCardCodeRepository モックカード券リポジトリ
type MockCardCodeRepository struct {
	mock.Mock
}

func (m *MockCardCodeRepository) Create(ctx context.Context, card *card_code.CardCode) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardCodeRepository) CreateBatch(ctx context.Context, cards []*card_code.CardCode) error {
	args := m.Called(ctx, cards)
	return args.Error(0)
}

func (m *MockCardCodeRepository) FindByCode(ctx context.Context, code string) (*card_code.CardCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card_code.CardCode), args.Error(1)
}

func (m *MockCardCodeRepository) FindByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*card_code.CardCode, error) {
	args := m.Called(ctx, tx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card_code.CardCode), args.Error(1)
}

func (m *MockCardCodeRepository) Update(ctx context.Context, tx *sql.Tx, card *card_code.CardCode) error {
	args := m.Called(ctx, tx, card)
	return args.Error(0)
}

func (m *MockCardCodeRepository) AddUseRecord(ctx context.Context, tx *sql.Tx, cardID string, record card_code.UseRecord) error {
	args := m.Called(ctx, tx, cardID, record)
	return args.Error(0)
}

func (m *MockCardCodeRepository) FindAll(ctx context.Context) ([]*card_code.CardCode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*card_code.CardCode), args.Error(1)
}

func (m *MockCardCodeRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func newTestService(t *testing.T, repo *MockCardCodeRepository) *AdministrationApplicationService {
	t.Helper()

	tracer := otel.Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	return NewAdministrationApplicationService(repo, "admin-password", logger, metrics, tracer)
}

func TestAdministrationApplicationService_Authenticate(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		wantError error
	}{
		{name: "正常系: パスワードが一致", password: "admin-password"},
		{name: "異常系: パスワードが空", password: "", wantError: ErrPasswordRequired},
		{name: "異常系: パスワードが不一致", password: "wrong", wantError: ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, new(MockCardCodeRepository))

			err := svc.Authenticate(context.Background(), AuthenticateRequest{Password: tt.password})

			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAdministrationApplicationService_CreateCards(t *testing.T) {
	codeFormat := regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

	t.Run("正常系: 1枚作成（コード自動生成）", func(t *testing.T) {
		repo := new(MockCardCodeRepository)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*card_code.CardCode")).Return(nil)

		svc := newTestService(t, repo)

		resp, err := svc.CreateCards(context.Background(), CreateCardsRequest{
			Content: "プレミアム特典",
			MaxUses: 3,
		})
		require.NoError(t, err)
		require.Len(t, resp.Cards, 1)

		card := resp.Cards[0]
		assert.NotEmpty(t, card.ID())
		assert.Regexp(t, codeFormat, card.Code())
		assert.Equal(t, "プレミアム特典", card.Content())
		assert.Equal(t, 3, card.MaxUses())
		repo.AssertExpectations(t)
	})

	t.Run("正常系: 最大使用回数の既定値は1", func(t *testing.T) {
		repo := new(MockCardCodeRepository)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*card_code.CardCode")).Return(nil)

		svc := newTestService(t, repo)

		resp, err := svc.CreateCards(context.Background(), CreateCardsRequest{Content: "content"})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Cards[0].MaxUses())
	})

	t.Run("正常系: カスタムコードは大文字に正規化される", func(t *testing.T) {
		repo := new(MockCardCodeRepository)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(c *card_code.CardCode) bool {
			return c.Code() == "WELCOME2026"
		})).Return(nil)

		svc := newTestService(t, repo)

		resp, err := svc.CreateCards(context.Background(), CreateCardsRequest{
			Content:    "content",
			CustomCode: "welcome2026",
		})
		require.NoError(t, err)
		assert.Equal(t, "WELCOME2026", resp.Cards[0].Code())
		repo.AssertExpectations(t)
	})

	t.Run("正常系: 一括作成はコードとIDが全て異なる", func(t *testing.T) {
		repo := new(MockCardCodeRepository)
		repo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(cards []*card_code.CardCode) bool {
			return len(cards) == 5
		})).Return(nil)

		svc := newTestService(t, repo)

		resp, err := svc.CreateCards(context.Background(), CreateCardsRequest{
			Content:    "content",
			BatchCount: 5,
		})
		require.NoError(t, err)
		require.Len(t, resp.Cards, 5)

		ids := make(map[string]bool)
		codes := make(map[string]bool)
		for _, card := range resp.Cards {
			assert.False(t, ids[card.ID()])
			assert.False(t, codes[card.Code()])
			ids[card.ID()] = true
			codes[card.Code()] = true
		}
		repo.AssertExpectations(t)
	})

	t.Run("異常系: コンテンツが空", func(t *testing.T) {
		svc := newTestService(t, new(MockCardCodeRepository))

		_, err := svc.CreateCards(context.Background(), CreateCardsRequest{})
		assert.ErrorIs(t, err, ErrContentRequired)
	})

	t.Run("異常系: 最大使用回数が負", func(t *testing.T) {
		svc := newTestService(t, new(MockCardCodeRepository))

		_, err := svc.CreateCards(context.Background(), CreateCardsRequest{
			Content: "content",
			MaxUses: -1,
		})
		assert.ErrorIs(t, err, ErrInvalidMaxUses)
	})

	t.Run("異常系: 一括作成の上限超過", func(t *testing.T) {
		svc := newTestService(t, new(MockCardCodeRepository))

		_, err := svc.CreateCards(context.Background(), CreateCardsRequest{
			Content:    "content",
			BatchCount: 101,
		})
		assert.ErrorIs(t, err, ErrBatchTooLarge)
	})

	t.Run("異常系: カスタムコードと一括作成の併用", func(t *testing.T) {
		svc := newTestService(t, new(MockCardCodeRepository))

		_, err := svc.CreateCards(context.Background(), CreateCardsRequest{
			Content:    "content",
			BatchCount: 2,
			CustomCode: "CUSTOM",
		})
		assert.ErrorIs(t, err, ErrCustomCodeWithBatch)
	})

	t.Run("異常系: コードが既に存在", func(t *testing.T) {
		repo := new(MockCardCodeRepository)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*card_code.CardCode")).Return(card_code.ErrCodeAlreadyExists)

		svc := newTestService(t, repo)

		_, err := svc.CreateCards(context.Background(), CreateCardsRequest{
			Content:    "content",
			CustomCode: "DUPLICATE",
		})
		assert.ErrorIs(t, err, card_code.ErrCodeAlreadyExists)
	})
}

func TestAdministrationApplicationService_ListCards(t *testing.T) {
	t.Run("正常系: カード券一覧を取得", func(t *testing.T) {
		repo := new(MockCardCodeRepository)
		cards := []*card_code.CardCode{
			card_code.MustNewCardCode("card-1", "CODE-0001", "content1", 1),
			card_code.MustNewCardCode("card-2", "CODE-0002", "content2", 5),
		}
		repo.On("FindAll", mock.Anything).Return(cards, nil)

		svc := newTestService(t, repo)

		got, err := svc.ListCards(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("異常系: DBエラー", func(t *testing.T) {
		repo := new(MockCardCodeRepository)
		repo.On("FindAll", mock.Anything).Return(nil, sql.ErrConnDone)

		svc := newTestService(t, repo)

		got, err := svc.ListCards(context.Background())
		assert.Error(t, err)
		assert.Nil(t, got)
	})
}

func TestAdministrationApplicationService_DeleteCard(t *testing.T) {
	t.Run("正常系: カード券を削除", func(t *testing.T) {
		repo := new(MockCardCodeRepository)
		repo.On("Delete", mock.Anything, "card-1").Return(true, nil)

		svc := newTestService(t, repo)

		err := svc.DeleteCard(context.Background(), "card-1")
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("異常系: 対象が存在しない", func(t *testing.T) {
		repo := new(MockCardCodeRepository)
		repo.On("Delete", mock.Anything, "missing").Return(false, nil)

		svc := newTestService(t, repo)

		err := svc.DeleteCard(context.Background(), "missing")
		assert.ErrorIs(t, err, card_code.ErrCodeNotFound)
	})

	t.Run("異常系: DBエラー", func(t *testing.T) {
		repo := new(MockCardCodeRepository)
		repo.On("Delete", mock.Anything, "card-1").Return(false, sql.ErrConnDone)

		svc := newTestService(t, repo)

		err := svc.DeleteCard(context.Background(), "card-1")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, card_code.ErrCodeNotFound)
	})
}
