package handler

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"card-server/internal/domain/card_code"
	"card-server/internal/domain/ip_limit"
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

// MockAttemptStore モック試行回数ストア
type MockAttemptStore struct {
	mock.Mock
}

func (m *MockAttemptStore) Check(ctx context.Context, ip string) (ip_limit.Verdict, error) {
	args := m.Called(ctx, ip)
	return args.Get(0).(ip_limit.Verdict), args.Error(1)
}

func (m *MockAttemptStore) Record(ctx context.Context, ip string) error {
	args := m.Called(ctx, ip)
	return args.Error(0)
}

// MockTransactionManager モックトランザクションマネージャー
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	m.Called(ctx, fn)
	return fn(nil)
}
