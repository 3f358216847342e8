package card_code

import (
	"context"
	"database/sql"
	"time"
)

// UseRecord 使用履歴エントリ
type UseRecord struct {
	ip     string
	usedAt time.Time
}

// NewUseRecord 新しいUseRecordを作成
func NewUseRecord(ip string, usedAt time.Time) UseRecord {
	if ip == "" {
		ip = "unknown"
	}
	return UseRecord{
		ip:     ip,
		usedAt: usedAt,
	}
}

// IP 使用したIPアドレスを返す
func (r UseRecord) IP() string {
	return r.ip
}

// UsedAt 使用日時を返す
func (r UseRecord) UsedAt() time.Time {
	return r.usedAt
}

// CardCodeRepository カード券リポジトリインターフェース
type CardCodeRepository interface {
	// Create カード券を保存（コード重複時はErrCodeAlreadyExists）
	Create(ctx context.Context, card *CardCode) error

	// CreateBatch 複数のカード券を1トランザクションで保存
	CreateBatch(ctx context.Context, cards []*CardCode) error

	// FindByCode コードでカード券を取得（使用履歴込み）
	FindByCode(ctx context.Context, code string) (*CardCode, error)

	// FindByCodeForUpdate 行ロック付きでカード券を取得
	// 引き換え処理の直列化のため、必ずトランザクション内で呼び出すこと
	FindByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*CardCode, error)

	// Update 使用状態を更新（トランザクション内で使用）
	Update(ctx context.Context, tx *sql.Tx, card *CardCode) error

	// AddUseRecord 使用履歴を1件追記（トランザクション内で使用）
	AddUseRecord(ctx context.Context, tx *sql.Tx, cardID string, record UseRecord) error

	// FindAll 全カード券を作成日時の降順で取得
	FindAll(ctx context.Context) ([]*CardCode, error)

	// Delete IDでカード券を削除。存在しなかった場合はfalseを返す
	Delete(ctx context.Context, id string) (bool, error)
}

// TransactionManager トランザクション境界を提供するインターフェース
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error
}
