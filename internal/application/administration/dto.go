package administration

import "card-server/internal/domain/card_code"

// AuthenticateRequest 管理者認証リクエスト
type AuthenticateRequest struct {
	Password string
}

// CreateCardsRequest カード券作成リクエスト
type CreateCardsRequest struct {
	// Content 引き換えで表示するコンテンツ（必須）
	Content string
	// MaxUses 最大使用回数（0の場合は1として扱う）
	MaxUses int
	// BatchCount 作成枚数（0の場合は1として扱う、上限100）
	BatchCount int
	// CustomCode 任意指定のコード（空の場合は自動生成）
	CustomCode string
}

// CreateCardsResponse カード券作成結果
type CreateCardsResponse struct {
	Cards []*card_code.CardCode
}
