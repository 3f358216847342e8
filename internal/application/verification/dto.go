package verification

// VerifyRequest カード券引き換えリクエスト
type VerifyRequest struct {
	// Code 入力されたカード券コード（正規化前でよい）
	Code string
	// ClientIP リクエスト元のIPアドレス
	ClientIP string
}

// VerifyResponse カード券引き換え結果
type VerifyResponse struct {
	// Content 引き換えで表示するコンテンツ
	Content string
	// RemainingUses 今回の使用を含めた残り使用回数
	RemainingUses int
	// MaxUses 最大使用回数
	MaxUses int
}
