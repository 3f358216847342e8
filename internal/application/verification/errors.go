package verification

import (
	"errors"
	"fmt"
)

// ErrCodeRequired コードが入力されていないエラー
var ErrCodeRequired = errors.New("code is required")

// RateLimitedError IPレート制限によるブロックエラー
type RateLimitedError struct {
	// RetryAfterMinutes 再試行可能までの分数
	RetryAfterMinutes int
}

// Error エラーメッセージを返す
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %d minutes", e.RetryAfterMinutes)
}
