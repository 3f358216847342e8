package administration

import (
	"errors"
	"fmt"
)

// maxBatchCount 一括作成できる最大枚数
const maxBatchCount = 100

var (
	// ErrContentRequired コンテンツが指定されていないエラー
	ErrContentRequired = errors.New("content is required")
	// ErrInvalidMaxUses 最大使用回数が不正なエラー
	ErrInvalidMaxUses = errors.New("max uses must be at least 1")
	// ErrBatchTooLarge 一括作成の上限を超えているエラー
	ErrBatchTooLarge = fmt.Errorf("batch count must be between 1 and %d", maxBatchCount)
	// ErrCustomCodeWithBatch カスタムコードと一括作成の併用エラー
	ErrCustomCodeWithBatch = errors.New("custom code cannot be used with batch creation")
	// ErrPasswordRequired パスワードが指定されていないエラー
	ErrPasswordRequired = errors.New("password is required")
	// ErrInvalidPassword パスワードが一致しないエラー
	ErrInvalidPassword = errors.New("invalid password")
)
