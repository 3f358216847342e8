package card_code

import "errors"

var (
	// ErrCodeNotFound カード券が見つからないエラー
	ErrCodeNotFound = errors.New("card code not found")
	// ErrCodeExhausted カード券の使用上限に達しているエラー
	ErrCodeExhausted = errors.New("card code has reached its maximum uses")
	// ErrCodeAlreadyExists 同じコードが既に存在するエラー
	ErrCodeAlreadyExists = errors.New("card code already exists")
)
