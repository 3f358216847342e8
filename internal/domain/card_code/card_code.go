package card_code

import (
	"errors"
	"strings"
	"time"
)

// CardCode カード券エンティティ
type CardCode struct {
	id         string
	code       string
	content    string
	maxUses    int
	usedCount  int
	used       bool
	usedAt     *time.Time
	usedByIP   string
	useHistory []UseRecord
	createdAt  time.Time
}

// NewCardCode 新しいCardCodeエンティティを作成
func NewCardCode(id, code, content string, maxUses int) (*CardCode, error) {
	if id == "" {
		return nil, errors.New("invalid id")
	}
	code = NormalizeCode(code)
	if code == "" {
		return nil, errors.New("invalid code")
	}
	if content == "" {
		return nil, errors.New("invalid content")
	}
	if maxUses < 1 {
		return nil, errors.New("max uses must be at least 1")
	}

	return &CardCode{
		id:        id,
		code:      code,
		content:   content,
		maxUses:   maxUses,
		usedCount: 0,
		used:      false,
		createdAt: time.Now(),
	}, nil
}

// ID IDを返す
func (c *CardCode) ID() string {
	return c.id
}

// Code コードを返す
func (c *CardCode) Code() string {
	return c.code
}

// Content 表示コンテンツを返す
func (c *CardCode) Content() string {
	return c.content
}

// MaxUses 最大使用回数を返す
func (c *CardCode) MaxUses() int {
	return c.maxUses
}

// UsedCount 現在の使用回数を返す
func (c *CardCode) UsedCount() int {
	return c.usedCount
}

// Used 使い切りフラグを返す
func (c *CardCode) Used() bool {
	return c.used
}

// UsedAt 使い切った日時を返す（未使用の場合はnil）
func (c *CardCode) UsedAt() *time.Time {
	return c.usedAt
}

// UsedByIP 最初に使用したIPアドレスを返す
func (c *CardCode) UsedByIP() string {
	return c.usedByIP
}

// UseHistory 使用履歴を返す
func (c *CardCode) UseHistory() []UseRecord {
	return c.useHistory
}

// CreatedAt 作成日時を返す
func (c *CardCode) CreatedAt() time.Time {
	return c.createdAt
}

// RemainingUses 残り使用回数を返す
func (c *CardCode) RemainingUses() int {
	return c.maxUses - c.usedCount
}

// Redeem 1回分を消費する
// 使用回数を増やし、履歴を追記する。初回使用時はusedByIPを記録し、
// 上限到達時はusedフラグとusedAtを設定する。
func (c *CardCode) Redeem(ip string, now time.Time) error {
	if c.usedCount >= c.maxUses {
		return ErrCodeExhausted
	}

	c.usedCount++
	c.useHistory = append(c.useHistory, NewUseRecord(ip, now))

	// 最初の使用のIPのみ記録する（以降は上書きしない）
	if c.usedCount == 1 {
		c.usedByIP = ip
	}

	if c.usedCount == c.maxUses {
		c.used = true
		usedAt := now
		c.usedAt = &usedAt
	}

	return nil
}

// SetUseState 使用状態を設定（リポジトリから読み込んだ際に使用）
func (c *CardCode) SetUseState(usedCount int, used bool, usedAt *time.Time, usedByIP string) {
	c.usedCount = usedCount
	c.used = used
	c.usedAt = usedAt
	c.usedByIP = usedByIP
}

// SetUseHistory 使用履歴を設定（リポジトリから読み込んだ際に使用）
func (c *CardCode) SetUseHistory(records []UseRecord) {
	c.useHistory = records
}

// SetCreatedAt 作成日時を設定（リポジトリから読み込んだ際に使用）
func (c *CardCode) SetCreatedAt(t time.Time) {
	c.createdAt = t
}

// NormalizeCode コードを保存形式（前後空白なし・大文字）に正規化
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// MustNewCardCode テスト用ヘルパー: NewCardCodeを呼び出し、エラーが発生した場合はpanicする
func MustNewCardCode(id, code, content string, maxUses int) *CardCode {
	c, err := NewCardCode(id, code, content, maxUses)
	if err != nil {
		panic(err)
	}
	return c
}
