package handler

import (
	"time"

	"card-server/internal/domain/card_code"
)

// Response 全エンドポイント共通のレスポンスエンベロープ
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// OK 成功レスポンスを作成
func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Fail 失敗レスポンスを作成
func Fail(message string) Response {
	return Response{Success: false, Message: message}
}

// VerifyResult カード券引き換え結果ビュー
type VerifyResult struct {
	Content       string `json:"content"`
	RemainingUses int    `json:"remainingUses"`
	MaxUses       int    `json:"maxUses"`
}

// UseRecordItem 使用履歴エントリビュー
type UseRecordItem struct {
	IP     string    `json:"ip"`
	UsedAt time.Time `json:"usedAt"`
}

// CardItem 管理画面向けカード券ビュー
type CardItem struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	Content    string          `json:"content"`
	MaxUses    int             `json:"maxUses"`
	UsedCount  int             `json:"usedCount"`
	Used       bool            `json:"used"`
	UsedAt     *time.Time      `json:"usedAt,omitempty"`
	UsedByIP   string          `json:"usedByIp,omitempty"`
	UseHistory []UseRecordItem `json:"useHistory"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// toCardItem エンティティをビューに変換
func toCardItem(card *card_code.CardCode) CardItem {
	history := make([]UseRecordItem, 0, len(card.UseHistory()))
	for _, record := range card.UseHistory() {
		history = append(history, UseRecordItem{
			IP:     record.IP(),
			UsedAt: record.UsedAt(),
		})
	}

	return CardItem{
		ID:         card.ID(),
		Code:       card.Code(),
		Content:    card.Content(),
		MaxUses:    card.MaxUses(),
		UsedCount:  card.UsedCount(),
		Used:       card.Used(),
		UsedAt:     card.UsedAt(),
		UsedByIP:   card.UsedByIP(),
		UseHistory: history,
		CreatedAt:  card.CreatedAt(),
	}
}

// toCardItems エンティティのスライスをビューに変換
func toCardItems(cards []*card_code.CardCode) []CardItem {
	items := make([]CardItem, 0, len(cards))
	for _, card := range cards {
		items = append(items, toCardItem(card))
	}
	return items
}
