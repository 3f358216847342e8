package ip_limit

import "context"

// AttemptStore IPごとの試行回数ストアインターフェース
// ブロック期間を過ぎた記録は存在しないものとして扱う。
type AttemptStore interface {
	// Check 現在の試行回数からレート制限の判定を返す
	Check(ctx context.Context, ip string) (Verdict, error)

	// Record 試行を1回分記録する
	// 既存の記録がある場合は回数を増やし、ブロック期限を更新する。
	Record(ctx context.Context, ip string) error
}
