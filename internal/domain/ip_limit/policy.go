package ip_limit

import (
	"math"
	"time"
)

const (
	// DefaultMaxAttempts ブロックまでに許可する試行回数
	DefaultMaxAttempts = 10
	// DefaultBlockDuration ブロック期間
	DefaultBlockDuration = time.Hour
)

// Policy IPレート制限ポリシー
type Policy struct {
	MaxAttempts   int
	BlockDuration time.Duration
}

// DefaultPolicy 既定のポリシー（1時間に10回まで）を返す
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   DefaultMaxAttempts,
		BlockDuration: DefaultBlockDuration,
	}
}

// RetryAfterMinutes 残りブロック時間を分単位（切り上げ）で返す
// 残り時間が不明（0以下）の場合はブロック期間全体を返す。
func (p Policy) RetryAfterMinutes(remaining time.Duration) int {
	if remaining <= 0 {
		remaining = p.BlockDuration
	}
	minutes := int(math.Ceil(remaining.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Evaluate 記録済みの試行回数と残りブロック時間から判定を返す
// 試行回数がMaxAttempts以上であればブロックする。
func (p Policy) Evaluate(count int, remaining time.Duration) Verdict {
	if count < p.MaxAttempts {
		return Allow()
	}
	return Block(p.RetryAfterMinutes(remaining))
}

// Verdict レート制限の判定結果
type Verdict struct {
	// Allowed 試行を許可するかどうか
	Allowed bool
	// RetryAfterMinutes ブロック時の再試行可能までの分数（許可時は0）
	RetryAfterMinutes int
}

// Allow 許可の判定結果を返す
func Allow() Verdict {
	return Verdict{Allowed: true}
}

// Block ブロックの判定結果を返す
func Block(retryAfterMinutes int) Verdict {
	return Verdict{Allowed: false, RetryAfterMinutes: retryAfterMinutes}
}
