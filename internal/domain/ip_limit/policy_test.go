package ip_limit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()
	assert.Equal(t, 10, policy.MaxAttempts)
	assert.Equal(t, time.Hour, policy.BlockDuration)
}

func TestPolicy_RetryAfterMinutes(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name      string
		remaining time.Duration
		want      int
	}{
		{name: "正常系: ちょうど30分", remaining: 30 * time.Minute, want: 30},
		{name: "正常系: 端数は切り上げ", remaining: 29*time.Minute + time.Second, want: 30},
		{name: "正常系: 1分未満は1分", remaining: 30 * time.Second, want: 1},
		{name: "正常系: 残り時間が0の場合はブロック期間全体", remaining: 0, want: 60},
		{name: "正常系: 残り時間が負の場合はブロック期間全体", remaining: -time.Minute, want: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.RetryAfterMinutes(tt.remaining))
		})
	}
}

func TestPolicy_Evaluate(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name           string
		count          int
		remaining      time.Duration
		wantAllowed    bool
		wantRetryAfter int
	}{
		{name: "正常系: 試行履歴なしは許可", count: 0, wantAllowed: true},
		{name: "正常系: 9回記録済みなら10回目は許可", count: 9, wantAllowed: true},
		{name: "正常系: 10回記録済みなら11回目はブロック", count: 10, remaining: 30 * time.Minute, wantAllowed: false, wantRetryAfter: 30},
		{name: "正常系: 上限を超えてもブロックを継続", count: 15, remaining: 59*time.Minute + time.Second, wantAllowed: false, wantRetryAfter: 60},
		{name: "正常系: 残り時間不明のブロックはブロック期間全体", count: 10, remaining: 0, wantAllowed: false, wantRetryAfter: 60},
		{name: "正常系: 残り1分未満のブロックは1分", count: 10, remaining: 10 * time.Second, wantAllowed: false, wantRetryAfter: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := policy.Evaluate(tt.count, tt.remaining)
			assert.Equal(t, tt.wantAllowed, verdict.Allowed)
			assert.Equal(t, tt.wantRetryAfter, verdict.RetryAfterMinutes)
		})
	}
}

func TestVerdict(t *testing.T) {
	allowed := Allow()
	assert.True(t, allowed.Allowed)
	assert.Equal(t, 0, allowed.RetryAfterMinutes)

	blocked := Block(42)
	assert.False(t, blocked.Allowed)
	assert.Equal(t, 42, blocked.RetryAfterMinutes)
}
