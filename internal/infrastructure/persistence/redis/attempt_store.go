package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-server/internal/domain/ip_limit"
)

// attemptKeyPrefix IPごとの試行回数キーの接頭辞
const attemptKeyPrefix = "ip_attempts:"

// AttemptStore Redis実装のAttemptStore
// 試行のたびにキーの有効期限を更新するため、ブロック期間は最後の試行から数える。
type AttemptStore struct {
	client *redis.Client
	policy ip_limit.Policy
	tracer trace.Tracer
}

// NewAttemptStore 新しいAttemptStoreを作成
func NewAttemptStore(client *redis.Client, policy ip_limit.Policy) *AttemptStore {
	return &AttemptStore{
		client: client,
		policy: policy,
		tracer: otel.Tracer("attempt-store"),
	}
}

// Check 現在の試行回数からレート制限の判定を返す
func (s *AttemptStore) Check(ctx context.Context, ip string) (ip_limit.Verdict, error) {
	ctx, span := s.tracer.Start(ctx, "AttemptStore.Check")
	defer span.End()

	key := attemptKey(ip)
	span.SetAttributes(
		attribute.String("redis.key", key),
		attribute.Int("rate_limit.max_attempts", s.policy.MaxAttempts),
	)

	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		span.SetStatus(otelcodes.Ok, "no attempts recorded")
		return ip_limit.Allow(), nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return ip_limit.Verdict{}, fmt.Errorf("failed to get attempt count: %w", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return ip_limit.Verdict{}, fmt.Errorf("invalid attempt count %q: %w", val, err)
	}

	span.SetAttributes(attribute.Int("rate_limit.attempt_count", count))
	if verdict := s.policy.Evaluate(count, 0); verdict.Allowed {
		span.SetStatus(otelcodes.Ok, "attempt allowed")
		return verdict, nil
	}

	// ブロック中のみTTLを参照して残り時間を求める
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return ip_limit.Verdict{}, fmt.Errorf("failed to get block ttl: %w", err)
	}

	verdict := s.policy.Evaluate(count, ttl)
	span.SetAttributes(attribute.Int("rate_limit.retry_after_minutes", verdict.RetryAfterMinutes))
	span.SetStatus(otelcodes.Ok, "attempt blocked")
	return verdict, nil
}

// Record 試行を1回分記録し、ブロック期限を更新する
func (s *AttemptStore) Record(ctx context.Context, ip string) error {
	ctx, span := s.tracer.Start(ctx, "AttemptStore.Record")
	defer span.End()

	key := attemptKey(ip)
	span.SetAttributes(attribute.String("redis.key", key))

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.policy.BlockDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to record attempt: %w", err)
	}

	span.SetAttributes(attribute.Int64("rate_limit.attempt_count", incr.Val()))
	span.SetStatus(otelcodes.Ok, "attempt recorded")
	return nil
}

// attemptKey IPに対応するRedisキーを返す
func attemptKey(ip string) string {
	return attemptKeyPrefix + ip
}
