package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 作成されたカード券の枚数
	CardCreatedCount metric.Int64Counter

	// 引き換え試行数（結果ラベル付き）
	RedemptionCount metric.Int64Counter

	// IPレート制限によるブロック数
	RateLimitBlockCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー数
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	cardCreatedCount, err := meter.Int64Counter(
		"cards_created_total",
		metric.WithDescription("Total number of card codes created"),
	)
	if err != nil {
		return nil, err
	}

	redemptionCount, err := meter.Int64Counter(
		"redemptions_total",
		metric.WithDescription("Total number of redemption attempts"),
	)
	if err != nil {
		return nil, err
	}

	rateLimitBlockCount, err := meter.Int64Counter(
		"rate_limit_blocks_total",
		metric.WithDescription("Total number of attempts blocked by the IP rate limit"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		CardCreatedCount:    cardCreatedCount,
		RedemptionCount:     redemptionCount,
		RateLimitBlockCount: rateLimitBlockCount,
		RequestCount:        requestCount,
		ResponseTime:        responseTime,
		ErrorCount:          errorCount,
	}, nil
}

// RecordCardsCreated カード券の作成を記録
func (m *Metrics) RecordCardsCreated(ctx context.Context, count int64) {
	m.CardCreatedCount.Add(ctx, count)
}

// RecordRedemption 引き換え試行を記録
// resultは"success"、"not_found"、"exhausted"、"error"のいずれか。
func (m *Metrics) RecordRedemption(ctx context.Context, result string) {
	m.RedemptionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("result", result),
		),
	)
}

// RecordRateLimitBlock レート制限によるブロックを記録
func (m *Metrics) RecordRateLimitBlock(ctx context.Context) {
	m.RateLimitBlockCount.Add(ctx, 1)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
