package verification

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-server/internal/domain/card_code"
	"card-server/internal/domain/ip_limit"
	otelpkg "card-server/internal/infrastructure/observability/otel"
)

// VerificationApplicationService カード券引き換えのアプリケーションサービス
type VerificationApplicationService struct {
	cardRepo  card_code.CardCodeRepository
	attempts  ip_limit.AttemptStore
	txManager card_code.TransactionManager
	logger    *otelpkg.Logger
	metrics   *otelpkg.Metrics
	tracer    trace.Tracer
}

// NewVerificationApplicationService 新しいVerificationApplicationServiceを作成
// attemptsがnilの場合、IPレート制限は行わない。
func NewVerificationApplicationService(
	cardRepo card_code.CardCodeRepository,
	attempts ip_limit.AttemptStore,
	txManager card_code.TransactionManager,
	logger *otelpkg.Logger,
	metrics *otelpkg.Metrics,
	tracer trace.Tracer,
) *VerificationApplicationService {
	return &VerificationApplicationService{
		cardRepo:  cardRepo,
		attempts:  attempts,
		txManager: txManager,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
	}
}

// Verify カード券コードを引き換える
// 流れ: IPレート制限の判定 → 試行の記録 → トランザクション内での引き換え。
// 試行の記録は結果にかかわらず行うため、存在しないコードの連打もブロック対象になる。
func (s *VerificationApplicationService) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	ctx, span := s.tracer.Start(ctx, "VerificationApplicationService.Verify")
	defer span.End()

	span.SetAttributes(attribute.String("verify.client_ip", req.ClientIP))

	if verdict, checked := s.checkRateLimit(ctx, req.ClientIP); checked && !verdict.Allowed {
		s.metrics.RecordRateLimitBlock(ctx)
		s.logger.Warn(ctx, "verification blocked by rate limit", map[string]interface{}{
			"client_ip":           req.ClientIP,
			"retry_after_minutes": verdict.RetryAfterMinutes,
		})
		span.SetAttributes(attribute.Bool("verify.rate_limited", true))
		span.SetStatus(otelcodes.Ok, "rate limited")
		return nil, &RateLimitedError{RetryAfterMinutes: verdict.RetryAfterMinutes}
	}

	s.recordAttempt(ctx, req.ClientIP)

	code := card_code.NormalizeCode(req.Code)
	if code == "" {
		span.SetStatus(otelcodes.Ok, "code required")
		return nil, ErrCodeRequired
	}
	span.SetAttributes(attribute.String("verify.code", code))

	var card *card_code.CardCode
	now := time.Now()
	err := s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		found, err := s.cardRepo.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return err
		}

		if err := found.Redeem(req.ClientIP, now); err != nil {
			return err
		}

		if err := s.cardRepo.Update(ctx, tx, found); err != nil {
			return err
		}

		history := found.UseHistory()
		if err := s.cardRepo.AddUseRecord(ctx, tx, found.ID(), history[len(history)-1]); err != nil {
			return err
		}

		card = found
		return nil
	})
	if err != nil {
		return nil, s.handleVerifyError(ctx, span, code, req.ClientIP, err)
	}

	s.metrics.RecordRedemption(ctx, "success")
	s.logger.Info(ctx, "card code redeemed", map[string]interface{}{
		"card_id":        card.ID(),
		"code":           card.Code(),
		"used_count":     card.UsedCount(),
		"max_uses":       card.MaxUses(),
		"remaining_uses": card.RemainingUses(),
		"client_ip":      req.ClientIP,
	})
	span.SetAttributes(
		attribute.Int("verify.used_count", card.UsedCount()),
		attribute.Int("verify.remaining_uses", card.RemainingUses()),
	)
	span.SetStatus(otelcodes.Ok, "card code redeemed")

	return &VerifyResponse{
		Content:       card.Content(),
		RemainingUses: card.RemainingUses(),
		MaxUses:       card.MaxUses(),
	}, nil
}

// checkRateLimit レート制限の判定を行う
// ストアが未設定または判定に失敗した場合は許可扱いにする（checked=false）。
func (s *VerificationApplicationService) checkRateLimit(ctx context.Context, ip string) (ip_limit.Verdict, bool) {
	if s.attempts == nil {
		return ip_limit.Allow(), false
	}

	verdict, err := s.attempts.Check(ctx, ip)
	if err != nil {
		s.logger.Warn(ctx, "rate limit check failed, allowing attempt", map[string]interface{}{
			"client_ip": ip,
			"error":     err.Error(),
		})
		return ip_limit.Allow(), false
	}
	return verdict, true
}

// recordAttempt 試行を記録する。失敗しても引き換え処理は続行する
func (s *VerificationApplicationService) recordAttempt(ctx context.Context, ip string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Record(ctx, ip); err != nil {
		s.logger.Warn(ctx, "failed to record verification attempt", map[string]interface{}{
			"client_ip": ip,
			"error":     err.Error(),
		})
	}
}

// handleVerifyError 引き換え失敗時のメトリクスとログを記録する
func (s *VerificationApplicationService) handleVerifyError(ctx context.Context, span trace.Span, code, ip string, err error) error {
	switch {
	case errors.Is(err, card_code.ErrCodeNotFound):
		s.metrics.RecordRedemption(ctx, "not_found")
		s.logger.Info(ctx, "card code not found", map[string]interface{}{
			"code":      code,
			"client_ip": ip,
		})
		span.SetStatus(otelcodes.Ok, "card code not found")
	case errors.Is(err, card_code.ErrCodeExhausted):
		s.metrics.RecordRedemption(ctx, "exhausted")
		s.logger.Info(ctx, "card code exhausted", map[string]interface{}{
			"code":      code,
			"client_ip": ip,
		})
		span.SetStatus(otelcodes.Ok, "card code exhausted")
	default:
		s.metrics.RecordRedemption(ctx, "error")
		s.logger.Error(ctx, "failed to redeem card code", err, map[string]interface{}{
			"code":      code,
			"client_ip": ip,
		})
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return err
}
