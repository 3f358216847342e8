package administration

import (
	"context"
	"crypto/subtle"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-server/internal/domain/card_code"
	otelpkg "card-server/internal/infrastructure/observability/otel"
)

// AdministrationApplicationService カード券管理のアプリケーションサービス
type AdministrationApplicationService struct {
	cardRepo      card_code.CardCodeRepository
	adminPassword string
	logger        *otelpkg.Logger
	metrics       *otelpkg.Metrics
	tracer        trace.Tracer
}

// NewAdministrationApplicationService 新しいAdministrationApplicationServiceを作成
func NewAdministrationApplicationService(
	cardRepo card_code.CardCodeRepository,
	adminPassword string,
	logger *otelpkg.Logger,
	metrics *otelpkg.Metrics,
	tracer trace.Tracer,
) *AdministrationApplicationService {
	return &AdministrationApplicationService{
		cardRepo:      cardRepo,
		adminPassword: adminPassword,
		logger:        logger,
		metrics:       metrics,
		tracer:        tracer,
	}
}

// Authenticate 管理者パスワードを検証する
func (s *AdministrationApplicationService) Authenticate(ctx context.Context, req AuthenticateRequest) error {
	ctx, span := s.tracer.Start(ctx, "AdministrationApplicationService.Authenticate")
	defer span.End()

	if req.Password == "" {
		span.SetStatus(otelcodes.Ok, "password required")
		return ErrPasswordRequired
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.adminPassword)) != 1 {
		s.logger.Warn(ctx, "admin authentication failed", nil)
		span.SetStatus(otelcodes.Ok, "invalid password")
		return ErrInvalidPassword
	}

	s.logger.Info(ctx, "admin authenticated", nil)
	span.SetStatus(otelcodes.Ok, "authenticated")
	return nil
}

// ListCards 全カード券を作成日時の降順で取得する
func (s *AdministrationApplicationService) ListCards(ctx context.Context) ([]*card_code.CardCode, error) {
	ctx, span := s.tracer.Start(ctx, "AdministrationApplicationService.ListCards")
	defer span.End()

	cards, err := s.cardRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to list card codes", err, nil)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("admin.card_count", len(cards)))
	span.SetStatus(otelcodes.Ok, "card codes listed")
	return cards, nil
}

// CreateCards カード券を作成する
// BatchCountが2以上の場合は同じ内容のカード券を一括作成する。
// カスタムコードは1枚作成の場合のみ指定できる。
func (s *AdministrationApplicationService) CreateCards(ctx context.Context, req CreateCardsRequest) (*CreateCardsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AdministrationApplicationService.CreateCards")
	defer span.End()

	if req.Content == "" {
		span.SetStatus(otelcodes.Ok, "content required")
		return nil, ErrContentRequired
	}

	maxUses := req.MaxUses
	if maxUses == 0 {
		maxUses = 1
	}
	if maxUses < 1 {
		span.SetStatus(otelcodes.Ok, "invalid max uses")
		return nil, ErrInvalidMaxUses
	}

	batchCount := req.BatchCount
	if batchCount == 0 {
		batchCount = 1
	}
	if batchCount < 1 || batchCount > maxBatchCount {
		span.SetStatus(otelcodes.Ok, "batch too large")
		return nil, ErrBatchTooLarge
	}
	if req.CustomCode != "" && batchCount > 1 {
		span.SetStatus(otelcodes.Ok, "custom code with batch")
		return nil, ErrCustomCodeWithBatch
	}

	span.SetAttributes(
		attribute.Int("admin.max_uses", maxUses),
		attribute.Int("admin.batch_count", batchCount),
		attribute.Bool("admin.custom_code", req.CustomCode != ""),
	)

	cards := make([]*card_code.CardCode, 0, batchCount)
	for i := 0; i < batchCount; i++ {
		code := req.CustomCode
		if code == "" {
			generated, err := card_code.GenerateCode()
			if err != nil {
				s.logger.Error(ctx, "failed to generate card code", err, nil)
				span.RecordError(err)
				span.SetStatus(otelcodes.Error, err.Error())
				return nil, err
			}
			code = generated
		}

		card, err := card_code.NewCardCode(uuid.NewString(), code, req.Content, maxUses)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		cards = append(cards, card)
	}

	var err error
	if len(cards) == 1 {
		err = s.cardRepo.Create(ctx, cards[0])
	} else {
		err = s.cardRepo.CreateBatch(ctx, cards)
	}
	if err != nil {
		s.logger.Error(ctx, "failed to create card codes", err, map[string]interface{}{
			"batch_count": batchCount,
		})
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	s.metrics.RecordCardsCreated(ctx, int64(len(cards)))
	s.logger.Info(ctx, "card codes created", map[string]interface{}{
		"batch_count": len(cards),
		"max_uses":    maxUses,
	})
	span.SetStatus(otelcodes.Ok, "card codes created")

	return &CreateCardsResponse{Cards: cards}, nil
}

// DeleteCard IDでカード券を削除する
// 対象が存在しない場合はErrCodeNotFoundを返す。
func (s *AdministrationApplicationService) DeleteCard(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "AdministrationApplicationService.DeleteCard")
	defer span.End()

	span.SetAttributes(attribute.String("admin.card_id", id))

	deleted, err := s.cardRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "failed to delete card code", err, map[string]interface{}{
			"card_id": id,
		})
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}
	if !deleted {
		span.SetStatus(otelcodes.Ok, "card code not found")
		return card_code.ErrCodeNotFound
	}

	s.logger.Info(ctx, "card code deleted", map[string]interface{}{
		"card_id": id,
	})
	span.SetStatus(otelcodes.Ok, "card code deleted")
	return nil
}
