package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-server/internal/domain/card_code"
)

// mysqlErrDuplicateEntry UNIQUE制約違反のMySQLエラー番号
const mysqlErrDuplicateEntry = 1062

// querier *sql.DBと*sql.Txの共通部分
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CardCodeRepository MySQL実装のCardCodeRepository
type CardCodeRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewCardCodeRepository 新しいCardCodeRepositoryを作成
func NewCardCodeRepository(db *DB) *CardCodeRepository {
	return &CardCodeRepository{
		db:     db,
		tracer: otel.Tracer("card-code-repository"),
	}
}

const selectCardColumns = `
	SELECT
		id, code, content, max_uses, used_count,
		used, used_at, used_by_ip, created_at
	FROM card_codes
`

const insertCardQuery = `
	INSERT INTO card_codes (
		id, code, content, max_uses, used_count, used, used_at, used_by_ip, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Create カード券を保存
func (r *CardCodeRepository) Create(ctx context.Context, card *card_code.CardCode) error {
	ctx, span := r.tracer.Start(ctx, "CardCodeRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.card_id", card.ID()),
		attribute.String("db.code", card.Code()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "card_codes"),
	)

	if err := insertCard(ctx, r.db, card); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	span.SetStatus(otelcodes.Ok, "card code created")
	return nil
}

// CreateBatch 複数のカード券を1トランザクションで保存
func (r *CardCodeRepository) CreateBatch(ctx context.Context, cards []*card_code.CardCode) error {
	ctx, span := r.tracer.Start(ctx, "CardCodeRepository.CreateBatch")
	defer span.End()

	span.SetAttributes(
		attribute.Int("db.card_count", len(cards)),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "card_codes"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, card := range cards {
		if err := insertCard(ctx, tx, card); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "card codes created")
	return nil
}

// insertCard 1件のカード券をINSERTする
func insertCard(ctx context.Context, q querier, card *card_code.CardCode) error {
	_, err := q.ExecContext(ctx, insertCardQuery,
		card.ID(),
		card.Code(),
		card.Content(),
		card.MaxUses(),
		card.UsedCount(),
		card.Used(),
		nullTime(card.UsedAt()),
		nullString(card.UsedByIP()),
		card.CreatedAt(),
	)
	if err != nil {
		var mysqlErr *mysqldriver.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return card_code.ErrCodeAlreadyExists
		}
		return fmt.Errorf("failed to insert card code: %w", err)
	}
	return nil
}

// FindByCode コードでカード券を取得（使用履歴込み）
func (r *CardCodeRepository) FindByCode(ctx context.Context, code string) (*card_code.CardCode, error) {
	ctx, span := r.tracer.Start(ctx, "CardCodeRepository.FindByCode")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.code", code),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "card_codes"),
	)

	card, err := findCardByCode(ctx, r.db, code, false)
	if err != nil {
		if errors.Is(err, card_code.ErrCodeNotFound) {
			span.SetStatus(otelcodes.Ok, "card code not found")
		} else {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("db.used_count", card.UsedCount()),
		attribute.Int("db.max_uses", card.MaxUses()),
	)
	span.SetStatus(otelcodes.Ok, "card code found")
	return card, nil
}

// FindByCodeForUpdate 行ロック付きでカード券を取得
// 同じコードへの並行引き換えを直列化するため、必ずトランザクション内で呼び出すこと。
func (r *CardCodeRepository) FindByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*card_code.CardCode, error) {
	ctx, span := r.tracer.Start(ctx, "CardCodeRepository.FindByCodeForUpdate")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.code", code),
		attribute.String("db.operation", "SELECT FOR UPDATE"),
		attribute.String("db.table", "card_codes"),
	)

	card, err := findCardByCode(ctx, tx, code, true)
	if err != nil {
		if errors.Is(err, card_code.ErrCodeNotFound) {
			span.SetStatus(otelcodes.Ok, "card code not found")
		} else {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "card code locked")
	return card, nil
}

// findCardByCode コードでカード券を1件取得して復元する
func findCardByCode(ctx context.Context, q querier, code string, forUpdate bool) (*card_code.CardCode, error) {
	query := selectCardColumns + " WHERE code = ?"
	if forUpdate {
		query += " FOR UPDATE"
	}

	card, err := scanCard(q.QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, err
	}

	records, err := findUseRecords(ctx, q, card.ID())
	if err != nil {
		return nil, err
	}
	card.SetUseHistory(records)

	return card, nil
}

// scanCard 1行をCardCodeエンティティに復元する
func scanCard(row *sql.Row) (*card_code.CardCode, error) {
	var (
		id, code, content string
		maxUses           int
		usedCount         int
		used              bool
		usedAt            sql.NullTime
		usedByIP          sql.NullString
		createdAt         sql.NullTime
	)

	err := row.Scan(&id, &code, &content, &maxUses, &usedCount, &used, &usedAt, &usedByIP, &createdAt)
	if err == sql.ErrNoRows {
		return nil, card_code.ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan card code: %w", err)
	}

	return rehydrateCard(id, code, content, maxUses, usedCount, used, usedAt, usedByIP, createdAt)
}

// rehydrateCard スキャンした値からエンティティを復元する
func rehydrateCard(
	id, code, content string,
	maxUses, usedCount int,
	used bool,
	usedAt sql.NullTime,
	usedByIP sql.NullString,
	createdAt sql.NullTime,
) (*card_code.CardCode, error) {
	card, err := card_code.NewCardCode(id, code, content, maxUses)
	if err != nil {
		return nil, fmt.Errorf("invalid card code row: %w", err)
	}

	var usedAtPtr *time.Time
	if usedAt.Valid {
		t := usedAt.Time
		usedAtPtr = &t
	}
	card.SetUseState(usedCount, used, usedAtPtr, usedByIP.String)
	if createdAt.Valid {
		card.SetCreatedAt(createdAt.Time)
	}

	return card, nil
}

// findUseRecords カード券の使用履歴を取得する
func findUseRecords(ctx context.Context, q querier, cardID string) ([]card_code.UseRecord, error) {
	query := `
		SELECT ip, used_at
		FROM card_use_records
		WHERE card_id = ?
		ORDER BY id
	`

	rows, err := q.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query use records: %w", err)
	}
	defer rows.Close()

	var records []card_code.UseRecord
	for rows.Next() {
		var ip string
		var usedAt time.Time
		if err := rows.Scan(&ip, &usedAt); err != nil {
			return nil, fmt.Errorf("failed to scan use record: %w", err)
		}
		records = append(records, card_code.NewUseRecord(ip, usedAt))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate use records: %w", err)
	}

	return records, nil
}

// Update 使用状態を更新（トランザクション内で使用）
func (r *CardCodeRepository) Update(ctx context.Context, tx *sql.Tx, card *card_code.CardCode) error {
	ctx, span := r.tracer.Start(ctx, "CardCodeRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.card_id", card.ID()),
		attribute.Int("db.used_count", card.UsedCount()),
		attribute.Bool("db.used", card.Used()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "card_codes"),
	)

	query := `
		UPDATE card_codes
		SET
			used_count = ?,
			used = ?,
			used_at = ?,
			used_by_ip = ?
		WHERE id = ?
	`

	result, err := tx.ExecContext(ctx, query,
		card.UsedCount(),
		card.Used(),
		nullTime(card.UsedAt()),
		nullString(card.UsedByIP()),
		card.ID(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to update card code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "card code updated")
	return nil
}

// AddUseRecord 使用履歴を1件追記（トランザクション内で使用）
func (r *CardCodeRepository) AddUseRecord(ctx context.Context, tx *sql.Tx, cardID string, record card_code.UseRecord) error {
	ctx, span := r.tracer.Start(ctx, "CardCodeRepository.AddUseRecord")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.card_id", cardID),
		attribute.String("db.ip", record.IP()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "card_use_records"),
	)

	query := `
		INSERT INTO card_use_records (card_id, ip, used_at)
		VALUES (?, ?, ?)
	`

	_, err := tx.ExecContext(ctx, query, cardID, record.IP(), record.UsedAt())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to insert use record: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "use record added")
	return nil
}

// FindAll 全カード券を作成日時の降順で取得
func (r *CardCodeRepository) FindAll(ctx context.Context) ([]*card_code.CardCode, error) {
	ctx, span := r.tracer.Start(ctx, "CardCodeRepository.FindAll")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "card_codes"),
	)

	query := selectCardColumns + " ORDER BY created_at DESC, id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query card codes: %w", err)
	}
	defer rows.Close()

	var cards []*card_code.CardCode
	byID := make(map[string]*card_code.CardCode)
	for rows.Next() {
		var (
			id, code, content string
			maxUses           int
			usedCount         int
			used              bool
			usedAt            sql.NullTime
			usedByIP          sql.NullString
			createdAt         sql.NullTime
		)
		if err := rows.Scan(&id, &code, &content, &maxUses, &usedCount, &used, &usedAt, &usedByIP, &createdAt); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan card code: %w", err)
		}
		card, err := rehydrateCard(id, code, content, maxUses, usedCount, used, usedAt, usedByIP, createdAt)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		cards = append(cards, card)
		byID[card.ID()] = card
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate card codes: %w", err)
	}

	if err := r.attachUseRecords(ctx, byID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("db.card_count", len(cards)))
	span.SetStatus(otelcodes.Ok, "card codes listed")
	return cards, nil
}

// attachUseRecords 全使用履歴を読み込み、各カード券に割り当てる
func (r *CardCodeRepository) attachUseRecords(ctx context.Context, byID map[string]*card_code.CardCode) error {
	if len(byID) == 0 {
		return nil
	}

	query := `
		SELECT card_id, ip, used_at
		FROM card_use_records
		ORDER BY card_id, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query use records: %w", err)
	}
	defer rows.Close()

	histories := make(map[string][]card_code.UseRecord)
	for rows.Next() {
		var cardID, ip string
		var usedAt time.Time
		if err := rows.Scan(&cardID, &ip, &usedAt); err != nil {
			return fmt.Errorf("failed to scan use record: %w", err)
		}
		histories[cardID] = append(histories[cardID], card_code.NewUseRecord(ip, usedAt))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate use records: %w", err)
	}

	for cardID, records := range histories {
		if card, ok := byID[cardID]; ok {
			card.SetUseHistory(records)
		}
	}
	return nil
}

// Delete IDでカード券を削除。存在しなかった場合はfalseを返す
// 使用履歴は外部キーのON DELETE CASCADEで削除される。
func (r *CardCodeRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "CardCodeRepository.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.card_id", id),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.table", "card_codes"),
	)

	result, err := r.db.ExecContext(ctx, "DELETE FROM card_codes WHERE id = ?", id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to delete card code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "card code delete executed")
	return rowsAffected > 0, nil
}

// nullTime *time.TimeをNULL許容値に変換する
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString 空文字列をNULL許容値に変換する
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
