package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"persona-service/internal/domain"
)

// RecordRepository is the bun-backed implementation of app.RecordRepository.
type RecordRepository struct {
	db *bun.DB
}

func NewRecordRepository(db *bun.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

type assessmentRow struct {
	bun.BaseModel `bun:"table:assessments"`

	ID              string         `bun:"id,pk"`
	Email           sql.NullString `bun:"email"`
	Responses       []int          `bun:"responses,type:jsonb"`
	ResultType      string         `bun:"result_type"`
	OwnerID         sql.NullString `bun:"owner_id"`
	ReportDelivered bool           `bun:"report_delivered"`
	CreatedAt       time.Time      `bun:"created_at"`
}

func toRow(record *domain.AssessmentRecord) *assessmentRow {
	return &assessmentRow{
		ID:              record.ID,
		Email:           nullable(record.Email),
		Responses:       record.Responses,
		ResultType:      record.ResultType,
		OwnerID:         nullable(record.OwnerID),
		ReportDelivered: record.ReportDelivered,
		CreatedAt:       record.CreatedAt,
	}
}

func toRecord(row *assessmentRow) domain.AssessmentRecord {
	return domain.AssessmentRecord{
		ID:              row.ID,
		Email:           row.Email.String,
		Responses:       row.Responses,
		ResultType:      row.ResultType,
		OwnerID:         row.OwnerID.String,
		ReportDelivered: row.ReportDelivered,
		CreatedAt:       row.CreatedAt,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *RecordRepository) Insert(ctx context.Context, record *domain.AssessmentRecord) error {
	if _, err := r.db.NewInsert().Model(toRow(record)).Exec(ctx); err != nil {
		return fmt.Errorf("%w: insert record: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *RecordRepository) Get(ctx context.Context, id string) (domain.AssessmentRecord, error) {
	row := new(assessmentRow)
	err := r.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AssessmentRecord{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.AssessmentRecord{}, fmt.Errorf("%w: get record: %v", domain.ErrStoreUnavailable, err)
	}
	return toRecord(row), nil
}

func (r *RecordRepository) AttachEmail(ctx context.Context, id, email string) error {
	res, err := r.db.NewUpdate().
		Model((*assessmentRow)(nil)).
		Set("email = ?", email).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: attach email: %v", domain.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *RecordRepository) FindUnlinked(ctx context.Context, email, ownerID string) ([]domain.AssessmentRecord, error) {
	var rows []assessmentRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("email = ?", email).
		Where("(owner_id IS NULL OR owner_id != ?)", ownerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: find unlinked: %v", domain.ErrStoreUnavailable, err)
	}
	return toRecords(rows), nil
}

func (r *RecordRepository) SetOwner(ctx context.Context, id, ownerID string) error {
	res, err := r.db.NewUpdate().
		Model((*assessmentRow)(nil)).
		Set("owner_id = ?", ownerID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: set owner: %v", domain.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *RecordRepository) ListOwned(ctx context.Context, ownerID, email string) ([]domain.AssessmentRecord, error) {
	var rows []assessmentRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("owner_id = ? OR (email = ? AND owner_id IS NULL)", ownerID, email).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list owned: %v", domain.ErrStoreUnavailable, err)
	}
	return toRecords(rows), nil
}

func (r *RecordRepository) MarkReportDelivered(ctx context.Context, id string) error {
	res, err := r.db.NewUpdate().
		Model((*assessmentRow)(nil)).
		Set("report_delivered = TRUE").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: mark delivered: %v", domain.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func toRecords(rows []assessmentRow) []domain.AssessmentRecord {
	out := make([]domain.AssessmentRecord, 0, len(rows))
	for i := range rows {
		out = append(out, toRecord(&rows[i]))
	}
	return out
}
