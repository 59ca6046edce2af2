package memory

import (
	"context"
	"sort"
	"sync"

	"persona-service/internal/domain"
)

// RecordRepository is an in-memory implementation of app.RecordRepository,
// used in tests and when running without Postgres.
type RecordRepository struct {
	mu      sync.RWMutex
	records map[string]domain.AssessmentRecord
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{records: make(map[string]domain.AssessmentRecord)}
}

func (r *RecordRepository) Insert(_ context.Context, record *domain.AssessmentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = *record
	return nil
}

func (r *RecordRepository) Get(_ context.Context, id string) (domain.AssessmentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return domain.AssessmentRecord{}, domain.ErrRecordNotFound
	}
	return record, nil
}

func (r *RecordRepository) AttachEmail(_ context.Context, id, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	record.Email = email
	r.records[id] = record
	return nil
}

func (r *RecordRepository) FindUnlinked(_ context.Context, email, ownerID string) ([]domain.AssessmentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.AssessmentRecord
	for _, record := range r.records {
		if record.Email == email && record.OwnerID != ownerID {
			out = append(out, record)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *RecordRepository) SetOwner(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	record.OwnerID = ownerID
	r.records[id] = record
	return nil
}

func (r *RecordRepository) ListOwned(_ context.Context, ownerID, email string) ([]domain.AssessmentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.AssessmentRecord
	for _, record := range r.records {
		if record.OwnerID == ownerID || (record.Email == email && record.OwnerID == "") {
			out = append(out, record)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *RecordRepository) MarkReportDelivered(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	record.ReportDelivered = true
	r.records[id] = record
	return nil
}

func sortNewestFirst(records []domain.AssessmentRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}
