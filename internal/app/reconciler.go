package app

import (
	"context"
	"log"
	"time"

	"persona-service/internal/domain"
)

// duplicateWindow is how close two same-email, same-type records must be
// created to count as one assessment submitted twice.
const duplicateWindow = 60 * time.Second

// Reconciler attaches anonymously-taken assessments to an authenticated
// owner and deduplicates the owner's history at read time. Records are never
// deleted here.
type Reconciler struct {
	records RecordRepository
}

func NewReconciler(records RecordRepository) *Reconciler {
	return &Reconciler{records: records}
}

// LinkByEmail sets ownerID on every record whose email matches and whose
// owner is unset or stale. Idempotent: a second call finds nothing left to
// link and returns 0. Individual record failures are logged and skipped so
// one bad row cannot sink the batch.
func (r *Reconciler) LinkByEmail(ctx context.Context, ownerID, email string) (int, error) {
	candidates, err := r.records.FindUnlinked(ctx, email, ownerID)
	if err != nil {
		return 0, err
	}
	linked := 0
	for _, record := range candidates {
		if err := r.records.SetOwner(ctx, record.ID, ownerID); err != nil {
			log.Printf("link record %s to owner %s: %v", record.ID, ownerID, err)
			continue
		}
		linked++
	}
	return linked, nil
}

// ListForOwner returns the owner's assessment history, newest first. It first
// self-heals any records that were taken anonymously under the owner's email,
// then collapses duplicate submissions.
func (r *Reconciler) ListForOwner(ctx context.Context, ownerID, email string) ([]domain.AssessmentRecord, error) {
	// A failed link pass is not fatal; the records are still listable by email.
	if _, err := r.LinkByEmail(ctx, ownerID, email); err != nil {
		log.Printf("link records for owner %s: %v", ownerID, err)
	}

	records, err := r.records.ListOwned(ctx, ownerID, email)
	if err != nil {
		return nil, err
	}
	return dedupe(records), nil
}

// dedupe drops records that share an email and result type with an
// already-kept record created less than duplicateWindow apart. Keeps the
// first-encountered record of each group, so the input's ordering decides
// the survivor.
func dedupe(records []domain.AssessmentRecord) []domain.AssessmentRecord {
	kept := make([]domain.AssessmentRecord, 0, len(records))
	for _, record := range records {
		duplicate := false
		for _, k := range kept {
			if k.Email != record.Email || k.ResultType != record.ResultType {
				continue
			}
			gap := k.CreatedAt.Sub(record.CreatedAt)
			if gap < 0 {
				gap = -gap
			}
			if gap < duplicateWindow {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, record)
		}
	}
	return kept
}
