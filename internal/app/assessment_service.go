package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"persona-service/internal/domain"

	"github.com/google/uuid"
)

// Session is the in-progress state of one assessment: the order questions
// were presented in and the answers collected so far, both by presented
// position.
type Session struct {
	ID        string
	BankID    string
	Order     []int // Order[i] = canonical index of the question at position i
	Responses []int // by presented position; domain.Unanswered until answered
	CreatedAt time.Time
}

// SessionStore abstracts how in-progress sessions are kept (in-memory, Redis).
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	SetResponse(ctx context.Context, id string, position, value int) error
	Delete(ctx context.Context, id string) error
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// RecordRepository persists completed assessment records. Filters are typed;
// callers never build query strings.
type RecordRepository interface {
	Insert(ctx context.Context, record *domain.AssessmentRecord) error
	Get(ctx context.Context, id string) (domain.AssessmentRecord, error)
	// AttachEmail captures a report-request email on an anonymous record.
	AttachEmail(ctx context.Context, id, email string) error
	// FindUnlinked returns records whose email matches and whose owner is
	// unset or differs from ownerID.
	FindUnlinked(ctx context.Context, email, ownerID string) ([]domain.AssessmentRecord, error)
	SetOwner(ctx context.Context, id, ownerID string) error
	// ListOwned returns records owned by ownerID plus unowned records with a
	// matching email, newest first.
	ListOwned(ctx context.Context, ownerID, email string) ([]domain.AssessmentRecord, error)
	MarkReportDelivered(ctx context.Context, id string) error
}

// ReportDeliverer sends a result report. Implementations must recompute the
// type from the responses rather than trust anything client-supplied.
type ReportDeliverer interface {
	Deliver(ctx context.Context, email string, responses domain.ResponseVector) error
}

// AssessmentService contains the assessment-taking use cases.
type AssessmentService struct {
	banks     BankRepository
	sessions  SessionStore
	records   RecordRepository
	deliverer ReportDeliverer
	shuffler  *Shuffler
	bankID    string
	now       func() time.Time
	newID     func() string
}

func NewAssessmentService(banks BankRepository, sessions SessionStore, records RecordRepository, deliverer ReportDeliverer, shuffler *Shuffler, bankID string) *AssessmentService {
	if shuffler == nil {
		shuffler = NewShuffler(nil)
	}
	return &AssessmentService{
		banks:     banks,
		sessions:  sessions,
		records:   records,
		deliverer: deliverer,
		shuffler:  shuffler,
		bankID:    bankID,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithClock is test-only for deterministic timestamps and ids.
func (s *AssessmentService) WithClock(now func() time.Time, newID func() string) *AssessmentService {
	if now != nil {
		s.now = now
	}
	if newID != nil {
		s.newID = newID
	}
	return s
}

// Start shuffles the bank into a fresh presentation order and opens a session.
func (s *AssessmentService) Start(ctx context.Context) (*Session, []domain.PresentedQuestion, error) {
	bank, err := s.banks.GetBank(ctx, s.bankID)
	if err != nil {
		return nil, nil, err
	}
	presented := s.shuffler.Shuffle(bank)

	order := make([]int, len(presented))
	for i, q := range presented {
		order[i] = q.OriginalIndex
	}
	session := &Session{
		ID:        s.newID(),
		BankID:    s.bankID,
		Order:     order,
		Responses: make([]int, len(presented)),
		CreatedAt: s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, err
	}
	return session, presented, nil
}

// Resume reloads an in-progress session and its presentation order so a
// respondent can pick up where they left off.
func (s *AssessmentService) Resume(ctx context.Context, sessionID string) (*Session, []domain.PresentedQuestion, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	bank, err := s.banks.GetBank(ctx, session.BankID)
	if err != nil {
		return nil, nil, err
	}
	presented, err := presentedFromOrder(bank, session.Order)
	if err != nil {
		return nil, nil, err
	}
	return session, presented, nil
}

// SubmitResponse records one answer by presented position.
func (s *AssessmentService) SubmitResponse(ctx context.Context, sessionID string, position, value int) error {
	if value < domain.ScaleMin || value > domain.ScaleMax {
		return fmt.Errorf("%w: %d", domain.ErrInvalidResponseValue, value)
	}
	if position < 0 || position >= domain.BankSize {
		return fmt.Errorf("%w: position %d", domain.ErrIndexOutOfRange, position)
	}
	return s.sessions.SetResponse(ctx, sessionID, position, value)
}

// Complete restores the session's responses to canonical order, scores them,
// and persists an anonymous record. A scoring failure propagates and nothing
// is persisted; a fabricated type is worse than a visible error.
func (s *AssessmentService) Complete(ctx context.Context, sessionID string) (domain.Result, domain.AssessmentRecord, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Result{}, domain.AssessmentRecord{}, err
	}
	bank, err := s.banks.GetBank(ctx, session.BankID)
	if err != nil {
		return domain.Result{}, domain.AssessmentRecord{}, err
	}

	presented, err := presentedFromOrder(bank, session.Order)
	if err != nil {
		return domain.Result{}, domain.AssessmentRecord{}, err
	}
	responses, err := Restore(session.Responses, presented)
	if err != nil {
		return domain.Result{}, domain.AssessmentRecord{}, err
	}
	result, err := Score(bank, responses)
	if err != nil {
		return domain.Result{}, domain.AssessmentRecord{}, err
	}

	record := domain.AssessmentRecord{
		ID:         s.newID(),
		Responses:  responses,
		ResultType: result.Type,
		CreatedAt:  s.now(),
	}
	if err := s.records.Insert(ctx, &record); err != nil {
		return domain.Result{}, domain.AssessmentRecord{}, err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		log.Printf("delete session %s: %v", sessionID, err)
	}
	return result, record, nil
}

// presentedFromOrder rebuilds a presentation from a stored order.
func presentedFromOrder(bank domain.QuestionBank, order []int) ([]domain.PresentedQuestion, error) {
	presented := make([]domain.PresentedQuestion, len(order))
	for i, idx := range order {
		if idx < 0 || idx >= len(bank) {
			return nil, fmt.Errorf("%w: original index %d", domain.ErrIndexOutOfRange, idx)
		}
		presented[i] = domain.PresentedQuestion{QuestionDefinition: bank[idx], OriginalIndex: idx}
	}
	return presented, nil
}

// RequestReport captures the respondent's email on the record and fires
// report delivery in the background. Delivery failures are logged only; the
// record keeps the email either way and can be linked later.
func (s *AssessmentService) RequestReport(ctx context.Context, recordID, email string) error {
	if err := s.records.AttachEmail(ctx, recordID, email); err != nil {
		return err
	}
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return err
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.deliverer.Deliver(ctx, email, record.Responses); err != nil {
			log.Printf("deliver report for record %s: %v", recordID, err)
			return
		}
		if err := s.records.MarkReportDelivered(ctx, recordID); err != nil {
			log.Printf("mark report delivered for record %s: %v", recordID, err)
		}
	}()
	return nil
}
