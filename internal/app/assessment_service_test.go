package app_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"persona-service/internal/app"
	"persona-service/internal/bank"
	"persona-service/internal/domain"
	"persona-service/internal/infra/memory"
)

type captureDeliverer struct {
	delivered chan struct {
		email     string
		responses domain.ResponseVector
	}
}

func newCaptureDeliverer() *captureDeliverer {
	return &captureDeliverer{delivered: make(chan struct {
		email     string
		responses domain.ResponseVector
	}, 1)}
}

func (d *captureDeliverer) Deliver(_ context.Context, email string, responses domain.ResponseVector) error {
	d.delivered <- struct {
		email     string
		responses domain.ResponseVector
	}{email, responses}
	return nil
}

func newTestService(t *testing.T) (*app.AssessmentService, *memory.RecordRepository, *captureDeliverer) {
	t.Helper()
	builtin := testBank(t)
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{bank.DefaultID: builtin}), time.Minute)
	records := memory.NewRecordRepository()
	deliverer := newCaptureDeliverer()
	shuffler := app.NewShuffler(rand.New(rand.NewSource(11)))
	service := app.NewAssessmentService(banks, memory.NewSessionStore(), records, deliverer, shuffler, bank.DefaultID)

	ids := 0
	service.WithClock(
		func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		func() string { ids++; return fmt.Sprintf("id-%d", ids) },
	)
	return service, records, deliverer
}

func TestStartOpensShuffledSession(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	session, presented, err := service.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(presented) != domain.BankSize || len(session.Order) != domain.BankSize {
		t.Fatalf("expected %d questions, got %d presented and %d order entries", domain.BankSize, len(presented), len(session.Order))
	}
	seen := make(map[int]bool)
	for i, idx := range session.Order {
		if idx != presented[i].OriginalIndex {
			t.Fatalf("order and presentation disagree at position %d", i)
		}
		if seen[idx] {
			t.Fatalf("canonical index %d presented twice", idx)
		}
		seen[idx] = true
	}
}

func TestSubmitResponseValidatesScale(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	session, _, err := service.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.SubmitResponse(ctx, session.ID, 0, 8); !errors.Is(err, domain.ErrInvalidResponseValue) {
		t.Fatalf("expected scale validation, got %v", err)
	}
	if err := service.SubmitResponse(ctx, session.ID, 0, 0); !errors.Is(err, domain.ErrInvalidResponseValue) {
		t.Fatalf("the sentinel is not a submittable value, got %v", err)
	}
	if err := service.SubmitResponse(ctx, session.ID, -1, 4); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected position validation, got %v", err)
	}
	if err := service.SubmitResponse(ctx, "nope", 0, 4); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session lookup failure, got %v", err)
	}
}

func TestCompleteScoresAndPersistsAnonymousRecord(t *testing.T) {
	ctx := context.Background()
	service, records, _ := newTestService(t)

	session, presented, err := service.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// Max out every first-pole question regardless of where the shuffle put it.
	for i, q := range presented {
		value := domain.ScaleMin
		if q.Polarity == domain.Positive {
			value = domain.ScaleMax
		}
		if err := service.SubmitResponse(ctx, session.ID, i, value); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	result, record, err := service.Complete(ctx, session.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.Type != "ESTJ" {
		t.Fatalf("expected ESTJ, got %s", result.Type)
	}
	stored, err := records.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if stored.ResultType != result.Type {
		t.Fatalf("stored type %s does not match result %s", stored.ResultType, result.Type)
	}
	if stored.Email != "" || stored.OwnerID != "" {
		t.Fatalf("completed record must start anonymous, got email=%q owner=%q", stored.Email, stored.OwnerID)
	}
	// The stored responses must recompute to the stored type.
	recheck, err := app.Score(testBank(t), stored.Responses)
	if err != nil {
		t.Fatalf("rescore: %v", err)
	}
	if recheck.Type != stored.ResultType {
		t.Fatalf("responses and type out of sync: %s vs %s", recheck.Type, stored.ResultType)
	}

	// The session is gone once the record exists.
	if _, _, err := service.Resume(ctx, session.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session deleted after completion, got %v", err)
	}
}

func TestCompletePartialSessionScoresAnsweredSubset(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	session, _, err := service.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.SubmitResponse(ctx, session.ID, 0, domain.ScaleMax); err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, record, err := service.Complete(ctx, session.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(result.Type) != 4 {
		t.Fatalf("expected a 4-letter type, got %q", result.Type)
	}
	if got := record.Responses.Answered(); got != 1 {
		t.Fatalf("expected 1 answered response stored, got %d", got)
	}
}

func TestResumeReturnsCollectedAnswers(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	session, _, err := service.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.SubmitResponse(ctx, session.ID, 5, 6); err != nil {
		t.Fatalf("submit: %v", err)
	}

	resumed, presented, err := service.Resume(ctx, session.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(presented) != domain.BankSize {
		t.Fatalf("expected full presentation on resume, got %d", len(presented))
	}
	if resumed.Responses[5] != 6 {
		t.Fatalf("expected answer preserved across resume, got %d", resumed.Responses[5])
	}
}

func TestRequestReportAttachesEmailAndDelivers(t *testing.T) {
	ctx := context.Background()
	service, records, deliverer := newTestService(t)

	session, _, err := service.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, record, err := service.Complete(ctx, session.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := service.RequestReport(ctx, record.ID, "a@x.com"); err != nil {
		t.Fatalf("request report: %v", err)
	}
	stored, err := records.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if stored.Email != "a@x.com" {
		t.Fatalf("expected email captured, got %q", stored.Email)
	}

	select {
	case got := <-deliverer.delivered:
		if got.email != "a@x.com" {
			t.Fatalf("delivered to %q", got.email)
		}
		if len(got.responses) != domain.BankSize {
			t.Fatalf("deliverer must receive the full response vector, got %d", len(got.responses))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("report delivery never fired")
	}

	// Delivery marking is asynchronous; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, err = records.Get(ctx, record.ID)
		if err != nil {
			t.Fatalf("get record: %v", err)
		}
		if stored.ReportDelivered {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("record never marked delivered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRequestReportUnknownRecord(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	if err := service.RequestReport(ctx, "missing", "a@x.com"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
