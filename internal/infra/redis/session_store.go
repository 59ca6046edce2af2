package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"persona-service/internal/app"
	"persona-service/internal/domain"
)

// SessionStore keeps in-progress assessment sessions in Redis so a
// respondent can resume mid-assessment and sessions survive a restart.
// Layout per session:
//
//	HSET assessment:{id}:order   {position} {canonicalIndex}
//	HSET assessment:{id}:answers {position} {value}
//	HSET assessment:{id}:meta    bank {bankID} createdAt {RFC3339}
//
// All keys expire together after the configured TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, session *app.Session) error {
	orderFields := make(map[string]interface{}, len(session.Order))
	for i, idx := range session.Order {
		orderFields[strconv.Itoa(i)] = idx
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.orderKey(session.ID), orderFields)
	pipe.HSet(ctx, s.metaKey(session.ID),
		"bank", session.BankID,
		"createdAt", session.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.orderKey(session.ID), s.ttl)
		pipe.Expire(ctx, s.metaKey(session.ID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*app.Session, error) {
	orderFields, err := s.client.HGetAll(ctx, s.orderKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session order: %w", err)
	}
	if len(orderFields) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	meta, err := s.client.HGetAll(ctx, s.metaKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session meta: %w", err)
	}
	answers, err := s.client.HGetAll(ctx, s.answersKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session answers: %w", err)
	}

	session := &app.Session{
		ID:        id,
		BankID:    meta["bank"],
		Order:     make([]int, len(orderFields)),
		Responses: make([]int, len(orderFields)),
	}
	if raw, ok := meta["createdAt"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			session.CreatedAt = t
		}
	}
	for field, value := range orderFields {
		pos, err := strconv.Atoi(field)
		if err != nil || pos < 0 || pos >= len(session.Order) {
			return nil, fmt.Errorf("session %s: bad order field %q", id, field)
		}
		idx, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("session %s: bad order value %q", id, value)
		}
		session.Order[pos] = idx
	}
	for field, value := range answers {
		pos, err := strconv.Atoi(field)
		if err != nil || pos < 0 || pos >= len(session.Responses) {
			continue
		}
		if v, err := strconv.Atoi(value); err == nil {
			session.Responses[pos] = v
		}
	}
	return session, nil
}

func (s *SessionStore) SetResponse(ctx context.Context, id string, position, value int) error {
	exists, err := s.client.Exists(ctx, s.orderKey(id)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return domain.ErrSessionNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.answersKey(id), strconv.Itoa(position), value)
	if s.ttl > 0 {
		// Activity keeps the whole session alive.
		pipe.Expire(ctx, s.orderKey(id), s.ttl)
		pipe.Expire(ctx, s.answersKey(id), s.ttl)
		pipe.Expire(ctx, s.metaKey(id), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set response: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.orderKey(id), s.answersKey(id), s.metaKey(id)).Err()
}

func (s *SessionStore) orderKey(id string) string   { return "assessment:" + id + ":order" }
func (s *SessionStore) answersKey(id string) string { return "assessment:" + id + ":answers" }
func (s *SessionStore) metaKey(id string) string    { return "assessment:" + id + ":meta" }
