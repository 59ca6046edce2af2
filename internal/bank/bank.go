// Package bank ships the built-in 93-item question bank and parses bank
// payloads loaded from a backing store.
package bank

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"persona-service/internal/domain"
)

//go:embed questions.json
var questionsJSON []byte

// DefaultID is the versioned identifier of the embedded bank.
const DefaultID = "persona-93-v1"

type entry struct {
	Text      string `json:"text"`
	Dimension string `json:"dimension"`
	Polarity  string `json:"polarity"`
}

var (
	defaultOnce sync.Once
	defaultBank domain.QuestionBank
	defaultErr  error
)

// DefaultJSON returns the raw embedded bank payload, for seeding stores.
func DefaultJSON() []byte {
	return questionsJSON
}

// Default returns the embedded question bank, parsed and validated once.
func Default() (domain.QuestionBank, error) {
	defaultOnce.Do(func() {
		defaultBank, defaultErr = Parse(questionsJSON)
	})
	return defaultBank, defaultErr
}

// Parse decodes a JSON bank payload and validates it against the fixed
// size and dimension partition.
func Parse(data []byte) (domain.QuestionBank, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBank, err)
	}
	b := make(domain.QuestionBank, 0, len(entries))
	for i, e := range entries {
		dim, err := domain.ParseDimension(e.Dimension)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", domain.ErrInvalidBank, i, err)
		}
		pol, err := domain.ParsePolarity(e.Polarity)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", domain.ErrInvalidBank, i, err)
		}
		b = append(b, domain.QuestionDefinition{Text: e.Text, Dimension: dim, Polarity: pol})
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
