package app

import (
	"fmt"
	"math/rand"
	"time"

	"persona-service/internal/domain"
)

// Shuffler produces randomized presentation orders for a question bank.
// The rand source is injected so tests can pin a seed.
type Shuffler struct {
	rnd *rand.Rand
}

func NewShuffler(rnd *rand.Rand) *Shuffler {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Shuffler{rnd: rnd}
}

// Shuffle returns the bank in a uniform random order, each question tagged
// with its original canonical index. The bank itself is not mutated.
func (s *Shuffler) Shuffle(bank domain.QuestionBank) []domain.PresentedQuestion {
	presented := make([]domain.PresentedQuestion, len(bank))
	for i, q := range bank {
		presented[i] = domain.PresentedQuestion{QuestionDefinition: q, OriginalIndex: i}
	}
	// Fisher-Yates, swapping from the tail down.
	for i := len(presented) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		presented[i], presented[j] = presented[j], presented[i]
	}
	return presented
}

// Restore writes presented-order responses back into canonical bank order.
// Positions the respondent never reached stay at the unanswered sentinel, so
// a partial mid-session vector restores cleanly.
func Restore(responses []int, presented []domain.PresentedQuestion) (domain.ResponseVector, error) {
	if len(responses) > len(presented) {
		return nil, fmt.Errorf("%w: %d responses for %d questions", domain.ErrIndexOutOfRange, len(responses), len(presented))
	}
	out := make(domain.ResponseVector, domain.BankSize)
	for i, v := range responses {
		idx := presented[i].OriginalIndex
		if idx < 0 || idx >= domain.BankSize {
			return nil, fmt.Errorf("%w: original index %d", domain.ErrIndexOutOfRange, idx)
		}
		out[idx] = v
	}
	return out, nil
}
