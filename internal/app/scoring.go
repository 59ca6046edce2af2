package app

import (
	"fmt"

	"persona-service/internal/domain"
)

// scaleCenter is the midpoint of the response scale; answers above it endorse
// the statement, answers below it reject it.
const scaleCenter = (domain.ScaleMin + domain.ScaleMax) / 2

// maxDelta is the largest distance an answer can sit from the scale center.
const maxDelta = domain.ScaleMax - scaleCenter

// Score converts a canonical-order response vector into normalized pole
// scores and a 4-letter type. Pure; the only failure is a wrong-length input.
func Score(bank domain.QuestionBank, responses domain.ResponseVector) (domain.Result, error) {
	if len(responses) != domain.BankSize {
		return domain.Result{}, fmt.Errorf("%w: got %d, want %d", domain.ErrInvalidResponseLength, len(responses), domain.BankSize)
	}
	if err := bank.Validate(); err != nil {
		return domain.Result{}, err
	}

	// raw[d] is the signed total in favor of dimension d's first-listed pole.
	var raw [domain.NumDimensions]int
	for i, q := range bank {
		if responses[i] == domain.Unanswered {
			// The sentinel is not a low answer; skipped questions contribute nothing.
			continue
		}
		delta := responses[i] - scaleCenter
		if q.Polarity == domain.Positive {
			raw[q.Dimension] += delta
		} else {
			raw[q.Dimension] -= delta
		}
	}

	var first, second [domain.NumDimensions]int
	letters := ""
	for d := domain.Dimension(0); d < domain.NumDimensions; d++ {
		offset := domain.DimensionCounts[d] * maxDelta
		first[d] = raw[d] + offset
		second[d] = offset - raw[d]
		a, b := d.Poles()
		// Exact ties go to the first-listed pole.
		if first[d] >= second[d] {
			letters += a
		} else {
			letters += b
		}
	}

	return domain.Result{
		Type: letters,
		Scores: domain.PoleScores{
			Extraversion: first[domain.EnergyDirection],
			Introversion: second[domain.EnergyDirection],
			Sensing:      first[domain.InformationProcessing],
			Intuition:    second[domain.InformationProcessing],
			Thinking:     first[domain.DecisionMaking],
			Feeling:      second[domain.DecisionMaking],
			Judging:      first[domain.LifestyleApproach],
			Perceiving:   second[domain.LifestyleApproach],
		},
	}, nil
}
