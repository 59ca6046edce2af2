package app_test

import (
	"errors"
	"testing"

	"persona-service/internal/app"
	"persona-service/internal/domain"
)

func TestScoreRejectsWrongLength(t *testing.T) {
	b := testBank(t)
	if _, err := app.Score(b, make(domain.ResponseVector, 10)); !errors.Is(err, domain.ErrInvalidResponseLength) {
		t.Fatalf("expected ErrInvalidResponseLength, got %v", err)
	}
	if _, err := app.Score(b, nil); !errors.Is(err, domain.ErrInvalidResponseLength) {
		t.Fatalf("expected ErrInvalidResponseLength for nil, got %v", err)
	}
}

func TestScoreAllUnansweredIsNeutralDefault(t *testing.T) {
	b := testBank(t)
	result, err := app.Score(b, make(domain.ResponseVector, domain.BankSize))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	// Every dimension splits 50/50 and ties go to the first-listed pole.
	if result.Type != "ESTJ" {
		t.Fatalf("expected neutral default ESTJ, got %s", result.Type)
	}
	wantPairs := [][2]int{
		{result.Scores.Extraversion, result.Scores.Introversion},
		{result.Scores.Sensing, result.Scores.Intuition},
		{result.Scores.Thinking, result.Scores.Feeling},
		{result.Scores.Judging, result.Scores.Perceiving},
	}
	for d, pair := range wantPairs {
		offset := domain.DimensionCounts[d] * 3
		if pair[0] != offset || pair[1] != offset {
			t.Fatalf("dimension %d: expected %d/%d split, got %d/%d", d, offset, offset, pair[0], pair[1])
		}
	}
}

func TestScoreExtremeFirstPoleVector(t *testing.T) {
	b := testBank(t)
	responses := make(domain.ResponseVector, domain.BankSize)
	for i, q := range b {
		if q.Polarity == domain.Positive {
			responses[i] = domain.ScaleMax
		} else {
			responses[i] = domain.ScaleMin
		}
	}

	result, err := app.Score(b, responses)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.Type != "ESTJ" {
		t.Fatalf("expected ESTJ, got %s", result.Type)
	}
	checks := []struct {
		name      string
		dimension domain.Dimension
		favored   int
		opposite  int
	}{
		{"energy", domain.EnergyDirection, result.Scores.Extraversion, result.Scores.Introversion},
		{"information", domain.InformationProcessing, result.Scores.Sensing, result.Scores.Intuition},
		{"decision", domain.DecisionMaking, result.Scores.Thinking, result.Scores.Feeling},
		{"lifestyle", domain.LifestyleApproach, result.Scores.Judging, result.Scores.Perceiving},
	}
	for _, c := range checks {
		max := 2 * domain.DimensionCounts[c.dimension] * 3
		if c.favored != max {
			t.Fatalf("%s: favored pole %d, want maximum %d", c.name, c.favored, max)
		}
		if c.opposite != 0 {
			t.Fatalf("%s: opposite pole %d, want 0", c.name, c.opposite)
		}
	}
}

func TestScoreExcludesSentinelFromScoring(t *testing.T) {
	b := testBank(t)

	// One strong answer on a single question; the other 92 stay unanswered.
	// If the sentinel leaked into scoring as a value, every dimension would
	// be dragged far off its neutral split.
	idx := -1
	for i, q := range b {
		if q.Dimension == domain.EnergyDirection && q.Polarity == domain.Positive {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Fatalf("bank has no positive energy_direction question")
	}
	responses := make(domain.ResponseVector, domain.BankSize)
	responses[idx] = domain.ScaleMax

	result, err := app.Score(b, responses)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	offset := domain.DimensionCounts[domain.EnergyDirection] * 3
	if result.Scores.Extraversion != offset+3 || result.Scores.Introversion != offset-3 {
		t.Fatalf("expected %d/%d on the answered dimension, got %d/%d",
			offset+3, offset-3, result.Scores.Extraversion, result.Scores.Introversion)
	}
	// Untouched dimensions stay at their neutral split.
	if result.Scores.Thinking != domain.DimensionCounts[domain.DecisionMaking]*3 {
		t.Fatalf("unanswered dimension moved: thinking=%d", result.Scores.Thinking)
	}
	if result.Type != "ESTJ" {
		t.Fatalf("expected ESTJ, got %s", result.Type)
	}
}

func TestScorePoleSumsAreConstant(t *testing.T) {
	b := testBank(t)
	responses := make(domain.ResponseVector, domain.BankSize)
	for i := range responses {
		responses[i] = (i*5)%7 + 1
	}
	result, err := app.Score(b, responses)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	sums := []struct {
		dimension domain.Dimension
		got       int
	}{
		{domain.EnergyDirection, result.Scores.Extraversion + result.Scores.Introversion},
		{domain.InformationProcessing, result.Scores.Sensing + result.Scores.Intuition},
		{domain.DecisionMaking, result.Scores.Thinking + result.Scores.Feeling},
		{domain.LifestyleApproach, result.Scores.Judging + result.Scores.Perceiving},
	}
	for _, s := range sums {
		want := 2 * domain.DimensionCounts[s.dimension] * 3
		if s.got != want {
			t.Fatalf("dimension %d: pole sum %d, want %d", s.dimension, s.got, want)
		}
	}
	if len(result.Type) != 4 {
		t.Fatalf("expected a 4-letter type, got %q", result.Type)
	}
}

func TestScoreTieGoesToFirstPole(t *testing.T) {
	b := testBank(t)

	// Cancel one positive against one negative question per dimension so the
	// raw totals land exactly on zero.
	responses := make(domain.ResponseVector, domain.BankSize)
	for d := domain.Dimension(0); d < domain.NumDimensions; d++ {
		pos, neg := -1, -1
		for i, q := range b {
			if q.Dimension != d {
				continue
			}
			if q.Polarity == domain.Positive && pos < 0 {
				pos = i
			}
			if q.Polarity == domain.Negative && neg < 0 {
				neg = i
			}
		}
		if pos < 0 || neg < 0 {
			t.Fatalf("dimension %d lacks both polarities", d)
		}
		responses[pos] = domain.ScaleMax
		responses[neg] = domain.ScaleMax
	}

	result, err := app.Score(b, responses)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.Type != "ESTJ" {
		t.Fatalf("exact ties must resolve to first-listed poles, got %s", result.Type)
	}
	if result.Scores.Extraversion != result.Scores.Introversion {
		t.Fatalf("expected an exact tie, got %d/%d", result.Scores.Extraversion, result.Scores.Introversion)
	}
}
