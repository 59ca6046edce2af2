package domain

import (
	"fmt"
	"time"
)

// Dimension is one of the four opposed personality axes.
type Dimension int

const (
	EnergyDirection Dimension = iota
	InformationProcessing
	DecisionMaking
	LifestyleApproach

	NumDimensions = 4
)

// Poles returns the two letters of a dimension, first-listed pole first.
func (d Dimension) Poles() (string, string) {
	switch d {
	case EnergyDirection:
		return "E", "I"
	case InformationProcessing:
		return "S", "N"
	case DecisionMaking:
		return "T", "F"
	case LifestyleApproach:
		return "J", "P"
	}
	return "?", "?"
}

func (d Dimension) String() string {
	switch d {
	case EnergyDirection:
		return "energy_direction"
	case InformationProcessing:
		return "information_processing"
	case DecisionMaking:
		return "decision_making"
	case LifestyleApproach:
		return "lifestyle_approach"
	}
	return "unknown"
}

// ParseDimension maps the wire/bank name of a dimension to its value.
func ParseDimension(s string) (Dimension, error) {
	switch s {
	case "energy_direction":
		return EnergyDirection, nil
	case "information_processing":
		return InformationProcessing, nil
	case "decision_making":
		return DecisionMaking, nil
	case "lifestyle_approach":
		return LifestyleApproach, nil
	}
	return 0, fmt.Errorf("unknown dimension %q", s)
}

// Polarity says which pole of a question's dimension an endorsement supports.
type Polarity int

const (
	// Positive means high agreement favors the first-listed pole (E/S/T/J).
	Positive Polarity = iota
	// Negative means high agreement favors the second-listed pole (I/N/F/P).
	Negative
)

func (p Polarity) String() string {
	if p == Negative {
		return "negative"
	}
	return "positive"
}

// ParsePolarity maps the wire/bank name of a polarity to its value.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "positive":
		return Positive, nil
	case "negative":
		return Negative, nil
	}
	return 0, fmt.Errorf("unknown polarity %q", s)
}

// QuestionDefinition is a single item of the question bank. Immutable.
type QuestionDefinition struct {
	Text      string
	Dimension Dimension
	Polarity  Polarity
}

// BankSize is the fixed number of questions in the bank.
const BankSize = 93

// DimensionCounts is the fixed partition of the bank across the four
// dimensions, in Dimension order. Changing it is a breaking change: the
// normalization offsets move and stored result types would need recomputing.
var DimensionCounts = [NumDimensions]int{23, 23, 23, 24}

// QuestionBank is the canonical ordered sequence of question definitions.
type QuestionBank []QuestionDefinition

// Validate checks the bank's size and dimension partition.
func (b QuestionBank) Validate() error {
	if len(b) != BankSize {
		return fmt.Errorf("%w: got %d questions, want %d", ErrInvalidBank, len(b), BankSize)
	}
	var counts [NumDimensions]int
	for i, q := range b {
		if q.Dimension < 0 || q.Dimension >= NumDimensions {
			return fmt.Errorf("%w: question %d has invalid dimension", ErrInvalidBank, i)
		}
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has empty text", ErrInvalidBank, i)
		}
		counts[q.Dimension]++
	}
	if counts != DimensionCounts {
		return fmt.Errorf("%w: dimension partition %v, want %v", ErrInvalidBank, counts, DimensionCounts)
	}
	return nil
}

// PresentedQuestion is a bank question in its shuffled position, keeping the
// index it came from so responses can be restored to canonical order.
type PresentedQuestion struct {
	QuestionDefinition
	OriginalIndex int
}

// Response scale. Unanswered positions hold the sentinel, never a scale value.
const (
	Unanswered = 0
	ScaleMin   = 1
	ScaleMax   = 7
)

// ResponseVector holds one response per canonical question index.
type ResponseVector []int

// Answered counts the non-sentinel positions.
func (v ResponseVector) Answered() int {
	n := 0
	for _, r := range v {
		if r != Unanswered {
			n++
		}
	}
	return n
}

// PoleScores are the eight normalized per-pole accumulators.
type PoleScores struct {
	Extraversion int `json:"extraversion"`
	Introversion int `json:"introversion"`
	Sensing      int `json:"sensing"`
	Intuition    int `json:"intuition"`
	Thinking     int `json:"thinking"`
	Feeling      int `json:"feeling"`
	Judging      int `json:"judging"`
	Perceiving   int `json:"perceiving"`
}

// Result is the outcome of scoring a completed response vector.
type Result struct {
	Type   string     `json:"type"`
	Scores PoleScores `json:"scores"`
}

// AssessmentRecord is a persisted completed assessment. Email and OwnerID are
// empty until captured; records move Anonymous -> EmailCaptured -> Linked and
// never back.
type AssessmentRecord struct {
	ID              string         `json:"id"`
	Email           string         `json:"email,omitempty"`
	Responses       ResponseVector `json:"responses"`
	ResultType      string         `json:"resultType"`
	OwnerID         string         `json:"ownerId,omitempty"`
	ReportDelivered bool           `json:"reportDelivered"`
	CreatedAt       time.Time      `json:"createdAt"`
}
