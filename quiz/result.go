package quiz

import "math"

// Grade bands a result the way the result screen does
type Grade int

const (
	KeepPracticing Grade = iota
	Good
	Excellent
)

func (g Grade) String() string {
	switch g {
	case Excellent:
		return "excellent"
	case Good:
		return "good"
	default:
		return "keep_practicing"
	}
}

// Message is the encouragement shown under the score
func (g Grade) Message() string {
	switch g {
	case Excellent:
		return "🌟 Excellent work! You're a coding wizard!"
	case Good:
		return "👍 Good job! Keep learning!"
	default:
		return "💪 Keep practicing! You'll improve!"
	}
}

// Result is the final score of a completed session
type Result struct {
	Score      int
	Total      int
	Percentage int
	Grade      Grade
}

// NewResult computes the percentage and grade for score out of total
func NewResult(score, total int) Result {
	p := Percentage(score, total)
	return Result{
		Score:      score,
		Total:      total,
		Percentage: p,
		Grade:      GradeFor(p),
	}
}

// Percentage is round(100*score/total), clamped to [0, 100]
func Percentage(score, total int) int {
	if total <= 0 || score <= 0 {
		return 0
	}
	if score >= total {
		return 100
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}

// GradeFor maps a percentage onto its band: 80 and up is excellent, 60 and up is good
func GradeFor(percentage int) Grade {
	switch {
	case percentage >= 80:
		return Excellent
	case percentage >= 60:
		return Good
	default:
		return KeepPracticing
	}
}
