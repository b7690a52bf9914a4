package quiz

import "math"

// PassThreshold is the accuracy percentage that unlocks the next set (12 of 20).
const PassThreshold = 60

type Tier string

const (
	TierHigh    Tier = "high"
	TierAverage Tier = "average"
	TierLow     Tier = "low"
)

var tierFeedback = map[Tier]string{
	TierHigh:    "Outstanding! You are ready for the next challenge.",
	TierAverage: "Good job! Review the explanations to sharpen your skills.",
	TierLow:     "Keep practicing! Every attempt brings you closer to your career goal.",
}

// Feedback is the encouragement shown on the results screen.
func (t Tier) Feedback() string {
	return tierFeedback[t]
}

func tierFor(accuracy int) Tier {
	switch {
	case accuracy >= 80:
		return TierHigh
	case accuracy >= PassThreshold:
		return TierAverage
	default:
		return TierLow
	}
}

type Summary struct {
	Score            int  `json:"score"`
	Total            int  `json:"total"`
	Accuracy         int  `json:"accuracy"`
	ExperiencePoints int  `json:"experiencePoints"`
	Tier             Tier `json:"tier"`
	Passed           bool `json:"passed"`
}

// Summarize scores a finished round. Passed is judged on the raw ratio, not the rounded accuracy.
func Summarize(score, total int) Summary {
	if score < 0 {
		score = 0
	}
	accuracy := 0
	if total > 0 {
		accuracy = int(math.Round(float64(score) / float64(total) * 100))
	}
	if accuracy > 100 {
		accuracy = 100
	}
	return Summary{
		Score:            score,
		Total:            total,
		Accuracy:         accuracy,
		ExperiencePoints: score * 100,
		Tier:             tierFor(accuracy),
		Passed:           total > 0 && score*100 >= PassThreshold*total,
	}
}
