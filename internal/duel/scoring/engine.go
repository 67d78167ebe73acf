package scoring

import (
	"math"

	"github.com/gokatarajesh/word-duel/internal/duel/difficulty"
)

// Config holds the points awarded for a correct answer at each level.
type Config struct {
	EasyPoints   float64 // default: 1.0
	MediumPoints float64 // default: 1.0
	HardPoints   float64 // default: 1.5
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		EasyPoints:   1.0,
		MediumPoints: 1.0,
		HardPoints:   1.5,
	}
}

// Engine computes duel scores with configurable point values.
type Engine struct {
	config Config
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

var defaultEngine = NewEngine(DefaultConfig())

// PointsFor returns the value of a correct answer at level.
func (e *Engine) PointsFor(level difficulty.Level) float64 {
	switch level {
	case difficulty.LevelEasy:
		return e.config.EasyPoints
	case difficulty.LevelMedium:
		return e.config.MediumPoints
	default:
		return e.config.HardPoints
	}
}

// MaxScore is the score of a player who answers the first total questions of d
// correctly.
func (e *Engine) MaxScore(total int, d difficulty.Distribution) float64 {
	var score float64
	for i := 0; i < min(total, d.Total); i++ {
		score += e.PointsFor(difficulty.ForIndex(i, d))
	}
	return score
}

// MaxScore uses the default point values.
func MaxScore(total int, d difficulty.Distribution) float64 {
	return defaultEngine.MaxScore(total, d)
}

// SuccessRate is score as a whole percentage of maxScore, 0 when nothing was
// achievable.
func SuccessRate(score, maxScore float64) int {
	if maxScore == 0 {
		return 0
	}
	return clampPercent(int(math.Floor(100*score/maxScore + 0.5)))
}

// Accuracy is correct as a whole percentage of answered, rounded half-up.
func Accuracy(correct, answered int) int {
	if answered <= 0 {
		return 0
	}
	return clampPercent((200*correct + answered) / (2 * answered))
}

func clampPercent(p int) int {
	return min(max(p, 0), 100)
}

// Answer is one graded answer.
type Answer struct {
	Index   int  `json:"index"`
	Correct bool `json:"correct"`
}

// Summary is a participant's final tally.
type Summary struct {
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
	Correct     int     `json:"correct"`
	Answered    int     `json:"answered"`
	Accuracy    int     `json:"accuracy"`
	SuccessRate int     `json:"success_rate"`
}

// Summarize totals answers against d. Each question index counts once; repeats
// after the first are ignored.
func (e *Engine) Summarize(answers []Answer, d difficulty.Distribution) Summary {
	var s Summary
	seen := make(map[int]struct{}, len(answers))
	for _, a := range answers {
		if _, dup := seen[a.Index]; dup {
			continue
		}
		seen[a.Index] = struct{}{}

		s.Answered++
		if a.Correct {
			s.Correct++
			s.Score += e.PointsFor(difficulty.ForIndex(a.Index, d))
		}
	}

	s.MaxScore = e.MaxScore(d.Total, d)
	s.Accuracy = Accuracy(s.Correct, s.Answered)
	s.SuccessRate = SuccessRate(s.Score, s.MaxScore)
	return s
}
