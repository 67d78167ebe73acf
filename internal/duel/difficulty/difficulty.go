// Package difficulty splits a duel's question list into contiguous
// easy/medium/hard bands and maps question indexes onto them.
package difficulty

import "fmt"

// Level is the difficulty of a single question.
type Level string

// Level constants.
const (
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
)

// Preset selects how a duel's questions are banded.
type Preset string

// Preset constants.
const (
	PresetEasy   Preset = "easy"   // progressive 40/30/30
	PresetMedium Preset = "medium" // no easy band, 60/40 medium/hard
	PresetHard   Preset = "hard"   // every question hard
)

// DefaultPreset is used when no preset is chosen.
const DefaultPreset = PresetEasy

// ParsePreset validates a preset name coming from config or a request.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(s); p {
	case PresetEasy, PresetMedium, PresetHard:
		return p, nil
	case "":
		return DefaultPreset, nil
	default:
		return "", fmt.Errorf("unknown difficulty preset %q", s)
	}
}

// Distribution partitions [0, Total) into easy, medium and hard index ranges,
// in that order.
type Distribution struct {
	Easy      int `json:"easy"`
	Medium    int `json:"medium"`
	Hard      int `json:"hard"`
	EasyEnd   int `json:"easy_end"`
	MediumEnd int `json:"medium_end"`
	Total     int `json:"total"`
}

// Classic computes the band sizes for total questions under preset. Rounding is
// half-up in integer arithmetic so every client lands on the same split; the
// hard band absorbs whatever is left.
func Classic(total int, preset Preset) Distribution {
	if total <= 0 {
		return Distribution{}
	}

	var easy, medium int
	switch preset {
	case PresetHard:
	case PresetMedium:
		medium = (total*6 + 9) / 10 // ceil(total * 0.6)
	default:
		easy = (total*4 + 5) / 10   // round(total * 0.4)
		medium = (total*3 + 5) / 10 // round(total * 0.3)
	}
	return newDistribution(total, easy, medium)
}

// Calculate is Classic with the default preset.
func Calculate(total int) Distribution {
	return Classic(total, DefaultPreset)
}

func newDistribution(total, easy, medium int) Distribution {
	easy = min(max(easy, 0), total)
	medium = min(max(medium, 0), total-easy)
	return Distribution{
		Easy:      easy,
		Medium:    medium,
		Hard:      total - easy - medium,
		EasyEnd:   easy,
		MediumEnd: easy + medium,
		Total:     total,
	}
}

// ForIndex reports the level of question index. Indexes outside [0, Total) are
// clamped to the nearest valid one; an empty distribution reports hard.
func ForIndex(index int, d Distribution) Level {
	if d.Total > 0 {
		index = min(max(index, 0), d.Total-1)
	}
	switch {
	case index < d.EasyEnd:
		return LevelEasy
	case index < d.MediumEnd:
		return LevelMedium
	default:
		return LevelHard
	}
}

// Params is what the answer shuffler needs to know about a level.
type Params struct {
	Level        Level `json:"level"`
	WrongCount   int   `json:"wrong_count"`
	NoneEligible bool  `json:"none_eligible"`
}

// ParamsFor returns the option layout for level. Unknown levels get the hard layout.
func ParamsFor(level Level) Params {
	switch level {
	case LevelEasy:
		return Params{Level: LevelEasy, WrongCount: 2}
	case LevelMedium:
		return Params{Level: LevelMedium, WrongCount: 3}
	default:
		return Params{Level: LevelHard, WrongCount: 3, NoneEligible: true}
	}
}

// ParamsAt is ParamsFor(ForIndex(index, d)).
func (d Distribution) ParamsAt(index int) Params {
	return ParamsFor(ForIndex(index, d))
}
