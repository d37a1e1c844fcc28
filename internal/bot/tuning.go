package bot

import (
	"fmt"
	"strings"

	botinternal "shithead/internal/bot/internal"
)

// Difficulty selects how a bot plays.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Difficulties lists every supported level from weakest to strongest.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}

// ParseDifficulty accepts a level name in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown bot difficulty: %q", s)
}

// easyRandomPlay is the chance an easy bot ignores scoring and plays any legal move.
const easyRandomPlay = 0.5

// DefaultTuning holds the heuristic weights shared by every difficulty.
var DefaultTuning = botinternal.Weights{
	TakePile:     -100,
	ImmediateWin: 1000,
	ForcedBurn:   900,
	MultiCard:    15,
	MagicBase:    25,

	BurnPileSize:   1.5,
	BurnHighCard:   2,
	HighCardValue:  12,
	NearWinCards:   2,
	NearWinBonus:   20,
	ForceInverse:   50,
	LowerHighValue: 10,
	LowerSelfTrap:  2,

	ResetBonus:     35,
	InvisibleBonus: 10,
	ReverseBonus:   30,

	FaceUpMatchPenalty: 5,
	FaceUpSetPenalty:   10,

	OpponentBlockWeight: 8,
	KnownBeaterPenalty:  5,
}
