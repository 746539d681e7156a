package progression

// RewardMultipliers scale incoming XP and coin gains for a player.
// Both default to 1.0 and are adjusted by boosts or events.
type RewardMultipliers struct {
	XP    float64 `json:"xp"`
	Coins float64 `json:"coins"`
}

// PlayerProgress is the progression state for a single player.
//
// Invariants: Level always equals the curve's LevelFor(XP); XP and Coins
// never decrease except through an explicit spend or admin reset;
// StreakMultiplier stays within [1.0, 2.0].
type PlayerProgress struct {
	ID               string            `json:"id"`
	XP               int64             `json:"xp"`
	Level            int               `json:"level"`
	Coins            int64             `json:"coins"`
	Streak           int               `json:"streak"`
	StreakMultiplier float64           `json:"streakMultiplier"`
	Multipliers      RewardMultipliers `json:"rewardMultipliers"`
}

// NewPlayerProgress returns the starting progression state for a player.
func NewPlayerProgress(id string) PlayerProgress {
	return PlayerProgress{
		ID:               id,
		Level:            1,
		StreakMultiplier: 1.0,
		Multipliers:      RewardMultipliers{XP: 1.0, Coins: 1.0},
	}
}

// BattleStats accumulates battle history counters for a player. Achievement
// triggers compare against these alongside PlayerProgress fields.
type BattleStats struct {
	BattlesPlayed     int `json:"battlesPlayed"`
	BattlesWon        int `json:"battlesWon"`
	BattlesLost       int `json:"battlesLost"`
	BattlesDrawn      int `json:"battlesDrawn"`
	QuestionsAnswered int `json:"questionsAnswered"`
	QuestionsCorrect  int `json:"questionsCorrect"`
	PerfectBattles    int `json:"perfectBattles"`
	BestStreak        int `json:"bestStreak"`
}
