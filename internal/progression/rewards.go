package progression

import (
	"fmt"
	"math"
)

// Rarity classifies a reward for display and value scaling.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// RewardKind identifies what a lootbox entry grants.
type RewardKind string

const (
	RewardXP    RewardKind = "xp"
	RewardCoins RewardKind = "coins"
	RewardItem  RewardKind = "item"
)

// LevelUpReward is a single lootbox entry generated by a level-up.
type LevelUpReward struct {
	Type   RewardKind `json:"type"`
	Value  int64      `json:"value"`
	Rarity Rarity     `json:"rarity"`
}

// RewardBundle is the immutable payout of one completed battle.
type RewardBundle struct {
	XPEarned    int64 `json:"xpEarned"`
	CoinsEarned int64 `json:"coinsEarned"`
	StreakBonus int64 `json:"streakBonus"`
	TimeBonus   int64 `json:"timeBonus"`
	IsVictory   bool  `json:"isVictory"`
}

// BattleResult is the input tuple for battle reward computation.
type BattleResult struct {
	Score           int
	TotalQuestions  int
	Difficulty      int
	Streak          int
	TimeLeft        int
	TimePerQuestion int
	IsVictory       bool
}

// RewardConfig holds the tunables of the reward formulas.
type RewardConfig struct {
	BaseXP                int64
	BaseCoins             int64
	DifficultyBase        float64
	VictoryXPMultiplier   float64
	VictoryCoinMultiplier float64
	StreakBonusMultiplier float64
	StreakBonusCap        int64
	TimeBonusMultiplier   float64
	TimeBonusCap          int64
	CriticalChance        float64
	CriticalMultiplier    float64
}

// DefaultRewardConfig returns the production reward tunables.
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		BaseXP:                100,
		BaseCoins:             50,
		DifficultyBase:        1.2,
		VictoryXPMultiplier:   1.5,
		VictoryCoinMultiplier: 1.5,
		StreakBonusMultiplier: 0.1,
		StreakBonusCap:        500,
		TimeBonusMultiplier:   0.5,
		TimeBonusCap:          250,
		CriticalChance:        0.2,
		CriticalMultiplier:    2.0,
	}
}

// RewardEngine computes battle payouts and level-up reward tables.
// It holds no mutable state and is safe for concurrent use.
type RewardEngine struct {
	cfg RewardConfig
}

// NewRewardEngine creates an engine with the given tunables.
func NewRewardEngine(cfg RewardConfig) *RewardEngine {
	return &RewardEngine{cfg: cfg}
}

// BattleRewards computes the payout for a finished battle.
//
// A zero-question result is a caller contract violation and fails with
// ErrInvalidInput rather than producing an empty bundle; callers must
// validate question sets before starting a battle.
func (e *RewardEngine) BattleRewards(res BattleResult) (RewardBundle, error) {
	switch {
	case res.TotalQuestions <= 0:
		return RewardBundle{}, fmt.Errorf("%w: battle has no questions", ErrInvalidInput)
	case res.Score < 0 || res.Score > res.TotalQuestions:
		return RewardBundle{}, fmt.Errorf("%w: score %d out of range for %d questions", ErrInvalidInput, res.Score, res.TotalQuestions)
	case res.Difficulty < 1:
		return RewardBundle{}, fmt.Errorf("%w: difficulty %d below 1", ErrInvalidInput, res.Difficulty)
	case res.Streak < 0:
		return RewardBundle{}, fmt.Errorf("%w: negative streak %d", ErrInvalidInput, res.Streak)
	case res.TimePerQuestion <= 0:
		return RewardBundle{}, fmt.Errorf("%w: time per question must be positive", ErrInvalidInput)
	case res.TimeLeft < 0 || res.TimeLeft > res.TimePerQuestion:
		return RewardBundle{}, fmt.Errorf("%w: time left %d out of range", ErrInvalidInput, res.TimeLeft)
	}

	ratio := float64(res.Score) / float64(res.TotalQuestions)
	diff := math.Pow(e.cfg.DifficultyBase, float64(res.Difficulty-1))

	baseXP := float64(e.cfg.BaseXP) * diff * ratio
	baseCoins := float64(e.cfg.BaseCoins) * diff * ratio
	if res.IsVictory {
		baseXP *= e.cfg.VictoryXPMultiplier
		baseCoins *= e.cfg.VictoryCoinMultiplier
	}

	streakBonus := min(e.cfg.StreakBonusCap,
		int64(math.Floor(baseXP*e.cfg.StreakBonusMultiplier*float64(res.Streak))))
	timeBonus := min(e.cfg.TimeBonusCap,
		int64(math.Floor(baseXP*e.cfg.TimeBonusMultiplier*float64(res.TimeLeft)/float64(res.TimePerQuestion))))

	return RewardBundle{
		XPEarned:    int64(math.Floor(baseXP)) + streakBonus + timeBonus,
		CoinsEarned: int64(math.Floor(baseCoins)),
		StreakBonus: streakBonus,
		TimeBonus:   timeBonus,
		IsVictory:   res.IsVictory,
	}, nil
}

// LevelUpRewards returns the deterministic reward table for reaching the
// given level: always one XP and one coin entry, plus a bonus item at
// 5-level milestones. Rarity follows the milestone rules in RarityForLevel.
func (e *RewardEngine) LevelUpRewards(level int) []LevelUpReward {
	rarity := RarityForLevel(level)
	rewards := []LevelUpReward{
		{Type: RewardXP, Value: int64(level) * 50, Rarity: rarity},
		{Type: RewardCoins, Value: int64(level) * 25, Rarity: rarity},
	}
	if level%5 == 0 {
		rewards = append(rewards, LevelUpReward{Type: RewardItem, Value: int64(level), Rarity: rarity})
	}
	return rewards
}

// RarityForLevel maps a level milestone to a reward rarity: every 10th
// level is legendary, every 5th epic, everything else rare.
func RarityForLevel(level int) Rarity {
	switch {
	case level%10 == 0:
		return RarityLegendary
	case level%5 == 0:
		return RarityEpic
	default:
		return RarityRare
	}
}
