package progression

// Comparison is the operator an achievement trigger applies to a stat.
type Comparison string

const (
	CompareEq  Comparison = "eq"
	CompareGt  Comparison = "gt"
	CompareLt  Comparison = "lt"
	CompareGte Comparison = "gte"
	CompareLte Comparison = "lte"
)

// StatKey names a numeric field of the player snapshot a trigger reads.
type StatKey string

const (
	StatLevel            StatKey = "level"
	StatXP               StatKey = "xp"
	StatCoins            StatKey = "coins"
	StatStreak           StatKey = "streak"
	StatBestStreak       StatKey = "best_streak"
	StatBattlesPlayed    StatKey = "battles_played"
	StatBattlesWon       StatKey = "battles_won"
	StatPerfectBattles   StatKey = "perfect_battles"
	StatQuestionsCorrect StatKey = "questions_correct"
)

// Trigger is the condition attached to an achievement: a stat, a threshold
// value, and the comparison between them.
type Trigger struct {
	Stat       StatKey    `json:"stat"`
	Value      int64      `json:"value"`
	Comparison Comparison `json:"comparison"`
}

// Tier represents an achievement's difficulty level.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Achievement describes a single unlockable goal.
type Achievement struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Tier        Tier    `json:"tier"`
	Trigger     Trigger `json:"trigger"`
}

// StatSnapshot flattens PlayerProgress and BattleStats into the numeric
// view triggers evaluate against.
type StatSnapshot struct {
	Progress PlayerProgress
	Stats    BattleStats
}

// Value resolves a stat key against the snapshot. The second return is
// false for unknown keys, which never satisfy a trigger.
func (s StatSnapshot) Value(key StatKey) (int64, bool) {
	switch key {
	case StatLevel:
		return int64(s.Progress.Level), true
	case StatXP:
		return s.Progress.XP, true
	case StatCoins:
		return s.Progress.Coins, true
	case StatStreak:
		return int64(s.Progress.Streak), true
	case StatBestStreak:
		return int64(s.Stats.BestStreak), true
	case StatBattlesPlayed:
		return int64(s.Stats.BattlesPlayed), true
	case StatBattlesWon:
		return int64(s.Stats.BattlesWon), true
	case StatPerfectBattles:
		return int64(s.Stats.PerfectBattles), true
	case StatQuestionsCorrect:
		return int64(s.Stats.QuestionsCorrect), true
	}
	return 0, false
}

// EvaluateCondition reports whether current satisfies the trigger.
func EvaluateCondition(current int64, t Trigger) bool {
	switch t.Comparison {
	case CompareEq:
		return current == t.Value
	case CompareGt:
		return current > t.Value
	case CompareLt:
		return current < t.Value
	case CompareGte:
		return current >= t.Value
	case CompareLte:
		return current <= t.Value
	}
	return false
}

// AchievementEvaluator holds the achievement registry and evaluates which
// achievements become newly satisfied against a snapshot. It keeps no
// state of its own; the caller supplies the already-unlocked ID set.
type AchievementEvaluator struct {
	registry []Achievement
}

// NewAchievementEvaluator creates an evaluator pre-loaded with the full
// achievement set.
func NewAchievementEvaluator() *AchievementEvaluator {
	return &AchievementEvaluator{registry: buildRegistry()}
}

// Registry returns a copy of all registered achievements.
func (e *AchievementEvaluator) Registry() []Achievement {
	out := make([]Achievement, len(e.registry))
	copy(out, e.registry)
	return out
}

// Evaluate returns the achievements whose triggers are satisfied by snap
// and whose IDs are not in unlocked. It does not record unlocks; the caller
// owns the idempotency set.
func (e *AchievementEvaluator) Evaluate(snap StatSnapshot, unlocked map[string]bool) []Achievement {
	var newly []Achievement
	for _, a := range e.registry {
		if unlocked[a.ID] {
			continue
		}
		current, ok := snap.Value(a.Trigger.Stat)
		if !ok {
			continue
		}
		if EvaluateCondition(current, a.Trigger) {
			newly = append(newly, a)
		}
	}
	return newly
}

func buildRegistry() []Achievement {
	return []Achievement{

		// Progression milestones

		{
			ID: "first_steps", Name: "First Steps",
			Description: "Reach level 2",
			Tier:        TierBronze,
			Trigger:     Trigger{Stat: StatLevel, Value: 2, Comparison: CompareGte},
		},
		{
			ID: "dedicated_scholar", Name: "Dedicated Scholar",
			Description: "Reach level 10",
			Tier:        TierSilver,
			Trigger:     Trigger{Stat: StatLevel, Value: 10, Comparison: CompareGte},
		},
		{
			ID: "sage", Name: "Sage",
			Description: "Reach level 25",
			Tier:        TierGold,
			Trigger:     Trigger{Stat: StatLevel, Value: 25, Comparison: CompareGte},
		},
		{
			ID: "grandmaster", Name: "Grandmaster",
			Description: "Reach level 50",
			Tier:        TierPlatinum,
			Trigger:     Trigger{Stat: StatLevel, Value: 50, Comparison: CompareGte},
		},

		// Battle milestones

		{
			ID: "first_blood", Name: "First Blood",
			Description: "Win your first battle",
			Tier:        TierBronze,
			Trigger:     Trigger{Stat: StatBattlesWon, Value: 1, Comparison: CompareGte},
		},
		{
			ID: "battle_tested", Name: "Battle Tested",
			Description: "Play 10 battles",
			Tier:        TierBronze,
			Trigger:     Trigger{Stat: StatBattlesPlayed, Value: 10, Comparison: CompareGte},
		},
		{
			ID: "conqueror", Name: "Conqueror",
			Description: "Win 25 battles",
			Tier:        TierSilver,
			Trigger:     Trigger{Stat: StatBattlesWon, Value: 25, Comparison: CompareGte},
		},
		{
			ID: "warlord", Name: "Warlord",
			Description: "Win 100 battles",
			Tier:        TierGold,
			Trigger:     Trigger{Stat: StatBattlesWon, Value: 100, Comparison: CompareGte},
		},
		{
			ID: "flawless", Name: "Flawless",
			Description: "Answer every question correctly in a battle",
			Tier:        TierSilver,
			Trigger:     Trigger{Stat: StatPerfectBattles, Value: 1, Comparison: CompareGte},
		},
		{
			ID: "perfectionist", Name: "Perfectionist",
			Description: "Finish 10 battles without a single wrong answer",
			Tier:        TierPlatinum,
			Trigger:     Trigger{Stat: StatPerfectBattles, Value: 10, Comparison: CompareGte},
		},

		// Knowledge milestones

		{
			ID: "quick_study", Name: "Quick Study",
			Description: "Answer 50 questions correctly",
			Tier:        TierBronze,
			Trigger:     Trigger{Stat: StatQuestionsCorrect, Value: 50, Comparison: CompareGte},
		},
		{
			ID: "walking_encyclopedia", Name: "Walking Encyclopedia",
			Description: "Answer 500 questions correctly",
			Tier:        TierGold,
			Trigger:     Trigger{Stat: StatQuestionsCorrect, Value: 500, Comparison: CompareGte},
		},

		// Streaks

		{
			ID: "warming_up", Name: "Warming Up",
			Description: "Hold a 3-day streak",
			Tier:        TierBronze,
			Trigger:     Trigger{Stat: StatStreak, Value: 3, Comparison: CompareGte},
		},
		{
			ID: "on_fire", Name: "On Fire",
			Description: "Hold a 7-day streak",
			Tier:        TierSilver,
			Trigger:     Trigger{Stat: StatStreak, Value: 7, Comparison: CompareGte},
		},
		{
			ID: "unstoppable", Name: "Unstoppable",
			Description: "Reach a best streak of 30",
			Tier:        TierGold,
			Trigger:     Trigger{Stat: StatBestStreak, Value: 30, Comparison: CompareGte},
		},

		// Wealth

		{
			ID: "piggy_bank", Name: "Piggy Bank",
			Description: "Hold 1,000 coins",
			Tier:        TierBronze,
			Trigger:     Trigger{Stat: StatCoins, Value: 1000, Comparison: CompareGte},
		},
		{
			ID: "treasure_hoard", Name: "Treasure Hoard",
			Description: "Hold 10,000 coins",
			Tier:        TierGold,
			Trigger:     Trigger{Stat: StatCoins, Value: 10000, Comparison: CompareGte},
		},
	}
}
