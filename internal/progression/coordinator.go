package progression

import (
	"fmt"
	"math"
)

// Rng supplies the randomness for critical-hit rolls. *rand.Rand satisfies
// it; tests inject a fixed sequence for deterministic outcomes.
type Rng interface {
	Float64() float64
}

// LevelUp records one level gained by an XP application, together with the
// lootbox rewards generated for it.
type LevelUp struct {
	From    int             `json:"from"`
	To      int             `json:"to"`
	Rewards []LevelUpReward `json:"rewards"`
}

// Outcome is the result of a coordinator mutation: the new progress value
// plus the side effects the caller is expected to carry out (lootbox
// creation, notifications, persistence). The coordinator itself performs
// no I/O.
type Outcome struct {
	Progress  PlayerProgress
	LevelUps  []LevelUp
	XPApplied int64
	Critical  bool
}

// Coordinator applies progression events to PlayerProgress values. Every
// method is a pure transformation: the input is never mutated, and either a
// new value or an error comes back. Mutations for one player must still be
// serialized by the caller, since reads and writes of the same progress
// value cannot interleave safely.
type Coordinator struct {
	curve   LevelCurve
	rewards *RewardEngine
	rng     Rng
}

// NewCoordinator wires the level curve, reward engine, and RNG source.
func NewCoordinator(curve LevelCurve, rewards *RewardEngine, rng Rng) *Coordinator {
	return &Coordinator{curve: curve, rewards: rewards, rng: rng}
}

// Curve returns the level curve the coordinator applies.
func (c *Coordinator) Curve() LevelCurve {
	return c.curve
}

// ApplyXP adds amount XP to p after scaling by the player's XP and streak
// multipliers and an injectable 20% critical roll. Level-ups detected after
// the addition produce one LevelUp (with its reward table) per level gained.
// Negative amounts fail with ErrInvalidInput; zero amounts return the input
// unchanged without rolling for a critical.
func (c *Coordinator) ApplyXP(p PlayerProgress, amount int64) (Outcome, error) {
	if amount < 0 {
		return Outcome{}, fmt.Errorf("%w: negative xp amount %d", ErrInvalidInput, amount)
	}
	if amount == 0 {
		return Outcome{Progress: p}, nil
	}

	effective := float64(amount) * p.Multipliers.XP * p.StreakMultiplier
	critical := false
	if c.rng.Float64() < c.rewards.cfg.CriticalChance {
		effective *= c.rewards.cfg.CriticalMultiplier
		critical = true
	}
	applied := int64(math.Floor(effective))

	next := p
	next.XP += applied
	next.Level = c.curve.LevelFor(next.XP)

	var ups []LevelUp
	for lvl := p.Level + 1; lvl <= next.Level; lvl++ {
		ups = append(ups, LevelUp{
			From:    lvl - 1,
			To:      lvl,
			Rewards: c.rewards.LevelUpRewards(lvl),
		})
	}

	return Outcome{Progress: next, LevelUps: ups, XPApplied: applied, Critical: critical}, nil
}

// Credit adds xp and coins at face value, with level-up detection but
// without reward multipliers or critical rolls. Battle payouts and lootbox
// claims use this path: their amounts already include every bonus, and
// scaling them again would double-count the streak.
func (c *Coordinator) Credit(p PlayerProgress, xp, coins int64) (Outcome, error) {
	if xp < 0 || coins < 0 {
		return Outcome{}, fmt.Errorf("%w: negative credit (%d xp, %d coins)", ErrInvalidInput, xp, coins)
	}

	next := p
	next.XP += xp
	next.Coins += coins
	next.Level = c.curve.LevelFor(next.XP)

	var ups []LevelUp
	for lvl := p.Level + 1; lvl <= next.Level; lvl++ {
		ups = append(ups, LevelUp{
			From:    lvl - 1,
			To:      lvl,
			Rewards: c.rewards.LevelUpRewards(lvl),
		})
	}

	return Outcome{Progress: next, LevelUps: ups, XPApplied: xp}, nil
}

// ApplyCoins adjusts the player's coin balance. Positive amounts are gains
// and scale by the coin and streak multipliers; negative amounts are spends,
// taken at face value, failing with ErrInsufficientFunds when the balance
// cannot cover them. The input is never mutated on failure.
func (c *Coordinator) ApplyCoins(p PlayerProgress, amount int64) (PlayerProgress, error) {
	next := p
	if amount >= 0 {
		next.Coins += int64(math.Floor(float64(amount) * p.Multipliers.Coins * p.StreakMultiplier))
		return next, nil
	}

	cost := -amount
	if cost > p.Coins {
		return p, fmt.Errorf("%w: cost %d exceeds balance %d", ErrInsufficientFunds, cost, p.Coins)
	}
	next.Coins -= cost
	return next, nil
}

// UpdateStreak advances or resets the player's streak and recomputes the
// streak multiplier: 1.0 plus 0.1 per streak day, capped at 2.0.
func (c *Coordinator) UpdateStreak(p PlayerProgress, wonToday bool) PlayerProgress {
	next := p
	if wonToday {
		next.Streak++
	} else {
		next.Streak = 0
	}
	next.StreakMultiplier = math.Min(2.0, 1.0+float64(next.Streak)*0.1)
	return next
}
