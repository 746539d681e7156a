package progression

import "math"

// LevelCurve defines the XP cost of each level. Costs grow geometrically:
// level N costs floor(BaseXP * GrowthFactor^(N-1)) XP, up to MaxLevel.
// The zero value is not usable; construct via DefaultCurve or literal.
type LevelCurve struct {
	BaseXP       int64
	GrowthFactor float64
	MaxLevel     int
}

// DefaultCurve is the production curve: 1000 XP for level 2, growing 1.5x
// per level, capped at level 100.
func DefaultCurve() LevelCurve {
	return LevelCurve{BaseXP: 1000, GrowthFactor: 1.5, MaxLevel: 100}
}

// XPForLevel returns the XP needed to advance FROM the given level to the
// next one. At or beyond MaxLevel there is no further leveling and the
// requirement is 0.
func (c LevelCurve) XPForLevel(level int) int64 {
	if level < 1 || level >= c.MaxLevel {
		return 0
	}
	return int64(math.Floor(float64(c.BaseXP) * math.Pow(c.GrowthFactor, float64(level-1))))
}

// TotalXPForLevel returns the cumulative XP required to reach the given
// level, i.e. the sum of XPForLevel over all earlier levels.
func (c LevelCurve) TotalXPForLevel(level int) int64 {
	var total int64
	for i := 1; i < level && i < c.MaxLevel; i++ {
		total += c.XPForLevel(i)
	}
	return total
}

// LevelFor returns the level a player with the given cumulative XP has
// reached. The walk accumulates per-level costs until the next threshold
// exceeds xp, so LevelFor(0) == 1 and LevelFor(TotalXPForLevel(n)) == n.
func (c LevelCurve) LevelFor(xp int64) int {
	level := 1
	var cum int64
	for i := 1; i < c.MaxLevel; i++ {
		cum += c.XPForLevel(i)
		if xp < cum {
			break
		}
		level = i + 1
	}
	return level
}

// ProgressPercent returns how far into the current level xp sits, in
// [0, 100]. At MaxLevel the level is complete and the result is 100.
func (c LevelCurve) ProgressPercent(xp int64) float64 {
	level := c.LevelFor(xp)
	need := c.XPForLevel(level)
	if need == 0 {
		return 100
	}
	pct := float64(xp-c.TotalXPForLevel(level)) / float64(need) * 100
	return math.Min(math.Max(pct, 0), 100)
}

// XPToNextLevel returns the XP remaining until the next level, or 0 at
// MaxLevel.
func (c LevelCurve) XPToNextLevel(xp int64) int64 {
	level := c.LevelFor(xp)
	need := c.XPForLevel(level)
	if need == 0 {
		return 0
	}
	return need - (xp - c.TotalXPForLevel(level))
}
