package progression

import (
	"errors"
	"testing"
)

func TestBattleRewards_ScenarioFourOfFive(t *testing.T) {
	e := NewRewardEngine(DefaultRewardConfig())

	// 4/5 correct, difficulty 1, no streak, full time left, opponent won.
	bundle, err := e.BattleRewards(BattleResult{
		Score:           4,
		TotalQuestions:  5,
		Difficulty:      1,
		Streak:          0,
		TimeLeft:        15,
		TimePerQuestion: 15,
		IsVictory:       false,
	})
	if err != nil {
		t.Fatalf("BattleRewards: %v", err)
	}

	// baseXP = 100 * 1.0 * 0.8 = 80; timeBonus = floor(80*0.5*1) = 40.
	if bundle.IsVictory {
		t.Error("IsVictory = true, want false")
	}
	if bundle.StreakBonus != 0 {
		t.Errorf("StreakBonus = %d, want 0", bundle.StreakBonus)
	}
	if bundle.TimeBonus != 40 {
		t.Errorf("TimeBonus = %d, want 40", bundle.TimeBonus)
	}
	if bundle.XPEarned != 120 {
		t.Errorf("XPEarned = %d, want 120", bundle.XPEarned)
	}
	if bundle.CoinsEarned != 40 {
		t.Errorf("CoinsEarned = %d, want 40", bundle.CoinsEarned)
	}
}

func TestBattleRewards_VictoryStrictlyIncreasesXP(t *testing.T) {
	e := NewRewardEngine(DefaultRewardConfig())

	base := BattleResult{
		Score: 3, TotalQuestions: 5, Difficulty: 2,
		Streak: 2, TimeLeft: 5, TimePerQuestion: 15,
	}

	loss := base
	win := base
	win.IsVictory = true

	lossBundle, err := e.BattleRewards(loss)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	winBundle, err := e.BattleRewards(win)
	if err != nil {
		t.Fatalf("win: %v", err)
	}

	if winBundle.XPEarned <= lossBundle.XPEarned {
		t.Errorf("victory XP %d not greater than defeat XP %d", winBundle.XPEarned, lossBundle.XPEarned)
	}
	if winBundle.CoinsEarned <= lossBundle.CoinsEarned {
		t.Errorf("victory coins %d not greater than defeat coins %d", winBundle.CoinsEarned, lossBundle.CoinsEarned)
	}
}

func TestBattleRewards_NonNegative(t *testing.T) {
	e := NewRewardEngine(DefaultRewardConfig())

	for score := 0; score <= 10; score++ {
		for _, streak := range []int{0, 1, 5, 50} {
			for _, timeLeft := range []int{0, 7, 15} {
				bundle, err := e.BattleRewards(BattleResult{
					Score: score, TotalQuestions: 10, Difficulty: 3,
					Streak: streak, TimeLeft: timeLeft, TimePerQuestion: 15,
				})
				if err != nil {
					t.Fatalf("score=%d streak=%d timeLeft=%d: %v", score, streak, timeLeft, err)
				}
				if bundle.XPEarned < 0 || bundle.CoinsEarned < 0 {
					t.Errorf("negative payout for score=%d streak=%d timeLeft=%d: %+v", score, streak, timeLeft, bundle)
				}
			}
		}
	}
}

func TestBattleRewards_StreakBonusCapped(t *testing.T) {
	cfg := DefaultRewardConfig()
	e := NewRewardEngine(cfg)

	bundle, err := e.BattleRewards(BattleResult{
		Score: 10, TotalQuestions: 10, Difficulty: 5,
		Streak: 1000, TimeLeft: 0, TimePerQuestion: 15,
		IsVictory: true,
	})
	if err != nil {
		t.Fatalf("BattleRewards: %v", err)
	}
	if bundle.StreakBonus != cfg.StreakBonusCap {
		t.Errorf("StreakBonus = %d, want cap %d", bundle.StreakBonus, cfg.StreakBonusCap)
	}
}

func TestBattleRewards_InvalidInputs(t *testing.T) {
	e := NewRewardEngine(DefaultRewardConfig())

	tests := []struct {
		name string
		res  BattleResult
	}{
		{"zero questions", BattleResult{TotalQuestions: 0, Difficulty: 1, TimeLeft: 0, TimePerQuestion: 15}},
		{"negative score", BattleResult{Score: -1, TotalQuestions: 5, Difficulty: 1, TimePerQuestion: 15}},
		{"score above total", BattleResult{Score: 6, TotalQuestions: 5, Difficulty: 1, TimePerQuestion: 15}},
		{"difficulty zero", BattleResult{Score: 3, TotalQuestions: 5, Difficulty: 0, TimePerQuestion: 15}},
		{"negative streak", BattleResult{Score: 3, TotalQuestions: 5, Difficulty: 1, Streak: -1, TimePerQuestion: 15}},
		{"zero time per question", BattleResult{Score: 3, TotalQuestions: 5, Difficulty: 1, TimePerQuestion: 0}},
		{"time left above limit", BattleResult{Score: 3, TotalQuestions: 5, Difficulty: 1, TimeLeft: 20, TimePerQuestion: 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.BattleRewards(tt.res)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRarityForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  Rarity
	}{
		{2, RarityRare},
		{3, RarityRare},
		{5, RarityEpic},
		{10, RarityLegendary},
		{15, RarityEpic},
		{20, RarityLegendary},
		{42, RarityRare},
		{100, RarityLegendary},
	}

	for _, tt := range tests {
		if got := RarityForLevel(tt.level); got != tt.want {
			t.Errorf("RarityForLevel(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLevelUpRewards_Composition(t *testing.T) {
	e := NewRewardEngine(DefaultRewardConfig())

	// Ordinary level: one XP and one coin entry, no item.
	rewards := e.LevelUpRewards(3)
	if len(rewards) != 2 {
		t.Fatalf("LevelUpRewards(3) returned %d entries, want 2", len(rewards))
	}
	if rewards[0].Type != RewardXP || rewards[1].Type != RewardCoins {
		t.Errorf("LevelUpRewards(3) types = %q, %q", rewards[0].Type, rewards[1].Type)
	}
	for _, rw := range rewards {
		if rw.Rarity != RarityRare {
			t.Errorf("level 3 reward rarity = %q, want rare", rw.Rarity)
		}
	}

	// Milestone levels add an item entry carrying the milestone rarity.
	for _, tt := range []struct {
		level int
		want  Rarity
	}{
		{5, RarityEpic},
		{10, RarityLegendary},
	} {
		rewards := e.LevelUpRewards(tt.level)
		if len(rewards) != 3 {
			t.Fatalf("LevelUpRewards(%d) returned %d entries, want 3", tt.level, len(rewards))
		}
		item := rewards[2]
		if item.Type != RewardItem {
			t.Errorf("LevelUpRewards(%d)[2].Type = %q, want item", tt.level, item.Type)
		}
		if item.Rarity != tt.want {
			t.Errorf("LevelUpRewards(%d) item rarity = %q, want %q", tt.level, item.Rarity, tt.want)
		}
	}
}

func TestLevelUpRewards_ValuesScaleWithLevel(t *testing.T) {
	e := NewRewardEngine(DefaultRewardConfig())

	low := e.LevelUpRewards(2)
	high := e.LevelUpRewards(40)
	if high[0].Value <= low[0].Value {
		t.Errorf("XP reward did not scale: level 40 = %d, level 2 = %d", high[0].Value, low[0].Value)
	}
}
