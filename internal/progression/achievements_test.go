package progression

import "testing"

func TestEvaluateCondition(t *testing.T) {
	tests := []struct {
		current int64
		trigger Trigger
		want    bool
	}{
		{10, Trigger{Comparison: CompareEq, Value: 10}, true},
		{11, Trigger{Comparison: CompareEq, Value: 10}, false},
		{11, Trigger{Comparison: CompareGt, Value: 10}, true},
		{10, Trigger{Comparison: CompareGt, Value: 10}, false},
		{9, Trigger{Comparison: CompareLt, Value: 10}, true},
		{10, Trigger{Comparison: CompareLt, Value: 10}, false},
		{10, Trigger{Comparison: CompareGte, Value: 10}, true},
		{9, Trigger{Comparison: CompareGte, Value: 10}, false},
		{10, Trigger{Comparison: CompareLte, Value: 10}, true},
		{11, Trigger{Comparison: CompareLte, Value: 10}, false},
		{10, Trigger{Comparison: "bogus", Value: 10}, false},
	}

	for _, tt := range tests {
		if got := EvaluateCondition(tt.current, tt.trigger); got != tt.want {
			t.Errorf("EvaluateCondition(%d, %s %d) = %v, want %v",
				tt.current, tt.trigger.Comparison, tt.trigger.Value, got, tt.want)
		}
	}
}

func TestStatSnapshot_Value(t *testing.T) {
	snap := StatSnapshot{
		Progress: PlayerProgress{Level: 7, XP: 12345, Coins: 900, Streak: 4},
		Stats:    BattleStats{BattlesWon: 3, BattlesPlayed: 8, PerfectBattles: 1, QuestionsCorrect: 42, BestStreak: 6},
	}

	tests := []struct {
		key  StatKey
		want int64
	}{
		{StatLevel, 7},
		{StatXP, 12345},
		{StatCoins, 900},
		{StatStreak, 4},
		{StatBestStreak, 6},
		{StatBattlesPlayed, 8},
		{StatBattlesWon, 3},
		{StatPerfectBattles, 1},
		{StatQuestionsCorrect, 42},
	}

	for _, tt := range tests {
		got, ok := snap.Value(tt.key)
		if !ok {
			t.Errorf("Value(%q) not resolved", tt.key)
			continue
		}
		if got != tt.want {
			t.Errorf("Value(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}

	if _, ok := snap.Value("no_such_stat"); ok {
		t.Error("unknown stat key resolved")
	}
}

func TestEvaluate_NewlySatisfiedOnly(t *testing.T) {
	e := NewAchievementEvaluator()

	snap := StatSnapshot{
		Progress: PlayerProgress{Level: 2, Streak: 3},
		Stats:    BattleStats{BattlesWon: 1, BattlesPlayed: 1},
	}

	unlocked := map[string]bool{"first_steps": true}
	newly := e.Evaluate(snap, unlocked)

	ids := make(map[string]bool)
	for _, a := range newly {
		ids[a.ID] = true
	}

	if ids["first_steps"] {
		t.Error("already-unlocked achievement returned again")
	}
	if !ids["first_blood"] {
		t.Error("first_blood not returned for 1 battle won")
	}
	if !ids["warming_up"] {
		t.Error("warming_up not returned for a 3-day streak")
	}
	if ids["conqueror"] {
		t.Error("conqueror returned with only 1 win")
	}
}

func TestEvaluate_DoesNotRecordUnlocks(t *testing.T) {
	e := NewAchievementEvaluator()
	snap := StatSnapshot{Progress: PlayerProgress{Level: 2}}
	unlocked := map[string]bool{}

	first := e.Evaluate(snap, unlocked)
	second := e.Evaluate(snap, unlocked)
	if len(first) == 0 {
		t.Fatal("no achievements for level 2")
	}
	if len(second) != len(first) {
		t.Errorf("Evaluate mutated caller state: first %d, second %d", len(first), len(second))
	}
}

func TestRegistry_NoDuplicateIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range NewAchievementEvaluator().Registry() {
		if seen[a.ID] {
			t.Errorf("duplicate achievement ID: %q", a.ID)
		}
		seen[a.ID] = true
	}
}

func TestRegistry_TriggersResolveAgainstSnapshot(t *testing.T) {
	var snap StatSnapshot
	for _, a := range NewAchievementEvaluator().Registry() {
		if _, ok := snap.Value(a.Trigger.Stat); !ok {
			t.Errorf("achievement %q references unknown stat %q", a.ID, a.Trigger.Stat)
		}
		if a.Name == "" || a.Description == "" {
			t.Errorf("achievement %q missing name or description", a.ID)
		}
	}
}
