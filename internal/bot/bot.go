// Package bot simulates opponents for non-PvP battles. The battle engine
// never simulates opponents itself; their scores are produced here and fed
// in as data by the game service.
package bot

import (
	"github.com/google/uuid"
	"github.com/studyarena/backend/internal/battle"
)

// Rng supplies the randomness for opponent simulation. *rand.Rand
// satisfies it.
type Rng interface {
	Float64() float64
	Intn(n int) int
}

// Profile describes how a simulated opponent answers: Accuracy is the
// chance of answering any single question correctly.
type Profile struct {
	Name     string
	Accuracy float64
}

var profiles = []Profile{
	{Name: "Rusty Rival", Accuracy: 0.35},
	{Name: "Steady Scholar", Accuracy: 0.55},
	{Name: "Keen Contender", Accuracy: 0.70},
	{Name: "Quiz Whiz", Accuracy: 0.85},
}

// Simulator produces bot opponents and their battle scores.
type Simulator struct {
	rng Rng
}

func NewSimulator(rng Rng) *Simulator {
	return &Simulator{rng: rng}
}

// Profiles returns the available opponent profiles.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// PickProfile selects a random opponent profile.
func (s *Simulator) PickProfile() Profile {
	return profiles[s.rng.Intn(len(profiles))]
}

// Opponent builds a battle opponent for the given profile.
func (s *Simulator) Opponent(p Profile) battle.Opponent {
	return battle.Opponent{
		ID:   "bot-" + uuid.NewString(),
		Name: p.Name,
		Bot:  true,
	}
}

// SimulateScore rolls the profile's accuracy once per question and returns
// the number of correct answers.
func (s *Simulator) SimulateScore(p Profile, totalQuestions int) int {
	score := 0
	for i := 0; i < totalQuestions; i++ {
		if s.rng.Float64() < p.Accuracy {
			score++
		}
	}
	return score
}
