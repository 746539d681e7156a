package battle

import (
	"encoding/json"
	"time"

	"github.com/studyarena/backend/internal/progression"
)

// Status is the battle session state machine position.
type Status int

const (
	StatusIdle Status = iota
	StatusPreparing
	StatusActive
	StatusCompleted
	StatusError
)

var statusNames = map[Status]string{
	StatusIdle:      "idle",
	StatusPreparing: "preparing",
	StatusActive:    "active",
	StatusCompleted: "completed",
	StatusError:     "error",
}

var statusFromName = map[string]Status{
	"idle":      StatusIdle,
	"preparing": StatusPreparing,
	"active":    StatusActive,
	"completed": StatusCompleted,
	"error":     StatusError,
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := statusFromName[name]; ok {
		*s = v
	}
	return nil
}

// Terminal reports whether the session has reached a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Outcome classifies a completed battle for display.
type Outcome string

const (
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeDraw    Outcome = "draw"
)

// Question is one quiz question; immutable once fetched for a session.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Choices       []string `json:"choices"` // always four entries
	CorrectChoice int      `json:"correctChoiceIndex"`
	Category      string   `json:"category"`
	Difficulty    int      `json:"difficulty"`
}

// Opponent identifies the other side of a battle. Bot opponents are
// simulated outside the engine; their score arrives as data.
type Opponent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bot  bool   `json:"bot,omitempty"`
}

// ErrorInfo captures why a session entered the error state.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Session is one quiz-battle instance. It belongs to exactly one player and
// is mutated only through Engine transitions.
type Session struct {
	ID              string                    `json:"id"`
	PlayerID        string                    `json:"playerId"`
	Status          Status                    `json:"status"`
	Questions       []Question                `json:"questions"`
	CurrentIndex    int                       `json:"currentIndex"`
	PlayerScore     int                       `json:"playerScore"`
	OpponentScore   int                       `json:"opponentScore"`
	Answers         []bool                    `json:"answers"`
	TimeLeft        int                       `json:"timeLeft"`
	TimePerQuestion int                       `json:"timePerQuestion"`
	Opponent        Opponent                  `json:"opponent"`
	Difficulty      int                       `json:"difficulty"`
	Streak          int                       `json:"streak"` // player streak snapshot at start
	Rewards         *progression.RewardBundle `json:"rewards,omitempty"`
	Err             *ErrorInfo                `json:"error,omitempty"`
	StartedAt       time.Time                 `json:"startedAt"`
	CompletedAt     *time.Time                `json:"completedAt,omitempty"`
}

// Outcome derives the display result from the final scores.
func (s *Session) Outcome() Outcome {
	switch {
	case s.PlayerScore > s.OpponentScore:
		return OutcomeVictory
	case s.PlayerScore < s.OpponentScore:
		return OutcomeDefeat
	default:
		return OutcomeDraw
	}
}

// Perfect reports whether every recorded answer was correct and all
// questions were answered.
func (s *Session) Perfect() bool {
	if len(s.Answers) != len(s.Questions) || len(s.Answers) == 0 {
		return false
	}
	for _, ok := range s.Answers {
		if !ok {
			return false
		}
	}
	return true
}

// CorrectAnswers counts the recorded correct answers.
func (s *Session) CorrectAnswers() int {
	n := 0
	for _, ok := range s.Answers {
		if ok {
			n++
		}
	}
	return n
}

// Clone returns a deep copy safe to hand to readers.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Questions = append([]Question(nil), s.Questions...)
	cp.Answers = append([]bool(nil), s.Answers...)
	if s.Rewards != nil {
		r := *s.Rewards
		cp.Rewards = &r
	}
	if s.Err != nil {
		e := *s.Err
		cp.Err = &e
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
