package battle

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/studyarena/backend/internal/progression"
)

// ErrInvalidTransition is returned when an operation is attempted in a
// state that does not allow it. Call order is a caller contract; the engine
// never silently ignores a misplaced transition.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrEmptyQuestionSet is returned by Initialize when no questions are
// provided. The session is moved to the error state.
var ErrEmptyQuestionSet = errors.New("empty question set")

// Engine drives Session state transitions and computes the final payout
// through the reward engine. It holds no per-session state; one Engine
// serves every session, but transitions for a single session must be
// serialized by the caller.
type Engine struct {
	rewards *progression.RewardEngine
}

// NewEngine creates an engine backed by the given reward calculator.
func NewEngine(rewards *progression.RewardEngine) *Engine {
	return &Engine{rewards: rewards}
}

// NewSession returns an idle session owned by the given player.
func NewSession(playerID string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Status:   StatusIdle,
	}
}

// Initialize loads the question set and opponent into s and moves it to
// preparing. An empty question set moves the session to the error state and
// fails with ErrEmptyQuestionSet. Initializing an active session is an
// invalid transition; Reset it first. streak is the player's current streak,
// snapshotted for the final reward computation.
func (e *Engine) Initialize(s *Session, questions []Question, opp Opponent, timePerQuestion, streak int) error {
	if s.Status == StatusActive {
		return fmt.Errorf("%w: initialize during active battle", ErrInvalidTransition)
	}
	if len(questions) == 0 {
		s.Status = StatusError
		s.Err = &ErrorInfo{Code: "empty_question_set", Message: "cannot start a battle without questions"}
		return ErrEmptyQuestionSet
	}
	if timePerQuestion <= 0 {
		return fmt.Errorf("%w: time per question must be positive", progression.ErrInvalidInput)
	}

	difficulty := 1
	for _, q := range questions {
		if q.Difficulty > difficulty {
			difficulty = q.Difficulty
		}
	}

	s.Status = StatusPreparing
	s.Questions = append([]Question(nil), questions...)
	s.CurrentIndex = 0
	s.PlayerScore = 0
	s.OpponentScore = 0
	s.Answers = nil
	s.TimeLeft = timePerQuestion
	s.TimePerQuestion = timePerQuestion
	s.Opponent = opp
	s.Difficulty = difficulty
	s.Streak = streak
	s.Rewards = nil
	s.Err = nil
	s.StartedAt = time.Now().UTC()
	s.CompletedAt = nil
	return nil
}

// Begin promotes a prepared session to active.
func (e *Engine) Begin(s *Session) error {
	if s.Status != StatusPreparing {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, s.Status)
	}
	s.Status = StatusActive
	return nil
}

// SubmitAnswer records the player's choice for the current question. A
// correct choice increments the player score. Answering the last question
// completes the session and synchronously computes the reward bundle;
// otherwise the timer resets for the next question. Valid only while
// active.
func (e *Engine) SubmitAnswer(s *Session, choiceIndex int) error {
	if s.Status != StatusActive {
		return fmt.Errorf("%w: submit answer from %s", ErrInvalidTransition, s.Status)
	}

	correct := choiceIndex == s.Questions[s.CurrentIndex].CorrectChoice
	s.Answers = append(s.Answers, correct)
	if correct {
		s.PlayerScore++
	}
	s.CurrentIndex++

	if s.CurrentIndex >= len(s.Questions) {
		return e.complete(s)
	}
	s.TimeLeft = s.TimePerQuestion
	return nil
}

// Tick decrements the question timer by delta seconds. Reaching zero while
// active counts as an implicit wrong answer and advances exactly like
// SubmitAnswer with an out-of-range choice. Valid only while active.
func (e *Engine) Tick(s *Session, delta int) error {
	if s.Status != StatusActive {
		return fmt.Errorf("%w: tick from %s", ErrInvalidTransition, s.Status)
	}
	if delta < 0 {
		return fmt.Errorf("%w: negative tick delta %d", progression.ErrInvalidInput, delta)
	}

	s.TimeLeft -= delta
	if s.TimeLeft > 0 {
		return nil
	}
	s.TimeLeft = 0
	return e.SubmitAnswer(s, -1)
}

// RecordOpponentScore feeds the externally simulated opponent score into
// the session. Valid until the session reaches a terminal state.
func (e *Engine) RecordOpponentScore(s *Session, score int) error {
	if s.Status.Terminal() {
		return fmt.Errorf("%w: record opponent score from %s", ErrInvalidTransition, s.Status)
	}
	if score < 0 {
		return fmt.Errorf("%w: negative opponent score %d", progression.ErrInvalidInput, score)
	}
	s.OpponentScore = score
	return nil
}

// EndBattle force-terminates the session, used for abandons and
// session-level timeouts. A reward override may be supplied; otherwise the
// session completes with a zeroed bundle. Valid only once a battle has been
// initialized: idle sessions have no battle to end, and terminal sessions
// cannot be ended again.
func (e *Engine) EndBattle(s *Session, override *progression.RewardBundle) error {
	if s.Status == StatusIdle || s.Status.Terminal() {
		return fmt.Errorf("%w: end battle from %s", ErrInvalidTransition, s.Status)
	}

	bundle := progression.RewardBundle{}
	if override != nil {
		bundle = *override
	}
	s.Rewards = &bundle
	s.Status = StatusCompleted
	now := time.Now().UTC()
	s.CompletedAt = &now
	return nil
}

// Reset discards all session data and returns to idle. Valid from any
// state.
func (e *Engine) Reset(s *Session) {
	*s = Session{ID: s.ID, PlayerID: s.PlayerID, Status: StatusIdle}
}

// complete finalizes a fully answered session: terminal status, timestamp,
// and the synchronous reward computation.
func (e *Engine) complete(s *Session) error {
	bundle, err := e.rewards.BattleRewards(progression.BattleResult{
		Score:           s.PlayerScore,
		TotalQuestions:  len(s.Questions),
		Difficulty:      s.Difficulty,
		Streak:          s.Streak,
		TimeLeft:        s.TimeLeft,
		TimePerQuestion: s.TimePerQuestion,
		IsVictory:       s.PlayerScore > s.OpponentScore,
	})
	if err != nil {
		s.Status = StatusError
		s.Err = &ErrorInfo{Code: "reward_computation", Message: err.Error()}
		return err
	}

	s.Rewards = &bundle
	s.Status = StatusCompleted
	now := time.Now().UTC()
	s.CompletedAt = &now
	return nil
}
