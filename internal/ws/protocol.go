package ws

import (
	"encoding/json"
	"errors"

	"github.com/studyarena/backend/internal/battle"
	"github.com/studyarena/backend/internal/game"
	"github.com/studyarena/backend/internal/progression"
)

type MessageType string

const (
	// Client -> server: a game.Command wrapped in an envelope.
	MsgCommand MessageType = "command"

	// Server -> client.
	MsgSnapshot            MessageType = "snapshot"
	MsgError               MessageType = "error"
	MsgLevelUp             MessageType = "level_up"
	MsgAchievementUnlocked MessageType = "achievement_unlocked"
	MsgBattleCompleted     MessageType = "battle_completed"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is an outbound frame before marshaling.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type LevelUpPayload struct {
	Level   int                         `json:"level"`
	Rewards []progression.LevelUpReward `json:"rewards"`
}

type AchievementUnlockedPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tier        string `json:"tier"`
}

type BattleCompletedPayload struct {
	SessionID string                    `json:"sessionId"`
	Outcome   battle.Outcome            `json:"outcome"`
	Rewards   *progression.RewardBundle `json:"rewards,omitempty"`
}

// errorCode maps the domain error taxonomy onto wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, progression.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, progression.ErrNotFound):
		return "not_found"
	case errors.Is(err, progression.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, progression.ErrSyncFailed):
		return "sync_error"
	case errors.Is(err, battle.ErrEmptyQuestionSet):
		return "empty_question_set"
	case errors.Is(err, battle.ErrInvalidTransition):
		return "invalid_state_transition"
	case errors.Is(err, progression.ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}

// decodeCommand parses a client envelope into the game command union.
func decodeCommand(data []byte) (game.Command, error) {
	var env struct {
		Type    MessageType  `json:"type"`
		Payload game.Command `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return game.Command{}, err
	}
	return env.Payload, nil
}
