package ws

import (
	"errors"
	"fmt"
	"testing"

	"github.com/studyarena/backend/internal/battle"
	"github.com/studyarena/backend/internal/game"
	"github.com/studyarena/backend/internal/progression"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{progression.ErrInsufficientFunds, "insufficient_funds"},
		{progression.ErrNotFound, "not_found"},
		{progression.ErrAlreadyClaimed, "already_claimed"},
		{progression.ErrSyncFailed, "sync_error"},
		{battle.ErrEmptyQuestionSet, "empty_question_set"},
		{battle.ErrInvalidTransition, "invalid_state_transition"},
		{progression.ErrInvalidInput, "invalid_input"},
		{errors.New("disk on fire"), "internal"},
		// Wrapped sentinels still map.
		{fmt.Errorf("claiming: %w", progression.ErrAlreadyClaimed), "already_claimed"},
		{fmt.Errorf("%w: submit from idle", battle.ErrInvalidTransition), "invalid_state_transition"},
	}

	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestDecodeCommand(t *testing.T) {
	data := []byte(`{"type":"command","payload":{"type":"ADD_XP","addXp":{"amount":250,"reason":"quiz"}}}`)

	cmd, err := decodeCommand(data)
	if err != nil {
		t.Fatalf("decodeCommand: %v", err)
	}
	if cmd.Type != game.CmdAddXP {
		t.Errorf("Type = %q, want ADD_XP", cmd.Type)
	}
	if cmd.AddXP == nil || cmd.AddXP.Amount != 250 {
		t.Errorf("AddXP = %+v, want amount 250", cmd.AddXP)
	}
}

func TestDecodeCommand_BadJSON(t *testing.T) {
	if _, err := decodeCommand([]byte("{nope")); err == nil {
		t.Error("decodeCommand accepted malformed JSON")
	}
}
