package game

import (
	"github.com/studyarena/backend/internal/battle"
	"github.com/studyarena/backend/internal/progression"
)

// CommandType tags the closed set of actions the service accepts. Each
// command maps 1:1 to a coordinator or engine operation.
type CommandType string

const (
	CmdAddXP            CommandType = "ADD_XP"
	CmdAddCoins         CommandType = "ADD_COINS"
	CmdInitializeBattle CommandType = "INITIALIZE_BATTLE"
	CmdSubmitAnswer     CommandType = "SUBMIT_ANSWER"
	CmdTick             CommandType = "TICK"
	CmdEndBattle        CommandType = "END_BATTLE"
	CmdResetBattle      CommandType = "RESET_BATTLE"
	CmdClaimReward      CommandType = "CLAIM_REWARD"
	CmdUpdateStreak     CommandType = "UPDATE_STREAK"
)

type AddXPCommand struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type AddCoinsCommand struct {
	Amount int64 `json:"amount"`
}

type InitializeBattleCommand struct {
	Questions       []battle.Question `json:"questions"`
	Opponent        battle.Opponent   `json:"opponent"`
	TimePerQuestion int               `json:"timePerQuestion"`
}

type SubmitAnswerCommand struct {
	ChoiceIndex int `json:"choiceIndex"`
}

type TickCommand struct {
	DeltaSeconds int `json:"deltaSeconds"`
}

type ClaimRewardCommand struct {
	LootboxID string `json:"lootboxId"`
}

type UpdateStreakCommand struct {
	Won bool `json:"won"`
}

// Command is the tagged union dispatched by the service. Exactly the
// payload named by Type is set; the rest stay nil.
type Command struct {
	Type             CommandType              `json:"type"`
	AddXP            *AddXPCommand            `json:"addXp,omitempty"`
	AddCoins         *AddCoinsCommand         `json:"addCoins,omitempty"`
	InitializeBattle *InitializeBattleCommand `json:"initializeBattle,omitempty"`
	SubmitAnswer     *SubmitAnswerCommand     `json:"submitAnswer,omitempty"`
	Tick             *TickCommand             `json:"tick,omitempty"`
	ClaimReward      *ClaimRewardCommand      `json:"claimReward,omitempty"`
	UpdateStreak     *UpdateStreakCommand     `json:"updateStreak,omitempty"`
}

// Snapshot is the state view returned by every successful dispatch.
type Snapshot struct {
	Progress        progression.PlayerProgress `json:"progress"`
	ProgressPercent float64                    `json:"progressPercent"`
	XPToNextLevel   int64                      `json:"xpToNextLevel"`
	Stats           progression.BattleStats    `json:"stats"`
	Session         *battle.Session            `json:"session,omitempty"`
	Lootboxes       []progression.Lootbox      `json:"lootboxes,omitempty"`
	LevelUps        []progression.LevelUp      `json:"levelUps,omitempty"`
	NewAchievements []progression.Achievement  `json:"newAchievements,omitempty"`
	Critical        bool                       `json:"critical,omitempty"`
	SyncError       string                     `json:"syncError,omitempty"`
}
