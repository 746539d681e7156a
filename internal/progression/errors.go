package progression

import "errors"

// ErrInvalidInput is returned for contract violations such as negative XP
// amounts or a reward computation over zero questions. These are caller bugs
// and fail fast rather than being clamped.
var ErrInvalidInput = errors.New("invalid input")

// ErrInsufficientFunds is returned when a coin spend exceeds the balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrNotFound is returned when a player record or lootbox does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyClaimed is returned when claiming a lootbox a second time.
var ErrAlreadyClaimed = errors.New("lootbox already claimed")

// ErrSyncFailed reports that persisting progress failed after retries.
// In-memory state is still valid; the caller may retry the save.
var ErrSyncFailed = errors.New("progress sync failed")
