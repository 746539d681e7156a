package progression

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// recordVersion is bumped when the schema changes. Load can use it to
	// apply migrations in the future.
	recordVersion = 1

	appDirName = "studyarena"
)

// Lootbox is a deferred, claimable reward bundle generated by a level-up.
type Lootbox struct {
	ID        string          `json:"id"`
	Rarity    Rarity          `json:"rarity"`
	Rewards   []LevelUpReward `json:"rewards"`
	CreatedAt time.Time       `json:"createdAt"`
	ClaimedAt *time.Time      `json:"claimedAt,omitempty"`
}

// PlayerRecord is the persistent state for one player: progression, battle
// history, unlocked achievements, and pending lootboxes. It is stored as
// player-<id>.json in the store directory.
type PlayerRecord struct {
	Version              int                  `json:"version"`
	Progress             PlayerProgress       `json:"progress"`
	Stats                BattleStats          `json:"stats"`
	AchievementsUnlocked map[string]time.Time `json:"achievementsUnlocked"`
	Lootboxes            []Lootbox            `json:"lootboxes,omitempty"`
	LastUpdated          time.Time            `json:"lastUpdated"`
}

// NewPlayerRecord returns a fresh record for the given player ID.
func NewPlayerRecord(playerID string) *PlayerRecord {
	return &PlayerRecord{
		Version:              recordVersion,
		Progress:             NewPlayerProgress(playerID),
		AchievementsUnlocked: make(map[string]time.Time),
	}
}

// AddLootbox appends a new unclaimed lootbox and returns its generated ID.
func (r *PlayerRecord) AddLootbox(rewards []LevelUpReward, rarity Rarity) string {
	box := Lootbox{
		ID:        uuid.NewString(),
		Rarity:    rarity,
		Rewards:   append([]LevelUpReward(nil), rewards...),
		CreatedAt: time.Now().UTC(),
	}
	r.Lootboxes = append(r.Lootboxes, box)
	return box.ID
}

// ClaimLootbox marks the lootbox as claimed and returns a copy of it.
// Claiming twice fails with ErrAlreadyClaimed; unknown IDs with ErrNotFound.
func (r *PlayerRecord) ClaimLootbox(lootboxID string) (Lootbox, error) {
	for i := range r.Lootboxes {
		if r.Lootboxes[i].ID != lootboxID {
			continue
		}
		if r.Lootboxes[i].ClaimedAt != nil {
			return Lootbox{}, fmt.Errorf("%w: %s", ErrAlreadyClaimed, lootboxID)
		}
		now := time.Now().UTC()
		r.Lootboxes[i].ClaimedAt = &now
		return r.Lootboxes[i], nil
	}
	return Lootbox{}, fmt.Errorf("%w: lootbox %s", ErrNotFound, lootboxID)
}

// UnclaimedLootboxes returns the lootboxes still awaiting a claim.
func (r *PlayerRecord) UnclaimedLootboxes() []Lootbox {
	var out []Lootbox
	for _, b := range r.Lootboxes {
		if b.ClaimedAt == nil {
			out = append(out, b)
		}
	}
	return out
}

// Clone returns a deep copy of the record.
func (r *PlayerRecord) Clone() *PlayerRecord {
	cp := *r
	cp.AchievementsUnlocked = make(map[string]time.Time, len(r.AchievementsUnlocked))
	for k, v := range r.AchievementsUnlocked {
		cp.AchievementsUnlocked[k] = v
	}
	if len(r.Lootboxes) > 0 {
		cp.Lootboxes = make([]Lootbox, len(r.Lootboxes))
		copy(cp.Lootboxes, r.Lootboxes)
		for i := range cp.Lootboxes {
			cp.Lootboxes[i].Rewards = append([]LevelUpReward(nil), r.Lootboxes[i].Rewards...)
		}
	}
	return &cp
}

// initMaps ensures map fields are non-nil after deserialization.
func (r *PlayerRecord) initMaps() {
	if r.AchievementsUnlocked == nil {
		r.AchievementsUnlocked = make(map[string]time.Time)
	}
}

// Store persists player records as JSON files in a single directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first save. Pass an empty string to use the default XDG state path.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = defaultStateDir()
	}
	return &Store{dir: dir}
}

// Path returns the file path backing the given player's record.
func (s *Store) Path(playerID string) string {
	return filepath.Join(s.dir, "player-"+playerID+".json")
}

// LoadPlayer reads a player record from disk. A missing file fails with
// ErrNotFound.
func (s *Store) LoadPlayer(playerID string) (*PlayerRecord, error) {
	if err := validatePlayerID(playerID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(playerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
		}
		return nil, fmt.Errorf("reading player record: %w", err)
	}

	var rec PlayerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing player record: %w", err)
	}
	rec.initMaps()
	return &rec, nil
}

// LoadOrCreate reads the player's record, returning a fresh one when none
// exists yet.
func (s *Store) LoadOrCreate(playerID string) (*PlayerRecord, error) {
	rec, err := s.LoadPlayer(playerID)
	if err == nil {
		return rec, nil
	}
	if err := validatePlayerID(playerID); err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(s.Path(playerID)); statErr == nil || !os.IsNotExist(statErr) {
		return nil, err
	}
	return NewPlayerRecord(playerID), nil
}

// SavePlayer writes the record to disk using an atomic
// temp-file-then-rename pattern. The directory is created if missing.
func (s *Store) SavePlayer(rec *PlayerRecord) error {
	if err := validatePlayerID(rec.Progress.ID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	rec.Version = recordVersion
	rec.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling player record: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".player-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path(rec.Progress.ID)); err != nil {
		return fmt.Errorf("renaming player record: %w", err)
	}
	committed = true

	return nil
}

// CreateLootbox loads the player's record, appends a new lootbox, and
// saves. It returns the new lootbox ID.
func (s *Store) CreateLootbox(playerID string, rewards []LevelUpReward, rarity Rarity) (string, error) {
	rec, err := s.LoadOrCreate(playerID)
	if err != nil {
		return "", err
	}
	id := rec.AddLootbox(rewards, rarity)
	if err := s.SavePlayer(rec); err != nil {
		return "", err
	}
	return id, nil
}

// ListLootboxes returns the player's unclaimed lootboxes.
func (s *Store) ListLootboxes(playerID string) ([]Lootbox, error) {
	rec, err := s.LoadOrCreate(playerID)
	if err != nil {
		return nil, err
	}
	return rec.UnclaimedLootboxes(), nil
}

// ClaimLootbox loads the player's record, marks the lootbox claimed, and
// saves. Double claims fail with ErrAlreadyClaimed.
func (s *Store) ClaimLootbox(playerID, lootboxID string) (Lootbox, error) {
	rec, err := s.LoadPlayer(playerID)
	if err != nil {
		return Lootbox{}, err
	}
	box, err := rec.ClaimLootbox(lootboxID)
	if err != nil {
		return Lootbox{}, err
	}
	if err := s.SavePlayer(rec); err != nil {
		return Lootbox{}, err
	}
	return box, nil
}

// validatePlayerID rejects IDs that are empty or would escape the store
// directory when used in a file name.
func validatePlayerID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: bad player id %q", ErrInvalidInput, id)
	}
	return nil
}

// defaultStateDir returns ~/.local/state/studyarena, respecting
// XDG_STATE_HOME if set.
func defaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
