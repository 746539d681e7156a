package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/studyarena/backend/internal/battle"
	"github.com/studyarena/backend/internal/bot"
	"github.com/studyarena/backend/internal/progression"
)

// Notifier receives fire-and-forget notifications about player events. The
// service never waits on these; implementations must not block for long.
type Notifier interface {
	OnLevelUp(playerID string, up progression.LevelUp)
	OnAchievementUnlocked(playerID string, a progression.Achievement)
	OnBattleCompleted(playerID string, sess *battle.Session)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) OnLevelUp(string, progression.LevelUp)                {}
func (NopNotifier) OnAchievementUnlocked(string, progression.Achievement) {}
func (NopNotifier) OnBattleCompleted(string, *battle.Session)            {}

// Options tunes the service's timers and persistence behaviour.
type Options struct {
	TickInterval    time.Duration
	TimePerQuestion int // default when a battle command does not set one
	SaveRetries     int
	RetryBackoff    time.Duration
	FlushInterval   time.Duration
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.TimePerQuestion <= 0 {
		o.TimePerQuestion = 15
	}
	if o.SaveRetries <= 0 {
		o.SaveRetries = 5
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 30 * time.Second
	}
	return o
}

// playerState is the per-player actor: its mutex serializes every
// progression and battle mutation for that player.
type playerState struct {
	mu         sync.Mutex
	rec        *progression.PlayerRecord
	session    *battle.Session
	cancelTick context.CancelFunc
	syncErr    error
}

type saveJob struct {
	playerID string
	rec      *progression.PlayerRecord
}

// Service orchestrates all player mutations: it owns the per-player state,
// dispatches the command protocol, drives battle timers, and persists
// records asynchronously. State changes apply in memory first; persistence
// failures surface as a SyncError on later snapshots without rolling back.
type Service struct {
	coord    *progression.Coordinator
	achieve  *progression.AchievementEvaluator
	engine   *battle.Engine
	store    *progression.Store
	sessions *battle.Store
	sim      *bot.Simulator
	notifier Notifier
	log      zerolog.Logger
	opts     Options

	mu      sync.Mutex
	players map[string]*playerState

	saves chan saveJob
	done  chan struct{}
}

// NewService wires the progression and battle subsystems together. The
// caller must run Run in a goroutine for persistence and shutdown handling.
func NewService(
	coord *progression.Coordinator,
	achieve *progression.AchievementEvaluator,
	engine *battle.Engine,
	store *progression.Store,
	sessions *battle.Store,
	sim *bot.Simulator,
	notifier Notifier,
	log zerolog.Logger,
	opts Options,
) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		coord:    coord,
		achieve:  achieve,
		engine:   engine,
		store:    store,
		sessions: sessions,
		sim:      sim,
		notifier: notifier,
		log:      log,
		opts:     opts.withDefaults(),
		players:  make(map[string]*playerState),
		saves:    make(chan saveJob, 256),
		done:     make(chan struct{}),
	}
}

// Run processes queued saves until ctx is cancelled, re-persisting every
// loaded record each FlushInterval, then stops all battle tickers and
// performs a final drain.
func (s *Service) Run(ctx context.Context) {
	flush := time.NewTicker(s.opts.FlushInterval)
	defer flush.Stop()
	for {
		select {
		case <-ctx.Done():
			close(s.done)
			s.stopAllTickers()
			s.drainSaves()
			return
		case <-flush.C:
			s.flushAll()
		case job := <-s.saves:
			s.saveWithRetry(ctx, job)
		}
	}
}

// flushAll queues a save for every loaded player record. Covers records
// whose original save job was dropped on a full queue.
func (s *Service) flushAll() {
	s.mu.Lock()
	players := make(map[string]*playerState, len(s.players))
	for id, ps := range s.players {
		players[id] = ps
	}
	s.mu.Unlock()

	for id, ps := range players {
		ps.mu.Lock()
		rec := ps.rec.Clone()
		ps.mu.Unlock()
		s.queueSave(id, rec)
	}
}

// Dispatch applies one command for the given player and returns the
// resulting state snapshot or a typed error. Commands for the same player
// are serialized; different players proceed concurrently.
func (s *Service) Dispatch(playerID string, cmd Command) (*Snapshot, error) {
	ps, err := s.player(playerID)
	if err != nil {
		return nil, err
	}

	ps.mu.Lock()
	var fx effects
	if err := s.apply(ps, playerID, cmd, &fx); err != nil {
		ps.mu.Unlock()
		return nil, err
	}
	snap := s.snapshotLocked(ps)
	snap.LevelUps = fx.levelUps
	snap.NewAchievements = fx.achievements
	snap.Critical = fx.critical
	rec := ps.rec.Clone()
	ps.mu.Unlock()

	s.queueSave(playerID, rec)
	fx.fire(s.notifier, playerID)
	return snap, nil
}

// Progress returns a read-only snapshot for the player without mutating
// anything. Unknown players fail with ErrNotFound.
func (s *Service) Progress(playerID string) (*Snapshot, error) {
	ps, err := s.readPlayer(playerID)
	if err != nil {
		return nil, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return s.snapshotLocked(ps), nil
}

// Achievements returns the full achievement registry.
func (s *Service) Achievements() []progression.Achievement {
	return s.achieve.Registry()
}

// Lootboxes returns the player's unclaimed lootboxes. Unknown players fail
// with ErrNotFound.
func (s *Service) Lootboxes(playerID string) ([]progression.Lootbox, error) {
	ps, err := s.readPlayer(playerID)
	if err != nil {
		return nil, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.rec.UnclaimedLootboxes(), nil
}

// effects collects the side effects of one dispatch, fired outside the
// player lock so notification handlers cannot deadlock against it.
type effects struct {
	levelUps     []progression.LevelUp
	achievements []progression.Achievement
	completed    *battle.Session
	critical     bool
}

func (fx *effects) fire(n Notifier, playerID string) {
	for _, up := range fx.levelUps {
		n.OnLevelUp(playerID, up)
	}
	for _, a := range fx.achievements {
		n.OnAchievementUnlocked(playerID, a)
	}
	if fx.completed != nil {
		n.OnBattleCompleted(playerID, fx.completed)
	}
}

// apply executes the command against the locked player state. The switch is
// exhaustive over the closed command set; unknown types are a caller bug.
func (s *Service) apply(ps *playerState, playerID string, cmd Command, fx *effects) error {
	switch cmd.Type {
	case CmdAddXP:
		if cmd.AddXP == nil {
			return fmt.Errorf("%w: missing ADD_XP payload", progression.ErrInvalidInput)
		}
		return s.addXPLocked(ps, cmd.AddXP.Amount, fx)

	case CmdAddCoins:
		if cmd.AddCoins == nil {
			return fmt.Errorf("%w: missing ADD_COINS payload", progression.ErrInvalidInput)
		}
		next, err := s.coord.ApplyCoins(ps.rec.Progress, cmd.AddCoins.Amount)
		if err != nil {
			return err
		}
		ps.rec.Progress = next
		s.evaluateAchievementsLocked(ps, fx)
		return nil

	case CmdInitializeBattle:
		if cmd.InitializeBattle == nil {
			return fmt.Errorf("%w: missing INITIALIZE_BATTLE payload", progression.ErrInvalidInput)
		}
		return s.initializeBattleLocked(ps, playerID, cmd.InitializeBattle)

	case CmdSubmitAnswer:
		if cmd.SubmitAnswer == nil {
			return fmt.Errorf("%w: missing SUBMIT_ANSWER payload", progression.ErrInvalidInput)
		}
		if ps.session == nil {
			return fmt.Errorf("%w: no battle session", battle.ErrInvalidTransition)
		}
		if err := s.engine.SubmitAnswer(ps.session, cmd.SubmitAnswer.ChoiceIndex); err != nil {
			return err
		}
		return s.afterBattleStepLocked(ps, playerID, fx)

	case CmdTick:
		if cmd.Tick == nil {
			return fmt.Errorf("%w: missing TICK payload", progression.ErrInvalidInput)
		}
		if ps.session == nil {
			return fmt.Errorf("%w: no battle session", battle.ErrInvalidTransition)
		}
		if err := s.engine.Tick(ps.session, cmd.Tick.DeltaSeconds); err != nil {
			return err
		}
		return s.afterBattleStepLocked(ps, playerID, fx)

	case CmdEndBattle:
		if ps.session == nil {
			return fmt.Errorf("%w: no battle session", battle.ErrInvalidTransition)
		}
		if err := s.engine.EndBattle(ps.session, nil); err != nil {
			return err
		}
		s.stopTickerLocked(ps)
		// Abandoned battles count as played and lost; the bundle is zeroed.
		ps.rec.Stats.BattlesPlayed++
		ps.rec.Stats.BattlesLost++
		fx.completed = ps.session.Clone()
		s.sessions.Update(ps.session)
		s.evaluateAchievementsLocked(ps, fx)
		return nil

	case CmdResetBattle:
		s.stopTickerLocked(ps)
		if ps.session != nil {
			s.engine.Reset(ps.session)
			s.sessions.Remove(playerID)
		}
		return nil

	case CmdClaimReward:
		if cmd.ClaimReward == nil {
			return fmt.Errorf("%w: missing CLAIM_REWARD payload", progression.ErrInvalidInput)
		}
		return s.claimRewardLocked(ps, cmd.ClaimReward.LootboxID, fx)

	case CmdUpdateStreak:
		if cmd.UpdateStreak == nil {
			return fmt.Errorf("%w: missing UPDATE_STREAK payload", progression.ErrInvalidInput)
		}
		ps.rec.Progress = s.coord.UpdateStreak(ps.rec.Progress, cmd.UpdateStreak.Won)
		if ps.rec.Progress.Streak > ps.rec.Stats.BestStreak {
			ps.rec.Stats.BestStreak = ps.rec.Progress.Streak
		}
		s.evaluateAchievementsLocked(ps, fx)
		return nil
	}

	return fmt.Errorf("%w: unknown command %q", progression.ErrInvalidInput, cmd.Type)
}

func (s *Service) addXPLocked(ps *playerState, amount int64, fx *effects) error {
	outcome, err := s.coord.ApplyXP(ps.rec.Progress, amount)
	if err != nil {
		return err
	}
	ps.rec.Progress = outcome.Progress
	fx.critical = outcome.Critical
	s.recordLevelUpsLocked(ps, outcome.LevelUps, fx)
	s.evaluateAchievementsLocked(ps, fx)
	return nil
}

func (s *Service) initializeBattleLocked(ps *playerState, playerID string, cmd *InitializeBattleCommand) error {
	if ps.session == nil {
		ps.session = battle.NewSession(playerID)
	}

	tpq := cmd.TimePerQuestion
	if tpq <= 0 {
		tpq = s.opts.TimePerQuestion
	}
	opp := cmd.Opponent
	if opp.ID == "" {
		profile := s.sim.PickProfile()
		opp = s.sim.Opponent(profile)
	}

	if err := s.engine.Initialize(ps.session, cmd.Questions, opp, tpq, ps.rec.Progress.Streak); err != nil {
		if ps.session.Status == battle.StatusError {
			s.sessions.Update(ps.session)
		}
		return err
	}

	// Bot opponents are simulated up front; their final score is data the
	// engine receives, not something it computes.
	if opp.Bot {
		profile := s.profileFor(opp)
		score := s.sim.SimulateScore(profile, len(cmd.Questions))
		if err := s.engine.RecordOpponentScore(ps.session, score); err != nil {
			return err
		}
	}

	if err := s.engine.Begin(ps.session); err != nil {
		return err
	}
	s.sessions.Update(ps.session)
	s.startTickerLocked(ps, playerID)
	return nil
}

// profileFor matches a bot opponent back to its accuracy profile by name,
// falling back to the first profile for externally supplied bots.
func (s *Service) profileFor(opp battle.Opponent) bot.Profile {
	for _, p := range bot.Profiles() {
		if p.Name == opp.Name {
			return p
		}
	}
	return bot.Profiles()[0]
}

// afterBattleStepLocked publishes the session snapshot and, when the step
// completed the battle, settles rewards and stats.
func (s *Service) afterBattleStepLocked(ps *playerState, playerID string, fx *effects) error {
	s.sessions.Update(ps.session)
	if ps.session.Status != battle.StatusCompleted {
		return nil
	}

	s.stopTickerLocked(ps)

	sess := ps.session
	stats := &ps.rec.Stats
	stats.BattlesPlayed++
	switch sess.Outcome() {
	case battle.OutcomeVictory:
		stats.BattlesWon++
	case battle.OutcomeDefeat:
		stats.BattlesLost++
	case battle.OutcomeDraw:
		stats.BattlesDrawn++
	}
	stats.QuestionsAnswered += len(sess.Answers)
	stats.QuestionsCorrect += sess.CorrectAnswers()
	if sess.Perfect() {
		stats.PerfectBattles++
	}

	if sess.Rewards != nil {
		outcome, err := s.coord.Credit(ps.rec.Progress, sess.Rewards.XPEarned, sess.Rewards.CoinsEarned)
		if err != nil {
			return err
		}
		ps.rec.Progress = outcome.Progress
		s.recordLevelUpsLocked(ps, outcome.LevelUps, fx)
	}

	fx.completed = sess.Clone()
	s.evaluateAchievementsLocked(ps, fx)
	return nil
}

func (s *Service) claimRewardLocked(ps *playerState, lootboxID string, fx *effects) error {
	box, err := ps.rec.ClaimLootbox(lootboxID)
	if err != nil {
		return err
	}

	var xp, coins int64
	for _, rw := range box.Rewards {
		switch rw.Type {
		case progression.RewardXP:
			xp += rw.Value
		case progression.RewardCoins:
			coins += rw.Value
		case progression.RewardItem:
			// Items go to an external inventory; nothing to credit here.
		}
	}

	outcome, err := s.coord.Credit(ps.rec.Progress, xp, coins)
	if err != nil {
		return err
	}
	ps.rec.Progress = outcome.Progress
	s.recordLevelUpsLocked(ps, outcome.LevelUps, fx)
	s.evaluateAchievementsLocked(ps, fx)
	return nil
}

// recordLevelUpsLocked turns level-up outcomes into lootboxes on the record
// and queues their notifications.
func (s *Service) recordLevelUpsLocked(ps *playerState, ups []progression.LevelUp, fx *effects) {
	for _, up := range ups {
		ps.rec.AddLootbox(up.Rewards, progression.RarityForLevel(up.To))
	}
	fx.levelUps = append(fx.levelUps, ups...)
}

func (s *Service) evaluateAchievementsLocked(ps *playerState, fx *effects) {
	unlocked := make(map[string]bool, len(ps.rec.AchievementsUnlocked))
	for id := range ps.rec.AchievementsUnlocked {
		unlocked[id] = true
	}
	snap := progression.StatSnapshot{Progress: ps.rec.Progress, Stats: ps.rec.Stats}
	newly := s.achieve.Evaluate(snap, unlocked)
	now := time.Now().UTC()
	for _, a := range newly {
		ps.rec.AchievementsUnlocked[a.ID] = now
	}
	fx.achievements = append(fx.achievements, newly...)
}

func (s *Service) snapshotLocked(ps *playerState) *Snapshot {
	curve := s.coord.Curve()
	snap := &Snapshot{
		Progress:        ps.rec.Progress,
		ProgressPercent: curve.ProgressPercent(ps.rec.Progress.XP),
		XPToNextLevel:   curve.XPToNextLevel(ps.rec.Progress.XP),
		Stats:           ps.rec.Stats,
		Lootboxes:       ps.rec.UnclaimedLootboxes(),
	}
	if ps.session != nil {
		snap.Session = ps.session.Clone()
	}
	if ps.syncErr != nil {
		snap.SyncError = ps.syncErr.Error()
	}
	return snap
}

// player returns the actor for playerID, loading or creating its record on
// first touch. Only mutating dispatches use this path. The level invariant
// is re-derived on load to heal drift in hand-edited or legacy files.
func (s *Service) player(playerID string) (*playerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ps, ok := s.players[playerID]; ok {
		return ps, nil
	}
	rec, err := s.store.LoadOrCreate(playerID)
	if err != nil {
		return nil, err
	}
	return s.addPlayerLocked(playerID, rec), nil
}

// readPlayer returns the actor for playerID without creating one: unknown
// players fail with ErrNotFound. Keeps read endpoints from growing the
// players map with IDs that were never played.
func (s *Service) readPlayer(playerID string) (*playerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ps, ok := s.players[playerID]; ok {
		return ps, nil
	}
	rec, err := s.store.LoadPlayer(playerID)
	if err != nil {
		return nil, err
	}
	return s.addPlayerLocked(playerID, rec), nil
}

func (s *Service) addPlayerLocked(playerID string, rec *progression.PlayerRecord) *playerState {
	rec.Progress.Level = s.coord.Curve().LevelFor(rec.Progress.XP)
	ps := &playerState{rec: rec}
	s.players[playerID] = ps
	return ps
}

func (s *Service) startTickerLocked(ps *playerState, playerID string) {
	s.stopTickerLocked(ps)
	ctx, cancel := context.WithCancel(context.Background())
	ps.cancelTick = cancel

	interval := s.opts.TickInterval
	delta := int(interval / time.Second)
	if delta < 1 {
		delta = 1
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				if _, err := s.Dispatch(playerID, Command{Type: CmdTick, Tick: &TickCommand{DeltaSeconds: delta}}); err != nil {
					return
				}
			}
		}
	}()
}

func (s *Service) stopTickerLocked(ps *playerState) {
	if ps.cancelTick != nil {
		ps.cancelTick()
		ps.cancelTick = nil
	}
}

func (s *Service) stopAllTickers() {
	s.mu.Lock()
	players := make([]*playerState, 0, len(s.players))
	for _, ps := range s.players {
		players = append(players, ps)
	}
	s.mu.Unlock()

	for _, ps := range players {
		ps.mu.Lock()
		s.stopTickerLocked(ps)
		ps.mu.Unlock()
	}
}

func (s *Service) queueSave(playerID string, rec *progression.PlayerRecord) {
	select {
	case s.saves <- saveJob{playerID: playerID, rec: rec}:
	default:
		// The queue is full; a later mutation will carry the full record
		// again, so dropping this job loses nothing durable.
		s.log.Warn().Str("player", playerID).Msg("save queue full, dropping job")
	}
}

// saveWithRetry persists the record with capped exponential backoff. A
// final failure marks the player's sync state; in-memory progress is never
// rolled back.
func (s *Service) saveWithRetry(ctx context.Context, job saveJob) {
	backoff := s.opts.RetryBackoff
	var err error
	for attempt := 0; attempt < s.opts.SaveRetries; attempt++ {
		if err = s.store.SavePlayer(job.rec); err == nil {
			s.setSyncErr(job.playerID, nil)
			return
		}
		select {
		case <-ctx.Done():
			s.setSyncErr(job.playerID, fmt.Errorf("%w: %v", progression.ErrSyncFailed, err))
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	s.log.Error().Err(err).Str("player", job.playerID).Msg("persisting player record failed")
	s.setSyncErr(job.playerID, fmt.Errorf("%w: %v", progression.ErrSyncFailed, err))
}

func (s *Service) setSyncErr(playerID string, err error) {
	s.mu.Lock()
	ps, ok := s.players[playerID]
	s.mu.Unlock()
	if !ok {
		return
	}
	ps.mu.Lock()
	ps.syncErr = err
	ps.mu.Unlock()
}

// drainSaves makes one final attempt at each queued record during shutdown.
func (s *Service) drainSaves() {
	for {
		select {
		case job := <-s.saves:
			if err := s.store.SavePlayer(job.rec); err != nil {
				s.log.Error().Err(err).Str("player", job.playerID).Msg("final save failed")
			}
		default:
			return
		}
	}
}
