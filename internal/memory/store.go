// Package memory owns per-user conversational state: history, topic
// frequency, health and preference facts, and per-mode insights. The
// in-process map is authoritative; snapshots are handed off to a durable
// store asynchronously and best-effort.
package memory

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/zoey/internal/flow"
	"github.com/antoniostano/zoey/internal/mode"
	"github.com/antoniostano/zoey/internal/reliability"
)

var ErrNotFound = errors.New("user memory not found")

// topicVocabulary is the fixed set of topic keywords counted per mode.
// Matching is case-insensitive substring.
var topicVocabulary = []string{
	"medication",
	"exercise",
	"diet",
	"sleep",
	"stress",
	"meditation",
	"nutrition",
	"workout",
	"health",
	"wellness",
}

const defaultRecentLimit = 10

// Options tunes retention and persistence behavior. Zero caps disable
// trimming; zero timeouts and retries fall back to defaults.
type Options struct {
	MaxHistoryTurns    int
	MaxInsightsPerMode int
	PersistTimeout     time.Duration
	PersistRetries     int

	// OnPersistFailure is invoked after all retries for a snapshot are
	// exhausted. Optional.
	OnPersistFailure func(userID string, err error)
}

type persistReq struct {
	userID   string
	snapshot *UserMemory
}

// Store is the per-user memory store. All mutations go through it; reads
// return deep clones.
type Store struct {
	mu       sync.RWMutex
	memories map[string]*UserMemory

	snapshots SnapshotStore
	opts      Options

	persistCh chan persistReq
	workerWG  sync.WaitGroup
	closeOnce sync.Once
}

// NewStore builds a memory store over the given snapshot store and starts
// the persistence worker. Call Close to drain and release it.
func NewStore(snapshots SnapshotStore, opts Options) *Store {
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 5 * time.Second
	}
	if opts.PersistRetries < 0 {
		opts.PersistRetries = 0
	}
	s := &Store{
		memories:  make(map[string]*UserMemory),
		snapshots: snapshots,
		opts:      opts,
		persistCh: make(chan persistReq, 256),
	}
	s.workerWG.Add(1)
	go s.persistLoop()
	return s
}

// Initialize creates an empty memory with one fresh context per supported
// mode. Re-initializing an existing user is a no-op.
func (s *Store) Initialize(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memories[userID]; ok {
		return
	}
	now := time.Now().UTC()
	m := &UserMemory{
		UserID:          userID,
		HealthMetrics:   HealthMetrics{LastUpdated: now},
		UserPreferences: UserPreferences{LastUpdated: now},
		ModeContexts:    make(map[mode.ID]*ModeContext, len(mode.All())),
		LastUpdated:     now,
	}
	for _, id := range mode.All() {
		m.ModeContexts[id] = &ModeContext{
			LastInteraction:   now,
			FrequentTopics:    make(map[string]int),
			CustomPreferences: make(map[string]string),
		}
	}
	s.memories[userID] = m
}

// RecordTurn appends a conversation turn, bumps the mode's interaction
// time, and counts topic keyword occurrences from the user message. The
// memory must already exist.
func (s *Store) RecordTurn(userID string, m mode.ID, userMessage string, response flow.ScriptedResponse) (ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mem, ok := s.memories[userID]
	if !ok {
		return ConversationTurn{}, ErrNotFound
	}
	ctx, ok := mem.ModeContexts[m]
	if !ok {
		return ConversationTurn{}, mode.ErrUnknown
	}

	now := time.Now().UTC()
	turn := ConversationTurn{
		ID:            uuid.NewString(),
		Mode:          m,
		Timestamp:     now,
		UserMessage:   userMessage,
		AgentResponse: response,
	}
	mem.ConversationHistory = append(mem.ConversationHistory, turn)
	if n := s.opts.MaxHistoryTurns; n > 0 && len(mem.ConversationHistory) > n {
		mem.ConversationHistory = mem.ConversationHistory[len(mem.ConversationHistory)-n:]
	}

	ctx.LastInteraction = now
	for _, topic := range extractTopics(userMessage) {
		ctx.FrequentTopics[topic]++
	}
	mem.LastUpdated = now
	return turn, nil
}

// UpdateHealthMetrics shallow-merges the patch into the user's metrics.
func (s *Store) UpdateHealthMetrics(userID string, patch HealthMetricsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mem, ok := s.memories[userID]
	if !ok {
		return ErrNotFound
	}
	h := &mem.HealthMetrics
	if patch.Weight != nil {
		h.Weight = patch.Weight
	}
	if patch.Height != nil {
		h.Height = patch.Height
	}
	if patch.BloodPressure != nil {
		h.BloodPressure = patch.BloodPressure
	}
	if patch.HeartRate != nil {
		h.HeartRate = patch.HeartRate
	}
	if patch.SleepQuality != nil {
		h.SleepQuality = patch.SleepQuality
	}
	if patch.StressLevel != nil {
		h.StressLevel = patch.StressLevel
	}
	now := time.Now().UTC()
	h.LastUpdated = now
	mem.LastUpdated = now
	return nil
}

// UpdateUserPreferences shallow-merges the patch into the user's profile.
func (s *Store) UpdateUserPreferences(userID string, patch UserPreferencesPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mem, ok := s.memories[userID]
	if !ok {
		return ErrNotFound
	}
	p := &mem.UserPreferences
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Age != nil {
		p.Age = patch.Age
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.DietaryRestrictions != nil {
		p.DietaryRestrictions = patch.DietaryRestrictions
	}
	if patch.FitnessGoals != nil {
		p.FitnessGoals = patch.FitnessGoals
	}
	if patch.SleepSchedule != nil {
		p.SleepSchedule = patch.SleepSchedule
	}
	if patch.MeditationPreferences != nil {
		p.MeditationPreferences = patch.MeditationPreferences
	}
	if patch.Medications != nil {
		p.Medications = patch.Medications
	}
	now := time.Now().UTC()
	p.LastUpdated = now
	mem.LastUpdated = now
	return nil
}

// AddInsight appends an insight to a mode's list. No de-duplication.
func (s *Store) AddInsight(userID string, m mode.ID, insight string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mem, ok := s.memories[userID]
	if !ok {
		return ErrNotFound
	}
	ctx, ok := mem.ModeContexts[m]
	if !ok {
		return mode.ErrUnknown
	}
	ctx.Insights = append(ctx.Insights, insight)
	if n := s.opts.MaxInsightsPerMode; n > 0 && len(ctx.Insights) > n {
		ctx.Insights = ctx.Insights[len(ctx.Insights)-n:]
	}
	mem.LastUpdated = time.Now().UTC()
	return nil
}

// RecentTurns returns up to limit turns, most recent first. An absent
// user yields nil.
func (s *Store) RecentTurns(userID string, limit int) []ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mem, ok := s.memories[userID]
	if !ok {
		return nil
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	hist := mem.ConversationHistory
	if limit > len(hist) {
		limit = len(hist)
	}
	out := make([]ConversationTurn, 0, limit)
	for i := len(hist) - 1; i >= len(hist)-limit; i-- {
		out = append(out, hist[i])
	}
	return out
}

// ModeContext returns a clone of one mode's context.
func (s *Store) ModeContext(userID string, m mode.ID) (*ModeContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mem, ok := s.memories[userID]
	if !ok {
		return nil, ErrNotFound
	}
	ctx, ok := mem.ModeContexts[m]
	if !ok {
		return nil, mode.ErrUnknown
	}
	return cloneContext(ctx), nil
}

// Memory returns a clone of the user's full memory.
func (s *Store) Memory(userID string) (*UserMemory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mem, ok := s.memories[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMemory(mem), nil
}

// Persist snapshots the user's memory and enqueues it for the durable
// store. Fire and forget: failures are logged and counted, never
// surfaced. Snapshots are taken synchronously so the queue preserves
// mutation order.
func (s *Store) Persist(userID string) {
	s.mu.RLock()
	mem, ok := s.memories[userID]
	var snapshot *UserMemory
	if ok {
		snapshot = cloneMemory(mem)
	}
	s.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case s.persistCh <- persistReq{userID: userID, snapshot: snapshot}:
	default:
		log.Printf("memory: persist queue full, dropping snapshot for user %s", userID)
		s.notifyPersistFailure(userID, errors.New("persist queue full"))
	}
}

// Load restores the user's memory from the durable store. The live
// in-memory state is authoritative: a user already resident is left
// untouched, since persistence lags behind mutations and the snapshot
// may be stale. Any failure or absence falls back to Initialize so the
// caller always ends up with a usable memory.
func (s *Store) Load(ctx context.Context, userID string) error {
	s.mu.RLock()
	_, resident := s.memories[userID]
	s.mu.RUnlock()
	if resident {
		return nil
	}

	snapshot, err := s.snapshots.Get(ctx, userID)
	if err != nil || snapshot == nil {
		if err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("memory: load for user %s failed, starting fresh: %v", userID, err)
		}
		s.Initialize(userID)
		return nil
	}

	// Snapshots written by earlier deployments may predate newer modes.
	for _, id := range mode.All() {
		if _, ok := snapshot.ModeContexts[id]; !ok {
			if snapshot.ModeContexts == nil {
				snapshot.ModeContexts = make(map[mode.ID]*ModeContext)
			}
			snapshot.ModeContexts[id] = &ModeContext{
				LastInteraction:   time.Now().UTC(),
				FrequentTopics:    make(map[string]int),
				CustomPreferences: make(map[string]string),
			}
		}
	}

	s.mu.Lock()
	// Re-check under the write lock: a turn may have initialized the
	// user while the durable read was in flight.
	if _, ok := s.memories[userID]; !ok {
		s.memories[userID] = snapshot
	}
	s.mu.Unlock()
	return nil
}

// Close drains the persistence queue and closes the snapshot store.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.persistCh)
	})
	s.workerWG.Wait()
	return s.snapshots.Close()
}

func (s *Store) persistLoop() {
	defer s.workerWG.Done()
	for req := range s.persistCh {
		s.persistOne(req)
	}
}

func (s *Store) persistOne(req persistReq) {
	var err error
	for attempt := 0; attempt <= s.opts.PersistRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(reliability.ExponentialBackoff(attempt, 100*time.Millisecond, 2*time.Second))
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
		err = s.snapshots.Put(ctx, req.userID, req.snapshot)
		cancel()
		if err == nil {
			return
		}
		if !reliability.IsRetryablePersistError(err) {
			break
		}
	}
	log.Printf("memory: persist for user %s failed after %d attempts: %v", req.userID, s.opts.PersistRetries+1, err)
	s.notifyPersistFailure(req.userID, err)
}

func (s *Store) notifyPersistFailure(userID string, err error) {
	if s.opts.OnPersistFailure != nil {
		s.opts.OnPersistFailure(userID, err)
	}
}

func extractTopics(message string) []string {
	lower := strings.ToLower(message)
	var topics []string
	for _, kw := range topicVocabulary {
		if strings.Contains(lower, kw) {
			topics = append(topics, kw)
		}
	}
	return topics
}
