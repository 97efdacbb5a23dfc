package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/antoniostano/zoey/internal/flow"
	"github.com/antoniostano/zoey/internal/mode"
)

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s := NewStore(NewInMemorySnapshotStore(), opts)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInitializeIsIdempotent(t *testing.T) {
	s := newTestStore(t, Options{})
	s.Initialize("u1")

	if _, err := s.RecordTurn("u1", mode.Doctor, "hello", flow.ScriptedResponse{Text: "hi"}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}

	s.Initialize("u1")
	mem, err := s.Memory("u1")
	if err != nil {
		t.Fatalf("Memory() error = %v", err)
	}
	if len(mem.ConversationHistory) != 1 {
		t.Fatalf("history length = %d after re-initialize, want 1", len(mem.ConversationHistory))
	}
	if len(mem.ModeContexts) != len(mode.All()) {
		t.Fatalf("mode contexts = %d, want %d", len(mem.ModeContexts), len(mode.All()))
	}
	for _, id := range mode.All() {
		if mem.ModeContexts[id] == nil {
			t.Fatalf("missing context for mode %s", id)
		}
	}
}

func TestRecordTurnRequiresInitialize(t *testing.T) {
	s := newTestStore(t, Options{})
	_, err := s.RecordTurn("ghost", mode.Doctor, "hello", flow.ScriptedResponse{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordTurn() error = %v, want ErrNotFound", err)
	}
}

func TestRecordTurnCountsTopics(t *testing.T) {
	s := newTestStore(t, Options{})
	s.Initialize("u1")

	if _, err := s.RecordTurn("u1", mode.Doctor, "I forgot to take my medication today", flow.ScriptedResponse{Text: "ok"}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}
	ctx, err := s.ModeContext("u1", mode.Doctor)
	if err != nil {
		t.Fatalf("ModeContext() error = %v", err)
	}
	if got := ctx.FrequentTopics["medication"]; got != 1 {
		t.Fatalf("medication count = %d, want 1", got)
	}

	if _, err := s.RecordTurn("u1", mode.Doctor, "my medication ran out", flow.ScriptedResponse{Text: "ok"}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}
	ctx, _ = s.ModeContext("u1", mode.Doctor)
	if got := ctx.FrequentTopics["medication"]; got != 2 {
		t.Fatalf("medication count = %d, want 2", got)
	}
}

func TestRecordTurnMatchesMultipleTopics(t *testing.T) {
	s := newTestStore(t, Options{})
	s.Initialize("u1")

	if _, err := s.RecordTurn("u1", mode.Trainer, "stress ruins my workout and my sleep", flow.ScriptedResponse{}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}
	ctx, _ := s.ModeContext("u1", mode.Trainer)
	for _, topic := range []string{"stress", "workout", "sleep"} {
		if ctx.FrequentTopics[topic] != 1 {
			t.Fatalf("topic %q count = %d, want 1", topic, ctx.FrequentTopics[topic])
		}
	}
	if len(ctx.FrequentTopics) != 3 {
		t.Fatalf("topic count = %d, want 3: %v", len(ctx.FrequentTopics), ctx.FrequentTopics)
	}
}

func TestRecentTurnsMostRecentFirst(t *testing.T) {
	s := newTestStore(t, Options{})
	s.Initialize("u1")
	for i := 0; i < 5; i++ {
		if _, err := s.RecordTurn("u1", mode.Sleep, fmt.Sprintf("msg-%d", i), flow.ScriptedResponse{}); err != nil {
			t.Fatalf("RecordTurn() error = %v", err)
		}
	}

	turns := s.RecentTurns("u1", 3)
	if len(turns) != 3 {
		t.Fatalf("len = %d, want 3", len(turns))
	}
	if turns[0].UserMessage != "msg-4" || turns[2].UserMessage != "msg-2" {
		t.Fatalf("unexpected order: %q, %q, %q", turns[0].UserMessage, turns[1].UserMessage, turns[2].UserMessage)
	}

	if got := s.RecentTurns("ghost", 3); got != nil {
		t.Fatalf("RecentTurns for absent user = %v, want nil", got)
	}
}

func TestUpdateHealthMetricsShallowMerge(t *testing.T) {
	s := newTestStore(t, Options{})
	s.Initialize("u1")

	weight := 70.5
	stress := 7
	if err := s.UpdateHealthMetrics("u1", HealthMetricsPatch{Weight: &weight, StressLevel: &stress}); err != nil {
		t.Fatalf("UpdateHealthMetrics() error = %v", err)
	}

	sleep := 4
	if err := s.UpdateHealthMetrics("u1", HealthMetricsPatch{SleepQuality: &sleep}); err != nil {
		t.Fatalf("UpdateHealthMetrics() error = %v", err)
	}

	mem, _ := s.Memory("u1")
	h := mem.HealthMetrics
	if h.Weight == nil || *h.Weight != 70.5 {
		t.Fatalf("Weight = %v, want 70.5 retained", h.Weight)
	}
	if h.StressLevel == nil || *h.StressLevel != 7 {
		t.Fatalf("StressLevel = %v, want 7 retained", h.StressLevel)
	}
	if h.SleepQuality == nil || *h.SleepQuality != 4 {
		t.Fatalf("SleepQuality = %v, want 4", h.SleepQuality)
	}
	if h.LastUpdated.IsZero() || mem.LastUpdated.IsZero() {
		t.Fatalf("timestamps should be stamped")
	}
}

func TestUpdateUserPreferencesShallowMerge(t *testing.T) {
	s := newTestStore(t, Options{})
	s.Initialize("u1")

	name := "Ada"
	if err := s.UpdateUserPreferences("u1", UserPreferencesPatch{Name: &name, FitnessGoals: []string{"5k"}}); err != nil {
		t.Fatalf("UpdateUserPreferences() error = %v", err)
	}
	age := 34
	if err := s.UpdateUserPreferences("u1", UserPreferencesPatch{Age: &age}); err != nil {
		t.Fatalf("UpdateUserPreferences() error = %v", err)
	}

	mem, _ := s.Memory("u1")
	p := mem.UserPreferences
	if p.Name != "Ada" {
		t.Fatalf("Name = %q, want retained %q", p.Name, "Ada")
	}
	if len(p.FitnessGoals) != 1 || p.FitnessGoals[0] != "5k" {
		t.Fatalf("FitnessGoals = %v, want retained", p.FitnessGoals)
	}
	if p.Age == nil || *p.Age != 34 {
		t.Fatalf("Age = %v, want 34", p.Age)
	}
}

func TestAddInsightAppendsWithoutDeduplication(t *testing.T) {
	s := newTestStore(t, Options{})
	s.Initialize("u1")

	for i := 0; i < 2; i++ {
		if err := s.AddInsight("u1", mode.Sleep, "same insight"); err != nil {
			t.Fatalf("AddInsight() error = %v", err)
		}
	}
	ctx, _ := s.ModeContext("u1", mode.Sleep)
	if len(ctx.Insights) != 2 {
		t.Fatalf("insights = %d, want 2 (no de-duplication)", len(ctx.Insights))
	}
}

func TestRetentionCaps(t *testing.T) {
	s := newTestStore(t, Options{MaxHistoryTurns: 3, MaxInsightsPerMode: 2})
	s.Initialize("u1")

	for i := 0; i < 5; i++ {
		if _, err := s.RecordTurn("u1", mode.Doctor, fmt.Sprintf("msg-%d", i), flow.ScriptedResponse{}); err != nil {
			t.Fatalf("RecordTurn() error = %v", err)
		}
		if err := s.AddInsight("u1", mode.Doctor, fmt.Sprintf("insight-%d", i)); err != nil {
			t.Fatalf("AddInsight() error = %v", err)
		}
	}

	mem, _ := s.Memory("u1")
	if len(mem.ConversationHistory) != 3 {
		t.Fatalf("history = %d, want 3", len(mem.ConversationHistory))
	}
	if mem.ConversationHistory[0].UserMessage != "msg-2" {
		t.Fatalf("oldest retained = %q, want msg-2", mem.ConversationHistory[0].UserMessage)
	}
	ctx, _ := s.ModeContext("u1", mode.Doctor)
	if len(ctx.Insights) != 2 || ctx.Insights[0] != "insight-3" {
		t.Fatalf("insights = %v, want last two", ctx.Insights)
	}
}

func TestConcurrentRecordTurnsLoseNoUpdates(t *testing.T) {
	s := newTestStore(t, Options{})
	s.Initialize("u1")

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			msg := "workout time"
			if i%2 == 0 {
				msg = "workout and meditation"
			}
			if _, err := s.RecordTurn("u1", mode.Trainer, msg, flow.ScriptedResponse{}); err != nil {
				t.Errorf("RecordTurn() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	ctx, _ := s.ModeContext("u1", mode.Trainer)
	if got := ctx.FrequentTopics["workout"]; got != n {
		t.Fatalf("workout count = %d, want %d", got, n)
	}
	if got := ctx.FrequentTopics["meditation"]; got != n/2 {
		t.Fatalf("meditation count = %d, want %d", got, n/2)
	}
	mem, _ := s.Memory("u1")
	if len(mem.ConversationHistory) != n {
		t.Fatalf("history = %d, want %d", len(mem.ConversationHistory), n)
	}
}

func TestMemoryReturnsClone(t *testing.T) {
	s := newTestStore(t, Options{})
	s.Initialize("u1")
	if _, err := s.RecordTurn("u1", mode.Doctor, "medication", flow.ScriptedResponse{}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}

	mem, _ := s.Memory("u1")
	mem.ModeContexts[mode.Doctor].FrequentTopics["medication"] = 99
	mem.ConversationHistory[0].UserMessage = "tampered"

	fresh, _ := s.Memory("u1")
	if fresh.ModeContexts[mode.Doctor].FrequentTopics["medication"] != 1 {
		t.Fatalf("store state mutated through returned clone")
	}
	if fresh.ConversationHistory[0].UserMessage != "medication" {
		t.Fatalf("history mutated through returned clone")
	}
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	snapshots := NewInMemorySnapshotStore()
	s := NewStore(snapshots, Options{})
	s.Initialize("u1")
	if _, err := s.RecordTurn("u1", mode.Sleep, "so tired", flow.ScriptedResponse{Text: "rest up"}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}
	s.Persist("u1")
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	restored := NewStore(snapshots, Options{})
	defer restored.Close()
	if err := restored.Load(context.Background(), "u1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	mem, err := restored.Memory("u1")
	if err != nil {
		t.Fatalf("Memory() error = %v", err)
	}
	if len(mem.ConversationHistory) != 1 || mem.ConversationHistory[0].UserMessage != "so tired" {
		t.Fatalf("restored history = %+v", mem.ConversationHistory)
	}
}

func TestLoadKeepsResidentMemory(t *testing.T) {
	snapshots := NewInMemorySnapshotStore()
	s := NewStore(snapshots, Options{})
	defer s.Close()

	s.Initialize("u1")
	if _, err := s.RecordTurn("u1", mode.Doctor, "turn one", flow.ScriptedResponse{Text: "r1"}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}

	// Durable store holds a snapshot that predates the next turn, as it
	// would when the persist queue lags behind mutations.
	stale, err := s.Memory("u1")
	if err != nil {
		t.Fatalf("Memory() error = %v", err)
	}
	if err := snapshots.Put(context.Background(), "u1", stale); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := s.RecordTurn("u1", mode.Doctor, "turn two", flow.ScriptedResponse{Text: "r2"}); err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}

	if err := s.Load(context.Background(), "u1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	mem, err := s.Memory("u1")
	if err != nil {
		t.Fatalf("Memory() error = %v", err)
	}
	if len(mem.ConversationHistory) != 2 {
		t.Fatalf("history after Load = %d turns, want 2", len(mem.ConversationHistory))
	}
	if mem.ConversationHistory[1].UserMessage != "turn two" {
		t.Fatalf("latest turn = %q, want %q", mem.ConversationHistory[1].UserMessage, "turn two")
	}
}

type failingSnapshotStore struct{}

func (failingSnapshotStore) Put(context.Context, string, *UserMemory) error {
	return errors.New("put failed")
}
func (failingSnapshotStore) Get(context.Context, string) (*UserMemory, error) {
	return nil, errors.New("get failed")
}
func (failingSnapshotStore) Close() error { return nil }

func TestLoadFallsBackToInitialize(t *testing.T) {
	s := NewStore(failingSnapshotStore{}, Options{})
	defer s.Close()

	if err := s.Load(context.Background(), "u1"); err != nil {
		t.Fatalf("Load() error = %v, want nil fallback", err)
	}
	mem, err := s.Memory("u1")
	if err != nil {
		t.Fatalf("Memory() error = %v", err)
	}
	if len(mem.ModeContexts) != len(mode.All()) {
		t.Fatalf("fallback memory contexts = %d, want %d", len(mem.ModeContexts), len(mode.All()))
	}
}

func TestPersistFailureInvokesCallback(t *testing.T) {
	var (
		mu     sync.Mutex
		failed []string
	)
	s := NewStore(failingSnapshotStore{}, Options{
		PersistRetries: 1,
		OnPersistFailure: func(userID string, err error) {
			mu.Lock()
			failed = append(failed, userID)
			mu.Unlock()
		},
	})
	s.Initialize("u1")
	s.Persist("u1")
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 1 || failed[0] != "u1" {
		t.Fatalf("failure callbacks = %v, want [u1]", failed)
	}
}
