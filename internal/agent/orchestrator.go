// Package agent composes the memory store, flow engine, switch advisor,
// and insight generator into the single turn-handling operation.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/antoniostano/zoey/internal/advisor"
	"github.com/antoniostano/zoey/internal/flow"
	"github.com/antoniostano/zoey/internal/insight"
	"github.com/antoniostano/zoey/internal/memory"
	"github.com/antoniostano/zoey/internal/mode"
	"github.com/antoniostano/zoey/internal/observability"
	"github.com/antoniostano/zoey/internal/session"
)

// ErrValidation marks turns rejected before any state was touched.
var ErrValidation = errors.New("invalid input")

// TurnResult is what one handled turn returns to the caller.
type TurnResult struct {
	TurnID          string                `json:"turn_id"`
	Reply           flow.ScriptedResponse `json:"reply"`
	EffectiveMode   mode.ID               `json:"effective_mode"`
	ModeSwitched    bool                  `json:"mode_switched"`
	RecommendedMode mode.ID               `json:"recommended_mode"`
	Confidence      float64               `json:"confidence"`
	Intro           string                `json:"intro,omitempty"`
	Insights        []string              `json:"insights"`
}

// TopicCount is one topic with its occurrence count.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// UserAnalysis summarizes a user's state across all modes.
type UserAnalysis struct {
	ModeUsagePattern map[mode.ID]int          `json:"mode_usage_pattern"`
	DominantTopics   map[mode.ID][]TopicCount `json:"dominant_topics"`
	LastInteractions map[mode.ID]time.Time    `json:"last_interactions"`
	HealthStatus     memory.HealthMetrics     `json:"health_status"`
	Preferences      memory.UserPreferences   `json:"preferences"`
}

const (
	analysisRecentTurns = 10
	analysisTopTopics   = 3
)

// Orchestrator serializes turns per user and drives the turn pipeline.
type Orchestrator struct {
	memories *memory.Store
	engine   *flow.Engine
	advisor  *advisor.Advisor
	sessions *session.Manager
	metrics  *observability.Metrics

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func New(memories *memory.Store, engine *flow.Engine, adv *advisor.Advisor, sessions *session.Manager, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		memories: memories,
		engine:   engine,
		advisor:  adv,
		sessions: sessions,
		metrics:  metrics,
		locks:    make(map[string]*sync.Mutex),
	}
}

// HandleTurn processes one user message under the requested mode: asks
// the advisor whether to switch, advances the effective mode's script,
// records the turn, generates insights, and enqueues persistence. Turns
// for the same user run one at a time; different users run in parallel.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID string, requested mode.ID, message string) (*TurnResult, error) {
	if err := validateTurnInput(userID, requested, message); err != nil {
		o.countError("validation")
		return nil, err
	}
	if !o.engine.Has(requested) {
		o.countError("not_found")
		return nil, fmt.Errorf("%w: %s", mode.ErrUnknown, requested)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	o.memories.Initialize(userID)
	o.sessions.Ensure(userID, requested)

	rec := o.advisor.Recommend(requested, message)
	effective := requested
	var intro string
	if rec.ShouldSwitch {
		effective = rec.RecommendedMode
		intro = o.engine.Intro(effective)
	}

	cursor := o.sessions.EnterMode(userID, effective)
	reply, next, err := o.engine.Advance(effective, cursor)
	if err != nil {
		return nil, fmt.Errorf("advance flow: %w", err)
	}
	if err := o.sessions.SetCursor(userID, effective, next); err != nil {
		return nil, fmt.Errorf("store cursor: %w", err)
	}

	turn, err := o.memories.RecordTurn(userID, effective, message, reply)
	if err != nil {
		return nil, fmt.Errorf("record turn: %w", err)
	}

	snapshot, err := o.memories.Memory(userID)
	if err != nil {
		return nil, fmt.Errorf("read memory: %w", err)
	}
	insights := insight.Generate(snapshot)
	for _, ins := range insights {
		if err := o.memories.AddInsight(userID, effective, ins); err != nil {
			return nil, fmt.Errorf("add insight: %w", err)
		}
	}

	o.memories.Persist(userID)

	if o.metrics != nil {
		o.metrics.Turns.WithLabelValues(string(effective)).Inc()
		if rec.ShouldSwitch {
			o.metrics.ModeSwitches.WithLabelValues(string(requested), string(effective)).Inc()
		}
		o.metrics.InsightsGenerated.Add(float64(len(insights)))
		o.metrics.ObserveTurnLatency(time.Since(start))
	}

	return &TurnResult{
		TurnID:          turn.ID,
		Reply:           reply,
		EffectiveMode:   effective,
		ModeSwitched:    rec.ShouldSwitch,
		RecommendedMode: rec.RecommendedMode,
		Confidence:      rec.Confidence,
		Intro:           intro,
		Insights:        insights,
	}, nil
}

// StartSession begins (or restarts) the user's chat session, restoring
// memory from the durable store, and returns the session together with
// the initial mode's greeting. All flow cursors start at zero.
func (o *Orchestrator) StartSession(ctx context.Context, userID string, initial mode.ID) (*session.Session, string, error) {
	if strings.TrimSpace(userID) == "" {
		o.countError("validation")
		return nil, "", fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !o.engine.Has(initial) {
		o.countError("not_found")
		return nil, "", fmt.Errorf("%w: %s", mode.ErrUnknown, initial)
	}

	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := o.memories.Load(ctx, userID); err != nil {
		return nil, "", fmt.Errorf("load memory: %w", err)
	}
	sess := o.sessions.Create(userID, initial)
	return sess, o.engine.Intro(initial), nil
}

// AnalyzeUser summarizes the user's cross-mode state: mode usage over
// recent turns, dominant topics, last interactions, and current facts.
func (o *Orchestrator) AnalyzeUser(userID string) (*UserAnalysis, error) {
	snapshot, err := o.memories.Memory(userID)
	if err != nil {
		return nil, err
	}

	usage := make(map[mode.ID]int)
	for _, turn := range o.memories.RecentTurns(userID, analysisRecentTurns) {
		usage[turn.Mode]++
	}

	dominant := make(map[mode.ID][]TopicCount, len(snapshot.ModeContexts))
	last := make(map[mode.ID]time.Time, len(snapshot.ModeContexts))
	for id, ctx := range snapshot.ModeContexts {
		topics := make([]TopicCount, 0, len(ctx.FrequentTopics))
		for topic, count := range ctx.FrequentTopics {
			topics = append(topics, TopicCount{Topic: topic, Count: count})
		}
		sort.Slice(topics, func(i, j int) bool {
			if topics[i].Count != topics[j].Count {
				return topics[i].Count > topics[j].Count
			}
			return topics[i].Topic < topics[j].Topic
		})
		if len(topics) > analysisTopTopics {
			topics = topics[:analysisTopTopics]
		}
		dominant[id] = topics
		last[id] = ctx.LastInteraction
	}

	return &UserAnalysis{
		ModeUsagePattern: usage,
		DominantTopics:   dominant,
		LastInteractions: last,
		HealthStatus:     snapshot.HealthMetrics,
		Preferences:      snapshot.UserPreferences,
	}, nil
}

func (o *Orchestrator) userLock(userID string) *sync.Mutex {
	o.lockMu.Lock()
	defer o.lockMu.Unlock()
	lock, ok := o.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[userID] = lock
	}
	return lock
}

func (o *Orchestrator) countError(kind string) {
	if o.metrics != nil {
		o.metrics.TurnErrors.WithLabelValues(kind).Inc()
	}
}

func validateTurnInput(userID string, m mode.ID, message string) error {
	switch {
	case strings.TrimSpace(userID) == "":
		return fmt.Errorf("%w: user id is required", ErrValidation)
	case strings.TrimSpace(string(m)) == "":
		return fmt.Errorf("%w: mode is required", ErrValidation)
	case strings.TrimSpace(message) == "":
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	return nil
}
