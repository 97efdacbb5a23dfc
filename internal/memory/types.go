package memory

import (
	"time"

	"github.com/antoniostano/zoey/internal/flow"
	"github.com/antoniostano/zoey/internal/mode"
)

// BloodPressure is a systolic/diastolic reading.
type BloodPressure struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// SleepSchedule holds the user's usual bed and wake times.
type SleepSchedule struct {
	Bedtime  string `json:"bedtime"`
	WakeTime string `json:"wake_time"`
}

// MeditationPreferences holds meditation session preferences.
type MeditationPreferences struct {
	PreferredDuration int      `json:"preferred_duration"`
	PreferredTypes    []string `json:"preferred_types,omitempty"`
}

// MedicationInfo describes one medication the user takes.
type MedicationInfo struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}

// HealthMetrics holds optional numeric health facts. Nil means the fact
// has never been recorded.
type HealthMetrics struct {
	Weight        *float64       `json:"weight,omitempty"`
	Height        *float64       `json:"height,omitempty"`
	BloodPressure *BloodPressure `json:"blood_pressure,omitempty"`
	HeartRate     *int           `json:"heart_rate,omitempty"`
	SleepQuality  *int           `json:"sleep_quality,omitempty"`
	StressLevel   *int           `json:"stress_level,omitempty"`
	LastUpdated   time.Time      `json:"last_updated"`
}

// HealthMetricsPatch is a shallow-merge update: nil fields are retained,
// non-nil fields overwrite.
type HealthMetricsPatch struct {
	Weight        *float64       `json:"weight,omitempty"`
	Height        *float64       `json:"height,omitempty"`
	BloodPressure *BloodPressure `json:"blood_pressure,omitempty"`
	HeartRate     *int           `json:"heart_rate,omitempty"`
	SleepQuality  *int           `json:"sleep_quality,omitempty"`
	StressLevel   *int           `json:"stress_level,omitempty"`
}

// UserPreferences holds profile and lifestyle facts.
type UserPreferences struct {
	Name                  string                 `json:"name"`
	Age                   *int                   `json:"age,omitempty"`
	Gender                string                 `json:"gender,omitempty"`
	DietaryRestrictions   []string               `json:"dietary_restrictions,omitempty"`
	FitnessGoals          []string               `json:"fitness_goals,omitempty"`
	SleepSchedule         *SleepSchedule         `json:"sleep_schedule,omitempty"`
	MeditationPreferences *MeditationPreferences `json:"meditation_preferences,omitempty"`
	Medications           []MedicationInfo       `json:"medications,omitempty"`
	LastUpdated           time.Time              `json:"last_updated"`
}

// UserPreferencesPatch is a shallow-merge update over UserPreferences.
// Nil pointers and nil slices are retained.
type UserPreferencesPatch struct {
	Name                  *string                `json:"name,omitempty"`
	Age                   *int                   `json:"age,omitempty"`
	Gender                *string                `json:"gender,omitempty"`
	DietaryRestrictions   []string               `json:"dietary_restrictions,omitempty"`
	FitnessGoals          []string               `json:"fitness_goals,omitempty"`
	SleepSchedule         *SleepSchedule         `json:"sleep_schedule,omitempty"`
	MeditationPreferences *MeditationPreferences `json:"meditation_preferences,omitempty"`
	Medications           []MedicationInfo       `json:"medications,omitempty"`
}

// ConversationTurn is one user message plus the scripted reply it drew.
// Sentiment and Topics are reserved annotation slots; no current rule
// reads them.
type ConversationTurn struct {
	ID            string                `json:"id"`
	Mode          mode.ID               `json:"mode"`
	Timestamp     time.Time             `json:"timestamp"`
	UserMessage   string                `json:"user_message"`
	AgentResponse flow.ScriptedResponse `json:"agent_response"`
	Sentiment     string                `json:"sentiment,omitempty"`
	Topics        []string              `json:"topics,omitempty"`
}

// ModeContext accumulates per-mode interaction state.
type ModeContext struct {
	LastInteraction   time.Time         `json:"last_interaction"`
	FrequentTopics    map[string]int    `json:"frequent_topics"`
	CustomPreferences map[string]string `json:"custom_preferences"`
	Insights          []string          `json:"insights"`
}

// UserMemory is the full conversational state for one user. Every
// supported mode has a context from the moment the memory is created.
type UserMemory struct {
	UserID              string                   `json:"user_id"`
	HealthMetrics       HealthMetrics            `json:"health_metrics"`
	UserPreferences     UserPreferences          `json:"user_preferences"`
	ConversationHistory []ConversationTurn       `json:"conversation_history"`
	ModeContexts        map[mode.ID]*ModeContext `json:"mode_contexts"`
	LastUpdated         time.Time                `json:"last_updated"`
}
