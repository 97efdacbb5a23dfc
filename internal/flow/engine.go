// Package flow owns the per-mode scripted response sequences and cursor
// advancement. Response selection is a pure function of (mode, cursor);
// the user's message is deliberately never consulted.
package flow

import (
	"encoding/json"
	"time"

	"github.com/antoniostano/zoey/internal/mode"
)

// ScriptedResponse is one step of a mode's script: display text, a pacing
// delay for the typing indicator, and at most one structured card. On the
// wire the delay travels as whole milliseconds under delay_ms.
type ScriptedResponse struct {
	Text  string        `json:"text" yaml:"text"`
	Delay time.Duration `json:"-" yaml:"delay"`

	WorkoutPlan        *WorkoutPlan        `json:"workout_plan,omitempty" yaml:"workout_plan,omitempty"`
	MedicationSchedule *MedicationSchedule `json:"medication_schedule,omitempty" yaml:"medication_schedule,omitempty"`
	NutritionLog       *NutritionLog       `json:"nutrition_log,omitempty" yaml:"nutrition_log,omitempty"`
	GuidedMeditation   *GuidedMeditation   `json:"guided_meditation,omitempty" yaml:"guided_meditation,omitempty"`
	SleepAnalysis      *SleepAnalysis      `json:"sleep_analysis,omitempty" yaml:"sleep_analysis,omitempty"`
	ProductCollection  *ProductCollection  `json:"product_collection,omitempty" yaml:"product_collection,omitempty"`
	DaySchedule        *DaySchedule        `json:"day_schedule,omitempty" yaml:"day_schedule,omitempty"`
}

type scriptedResponseAlias ScriptedResponse

// MarshalJSON writes Delay as whole milliseconds so the delay_ms field
// name matches its unit.
func (r ScriptedResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		scriptedResponseAlias
		DelayMS int64 `json:"delay_ms"`
	}{scriptedResponseAlias(r), r.Delay.Milliseconds()})
}

func (r *ScriptedResponse) UnmarshalJSON(data []byte) error {
	aux := struct {
		*scriptedResponseAlias
		DelayMS int64 `json:"delay_ms"`
	}{scriptedResponseAlias: (*scriptedResponseAlias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Delay = time.Duration(aux.DelayMS) * time.Millisecond
	return nil
}

// Flow is one mode's fixed conversation material.
type Flow struct {
	Intro     string             `yaml:"intro"`
	Keywords  []string           `yaml:"keywords"`
	Reset     *ScriptedResponse  `yaml:"reset,omitempty"`
	Responses []ScriptedResponse `yaml:"script"`
}

// Registry maps each supported mode to its flow.
type Registry struct {
	flows map[mode.ID]Flow
}

func NewRegistry(flows map[mode.ID]Flow) *Registry {
	return &Registry{flows: flows}
}

// Engine advances flow cursors over a registry.
type Engine struct {
	reg *Registry
}

func NewEngine(reg *Registry) *Engine {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Engine{reg: reg}
}

// Advance returns the scripted response at cursor and the next cursor
// value. Past the end of the script it returns the mode's terminal reset
// response and a cursor of zero.
func (e *Engine) Advance(m mode.ID, cursor int) (ScriptedResponse, int, error) {
	f, ok := e.reg.flows[m]
	if !ok {
		return ScriptedResponse{}, 0, mode.ErrUnknown
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor < len(f.Responses) {
		return f.Responses[cursor], cursor + 1, nil
	}
	if f.Reset != nil {
		return *f.Reset, 0, nil
	}
	return defaultReset, 0, nil
}

// Intro returns the greeting shown when a mode is entered.
func (e *Engine) Intro(m mode.ID) string {
	return e.reg.flows[m].Intro
}

// Keywords returns the switch-trigger keywords for a mode.
func (e *Engine) Keywords(m mode.ID) []string {
	return e.reg.flows[m].Keywords
}

// ScriptLength returns the number of scripted responses for a mode.
func (e *Engine) ScriptLength(m mode.ID) int {
	return len(e.reg.flows[m].Responses)
}

// Has reports whether the engine carries a flow for the mode.
func (e *Engine) Has(m mode.ID) bool {
	_, ok := e.reg.flows[m]
	return ok
}
