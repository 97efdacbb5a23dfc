package flow

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/antoniostano/zoey/internal/mode"
)

type fileConfig struct {
	Modes map[string]fileFlow `yaml:"modes"`
}

type fileFlow struct {
	Intro    string         `yaml:"intro"`
	Keywords []string       `yaml:"keywords"`
	Reset    *fileResponse  `yaml:"reset"`
	Script   []fileResponse `yaml:"script"`
}

// fileResponse carries the delay as a Go duration string ("1500ms", "2s").
type fileResponse struct {
	Text               string              `yaml:"text"`
	Delay              string              `yaml:"delay"`
	WorkoutPlan        *WorkoutPlan        `yaml:"workout_plan"`
	MedicationSchedule *MedicationSchedule `yaml:"medication_schedule"`
	NutritionLog       *NutritionLog       `yaml:"nutrition_log"`
	GuidedMeditation   *GuidedMeditation   `yaml:"guided_meditation"`
	SleepAnalysis      *SleepAnalysis      `yaml:"sleep_analysis"`
	ProductCollection  *ProductCollection  `yaml:"product_collection"`
	DaySchedule        *DaySchedule        `yaml:"day_schedule"`
}

// Load reads a YAML flow configuration and merges it over the built-in
// defaults. Modes present in the file replace the default flow wholesale.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow config: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse flow config: %w", err)
	}

	reg := DefaultRegistry()
	for id, ff := range cfg.Modes {
		m := mode.ID(id)
		if !mode.Valid(m) {
			return nil, fmt.Errorf("flow config: %w: %q", mode.ErrUnknown, id)
		}
		f := Flow{Intro: ff.Intro, Keywords: ff.Keywords}
		if ff.Reset != nil {
			r, err := ff.Reset.toResponse()
			if err != nil {
				return nil, fmt.Errorf("flow config %s reset: %w", id, err)
			}
			f.Reset = &r
		}
		for i, fr := range ff.Script {
			r, err := fr.toResponse()
			if err != nil {
				return nil, fmt.Errorf("flow config %s step %d: %w", id, i, err)
			}
			f.Responses = append(f.Responses, r)
		}
		reg.flows[m] = f
	}
	return reg, nil
}

func (fr fileResponse) toResponse() (ScriptedResponse, error) {
	delay := time.Second
	if fr.Delay != "" {
		d, err := time.ParseDuration(fr.Delay)
		if err != nil {
			return ScriptedResponse{}, fmt.Errorf("delay %q: %w", fr.Delay, err)
		}
		if d < 0 {
			return ScriptedResponse{}, fmt.Errorf("delay %q must not be negative", fr.Delay)
		}
		delay = d
	}
	return ScriptedResponse{
		Text:               fr.Text,
		Delay:              delay,
		WorkoutPlan:        fr.WorkoutPlan,
		MedicationSchedule: fr.MedicationSchedule,
		NutritionLog:       fr.NutritionLog,
		GuidedMeditation:   fr.GuidedMeditation,
		SleepAnalysis:      fr.SleepAnalysis,
		ProductCollection:  fr.ProductCollection,
		DaySchedule:        fr.DaySchedule,
	}, nil
}
