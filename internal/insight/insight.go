// Package insight derives cross-domain observations from a memory
// snapshot. Rules are fixed, independent, and emitted in declaration
// order; the snapshot is never mutated.
package insight

import (
	"fmt"

	"github.com/antoniostano/zoey/internal/memory"
	"github.com/antoniostano/zoey/internal/mode"
)

const stressThreshold = 5

// Generate evaluates every rule against the snapshot and returns the
// sentences that fired.
func Generate(snapshot *memory.UserMemory) []string {
	if snapshot == nil {
		return nil
	}

	var insights []string

	_, hasSleep := snapshot.ModeContexts[mode.Sleep]
	_, hasTrainer := snapshot.ModeContexts[mode.Trainer]
	if hasSleep && hasTrainer {
		insights = append(insights, "Regular exercise patterns appear to correlate with improved sleep quality")
	}

	_, hasNutrition := snapshot.ModeContexts[mode.Nutritionist]
	_, hasMeditation := snapshot.ModeContexts[mode.Meditation]
	if hasNutrition && hasMeditation {
		insights = append(insights, "Mindful eating practices combined with meditation show positive effects")
	}

	h := snapshot.HealthMetrics
	if h.StressLevel != nil && h.SleepQuality != nil {
		impact := "positive"
		if *h.StressLevel > stressThreshold {
			impact = "negative"
		}
		insights = append(insights, fmt.Sprintf("Stress levels appear to have a %s impact on sleep quality", impact))
	}

	return insights
}
