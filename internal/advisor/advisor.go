// Package advisor scores incoming messages against per-mode keyword
// tables and recommends mode switches. It holds no state beyond the
// table and never touches user memory.
package advisor

import (
	"strings"

	"github.com/antoniostano/zoey/internal/mode"
)

// confidenceNorm is the fixed normalization constant. The score is not
// clamped, so more than five matches yields a confidence above 1.0.
const confidenceNorm = 5

// Entry binds one mode to its trigger keywords. Table order is the
// tie-break order: with equal match counts the earlier entry wins.
type Entry struct {
	Mode     mode.ID
	Keywords []string
}

// Recommendation is the advisor's verdict for one message.
type Recommendation struct {
	ShouldSwitch    bool    `json:"should_switch"`
	RecommendedMode mode.ID `json:"recommended_mode"`
	Confidence      float64 `json:"confidence"`
}

type Advisor struct {
	table []Entry
}

// New builds an advisor over the given table. Keywords are matched
// case-insensitively as substrings, so they are lowered up front.
func New(table []Entry) *Advisor {
	entries := make([]Entry, 0, len(table))
	for _, e := range table {
		kws := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		entries = append(entries, Entry{Mode: e.Mode, Keywords: kws})
	}
	return &Advisor{table: entries}
}

// Default returns the built-in keyword table. THERAPIST carries no
// keywords and therefore is never recommended.
func Default() *Advisor {
	return New([]Entry{
		{Mode: mode.Doctor, Keywords: []string{"medicine", "symptoms", "pain", "medication", "doctor"}},
		{Mode: mode.Nutritionist, Keywords: []string{"food", "diet", "nutrition", "eating", "meal"}},
		{Mode: mode.Trainer, Keywords: []string{"exercise", "workout", "fitness", "training", "muscles"}},
		{Mode: mode.Sleep, Keywords: []string{"sleep", "tired", "rest", "insomnia", "nap"}},
		{Mode: mode.Meditation, Keywords: []string{"stress", "anxiety", "meditation", "relax", "calm"}},
	})
}

// Recommend scores the message against every mode and picks the one with
// the strictly highest keyword count. The current mode starts as the best
// candidate with a count of zero, so only a strictly better mode can win.
func (a *Advisor) Recommend(current mode.ID, message string) Recommendation {
	lower := strings.ToLower(message)

	bestMode := current
	bestCount := 0
	for _, e := range a.table {
		count := 0
		for _, kw := range e.Keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		if count > bestCount {
			bestMode = e.Mode
			bestCount = count
		}
	}

	return Recommendation{
		ShouldSwitch:    bestMode != current && bestCount > 0,
		RecommendedMode: bestMode,
		Confidence:      float64(bestCount) / confidenceNorm,
	}
}
