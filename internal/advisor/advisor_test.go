package advisor

import (
	"math"
	"testing"

	"github.com/antoniostano/zoey/internal/mode"
)

func TestRecommendSwitchToMeditation(t *testing.T) {
	a := Default()
	rec := a.Recommend(mode.Doctor, "I feel so much stress, meditation would help me relax")

	if !rec.ShouldSwitch {
		t.Fatalf("ShouldSwitch = false, want true")
	}
	if rec.RecommendedMode != mode.Meditation {
		t.Fatalf("RecommendedMode = %q, want %q", rec.RecommendedMode, mode.Meditation)
	}
	if math.Abs(rec.Confidence-0.6) > 1e-9 {
		t.Fatalf("Confidence = %v, want 0.6", rec.Confidence)
	}
}

func TestRecommendStaysOnCurrentModeWithoutMatches(t *testing.T) {
	a := Default()
	rec := a.Recommend(mode.Trainer, "hello there, how are you")

	if rec.ShouldSwitch {
		t.Fatalf("ShouldSwitch = true, want false")
	}
	if rec.RecommendedMode != mode.Trainer {
		t.Fatalf("RecommendedMode = %q, want current mode", rec.RecommendedMode)
	}
	if rec.Confidence != 0 {
		t.Fatalf("Confidence = %v, want 0", rec.Confidence)
	}
}

func TestRecommendDoesNotSwitchWhenCurrentModeWins(t *testing.T) {
	a := Default()
	rec := a.Recommend(mode.Trainer, "my workout and training felt great, muscles are sore")

	if rec.ShouldSwitch {
		t.Fatalf("ShouldSwitch = true, want false when best mode is current")
	}
	if rec.RecommendedMode != mode.Trainer {
		t.Fatalf("RecommendedMode = %q, want %q", rec.RecommendedMode, mode.Trainer)
	}
	if math.Abs(rec.Confidence-0.6) > 1e-9 {
		t.Fatalf("Confidence = %v, want 0.6", rec.Confidence)
	}
}

func TestRecommendBreaksTiesByTableOrder(t *testing.T) {
	a := Default()
	// One DOCTOR keyword and one SLEEP keyword: DOCTOR is declared first
	// and a tie never displaces the earlier candidate.
	rec := a.Recommend(mode.Meditation, "the pain keeps me from a good nap")

	if rec.RecommendedMode != mode.Doctor {
		t.Fatalf("RecommendedMode = %q, want %q", rec.RecommendedMode, mode.Doctor)
	}
	if !rec.ShouldSwitch {
		t.Fatalf("ShouldSwitch = false, want true")
	}
}

func TestRecommendConfidenceIsUnclamped(t *testing.T) {
	a := New([]Entry{{
		Mode:     mode.Sleep,
		Keywords: []string{"a", "b", "c", "d", "e", "f"},
	}})
	rec := a.Recommend(mode.Doctor, "abcdef")

	if rec.Confidence <= 1.0 {
		t.Fatalf("Confidence = %v, want > 1.0 for six matches", rec.Confidence)
	}
}

func TestRecommendIsCaseInsensitive(t *testing.T) {
	a := Default()
	rec := a.Recommend(mode.Doctor, "TOO MUCH STRESS TODAY")

	if rec.RecommendedMode != mode.Meditation {
		t.Fatalf("RecommendedMode = %q, want %q", rec.RecommendedMode, mode.Meditation)
	}
}
