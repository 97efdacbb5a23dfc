package memory

import "github.com/antoniostano/zoey/internal/mode"

// cloneMemory deep-copies a user memory so callers can read it without
// holding the store lock.
func cloneMemory(m *UserMemory) *UserMemory {
	c := &UserMemory{
		UserID:          m.UserID,
		HealthMetrics:   cloneMetrics(m.HealthMetrics),
		UserPreferences: clonePreferences(m.UserPreferences),
		LastUpdated:     m.LastUpdated,
	}
	if m.ConversationHistory != nil {
		c.ConversationHistory = make([]ConversationTurn, len(m.ConversationHistory))
		copy(c.ConversationHistory, m.ConversationHistory)
	}
	c.ModeContexts = make(map[mode.ID]*ModeContext, len(m.ModeContexts))
	for id, ctx := range m.ModeContexts {
		c.ModeContexts[id] = cloneContext(ctx)
	}
	return c
}

func cloneContext(ctx *ModeContext) *ModeContext {
	c := &ModeContext{
		LastInteraction:   ctx.LastInteraction,
		FrequentTopics:    make(map[string]int, len(ctx.FrequentTopics)),
		CustomPreferences: make(map[string]string, len(ctx.CustomPreferences)),
	}
	for k, v := range ctx.FrequentTopics {
		c.FrequentTopics[k] = v
	}
	for k, v := range ctx.CustomPreferences {
		c.CustomPreferences[k] = v
	}
	if ctx.Insights != nil {
		c.Insights = make([]string, len(ctx.Insights))
		copy(c.Insights, ctx.Insights)
	}
	return c
}

func cloneMetrics(h HealthMetrics) HealthMetrics {
	c := h
	if h.Weight != nil {
		v := *h.Weight
		c.Weight = &v
	}
	if h.Height != nil {
		v := *h.Height
		c.Height = &v
	}
	if h.BloodPressure != nil {
		v := *h.BloodPressure
		c.BloodPressure = &v
	}
	if h.HeartRate != nil {
		v := *h.HeartRate
		c.HeartRate = &v
	}
	if h.SleepQuality != nil {
		v := *h.SleepQuality
		c.SleepQuality = &v
	}
	if h.StressLevel != nil {
		v := *h.StressLevel
		c.StressLevel = &v
	}
	return c
}

func clonePreferences(p UserPreferences) UserPreferences {
	c := p
	if p.Age != nil {
		v := *p.Age
		c.Age = &v
	}
	if p.DietaryRestrictions != nil {
		c.DietaryRestrictions = append([]string(nil), p.DietaryRestrictions...)
	}
	if p.FitnessGoals != nil {
		c.FitnessGoals = append([]string(nil), p.FitnessGoals...)
	}
	if p.SleepSchedule != nil {
		v := *p.SleepSchedule
		c.SleepSchedule = &v
	}
	if p.MeditationPreferences != nil {
		v := *p.MeditationPreferences
		v.PreferredTypes = append([]string(nil), p.MeditationPreferences.PreferredTypes...)
		c.MeditationPreferences = &v
	}
	if p.Medications != nil {
		c.Medications = append([]MedicationInfo(nil), p.Medications...)
	}
	return c
}
