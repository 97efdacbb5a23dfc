package flow

import (
	"time"

	"github.com/antoniostano/zoey/internal/mode"
)

// defaultReset closes out a finished script and restarts it.
var defaultReset = ScriptedResponse{
	Text:  "Let's start a new conversation. How can I help you today?",
	Delay: time.Second,
}

// DefaultRegistry returns the built-in demo flows. Deployments can replace
// or extend them with a YAML file (see Load).
func DefaultRegistry() *Registry {
	return NewRegistry(map[mode.ID]Flow{
		mode.Doctor: {
			Intro:    "You were supposed to take Cetirizine at 8pm post dinner did you take it? 👨‍⚕️",
			Keywords: []string{"medicine", "symptoms", "pain", "medication", "doctor"},
			Responses: []ScriptedResponse{
				{
					Text:  "How are your symptoms today?",
					Delay: time.Second,
				},
				{
					Text:  "That's great to hear! The medication seems to be working. Any side effects like drowsiness?",
					Delay: 1500 * time.Millisecond,
				},
				{
					Text:  "Perfect! Let's continue with the current dosage. Remember to take it at the same time tomorrow. Would you like me to set a reminder for you?",
					Delay: 2 * time.Second,
				},
				{
					Text:  "Here's your updated medication schedule:",
					Delay: 2 * time.Second,
					MedicationSchedule: &MedicationSchedule{
						Medications: []Medication{
							{Name: "Cetirizine", Dosage: "10mg", Time: "20:00", Frequency: "Daily", WithFood: true},
							{Name: "Vitamin D3", Dosage: "2000 IU", Time: "08:00", Frequency: "Daily", WithFood: true},
							{Name: "Omega-3", Dosage: "1000mg", Time: "13:00", Frequency: "Daily", WithFood: true},
						},
					},
				},
			},
		},
		mode.Nutritionist: {
			Intro:    "Welcome! I'm here to help you make healthy food choices. What would you like to know about your nutrition today? 🥗",
			Keywords: []string{"food", "diet", "nutrition", "eating", "meal"},
			Responses: []ScriptedResponse{
				{
					Text:  "That looks like a healthy and balanced snack choice! Let me analyze the nutritional content for you.",
					Delay: time.Second,
				},
				{
					Text:  "Here's the nutritional breakdown of your snack:",
					Delay: 1500 * time.Millisecond,
					NutritionLog: &NutritionLog{
						MealType:  "Afternoon Snack",
						Timestamp: "16:45",
						Calories:  185,
						Macros:    NutritionMacros{Protein: 8, Carbs: 22, Fats: 6, Fiber: 4},
						Micronutrients: []Micronutrient{
							{Name: "Vitamin A", Amount: "120mcg"},
							{Name: "Vitamin C", Amount: "15mg"},
							{Name: "Calcium", Amount: "80mg"},
							{Name: "Iron", Amount: "1.2mg"},
							{Name: "Potassium", Amount: "250mg"},
						},
					},
				},
				{
					Text:  "This is a great choice for a snack! The combination of protein and fiber will help keep you satisfied. Would you like some suggestions for your next meal?",
					Delay: 2 * time.Second,
				},
			},
		},
		mode.Therapist: {
			Intro: "Hi! This is a safe space to share your thoughts and feelings. How are you feeling today? 💭",
			Responses: []ScriptedResponse{
				{
					Text:  "I understand presentations can be nerve-wracking. Let's break this down - what specific aspects of the presentation are making you feel anxious?",
					Delay: 1500 * time.Millisecond,
				},
				{
					Text:  "That's a common concern. Have you prepared any strategies to help you remember your key points? We could work on some memory techniques and confidence-building exercises together.",
					Delay: 2 * time.Second,
				},
				{
					Text:  "Here's a quick grounding exercise we can try: Take 3 deep breaths, and on each exhale, remind yourself of one thing you know really well about your presentation topic.",
					Delay: 3 * time.Second,
				},
			},
		},
		mode.Trainer: {
			Intro:    "Ready to crush your fitness goals! What type of workout would you like to do today? 💪",
			Keywords: []string{"exercise", "workout", "fitness", "training", "muscles"},
			Responses: []ScriptedResponse{
				{
					Text:  "I've got the perfect leg workout for you! This will target all major muscle groups in your legs:",
					Delay: time.Second,
				},
				{
					Text:  "WORKOUT_TEMPLATE",
					Delay: 1500 * time.Millisecond,
					WorkoutPlan: &WorkoutPlan{
						Title:       "Lower Body Power",
						Description: "A comprehensive leg workout targeting all major muscle groups",
						Exercises: []Exercise{
							{Name: "Squats", Sets: 4, Reps: "12", Rest: "60 sec", Icon: "chevrons-down"},
							{Name: "Romanian Deadlifts", Sets: 3, Reps: "12", Rest: "60 sec", Icon: "arrow-up"},
							{Name: "Walking Lunges", Sets: 3, Reps: "20", Rest: "45 sec", Icon: "chevrons-right"},
						},
						Tips: []string{"Keep proper form", "Stay hydrated", "Rest between sets"},
					},
				},
				{
					Text:  "How does this workout look? We can adjust the intensity if needed.",
					Delay: 2 * time.Second,
				},
			},
		},
		mode.Sleep: {
			Intro:    "Let's work on improving your sleep quality. How can I help you get better rest? 😴",
			Keywords: []string{"sleep", "tired", "rest", "insomnia", "nap"},
			Responses: []ScriptedResponse{
				{
					Text:  "I'll analyze your sleep data from yesterday. Here's what I found:",
					Delay: time.Second,
				},
				{
					Text:  "Here's your detailed sleep analysis:",
					Delay: 1500 * time.Millisecond,
					SleepAnalysis: &SleepAnalysis{
						Date:       "14 Apr 2025",
						TotalSleep: SleepDuration{Hours: 4, Minutes: 35},
						SleepStages: SleepStages{
							Awake: []float64{0, 0, 0, 0.8, 0, 0, 0, 0.6, 0.9, 0.7, 0.3},
							REM:   []float64{0, 0, 0, 0, 0, 0.9, 0, 0, 0, 0, 0},
							Core:  []float64{0.6, 0.8, 0.9, 0, 0, 0, 0, 0, 0, 0, 0},
							Deep:  []float64{0, 0.7, 0, 0, 0, 0, 0, 0, 0, 0, 0},
						},
						TimeMarkers: []string{"8 AM", "10 AM", "12 PM", "2 PM"},
						SleepScore:  65,
						Insights: []SleepInsight{
							{Title: "Sleep Continuity", Value: "Multiple interruptions detected during your sleep", Icon: "activity"},
							{Title: "Deep Sleep", Value: "Only 45 minutes of deep sleep recorded", Icon: "moon"},
							{Title: "Sleep Schedule", Value: "Irregular sleep pattern detected", Icon: "clock"},
						},
					},
				},
				{
					Text: "Based on your sleep patterns, here are some recommendations to improve your sleep quality:\n\n" +
						"1. 🌙 Try to maintain a consistent sleep schedule\n" +
						"2. 📱 Avoid screen time 1 hour before bed\n" +
						"3. 🏃‍♂️ Consider light exercise in the morning\n" +
						"4. 🌡️ Keep your bedroom cool (around 65-68°F)\n" +
						"5. ⏰ Aim to get to bed by 10:30 PM for optimal rest\n\n" +
						"Would you like me to set up a bedtime reminder for you?",
					Delay: 2 * time.Second,
				},
			},
		},
		mode.Meditation: {
			Intro:    "Welcome to your mindfulness session. How would you like to center yourself today? 🧘‍♀️",
			Keywords: []string{"stress", "anxiety", "meditation", "relax", "calm"},
			Responses: []ScriptedResponse{
				{
					Text:  "I'll guide you through a calming meditation session. Find a comfortable position and let's begin when you're ready.",
					Delay: time.Second,
				},
				{
					Text:  "Starting your guided meditation session:",
					Delay: 1500 * time.Millisecond,
					GuidedMeditation: &GuidedMeditation{
						Duration:    600,
						CurrentTime: 30,
						Title:       "Mindful Relaxation",
						Phase:       "breathing",
						IsPlaying:   true,
					},
				},
				{
					Text:  "How do you feel? Would you like to try another meditation or perhaps a different mindfulness exercise?",
					Delay: 2 * time.Second,
				},
			},
		},
	})
}
