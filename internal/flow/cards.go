package flow

// Card payloads attached to scripted responses. These mirror the shapes the
// client renders; the engine never inspects them.

// Exercise is one entry in a workout plan.
type Exercise struct {
	Name string `json:"name" yaml:"name"`
	Sets int    `json:"sets" yaml:"sets"`
	Reps string `json:"reps" yaml:"reps"`
	Rest string `json:"rest" yaml:"rest"`
	Icon string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// WorkoutPlan is a structured workout card.
type WorkoutPlan struct {
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Exercises   []Exercise `json:"exercises" yaml:"exercises"`
	Tips        []string   `json:"tips,omitempty" yaml:"tips,omitempty"`
}

// Medication is one scheduled medication.
type Medication struct {
	Name      string `json:"name" yaml:"name"`
	Dosage    string `json:"dosage" yaml:"dosage"`
	Time      string `json:"time" yaml:"time"`
	Frequency string `json:"frequency" yaml:"frequency"`
	WithFood  bool   `json:"with_food" yaml:"with_food"`
}

// MedicationSchedule is a medication schedule card.
type MedicationSchedule struct {
	Medications []Medication `json:"medications" yaml:"medications"`
}

// NutritionMacros holds macro nutrients in grams.
type NutritionMacros struct {
	Protein int `json:"protein" yaml:"protein"`
	Carbs   int `json:"carbs" yaml:"carbs"`
	Fats    int `json:"fats" yaml:"fats"`
	Fiber   int `json:"fiber" yaml:"fiber"`
}

// Micronutrient is a named micro nutrient amount.
type Micronutrient struct {
	Name   string `json:"name" yaml:"name"`
	Amount string `json:"amount" yaml:"amount"`
}

// NutritionLog is a meal breakdown card.
type NutritionLog struct {
	MealType       string          `json:"meal_type" yaml:"meal_type"`
	Timestamp      string          `json:"timestamp" yaml:"timestamp"`
	Calories       int             `json:"calories" yaml:"calories"`
	Macros         NutritionMacros `json:"macros" yaml:"macros"`
	Micronutrients []Micronutrient `json:"micronutrients,omitempty" yaml:"micronutrients,omitempty"`
}

// GuidedMeditation is a meditation session card. Duration and CurrentTime
// are seconds; Phase is one of intro, breathing, body, mind, closing.
type GuidedMeditation struct {
	Duration    int    `json:"duration" yaml:"duration"`
	CurrentTime int    `json:"current_time" yaml:"current_time"`
	Title       string `json:"title" yaml:"title"`
	Phase       string `json:"phase" yaml:"phase"`
	IsPlaying   bool   `json:"is_playing" yaml:"is_playing"`
}

// SleepStages holds per-interval intensity series for each sleep stage.
type SleepStages struct {
	Awake []float64 `json:"awake" yaml:"awake"`
	REM   []float64 `json:"rem" yaml:"rem"`
	Core  []float64 `json:"core" yaml:"core"`
	Deep  []float64 `json:"deep" yaml:"deep"`
}

// SleepDuration is total sleep time.
type SleepDuration struct {
	Hours   int `json:"hours" yaml:"hours"`
	Minutes int `json:"minutes" yaml:"minutes"`
}

// SleepInsight is one highlighted finding in a sleep analysis.
type SleepInsight struct {
	Title string `json:"title" yaml:"title"`
	Value string `json:"value" yaml:"value"`
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// SleepAnalysis is a nightly sleep report card.
type SleepAnalysis struct {
	Date        string         `json:"date" yaml:"date"`
	TotalSleep  SleepDuration  `json:"total_sleep" yaml:"total_sleep"`
	SleepStages SleepStages    `json:"sleep_stages" yaml:"sleep_stages"`
	TimeMarkers []string       `json:"time_markers,omitempty" yaml:"time_markers,omitempty"`
	SleepScore  int            `json:"sleep_score" yaml:"sleep_score"`
	Insights    []SleepInsight `json:"insights,omitempty" yaml:"insights,omitempty"`
}

// Product is one shopping recommendation.
type Product struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Price       float64 `json:"price" yaml:"price"`
	Image       string  `json:"image,omitempty" yaml:"image,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// ProductCollection is a shopping card.
type ProductCollection struct {
	Title    string    `json:"title" yaml:"title"`
	Products []Product `json:"products" yaml:"products"`
}

// Activity is one scheduled activity in a day view.
type Activity struct {
	Time     string `json:"time" yaml:"time"`
	Activity string `json:"activity" yaml:"activity"`
	Duration int    `json:"duration" yaml:"duration"`
}

// Meeting is one calendar meeting in a day view.
type Meeting struct {
	ID           string   `json:"id" yaml:"id"`
	Title        string   `json:"title" yaml:"title"`
	StartTime    string   `json:"start_time" yaml:"start_time"`
	EndTime      string   `json:"end_time" yaml:"end_time"`
	Time         string   `json:"time" yaml:"time"`
	Duration     int      `json:"duration" yaml:"duration"`
	IsOnline     bool     `json:"is_online" yaml:"is_online"`
	Participants []string `json:"participants,omitempty" yaml:"participants,omitempty"`
}

// DaySchedule is a schedule view card.
type DaySchedule struct {
	Date       string     `json:"date" yaml:"date"`
	Activities []Activity `json:"activities,omitempty" yaml:"activities,omitempty"`
	Meetings   []Meeting  `json:"meetings,omitempty" yaml:"meetings,omitempty"`
}
