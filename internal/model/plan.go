package model

import "time"

// Exercise is one entry of a workout plan, stored in workout_plans.exercises.
type Exercise struct {
    Name        string     `json:"name"`
    Sets        int        `json:"sets,omitempty"`
    Reps        string     `json:"reps,omitempty"`
    Weight      string     `json:"weight,omitempty"`
    RestSeconds int        `json:"rest_seconds,omitempty"`
    Day         string     `json:"day,omitempty"`
    Notes       string     `json:"notes,omitempty"`
    Completed   bool       `json:"completed"`
    CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// WorkoutPlan mirrors the `workout_plans` table.
type WorkoutPlan struct {
    ID          string     `json:"id"`
    MemberID    string     `json:"member_id"`
    AuthorID    string     `json:"trainer_id"`
    Title       string     `json:"title"`
    Description string     `json:"description,omitempty"`
    Exercises   []Exercise `json:"exercises"`
    IsActive    bool       `json:"is_active"`
    CreatedAt   time.Time  `json:"created_at"`
    UpdatedAt   time.Time  `json:"updated_at"`
}

// Meal is one entry of a diet plan, stored in diet_plans.meals.
type Meal struct {
    Name     string   `json:"name"`
    Time     string   `json:"time,omitempty"`
    Foods    []string `json:"foods"`
    Calories int      `json:"calories,omitempty"`
    Notes    string   `json:"notes,omitempty"`
}

// DietPlan mirrors the `diet_plans` table.
type DietPlan struct {
    ID            string    `json:"id"`
    MemberID      string    `json:"member_id"`
    AuthorID      string    `json:"trainer_id"`
    Title         string    `json:"title"`
    Meals         []Meal    `json:"meals"`
    DailyCalories int       `json:"daily_calories,omitempty"`
    Notes         string    `json:"notes,omitempty"`
    IsActive      bool      `json:"is_active"`
    CreatedAt     time.Time `json:"created_at"`
    UpdatedAt     time.Time `json:"updated_at"`
}

// BodyMetrics is one measurement snapshot of a member.
type BodyMetrics struct {
    ID         string    `json:"id"`
    MemberID   string    `json:"member_id"`
    RecordedBy string    `json:"recorded_by"`
    Weight     *float64  `json:"weight,omitempty"`
    Height     *float64  `json:"height,omitempty"`
    BodyFat    *float64  `json:"body_fat,omitempty"`
    Chest      *float64  `json:"chest,omitempty"`
    Waist      *float64  `json:"waist,omitempty"`
    Hips       *float64  `json:"hips,omitempty"`
    Biceps     *float64  `json:"biceps,omitempty"`
    Thighs     *float64  `json:"thighs,omitempty"`
    Notes      string    `json:"notes,omitempty"`
    RecordedAt time.Time `json:"recorded_at"`
}
