package store

import (
	"encoding/json"
	"time"
)

// Conversation roles as persisted in agent_conversations.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Turn struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type ReasoningLog struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"user_id"`
	SessionID       string          `json:"session_id"`
	Steps           json.RawMessage `json:"steps"`
	TotalIterations int             `json:"total_iterations"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Medicine struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"medicine_name"`
	Dosage          string    `json:"dosage"`
	Frequency       string    `json:"frequency"`
	SideEffects     string    `json:"side_effects"`
	Purpose         string    `json:"purpose"`
	ReminderTimes   []string  `json:"reminder_times"`
	ReminderEnabled bool      `json:"reminder_enabled"`
	Notes           string    `json:"notes"`
	Active          bool      `json:"active"`
	AIGenerated     bool      `json:"ai_generated"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NutritionLog holds a free-form items object as logged by the client.
type NutritionLog struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Items     json.RawMessage `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

// DailyTracking is one calendar day of tracking. Date is YYYY-MM-DD.
type DailyTracking struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"user_id"`
	Date         string          `json:"date"`
	DietConsumed json.RawMessage `json:"diet_consumed,omitempty"`
	WorkoutDone  json.RawMessage `json:"workout_done,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type FoodLog struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	MealDate  string    `json:"meal_date"`
	Calories  float64   `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fats      float64   `json:"fats"`
	CreatedAt time.Time `json:"created_at"`
}

type WorkoutProgress struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"user_id"`
	WorkoutType  string          `json:"workout_type"`
	ProgressData json.RawMessage `json:"progress_data,omitempty"`
	Completed    bool            `json:"completed"`
	CreatedAt    time.Time       `json:"created_at"`
}

type MentalHealthLog struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	LogDate     string          `json:"log_date"`
	Score       int             `json:"score"`
	Category    string          `json:"category"`
	Notes       string          `json:"notes"`
	RoutineData json.RawMessage `json:"routine_data,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FitnessPlan is the single per-user plan row. Workout and diet sections
// are replaced independently.
type FitnessPlan struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	WorkoutPlan json.RawMessage `json:"workout_plan,omitempty"`
	DietPlan    json.RawMessage `json:"diet_plan,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Goal struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"plan_name"`
	Type        string    `json:"plan_type"`
	Target      string    `json:"target"`
	Timeline    string    `json:"timeline"`
	Milestones  []string  `json:"milestones"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	Description string    `json:"description"`
	AIGenerated bool      `json:"ai_generated"`
	CreatedAt   time.Time `json:"created_at"`
}
