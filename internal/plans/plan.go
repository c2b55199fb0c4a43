package plans

import "time"

// Goal is a single target within a fitness plan, either a repetition
// target or a hold duration target depending on the exercise.
type Goal struct {
	Exercise              string  `json:"exercise"`
	TargetReps            int     `json:"targetReps,omitempty"`
	TargetDurationSeconds float64 `json:"targetDurationSeconds,omitempty"`
}

type Plan struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	DailyGoals  []Goal    `json:"dailyGoals"`
	WeeklyGoals []Goal    `json:"weeklyGoals"`
	GeneratedBy string    `json:"generatedBy,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
