package workout

import (
	"time"

	"github.com/fitmotion/fitmotion/internal/pose"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Session is one continuous stretch of a user exercising in front of the
// camera. While active it lives in memory together with its analyzer;
// the database row is updated when the session ends.
type Session struct {
	ID              string     `json:"id"`
	UserID          int        `json:"userId"`
	ExerciseType    pose.Type  `json:"exerciseType"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	TotalFrames     int        `json:"totalFrames"`
	CorrectFrames   int        `json:"correctFrames"`
	Reps            int        `json:"reps"`
	DurationSeconds float64    `json:"durationSeconds,omitempty"`
	AvgScore        float64    `json:"avgScore"`
	Status          Status     `json:"status"`
}

// Accuracy is the share of analyzed frames with correct form, in percent.
func (s *Session) Accuracy() float64 {
	if s.TotalFrames == 0 {
		return 0
	}
	return float64(s.CorrectFrames) / float64(s.TotalFrames) * 100
}
