package pose

import (
	"errors"
	"fmt"
)

// Type is the exercise family an analyzer counts.
type Type string

const (
	TypeSquat       Type = "squat"
	TypePushup      Type = "pushup"
	TypePlank       Type = "plank"
	TypeJumpingJack Type = "jumping_jack"
)

var ErrUnknownExerciseType = errors.New("unknown exercise type")

// ParseType validates an exercise type token coming from the API.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeSquat, TypePushup, TypePlank, TypeJumpingJack:
		return Type(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExerciseType, s)
}

// Details carries the per-frame diagnostics of an analysis result. Which
// fields are set depends on the exercise.
type Details struct {
	KneeAngle            float64 `json:"kneeAngle,omitempty"`
	ArmAngle             float64 `json:"armAngle,omitempty"`
	ElbowAngle           float64 `json:"elbowAngle,omitempty"`
	ArmRatio             float64 `json:"armRatio,omitempty"`
	ArmsOpen             bool    `json:"armsOpen,omitempty"`
	ArmsRaised           bool    `json:"armsRaised,omitempty"`
	ElbowsUnderShoulders bool    `json:"elbowsUnderShoulders,omitempty"`
	Phase                string  `json:"phase,omitempty"`
	MovementPhase        string  `json:"movementPhase,omitempty"`
	StableFrames         int     `json:"stableFrames,omitempty"`
	Cooldown             int     `json:"cooldown"`
}

// Result is what a single Analyze call reports back to the caller. The
// caller always gets a structured result; a malformed frame never erases
// the progress accumulated so far.
type Result struct {
	IsCorrect       bool    `json:"isCorrect"`
	Score           int     `json:"score"`
	Feedback        string  `json:"feedback"`
	Count           int     `json:"count"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Accuracy        float64 `json:"accuracy,omitempty"`
	Details         Details `json:"details"`
	Error           string  `json:"error,omitempty"`
}

// Analyzer turns a stream of landmark frames into a repetition count (or a
// hold duration for plank), plus a form score and textual feedback.
//
// An analyzer owns mutable per-session state and must be fed frames
// sequentially; the caller guarantees mutual exclusion (one session, one
// frame at a time). Analyze itself is pure CPU work, no I/O.
type Analyzer interface {
	// Analyze classifies a single frame and updates counting state.
	Analyze(frame *Frame) Result
	// Reset zeroes all counters and accumulators. After a reset the
	// analyzer behaves exactly like a freshly constructed one.
	Reset()
	// Type returns the exercise family this analyzer counts.
	Type() Type
}

// New constructs an analyzer for the given exercise type. Unknown types are
// rejected at construction time, not silently mapped to a default exercise.
func New(t Type) (Analyzer, error) {
	switch t {
	case TypeSquat:
		return newSquatAnalyzer(), nil
	case TypePushup:
		return newPushupAnalyzer(), nil
	case TypePlank:
		return newPlankAnalyzer(), nil
	case TypeJumpingJack:
		return newJumpingJackAnalyzer(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownExerciseType, t)
}

const (
	feedbackPoseNotVisibleLower = "make sure your lower body is in the camera frame"
	feedbackPoseNotVisibleUpper = "make sure your upper body is in the camera frame"
	feedbackAnalysisFailed      = "analysis failed, please try again"
)

func notVisibleResult(feedback string, count int, duration float64) Result {
	return Result{
		Error:           "pose not visible",
		IsCorrect:       false,
		Score:           0,
		Feedback:        feedback,
		Count:           count,
		DurationSeconds: duration,
	}
}

func failureResult(r any, count int, duration float64) Result {
	return Result{
		Error:           fmt.Sprintf("analysis failed: %v", r),
		IsCorrect:       false,
		Score:           0,
		Feedback:        feedbackAnalysisFailed,
		Count:           count,
		DurationSeconds: duration,
	}
}

func clampScore(score, floor float64) int {
	if score < floor {
		score = floor
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}
