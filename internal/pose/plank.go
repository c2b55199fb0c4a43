package pose

import (
	"fmt"
	"math"
)

// Plank is a continuous hold, not a rep cycle. A frame qualifies when the
// elbows are bent past plankElbowAngle and positioned under the shoulders.
// The hold timer starts only after plankMinStableFrames qualifying frames,
// and up to plankMaxUnstableFrames of detector noise are tolerated without
// resetting the accumulated duration.
const (
	plankElbowAngle        = 120.0
	plankMinStableFrames   = 10
	plankMaxUnstableFrames = 5
	plankFrameRate         = 30.0
)

type plankAnalyzer struct {
	holdFrames     int
	stableFrames   int
	unstableFrames int
	inPlank        bool
}

func newPlankAnalyzer() *plankAnalyzer {
	return &plankAnalyzer{}
}

func (a *plankAnalyzer) Type() Type { return TypePlank }

func (a *plankAnalyzer) Reset() {
	a.holdFrames = 0
	a.stableFrames = 0
	a.unstableFrames = 0
	a.inPlank = false
}

// duration reports the accumulated hold time in seconds, rounded to one
// decimal so every result path reports the same value.
func (a *plankAnalyzer) duration() float64 {
	seconds := float64(a.holdFrames) / plankFrameRate
	return math.Round(seconds*10) / 10
}

func (a *plankAnalyzer) visible(frame *Frame) bool {
	leftVisible := frame.Visible(LeftShoulder, LeftElbow)
	rightVisible := frame.Visible(RightShoulder, RightElbow)
	return leftVisible || rightVisible
}

func (a *plankAnalyzer) Analyze(frame *Frame) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failureResult(r, 0, a.duration())
		}
	}()

	if !a.visible(frame) {
		return notVisibleResult(feedbackPoseNotVisibleUpper, 0, a.duration())
	}

	// the elbow bend is measured against a vertical reference point below
	// each elbow
	leftElbowAngle := Angle(
		frame[LeftShoulder],
		frame[LeftElbow],
		Point{X: frame[LeftElbow].X, Y: frame[LeftElbow].Y + 0.1},
	)
	rightElbowAngle := Angle(
		frame[RightShoulder],
		frame[RightElbow],
		Point{X: frame[RightElbow].X, Y: frame[RightElbow].Y + 0.1},
	)
	avgElbowAngle := (leftElbowAngle + rightElbowAngle) / 2

	elbowsUnderShoulders := frame[LeftElbow].Y > frame[LeftShoulder].Y &&
		frame[RightElbow].Y > frame[RightShoulder].Y

	correctForm := avgElbowAngle < plankElbowAngle && elbowsUnderShoulders

	if correctForm {
		a.stableFrames++
		a.unstableFrames = 0
		if a.stableFrames >= plankMinStableFrames {
			a.inPlank = true
			a.holdFrames++
		}
	} else {
		a.unstableFrames++
		// brief instability is tolerated; only sustained bad form eats
		// into the stability counter, and never resets it to zero
		if a.unstableFrames > plankMaxUnstableFrames {
			if a.stableFrames > 0 {
				a.stableFrames--
			}
			if a.stableFrames < plankMinStableFrames/3 {
				a.inPlank = false
			}
		}
	}

	score := 60
	if correctForm {
		score = 80
	}

	return Result{
		IsCorrect:       true,
		Score:           score,
		Feedback:        a.feedback(correctForm, avgElbowAngle, elbowsUnderShoulders),
		DurationSeconds: a.duration(),
		Accuracy:        0.9,
		Details: Details{
			ElbowAngle:           math.Round(avgElbowAngle*10) / 10,
			ElbowsUnderShoulders: elbowsUnderShoulders,
			StableFrames:         a.stableFrames,
		},
	}
}

func (a *plankAnalyzer) feedback(correctForm bool, elbowAngle float64, elbowsUnderShoulders bool) string {
	if !correctForm {
		if elbowAngle >= plankElbowAngle {
			return "bend your elbows to support the plank"
		}
		if !elbowsUnderShoulders {
			return "place your elbows under your shoulders"
		}
	}

	if a.stableFrames < plankMinStableFrames {
		return fmt.Sprintf("hold steady, %d more frames to go", plankMinStableFrames-a.stableFrames)
	}

	seconds := a.duration()
	switch {
	case seconds < 10:
		return fmt.Sprintf("good form, %.1f seconds held", seconds)
	case seconds < 30:
		return fmt.Sprintf("well done, %.1f seconds held", seconds)
	default:
		return fmt.Sprintf("excellent, %.1f seconds held", seconds)
	}
}
