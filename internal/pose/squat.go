package pose

import "math"

const (
	phaseUp   = "up"
	phaseDown = "down"
)

// Squat thresholds: the knee angle must drop below squatDownAngle to enter
// the down phase and rise above squatUpAngle to get back up. The band in
// between retains the previous phase so a signal hovering around a single
// threshold cannot toggle the phase every frame.
const (
	squatDownAngle      = 140.0
	squatUpAngle        = 150.0
	squatIdealDownAngle = 90.0
	squatRequiredFrames = 2
	squatCooldownFrames = 10
)

type squatAnalyzer struct {
	count     int
	confirmed string
	inSquat   bool
	deb       debounce
	cd        cooldown
}

func newSquatAnalyzer() *squatAnalyzer {
	return &squatAnalyzer{
		confirmed: phaseUp,
		deb:       newDebounce(phaseUp, phaseDown, squatRequiredFrames),
		cd:        newCooldown(squatCooldownFrames),
	}
}

func (a *squatAnalyzer) Type() Type { return TypeSquat }

func (a *squatAnalyzer) Reset() {
	a.count = 0
	a.confirmed = phaseUp
	a.inSquat = false
	a.deb.reset()
	a.cd.reset()
}

func (a *squatAnalyzer) visible(frame *Frame) bool {
	// at least one full side of hip + knee has to be detected
	leftVisible := frame.Visible(LeftHip, LeftKnee)
	rightVisible := frame.Visible(RightHip, RightKnee)
	return leftVisible || rightVisible
}

func (a *squatAnalyzer) Analyze(frame *Frame) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failureResult(r, a.count, 0)
		}
	}()

	if !a.visible(frame) {
		return notVisibleResult(feedbackPoseNotVisibleLower, a.count, 0)
	}

	// use the better detected side for the knee angle
	var kneeAngle float64
	leftVisibility := frame.VisibilitySum(LeftHip, LeftKnee, LeftAnkle)
	rightVisibility := frame.VisibilitySum(RightHip, RightKnee, RightAnkle)
	if leftVisibility > rightVisibility {
		kneeAngle = Angle(frame[LeftHip], frame[LeftKnee], frame[LeftAnkle])
	} else {
		kneeAngle = Angle(frame[RightHip], frame[RightKnee], frame[RightAnkle])
	}

	raw := a.classify(kneeAngle)
	a.deb.observe(raw)
	confirmed := a.deb.confirm(a.confirmed)

	a.cd.tick()
	a.updateCount(confirmed)
	a.confirmed = confirmed

	var feedback string
	var score int
	if confirmed == phaseDown {
		feedback = "good depth, now stand up to finish the rep"
		// the deeper the squat, the higher the score
		score = clampScore(100-math.Max(0, kneeAngle-squatIdealDownAngle), 70)
	} else {
		feedback = "standing position looks good, try squatting down"
		score = clampScore(kneeAngle, 70)
	}

	return Result{
		IsCorrect: true,
		Score:     score,
		Feedback:  feedback,
		Count:     a.count,
		Accuracy:  0.9,
		Details: Details{
			KneeAngle: math.Round(kneeAngle*10) / 10,
			Phase:     confirmed,
			Cooldown:  a.cd.remaining,
		},
	}
}

func (a *squatAnalyzer) classify(kneeAngle float64) string {
	switch {
	case kneeAngle < squatDownAngle:
		return phaseDown
	case kneeAngle > squatUpAngle:
		return phaseUp
	default:
		// hysteresis band, keep the previous phase
		return a.confirmed
	}
}

func (a *squatAnalyzer) updateCount(confirmed string) {
	if confirmed == a.confirmed {
		return
	}
	switch {
	case a.confirmed == phaseUp && confirmed == phaseDown:
		a.inSquat = true
	case a.confirmed == phaseDown && confirmed == phaseUp && a.inSquat:
		if a.cd.ready() {
			a.count++
			a.cd.arm()
		}
		a.inSquat = false
	}
}
