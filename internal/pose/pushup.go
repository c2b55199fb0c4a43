package pose

import "math"

// Push-up thresholds on the shoulder-elbow-wrist arm angle. The band
// between the two keeps the previous phase.
const (
	pushupDownAngle      = 115.0
	pushupUpAngle        = 155.0
	pushupIdealDownAngle = 90.0
	pushupRequiredFrames = 5
	pushupCooldownFrames = 15
)

type pushupAnalyzer struct {
	count     int
	confirmed string
	inDown    bool
	deb       debounce
	cd        cooldown
}

func newPushupAnalyzer() *pushupAnalyzer {
	return &pushupAnalyzer{
		confirmed: phaseUp,
		deb:       newDebounce(phaseUp, phaseDown, pushupRequiredFrames),
		cd:        newCooldown(pushupCooldownFrames),
	}
}

func (a *pushupAnalyzer) Type() Type { return TypePushup }

func (a *pushupAnalyzer) Reset() {
	a.count = 0
	a.confirmed = phaseUp
	a.inDown = false
	a.deb.reset()
	a.cd.reset()
}

func (a *pushupAnalyzer) visible(frame *Frame) bool {
	leftVisible := frame.Visible(LeftShoulder, LeftElbow)
	rightVisible := frame.Visible(RightShoulder, RightElbow)
	return leftVisible || rightVisible
}

// armAngle averages the shoulder-elbow-wrist angle over the sides whose
// wrist is detected. With no wrist visible at all the arm is assumed
// extended.
func (a *pushupAnalyzer) armAngle(frame *Frame) float64 {
	var angles []float64
	if frame.Visible(LeftShoulder, LeftElbow, LeftWrist) {
		angles = append(angles, Angle(frame[LeftShoulder], frame[LeftElbow], frame[LeftWrist]))
	}
	if frame.Visible(RightShoulder, RightElbow, RightWrist) {
		angles = append(angles, Angle(frame[RightShoulder], frame[RightElbow], frame[RightWrist]))
	}
	if len(angles) == 0 {
		return 180
	}

	var sum float64
	for _, angle := range angles {
		sum += angle
	}
	return sum / float64(len(angles))
}

func (a *pushupAnalyzer) Analyze(frame *Frame) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failureResult(r, a.count, 0)
		}
	}()

	if !a.visible(frame) {
		return notVisibleResult(feedbackPoseNotVisibleUpper, a.count, 0)
	}

	armAngle := a.armAngle(frame)

	raw := a.classify(armAngle)
	a.deb.observe(raw)
	confirmed := a.deb.confirm(a.confirmed)

	a.cd.tick()
	a.updateCount(confirmed)
	a.confirmed = confirmed

	var feedback string
	var score int
	if confirmed == phaseDown {
		feedback = "good, now push back up"
		score = clampScore(100-math.Max(0, armAngle-pushupIdealDownAngle), 60)
	} else {
		feedback = "arms extended, lower yourself down"
		score = clampScore(armAngle, 60)
	}

	return Result{
		IsCorrect: true,
		Score:     score,
		Feedback:  feedback,
		Count:     a.count,
		Accuracy:  0.9,
		Details: Details{
			ArmAngle: math.Round(armAngle*10) / 10,
			Phase:    confirmed,
			Cooldown: a.cd.remaining,
		},
	}
}

func (a *pushupAnalyzer) classify(armAngle float64) string {
	switch {
	case armAngle < pushupDownAngle:
		return phaseDown
	case armAngle > pushupUpAngle:
		return phaseUp
	default:
		return a.confirmed
	}
}

func (a *pushupAnalyzer) updateCount(confirmed string) {
	if confirmed == a.confirmed {
		return
	}
	switch {
	case a.confirmed == phaseUp && confirmed == phaseDown:
		a.inDown = true
	case a.confirmed == phaseDown && confirmed == phaseUp && a.inDown:
		if a.cd.ready() {
			a.count++
			a.cd.arm()
		}
		a.inDown = false
	}
}
