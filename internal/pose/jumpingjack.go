package pose

import "math"

const (
	phaseOpen   = "open"
	phaseClosed = "closed"

	movementNone     = "none"
	movementOpening  = "opening"
	movementClosing  = "closing"
	movementComplete = "complete"
)

// Jumping jack thresholds on the wrist-spread to shoulder-spread ratio.
// Arms count as open only when they are both spread and raised; the ratio
// band between jjCloseRatio and jjOpenRatio keeps the previous phase.
const (
	jjOpenRatio          = 1.8
	jjCloseRatio         = 1.5
	jjArmRaisedMargin    = 0.1
	jjRatioJumpThreshold = 0.3
	jjRequiredFrames     = 6
	jjCooldownFrames     = 20
)

type jumpingJackAnalyzer struct {
	count         int
	confirmed     string
	movementPhase string
	inOpen        bool
	lastArmRatio  float64
	deb           debounce
	cd            cooldown
}

func newJumpingJackAnalyzer() *jumpingJackAnalyzer {
	return &jumpingJackAnalyzer{
		confirmed:     phaseClosed,
		movementPhase: movementNone,
		deb:           newDebounce(phaseOpen, phaseClosed, jjRequiredFrames),
		cd:            newCooldown(jjCooldownFrames),
	}
}

func (a *jumpingJackAnalyzer) Type() Type { return TypeJumpingJack }

func (a *jumpingJackAnalyzer) Reset() {
	a.count = 0
	a.confirmed = phaseClosed
	a.movementPhase = movementNone
	a.inOpen = false
	a.lastArmRatio = 0
	a.deb.reset()
	a.cd.reset()
}

func (a *jumpingJackAnalyzer) visible(frame *Frame) bool {
	// both shoulders are mandatory, plus at least one wrist
	return frame.Visible(LeftShoulder, RightShoulder) &&
		frame.AnyVisible(LeftWrist, RightWrist)
}

func (a *jumpingJackAnalyzer) Analyze(frame *Frame) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failureResult(r, a.count, 0)
		}
	}()

	if !a.visible(frame) {
		return notVisibleResult(feedbackPoseNotVisibleUpper, a.count, 0)
	}

	shoulderDistance := Distance(frame[LeftShoulder], frame[RightShoulder])
	wristDistance := Distance(frame[LeftWrist], frame[RightWrist])
	armRatio := wristDistance / math.Max(shoulderDistance, 0.1)

	// jumping jacks require the arms overhead, not just spread apart
	leftArmRaised := frame[LeftWrist].Y < frame[LeftShoulder].Y-jjArmRaisedMargin
	rightArmRaised := frame[RightWrist].Y < frame[RightShoulder].Y-jjArmRaisedMargin
	armsRaised := leftArmRaised && rightArmRaised

	armsOpen := armRatio > jjOpenRatio && armsRaised

	// a huge ratio jump between two frames is detector noise, not motion
	smoothMovement := math.Abs(armRatio-a.lastArmRatio) < jjRatioJumpThreshold
	a.lastArmRatio = armRatio

	raw := a.classify(armRatio, armsOpen, smoothMovement)
	a.deb.observe(raw)
	confirmed := a.deb.confirm(a.confirmed)

	a.cd.tick()
	a.updateCount(a.confirmed, confirmed)
	a.confirmed = confirmed

	feedback := a.feedback(confirmed, armsRaised)
	score := a.score(confirmed, armsOpen, armsRaised)

	return Result{
		IsCorrect: true,
		Score:     score,
		Feedback:  feedback,
		Count:     a.count,
		Accuracy:  0.9,
		Details: Details{
			ArmRatio:      math.Round(armRatio*100) / 100,
			ArmsOpen:      armsOpen,
			ArmsRaised:    armsRaised,
			Phase:         confirmed,
			MovementPhase: a.movementPhase,
			Cooldown:      a.cd.remaining,
		},
	}
}

func (a *jumpingJackAnalyzer) classify(armRatio float64, armsOpen, smoothMovement bool) string {
	switch {
	case armsOpen && smoothMovement:
		return phaseOpen
	case armRatio < jjCloseRatio:
		return phaseClosed
	default:
		return a.confirmed
	}
}

// updateCount counts a jump only on a full cycle: the arms must reach the
// confirmed open phase before coming back down. A partial raise that never
// confirms open does not count.
func (a *jumpingJackAnalyzer) updateCount(previous, confirmed string) {
	if previous == confirmed {
		return
	}
	switch {
	case previous == phaseClosed && confirmed == phaseOpen:
		// a cycle blocked by the cooldown ends in the closing phase, so any
		// non-opening phase may start a fresh cycle here
		if a.movementPhase != movementOpening {
			a.movementPhase = movementOpening
			a.inOpen = true
		}
	case previous == phaseOpen && confirmed == phaseClosed:
		if a.movementPhase == movementOpening && a.inOpen {
			a.movementPhase = movementClosing
			a.inOpen = false
			if a.cd.ready() {
				a.count++
				a.cd.arm()
				a.movementPhase = movementComplete
			}
		}
	}
}

func (a *jumpingJackAnalyzer) feedback(confirmed string, armsRaised bool) string {
	if confirmed == phaseOpen {
		if a.movementPhase == movementOpening {
			return "arms open, now bring them back together"
		}
		return "hold the open position"
	}
	switch a.movementPhase {
	case movementClosing:
		return "nice, one full jumping jack done"
	case movementComplete:
		return "ready for the next jump"
	default:
		if !armsRaised {
			return "raise your arms above shoulder level"
		}
		return "jump and spread your arms"
	}
}

func (a *jumpingJackAnalyzer) score(confirmed string, armsOpen, armsRaised bool) int {
	if confirmed == phaseOpen {
		switch {
		case armsOpen && armsRaised:
			return 90
		case armsRaised:
			return 75
		default:
			return 65
		}
	}
	switch a.movementPhase {
	case movementComplete:
		return 85
	case movementClosing:
		return 80
	default:
		return 60
	}
}
