package pose

// Landmark indices follow the MediaPipe pose convention: the detector emits
// a fixed array of 33 body points per video frame, and the position in the
// array is the joint identity.
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28

	NumLandmarks = 33
)

// MinDetectionConfidence is the visibility threshold below which a landmark
// is treated as not detected.
const MinDetectionConfidence = 0.5

// Point is a single body landmark in normalized image coordinates,
// with a per-point detection confidence in [0, 1].
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame holds the 33 landmarks of a single video frame.
// The engine never mutates a frame.
type Frame [NumLandmarks]Point

// Visible reports whether all given landmarks meet the confidence threshold.
func (f *Frame) Visible(indices ...int) bool {
	for _, idx := range indices {
		if idx < 0 || idx >= NumLandmarks {
			return false
		}
		if f[idx].Visibility < MinDetectionConfidence {
			return false
		}
	}
	return true
}

// AnyVisible reports whether at least one of the given landmarks meets the
// confidence threshold.
func (f *Frame) AnyVisible(indices ...int) bool {
	for _, idx := range indices {
		if idx >= 0 && idx < NumLandmarks && f[idx].Visibility >= MinDetectionConfidence {
			return true
		}
	}
	return false
}

// VisibilitySum adds up the confidence of the given landmarks. Used to pick
// the better detected body side.
func (f *Frame) VisibilitySum(indices ...int) float64 {
	var sum float64
	for _, idx := range indices {
		if idx >= 0 && idx < NumLandmarks {
			sum += f[idx].Visibility
		}
	}
	return sum
}
