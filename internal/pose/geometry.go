package pose

import "math"

// Angle returns the angle in degrees at vertex b, between the rays b->a and
// b->c. The cosine is clamped to [-1, 1] before acos to absorb floating
// point drift. A zero-length vector means the limb is visually degenerate;
// in that case the joint is assumed extended and 180 is returned, keeping
// the computation total.
func Angle(a, b, c Point) float64 {
	baX, baY := a.X-b.X, a.Y-b.Y
	bcX, bcY := c.X-b.X, c.Y-b.Y

	baLen := math.Sqrt(baX*baX + baY*baY)
	bcLen := math.Sqrt(bcX*bcX + bcY*bcY)
	if baLen == 0 || bcLen == 0 {
		return 180
	}

	cosAngle := (baX*bcX + baY*bcY) / (baLen * bcLen)
	cosAngle = math.Max(math.Min(cosAngle, 1), -1)

	return math.Acos(cosAngle) * 180 / math.Pi
}

// Distance returns the Euclidean distance between two landmarks in the image
// plane. Z is ignored, distance based features work on the 2D projection.
func Distance(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
