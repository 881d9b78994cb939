// Package course generates the curved race course and maps race progress
// onto world positions.
package course

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Wave is one sine term of the course shape: y += Amplitude * sin(Frequency * x)
type Wave struct {
	Amplitude float64
	Frequency float64
}

type Params struct {
	Length        float64 // nominal length in world units
	RampDistance  float64 // straight launch segment
	DrivableWidth float64 // width shared by all lanes
	Step          float64 // distance between waypoints on the x axis
	Waves         []Wave  // at least two terms
}

// Pose is a world position with heading in degrees (0 = along +x)
type Pose struct {
	X       float64
	Y       float64
	Heading float64
}

// Course is immutable after Generate
type Course struct {
	params   Params
	points   []mgl64.Vec2
	tangents []mgl64.Vec2 // unit tangent per waypoint
}

// DefaultWaves are the two sine terms used unless configured otherwise
func DefaultWaves() []Wave {
	return []Wave{
		{Amplitude: 200, Frequency: 0.002},
		{Amplitude: 100, Frequency: 0.005},
	}
}

func DefaultParams() Params {
	return Params{
		Length:        15000,
		RampDistance:  1500,
		DrivableWidth: 300,
		Step:          50,
		Waves:         DefaultWaves(),
	}
}

// Generate builds waypoints every Step units starting at x=0 up to Length.
// Malformed params are corrected: missing waves use the defaults, a non positive
// step or length falls back to the default values.
func Generate(p Params) *Course {
	p = sanitize(p)
	n := int(math.Floor(p.Length/p.Step)) + 1
	if n < 2 {
		n = 2
	}
	points := make([]mgl64.Vec2, n)
	for i := range n {
		x := float64(i) * p.Step
		points[i] = mgl64.Vec2{x, displacement(p, x)}
	}
	return &Course{params: p, points: points, tangents: vertexTangents(points)}
}

// vertexTangents averages the adjacent segment directions so headings and lane
// offsets do not jump at waypoints
func vertexTangents(points []mgl64.Vec2) []mgl64.Vec2 {
	last := len(points) - 1
	ret := make([]mgl64.Vec2, len(points))
	for i := range points {
		a, b := max(i-1, 0), min(i+1, last)
		ret[i] = points[b].Sub(points[a]).Normalize()
	}
	return ret
}

func sanitize(p Params) Params {
	d := DefaultParams()
	if p.Length <= 0 || math.IsNaN(p.Length) {
		p.Length = d.Length
	}
	if p.Step <= 0 || math.IsNaN(p.Step) {
		p.Step = d.Step
	}
	if p.RampDistance < 0 || math.IsNaN(p.RampDistance) {
		p.RampDistance = 0
	}
	if p.DrivableWidth < 0 || math.IsNaN(p.DrivableWidth) {
		p.DrivableWidth = d.DrivableWidth
	}
	if len(p.Waves) < 2 {
		p.Waves = d.Waves
	} else {
		p.Waves = append([]Wave(nil), p.Waves...)
	}
	return p
}

// displacement is the perpendicular offset at x, attenuated near the start
func displacement(p Params, x float64) float64 {
	y := 0.0
	for _, w := range p.Waves {
		y += w.Amplitude * math.Sin(w.Frequency*x)
	}
	return ramp(p.RampDistance, x) * y
}

func ramp(distance, x float64) float64 {
	if distance <= 0 {
		return 1
	}
	return math.Min(1, x/distance)
}

// PositionAt maps progress in [0,1] onto the world position of lane.
// Progress outside [0,1] is clamped, laneCount <= 0 is treated as one lane.
func (c *Course) PositionAt(progress float64, lane, laneCount int) Pose {
	if math.IsNaN(progress) {
		progress = 0
	}
	progress = mgl64.Clamp(progress, 0, 1)
	if laneCount <= 0 {
		laneCount = 1
	}
	last := len(c.points) - 1
	fi := progress * float64(last)
	i := min(int(fi), last-1)
	t := fi - float64(i)

	p1, p2 := c.points[i], c.points[i+1]
	pos := p1.Add(p2.Sub(p1).Mul(t))
	tangent := c.tangents[i].Mul(1 - t).Add(c.tangents[i+1].Mul(t))
	angle := math.Atan2(tangent.Y(), tangent.X())

	laneWidth := c.params.DrivableWidth / float64(laneCount)
	offset := (float64(lane) - float64(laneCount)/2) * laneWidth
	normal := mgl64.Vec2{-math.Sin(angle), math.Cos(angle)}
	pos = pos.Add(normal.Mul(offset))

	return Pose{X: pos.X(), Y: pos.Y(), Heading: mgl64.RadToDeg(angle)}
}

// ProgressDistance converts world units into a progress fraction
func (c *Course) ProgressDistance(units float64) float64 {
	return units / c.params.Length
}

func (c *Course) Length() float64 {
	return c.params.Length
}

func (c *Course) DrivableWidth() float64 {
	return c.params.DrivableWidth
}

// Points returns a copy of the waypoints
func (c *Course) Points() []mgl64.Vec2 {
	return append([]mgl64.Vec2(nil), c.points...)
}

// Bounds returns the axis aligned box containing all waypoints
func (c *Course) Bounds() (lo, hi mgl64.Vec2) {
	lo, hi = c.points[0], c.points[0]
	for _, p := range c.points[1:] {
		lo = mgl64.Vec2{math.Min(lo.X(), p.X()), math.Min(lo.Y(), p.Y())}
		hi = mgl64.Vec2{math.Max(hi.X(), p.X()), math.Max(hi.Y(), p.Y())}
	}
	return lo, hi
}
