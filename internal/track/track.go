// Package track provides the immutable circuit descriptor and the
// arc-length geometry table used by the rest of the simulator.
//
// A track is an ordered, closed loop of segments. Construction validates the
// loop (positive lengths, heading closure) and precomputes two lookup
// structures: a cumulative-length table for O(log n) segment lookup, and a
// fixed-spacing geometry table mapping arc length to world position, heading,
// and signed curvature.
package track

import (
	"fmt"
	"math"
	"sort"
)

// Kind classifies a segment of the circuit.
type Kind string

const (
	KindStraight    Kind = "straight"
	KindLeftCorner  Kind = "left_corner"
	KindRightCorner Kind = "right_corner"
	KindChicane     Kind = "chicane"
)

// Segment is one element of the circuit. Radius is in metres and is
// infinite for straights; a zero or missing radius on a straight is
// normalised to +Inf at construction.
type Segment struct {
	Kind           Kind    `json:"kind"`
	Length         float64 `json:"length"`                // metres
	Radius         float64 `json:"radius,omitempty"`      // metres; 0 on straights = unbounded
	Banking        float64 `json:"banking"`               // radians
	Camber         float64 `json:"camber"`                // radians
	ElevationDelta float64 `json:"elevation_delta"`       // metres over the segment
	GripMultiplier float64 `json:"grip_multiplier"`       // 0.9-1.1
	IdealSpeed     float64 `json:"ideal_speed"`           // m/s
	InAttackZone   bool    `json:"in_attack_zone,omitempty"`
}

// GradientAngle returns the segment's slope angle in radians.
func (s Segment) GradientAngle() float64 {
	if s.Length <= 0 {
		return 0
	}
	return math.Atan(s.ElevationDelta / s.Length)
}

// IsCorner reports whether the segment constrains speed through curvature.
func (s Segment) IsCorner() bool { return s.Kind != KindStraight }

// BadTrackError is a construction-time track validation failure.
type BadTrackError struct {
	Reason string
}

func (e *BadTrackError) Error() string { return "bad track: " + e.Reason }

// Geometry is a point sample of the racing line.
type Geometry struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Heading   float64 `json:"heading"`   // radians, unwrapped
	Curvature float64 `json:"curvature"` // signed, 1/m; positive = left
}

// geomSpacing is the arc-length spacing of the geometry table in metres.
const geomSpacing = 1.0

// headingClosureTol is the permitted mismatch between the final heading and
// a whole number of turns when validating loop closure.
const headingClosureTol = 1e-3

// Track is the immutable circuit descriptor. All components hold it by
// shared reference for the lifetime of a simulation.
type Track struct {
	segments []Segment
	starts   []float64 // cumulative start distance of each segment
	total    float64
	geom     []Geometry // samples every geomSpacing metres, plus the closing point
}

// New validates the segment list and builds the lookup tables.
func New(segments []Segment) (*Track, error) {
	if len(segments) == 0 {
		return nil, &BadTrackError{Reason: "no segments"}
	}

	t := &Track{segments: make([]Segment, len(segments))}
	copy(t.segments, segments)

	headingTotal := 0.0
	for i := range t.segments {
		seg := &t.segments[i]
		if seg.Length <= 0 {
			return nil, &BadTrackError{Reason: fmt.Sprintf("segment %d: non-positive length %.3f", i, seg.Length)}
		}
		switch seg.Kind {
		case KindStraight:
			seg.Radius = math.Inf(1)
		case KindLeftCorner, KindRightCorner:
			if seg.Radius <= 0 {
				return nil, &BadTrackError{Reason: fmt.Sprintf("segment %d: corner with radius %.3f", i, seg.Radius)}
			}
			dtheta := seg.Length / seg.Radius
			if seg.Kind == KindRightCorner {
				dtheta = -dtheta
			}
			headingTotal += dtheta
		case KindChicane:
			if seg.Radius <= 0 {
				return nil, &BadTrackError{Reason: fmt.Sprintf("segment %d: chicane with radius %.3f", i, seg.Radius)}
			}
			// Two curvature reversals summing to zero net heading.
		default:
			return nil, &BadTrackError{Reason: fmt.Sprintf("segment %d: unknown kind %q", i, seg.Kind)}
		}

		t.starts = append(t.starts, t.total)
		t.total += seg.Length
	}

	// Closed-loop invariant: the integrated heading must come back to a
	// whole number of turns.
	if closure := math.Abs(math.Remainder(headingTotal, 2*math.Pi)); closure > headingClosureTol {
		return nil, &BadTrackError{Reason: fmt.Sprintf("loop does not close: final heading off by %.4f rad", closure)}
	}

	t.buildGeometry()
	return t, nil
}

// buildGeometry integrates heading along the segments and stores samples at
// fixed arc-length spacing. The final sample closes the loop at s = total.
func (t *Track) buildGeometry() {
	n := int(math.Ceil(t.total/geomSpacing)) + 1
	t.geom = make([]Geometry, 0, n)

	x, y, heading := 0.0, 0.0, 0.0
	for s := 0.0; s < t.total; s += geomSpacing {
		step := geomSpacing
		if s+step > t.total {
			step = t.total - s
		}
		kappa := t.curvatureAt(s)
		t.geom = append(t.geom, Geometry{X: x, Y: y, Heading: heading, Curvature: kappa})

		// Midpoint heading keeps the integrated line tight on arcs.
		mid := heading + kappa*step/2
		x += step * math.Cos(mid)
		y += step * math.Sin(mid)
		heading += kappa * step
	}
	t.geom = append(t.geom, Geometry{X: x, Y: y, Heading: heading, Curvature: t.curvatureAt(0)})
}

// curvatureAt returns the signed curvature of the racing line at arc length
// s. Chicanes flip sign at their midpoint so the two halves cancel.
func (t *Track) curvatureAt(s float64) float64 {
	seg, local := t.SegmentAt(s)
	switch seg.Kind {
	case KindLeftCorner:
		return 1 / seg.Radius
	case KindRightCorner:
		return -1 / seg.Radius
	case KindChicane:
		if local < seg.Length/2 {
			return 1 / seg.Radius
		}
		return -1 / seg.Radius
	default:
		return 0
	}
}

// TotalLength returns the lap length in metres.
func (t *Track) TotalLength() float64 { return t.total }

// Segments returns the segment catalog in track order.
func (t *Track) Segments() []Segment { return t.segments }

// wrap maps any arc length onto [0, total).
func (t *Track) wrap(s float64) float64 {
	s = math.Mod(s, t.total)
	if s < 0 {
		s += t.total
	}
	return s
}

// SegmentAt returns the segment containing arc length s and the local
// offset within it.
func (t *Track) SegmentAt(s float64) (Segment, float64) {
	s = t.wrap(s)
	// First segment whose start is beyond s, minus one.
	i := sort.SearchFloat64s(t.starts, s)
	if i == len(t.starts) || t.starts[i] > s {
		i--
	}
	return t.segments[i], s - t.starts[i]
}

// GeometryAt returns position, heading, and curvature at arc length s,
// linearly interpolated between table samples.
func (t *Track) GeometryAt(s float64) Geometry {
	s = t.wrap(s)
	i := int(s / geomSpacing)
	if i >= len(t.geom)-1 {
		i = len(t.geom) - 2
	}
	a, b := t.geom[i], t.geom[i+1]
	span := geomSpacing
	if i == len(t.geom)-2 {
		span = t.total - float64(i)*geomSpacing
	}
	frac := 0.0
	if span > 0 {
		frac = (s - float64(i)*geomSpacing) / span
	}
	return Geometry{
		X:         a.X + (b.X-a.X)*frac,
		Y:         a.Y + (b.Y-a.Y)*frac,
		Heading:   a.Heading + (b.Heading-a.Heading)*frac,
		Curvature: t.curvatureAt(s),
	}
}

// GripAt returns the surface grip multiplier at arc length s.
func (t *Track) GripAt(s float64) float64 {
	seg, _ := t.SegmentAt(s)
	return seg.GripMultiplier
}

// IdealSpeedAt returns the advisory speed for the segment at s.
func (t *Track) IdealSpeedAt(s float64) float64 {
	seg, _ := t.SegmentAt(s)
	return seg.IdealSpeed
}

// InAttackZone reports whether s lies inside an attack-mode activation zone.
func (t *Track) InAttackZone(s float64) bool {
	seg, _ := t.SegmentAt(s)
	return seg.InAttackZone
}

// CornerSpeedLimit returns the maximum cornering speed for the given radius,
// effective friction, and banking, capped at vMax. Gravity is passed in so
// the physics package stays the single owner of physical constants.
func CornerSpeedLimit(radius, muEff, banking, g, vMax float64) float64 {
	if math.IsInf(radius, 1) {
		return vMax
	}
	if radius < 0 {
		radius = 0
	}
	v := math.Sqrt(muEff * g * radius * (1 + 0.5*math.Tan(banking)))
	return math.Min(v, vMax)
}
