package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopTrack returns a minimal closed loop: a straight into a full-circle
// left-hander.
func loopTrack(t *testing.T, straightLen, radius float64) *Track {
	t.Helper()
	trk, err := New([]Segment{
		{Kind: KindStraight, Length: straightLen, GripMultiplier: 1, IdealSpeed: 80},
		{Kind: KindLeftCorner, Length: 2 * math.Pi * radius, Radius: radius, GripMultiplier: 1, IdealSpeed: 25},
	})
	require.NoError(t, err)
	return trk
}

func TestNewValidation(t *testing.T) {
	t.Run("rejects empty segment list", func(t *testing.T) {
		_, err := New(nil)
		var badTrack *BadTrackError
		require.ErrorAs(t, err, &badTrack)
	})

	t.Run("rejects non-positive length", func(t *testing.T) {
		_, err := New([]Segment{{Kind: KindStraight, Length: 0, GripMultiplier: 1}})
		var badTrack *BadTrackError
		require.ErrorAs(t, err, &badTrack)
	})

	t.Run("rejects unclosed loop", func(t *testing.T) {
		// A quarter-turn cannot close.
		_, err := New([]Segment{
			{Kind: KindLeftCorner, Length: 50 * math.Pi / 2, Radius: 50, GripMultiplier: 1},
		})
		var badTrack *BadTrackError
		require.ErrorAs(t, err, &badTrack)
	})

	t.Run("rejects corner without radius", func(t *testing.T) {
		_, err := New([]Segment{{Kind: KindRightCorner, Length: 100, GripMultiplier: 1}})
		var badTrack *BadTrackError
		require.ErrorAs(t, err, &badTrack)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := New([]Segment{{Kind: "hairpin", Length: 100, GripMultiplier: 1}})
		var badTrack *BadTrackError
		require.ErrorAs(t, err, &badTrack)
	})

	t.Run("accepts pure straight loop", func(t *testing.T) {
		trk, err := New([]Segment{{Kind: KindStraight, Length: 1000, GripMultiplier: 1}})
		require.NoError(t, err)
		assert.Equal(t, 1000.0, trk.TotalLength())
	})
}

func TestSegmentAt(t *testing.T) {
	trk := loopTrack(t, 500, 50)

	seg, local := trk.SegmentAt(0)
	assert.Equal(t, KindStraight, seg.Kind)
	assert.Equal(t, 0.0, local)

	seg, local = trk.SegmentAt(499.5)
	assert.Equal(t, KindStraight, seg.Kind)
	assert.InDelta(t, 499.5, local, 1e-9)

	seg, local = trk.SegmentAt(510)
	assert.Equal(t, KindLeftCorner, seg.Kind)
	assert.InDelta(t, 10, local, 1e-9)

	// Wrapping in both directions.
	seg, _ = trk.SegmentAt(trk.TotalLength() + 5)
	assert.Equal(t, KindStraight, seg.Kind)
	seg, _ = trk.SegmentAt(-1)
	assert.Equal(t, KindLeftCorner, seg.Kind)
}

func TestGeometryIntegratesHeading(t *testing.T) {
	trk := loopTrack(t, 500, 50)

	// On the straight the heading stays flat and x tracks arc length.
	g := trk.GeometryAt(250)
	assert.InDelta(t, 250, g.X, 0.01)
	assert.InDelta(t, 0, g.Y, 0.01)
	assert.InDelta(t, 0, g.Heading, 1e-9)
	assert.Equal(t, 0.0, g.Curvature)

	// Halfway round the corner the heading has swept pi.
	g = trk.GeometryAt(500 + 50*math.Pi)
	assert.InDelta(t, math.Pi, g.Heading, 0.01)
	assert.InDelta(t, 1.0/50, g.Curvature, 1e-12)

	// Approaching the end of the lap the heading closes on a full turn.
	g = trk.GeometryAt(trk.TotalLength() - 0.5)
	assert.InDelta(t, 2*math.Pi, g.Heading, 0.05)
}

func TestChicaneCurvatureReverses(t *testing.T) {
	trk, err := New([]Segment{
		{Kind: KindStraight, Length: 200, GripMultiplier: 1},
		{Kind: KindChicane, Length: 60, Radius: 30, GripMultiplier: 1},
	})
	require.NoError(t, err)

	first := trk.GeometryAt(210).Curvature
	second := trk.GeometryAt(250).Curvature
	assert.Positive(t, first)
	assert.Negative(t, second)
	assert.InDelta(t, -first, second, 1e-12)
}

func TestCornerSpeedLimit(t *testing.T) {
	const g, vMax = 9.81, 89.44

	assert.Equal(t, vMax, CornerSpeedLimit(math.Inf(1), 1.2, 0, g, vMax))

	// Flat 50 m corner at mu 1.2.
	v := CornerSpeedLimit(50, 1.2, 0, g, vMax)
	assert.InDelta(t, 24.26, v, 0.01)

	// Banking raises the limit.
	banked := CornerSpeedLimit(50, 1.2, 0.1, g, vMax)
	assert.Greater(t, banked, v)

	// A degenerate hairpin requests a standstill, not NaN.
	assert.Equal(t, 0.0, CornerSpeedLimit(0, 1.2, 0, g, vMax))

	// Very large radii cap at vMax.
	assert.Equal(t, vMax, CornerSpeedLimit(1e9, 1.2, 0, g, vMax))
}

func TestStreetCircuit(t *testing.T) {
	trk := StreetCircuit()

	assert.InDelta(t, 2980, trk.TotalLength(), 0.5)

	// Two attack zones, discoverable through the segment catalog.
	zones := 0
	cum := 0.0
	for _, seg := range trk.Segments() {
		if seg.InAttackZone {
			zones++
			assert.True(t, trk.InAttackZone(cum+seg.Length/2))
		}
		cum += seg.Length
	}
	assert.Equal(t, 2, zones)
	assert.False(t, trk.InAttackZone(0))

	// All corners carry usable radii.
	for i, seg := range trk.Segments() {
		if seg.IsCorner() {
			assert.Greaterf(t, seg.Radius, 5.0, "segment %d", i)
			assert.Lessf(t, seg.Radius, 200.0, "segment %d", i)
		}
	}
}
