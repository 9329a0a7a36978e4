package track

import "math"

const deg = math.Pi / 180

func straight(length, grip, idealKMH float64) Segment {
	return Segment{Kind: KindStraight, Length: length, GripMultiplier: grip, IdealSpeed: idealKMH / 3.6}
}

// turn builds a corner from its arc length and swept angle; the radius
// follows from radius = length / angle.
func turn(kind Kind, length, sweepDeg, bankingDeg, camberDeg, grip, idealKMH float64, attack bool) Segment {
	return Segment{
		Kind:           kind,
		Length:         length,
		Radius:         length / (sweepDeg * deg),
		Banking:        bankingDeg * deg,
		Camber:         camberDeg * deg,
		GripMultiplier: grip,
		IdealSpeed:     idealKMH / 3.6,
		InAttackZone:   attack,
	}
}

func chicane(length, radius, camberDeg, grip, idealKMH float64) Segment {
	return Segment{
		Kind:           KindChicane,
		Length:         length,
		Radius:         radius,
		Camber:         camberDeg * deg,
		GripMultiplier: grip,
		IdealSpeed:     idealKMH / 3.6,
	}
}

// StreetCircuit returns the bundled 2.98 km street circuit: 17 turns in
// three sectors with two attack-mode zones. The left-hand sweeps total 670
// degrees against 310 degrees of right-handers, so the loop closes on one
// full counter-clockwise turn. Callers that want their own layout construct
// a Track from their own segment list instead.
func StreetCircuit() *Track {
	segments := []Segment{
		// Sector 1: start/finish through turn 5.
		straight(280, 1.00, 270),
		turn(KindLeftCorner, 55, 90, 0, 1, 0.93, 95, false),
		straight(90, 0.98, 200),
		turn(KindLeftCorner, 50, 75, 0, 1, 0.91, 88, false),
		straight(110, 0.97, 220),
		turn(KindRightCorner, 65, 60, 2, 1, 0.93, 98, false),
		straight(70, 0.96, 190),
		turn(KindLeftCorner, 60, 80, 0, 2, 0.92, 92, false),
		straight(85, 0.97, 210),
		turn(KindRightCorner, 55, 45, 0, 1, 0.91, 90, false),

		// Sector 2: technical mid-section, first attack zone at turn 6.
		straight(130, 0.98, 235),
		turn(KindLeftCorner, 70, 95, 3, 2, 0.94, 105, true),
		straight(95, 0.97, 215),
		turn(KindRightCorner, 75, 50, 0, 1, 0.93, 108, false),
		straight(105, 0.98, 225),
		turn(KindLeftCorner, 80, 70, 4, 2, 0.95, 112, false),
		chicane(65, 28, 1, 0.90, 82),
		straight(140, 0.98, 245),
		turn(KindRightCorner, 70, 40, 0, 2, 0.93, 100, false),
		straight(75, 0.96, 195),

		// Sector 3: final complex, second attack zone at turn 13.
		turn(KindLeftCorner, 85, 100, 5, 2, 0.95, 115, false),
		straight(125, 0.99, 240),
		turn(KindRightCorner, 60, 35, 0, 1, 0.92, 94, false),
		straight(80, 0.97, 205),
		turn(KindLeftCorner, 65, 85, 0, 1, 0.92, 96, true),
		straight(90, 0.97, 215),
		turn(KindRightCorner, 70, 45, 2, 2, 0.94, 102, false),
		straight(100, 0.98, 230),
		chicane(70, 30, 1, 0.91, 85),
		straight(110, 0.98, 235),
		turn(KindLeftCorner, 75, 75, 3, 2, 0.94, 106, false),
		turn(KindRightCorner, 55, 35, 0, 1, 0.91, 91, false),
		straight(170, 0.99, 265),
	}

	t, err := New(segments)
	if err != nil {
		// The bundled layout is fixed data; a failure here is a programming error.
		panic(err)
	}
	return t
}
