package race

// StandingsEntry is one row of the leaderboard.
type StandingsEntry struct {
	Position       int     `json:"position"`
	CarID          int     `json:"car_id"`
	Driver         string  `json:"driver"`
	CurrentLap     int     `json:"current_lap"`
	Interval       float64 `json:"interval"`      // seconds behind the car ahead
	GapToLeader    float64 `json:"gap_to_leader"` // seconds behind the leader
	LastLapTime    float64 `json:"last_lap_time"`
	BestLapTime    float64 `json:"best_lap_time"`
	SpeedKMH       float64 `json:"speed_kmh"`
	BatteryPct     float64 `json:"battery_pct"`
	TireWear       float64 `json:"tire_wear"`
	AttackActive   bool    `json:"attack_active"`
	AttackUsesLeft int     `json:"attack_uses_left"`
	OvertakesMade  int     `json:"overtakes_made"`
	Running        bool    `json:"running"`
	DNFReason      string  `json:"dnf_reason,omitempty"`
}

// StandingsSnapshot is an immutable leaderboard view suitable for
// presentation.
type StandingsSnapshot struct {
	Entries          []StandingsEntry `json:"entries"`
	FastestLap       float64          `json:"fastest_lap,omitempty"`
	FastestLapDriver string           `json:"fastest_lap_driver,omitempty"`
}

// Standings builds the leaderboard from the current race state: active cars
// by rank, then retired cars in the order they held when they stopped.
func Standings(s *State, batteryCapacity float64) StandingsSnapshot {
	ordered := byRoadPosition(s.Cars)

	snap := StandingsSnapshot{Entries: make([]StandingsEntry, 0, len(ordered))}

	for rank, c := range ordered {
		entry := StandingsEntry{
			Position:       rank + 1,
			CarID:          c.ID,
			Driver:         c.Driver.Name,
			CurrentLap:     c.CurrentLap,
			Interval:       c.GapToAhead,
			GapToLeader:    c.GapToLeader,
			LastLapTime:    c.LastLapTime,
			BestLapTime:    c.BestLapTime,
			SpeedKMH:       c.SpeedKMH(),
			BatteryPct:     c.BatteryPct(batteryCapacity),
			TireWear:       c.TireWear,
			AttackActive:   c.AttackActive,
			AttackUsesLeft: c.AttackUsesLeft,
			OvertakesMade:  c.OvertakesMade,
			Running:        c.Active,
			DNFReason:      string(c.DNF),
		}
		snap.Entries = append(snap.Entries, entry)

		if c.BestLapTime > 0 && (snap.FastestLap == 0 || c.BestLapTime < snap.FastestLap) {
			snap.FastestLap = c.BestLapTime
			snap.FastestLapDriver = c.Driver.Name
		}
	}
	return snap
}
