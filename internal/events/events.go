// Package events defines the typed race events and the probabilistic models
// that generate them: the overtake logistic, the crash risk sigmoid, the
// safety-car Poisson process, and the optional Weibull mechanical hazard.
package events

import (
	"sort"
)

// Kind tags an event variant.
type Kind string

const (
	KindLapComplete       Kind = "lap_complete"
	KindOvertake          Kind = "overtake"
	KindCrash             Kind = "crash"
	KindSafetyCarDeploy   Kind = "safety_car_deploy"
	KindSafetyCarWithdraw Kind = "safety_car_withdraw"
	KindAttackActivate    Kind = "attack_activate"
	KindAttackExpire      Kind = "attack_expire"
	KindMechanicalFailure Kind = "mechanical_failure"
)

// kindRank fixes the total order of simultaneous events.
var kindRank = map[Kind]int{
	KindLapComplete:       0,
	KindOvertake:          1,
	KindCrash:             2,
	KindSafetyCarDeploy:   3,
	KindSafetyCarWithdraw: 4,
	KindAttackActivate:    5,
	KindAttackExpire:      6,
	KindMechanicalFailure: 7,
}

// Event is one tagged race event. Subject is the acting car's id, or -1 for
// race-wide events; the remaining fields are populated per kind.
type Event struct {
	T       float64 `json:"t"`
	Kind    Kind    `json:"kind"`
	Subject int     `json:"subject"`

	Defender  int     `json:"defender,omitempty"`  // overtake
	AtS       float64 `json:"at_s,omitempty"`      // overtake: attacker's lap distance
	Risk      float64 `json:"risk,omitempty"`      // crash
	Lap       int     `json:"lap,omitempty"`       // lap complete
	LapTime   float64 `json:"lap_time,omitempty"`  // lap complete
	Remaining float64 `json:"remaining,omitempty"` // attack activate
	Reason    string  `json:"reason,omitempty"`    // safety car deploy
	Cause     string  `json:"cause,omitempty"`     // mechanical failure
}

// Less orders events by (time, kind rank, subject id).
func Less(a, b Event) bool {
	if a.T != b.T {
		return a.T < b.T
	}
	if kindRank[a.Kind] != kindRank[b.Kind] {
		return kindRank[a.Kind] < kindRank[b.Kind]
	}
	return a.Subject < b.Subject
}

// SortBatch orders a tick's batch into the canonical total order.
func SortBatch(batch []Event) {
	sort.SliceStable(batch, func(i, j int) bool { return Less(batch[i], batch[j]) })
}
