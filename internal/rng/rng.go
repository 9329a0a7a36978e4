// Package rng provides the seeded random-number service for the simulator.
//
// A single master seed fans out into independent sub-streams: one per car for
// driver, tire, and energy noise, plus a set of named global streams for the
// event models. Each sub-stream is a PCG generator keyed purely by
// (master seed, stream id), so a run is bit-reproducible on any platform.
package rng

import "math/rand/v2"

// Global stream identifiers. They occupy the low stream ids; car streams
// follow from id numGlobal upward.
const (
	streamCrash = iota
	streamOvertake
	streamSafetyCar
	streamMechanical
	streamScheduler
	numGlobal
)

// Stream is a single deterministic noise source.
type Stream struct {
	r *rand.Rand
}

// NewStream returns a standalone stream for collaborators that live outside
// the service's id space, such as the weather system.
func NewStream(seed, id uint64) *Stream {
	return newStream(seed, id)
}

func newStream(seed, id uint64) *Stream {
	return &Stream{r: rand.New(rand.NewPCG(seed, id))}
}

// Uniform01 returns a uniform draw in [0, 1).
func (s *Stream) Uniform01() float64 { return s.r.Float64() }

// Gauss returns a normal draw with the given mean and standard deviation.
func (s *Stream) Gauss(mean, std float64) float64 {
	return mean + std*s.r.NormFloat64()
}

// Bernoulli returns true with probability p.
func (s *Stream) Bernoulli(p float64) bool { return s.r.Float64() < p }

// Service owns every sub-stream of a simulation run.
type Service struct {
	seed   uint64
	cars   []*Stream
	global [numGlobal]*Stream
}

// NewService derives numCars car streams and the global event streams from
// one master seed.
func NewService(seed uint64, numCars int) *Service {
	svc := &Service{seed: seed, cars: make([]*Stream, numCars)}
	for id := 0; id < numGlobal; id++ {
		svc.global[id] = newStream(seed, uint64(id))
	}
	for i := range svc.cars {
		svc.cars[i] = newStream(seed, uint64(numGlobal+i))
	}
	return svc
}

// Seed returns the master seed the service was built from.
func (s *Service) Seed() uint64 { return s.seed }

// Car returns the per-car stream for the given car id.
func (s *Service) Car(id int) *Stream { return s.cars[id] }

func (s *Service) Crash() *Stream      { return s.global[streamCrash] }
func (s *Service) Overtake() *Stream   { return s.global[streamOvertake] }
func (s *Service) SafetyCar() *Stream  { return s.global[streamSafetyCar] }
func (s *Service) Mechanical() *Stream { return s.global[streamMechanical] }
func (s *Service) Scheduler() *Stream  { return s.global[streamScheduler] }
