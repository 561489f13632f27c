package orchestrator

import "math/rand"

// RandSource supplies the uniform draw for the traffic split. It is injected
// so tests can pin the draw and exercise both branches deterministically.
type RandSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }

// SystemRand returns the process-wide PRNG-backed source used in production.
func SystemRand() RandSource { return systemRand{} }
