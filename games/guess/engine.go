/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package guess deduces a positive integer the player is thinking of by asking
// yes/no questions of the form "is your number between a and b?".
//
// The search runs in two phases:
//   - Expanding doubles the upper bound until the player's number falls inside it
//   - Narrowing bisects the discovered range until a single value remains
//
// The Engine is a pure state machine. The Host drives one Engine per game and
// keeps the player's statistics in a Store.
package guess

import (
	"errors"
	"math"
	"math/bits"
)

// ErrInvalidAnswer is returned when an answer arrives while no question is outstanding.
var ErrInvalidAnswer = errors.New("no question is awaiting an answer")

type Phase int

const (
	Expanding Phase = iota
	Narrowing
	Done
)

func (p Phase) String() string {
	switch p {
	case Expanding:
		return "expanding"
	case Narrowing:
		return "narrowing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Range is an inclusive span of candidate numbers.
type Range struct {
	Lo uint64 `json:"lo"`
	Hi uint64 `json:"hi"`
}

func (r Range) Contains(n uint64) bool {
	return r.Lo <= n && n <= r.Hi
}

func (r Range) Width() uint64 {
	return r.Hi - r.Lo
}

// State is a snapshot of an Engine.
type State struct {
	Lower    uint64 `json:"lower"`
	Upper    uint64 `json:"upper"`
	Phase    Phase  `json:"phase"`
	Guesses  int    `json:"guesses"`
	Bound    uint64 `json:"bound,omitempty"`
	HasBound bool   `json:"has_bound"`
}

type Engine struct {
	lower   uint64
	upper   uint64
	phase   Phase
	guesses int

	bound    uint64
	hasBound bool
}

func NewEngine() *Engine {
	return &Engine{
		lower: 0,
		upper: 1,
		phase: Expanding,
	}
}

// Question returns the range the player is currently being asked about.
// It reports false once the engine is Done.
func (e *Engine) Question() (Range, bool) {
	switch e.phase {
	case Expanding:
		return Range{Lo: e.lower, Hi: e.upper}, true
	case Narrowing:
		return Range{Lo: e.lower, Hi: e.mid()}, true
	default:
		return Range{}, false
	}
}

// Answer applies the player's reply to the current question.
func (e *Engine) Answer(yes bool) error {
	if e.phase == Done {
		return ErrInvalidAnswer
	}

	e.guesses++

	switch e.phase {
	case Expanding:
		if yes {
			e.phase = Narrowing
			e.bound = e.upper
			e.hasBound = true

			break
		}

		if e.upper == math.MaxUint64 {
			// Nothing is left above the bound, so the answers contradict each other.
			e.lower = e.upper
			e.phase = Narrowing
			e.bound = e.upper
			e.hasBound = true

			break
		}

		e.lower = e.upper + 1
		if e.upper > math.MaxUint64/2 {
			e.upper = math.MaxUint64
		} else {
			e.upper *= 2
		}
	case Narrowing:
		mid := e.mid()
		if yes {
			e.upper = mid
		} else {
			e.lower = mid + 1
		}
	}

	if e.phase == Narrowing && e.lower == e.upper {
		e.phase = Done
	}

	return nil
}

// mid is floor((lower+upper)/2) without overflowing near the top of the range.
func (e *Engine) mid() uint64 {
	return e.lower + (e.upper-e.lower)/2
}

func (e *Engine) Done() bool {
	return e.phase == Done
}

// Guess returns the deduced number once the engine is Done.
func (e *Engine) Guess() (uint64, bool) {
	if e.phase != Done {
		return 0, false
	}

	return e.lower, true
}

func (e *Engine) Guesses() int {
	return e.guesses
}

func (e *Engine) State() State {
	return State{
		Lower:    e.lower,
		Upper:    e.upper,
		Phase:    e.phase,
		Guesses:  e.guesses,
		Bound:    e.bound,
		HasBound: e.hasBound,
	}
}

// Theoretical is ceil(log2(guess+1)) + 1, the yardstick a finished game is compared against.
func Theoretical(guess uint64) int {
	// ceil(log2(x+1)) is the bit length of x.
	return bits.Len64(guess) + 1
}

// Efficiency is the theoretical question count as a percentage of the questions actually asked.
func Efficiency(guess uint64, guesses int) float64 {
	if guesses <= 0 {
		return 0
	}

	return float64(Theoretical(guess)) / float64(guesses) * 100
}
