/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guess

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoResetPending is returned by ConfirmReset without a preceding RequestReset.
var ErrNoResetPending = errors.New("no statistics reset is awaiting confirmation")

// Question is one yes/no prompt shown to the player.
type Question struct {
	Number int    `json:"number"`
	Range  Range  `json:"range"`
	Phase  Phase  `json:"-"`
	Text   string `json:"text"`
}

// Result describes a finished game. SaveErr is set when the game was counted
// but the statistics could not be persisted.
type Result struct {
	Guess       uint64  `json:"guess"`
	Guesses     int     `json:"guesses"`
	Theoretical int     `json:"theoretical"`
	Efficiency  float64 `json:"efficiency"`
	Bound       uint64  `json:"bound"`
	SaveErr     error   `json:"-"`
}

// Step is what the player sees next: exactly one of Question or Result is set.
type Step struct {
	Question *Question `json:"question,omitempty"`
	Result   *Result   `json:"result,omitempty"`
}

type Option func(*Host)

// WithClock overrides the time source used to stamp finished games.
func WithClock(now func() time.Time) Option {
	return func(h *Host) {
		h.now = now
	}
}

// WithLogf sets where the host reports recovered storage errors and finished games.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(h *Host) {
		h.logf = logf
	}
}

// Host runs games one at a time and keeps the player's statistics.
// It is not safe for concurrent use; callers serialize access to it.
type Host struct {
	store Store
	stats Stats

	engine *Engine
	last   *Result

	resetPending bool

	now  func() time.Time
	logf func(format string, args ...any)
}

// NewHost loads statistics from store, starting from zero if they are missing or unreadable.
func NewHost(store Store, opts ...Option) *Host {
	h := &Host{
		store: store,
		now:   time.Now,
		logf:  func(string, ...any) {},
	}

	for _, opt := range opts {
		opt(h)
	}

	stats, err := store.Load()
	switch {
	case errors.Is(err, ErrNoStats):
	case err != nil:
		h.logf("STATS: Starting from zero, %v", err)
	default:
		h.stats = stats
	}

	return h
}

// StartGame begins a new game, abandoning any game still in progress.
func (h *Host) StartGame() Step {
	if h.engine != nil && !h.engine.Done() {
		h.logf("GAMES: Abandoned game after %d questions", h.engine.Guesses())
	}

	h.engine = NewEngine()
	h.last = nil

	return Step{Question: h.question()}
}

// SubmitAnswer feeds the player's reply to the current game.
func (h *Host) SubmitAnswer(yes bool) (Step, error) {
	if h.engine == nil {
		return Step{}, ErrInvalidAnswer
	}

	if err := h.engine.Answer(yes); err != nil {
		return Step{}, err
	}

	if !h.engine.Done() {
		return Step{Question: h.question()}, nil
	}

	return Step{Result: h.finish()}, nil
}

// Current returns the outstanding question or the result of the last finished game.
// It reports false before the first game starts.
func (h *Host) Current() (Step, bool) {
	switch {
	case h.engine == nil:
		return Step{}, false
	case h.engine.Done():
		return Step{Result: h.last}, true
	default:
		return Step{Question: h.question()}, true
	}
}

// Playing reports whether a question is awaiting an answer.
func (h *Host) Playing() bool {
	return h.engine != nil && !h.engine.Done()
}

func (h *Host) Stats() Stats {
	return h.stats.clone()
}

// Progress estimates how far the current game has come, from 0 to 100.
func (h *Host) Progress() int {
	if h.engine == nil {
		return 0
	}

	s := h.engine.State()

	switch s.Phase {
	case Expanding:
		return min(40, 20+s.Guesses*5)
	case Narrowing:
		if s.Bound == 0 {
			return 40
		}

		p := 40 + 60*(1-float64(s.Upper-s.Lower)/float64(s.Bound))

		return min(95, max(40, int(p)))
	default:
		return 100
	}
}

// RequestReset opens the confirmation gate for wiping statistics.
func (h *Host) RequestReset() {
	h.resetPending = true
}

// ResetPending reports whether RequestReset is awaiting ConfirmReset.
func (h *Host) ResetPending() bool {
	return h.resetPending
}

// ConfirmReset closes the confirmation gate. Statistics are zeroed and saved
// only when yes is true; the returned bool reports whether that happened.
func (h *Host) ConfirmReset(yes bool) (bool, error) {
	if !h.resetPending {
		return false, ErrNoResetPending
	}

	h.resetPending = false

	if !yes {
		return false, nil
	}

	h.stats = Stats{}

	h.logf("STATS: Statistics reset")

	if err := h.store.Save(h.stats); err != nil {
		h.logf("STATS: %v", err)

		return true, err
	}

	return true, nil
}

func (h *Host) question() *Question {
	r, ok := h.engine.Question()
	if !ok {
		return nil
	}

	s := h.engine.State()

	return &Question{
		Number: s.Guesses + 1,
		Range:  r,
		Phase:  s.Phase,
		Text:   fmt.Sprintf("Is your number between %d and %d?", r.Lo, r.Hi),
	}
}

func (h *Host) finish() *Result {
	guess, _ := h.engine.Guess()
	s := h.engine.State()

	res := &Result{
		Guess:       guess,
		Guesses:     s.Guesses,
		Theoretical: Theoretical(guess),
		Efficiency:  Efficiency(guess, s.Guesses),
		Bound:       s.Bound,
	}

	h.stats = h.stats.Record(s.Guesses, h.now())

	h.logf("GAMES: Found %d in %d questions", guess, s.Guesses)

	if err := h.store.Save(h.stats); err != nil {
		h.logf("STATS: %v", err)
		res.SaveErr = err
	}

	h.last = res

	return res
}
