/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/guesser/games/guess"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m terminalModel, msg tea.KeyMsg) terminalModel {
	t.Helper()

	next, _ := m.Update(msg)

	tm, ok := next.(terminalModel)
	require.True(t, ok)

	return tm
}

func TestTerminalModelPlaysGame(t *testing.T) {
	host := guess.NewHost(guess.NewMemoryStore())
	m := newTerminalModel(host, "")

	assert.Contains(t, m.View(), "Press enter to start!")

	// Answers are ignored until a game starts.
	m = press(t, m, runes("y"))
	assert.False(t, host.Playing())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, host.Playing())
	assert.Contains(t, m.View(), "Q1. Is your number between 0 and 1?")

	const secret = 7

	for i := 0; host.Playing() && i < 20; i++ {
		r := m.question.Range
		if r.Contains(secret) {
			m = press(t, m, runes("y"))
		} else {
			m = press(t, m, runes("n"))
		}
	}

	require.NotNil(t, m.result)
	assert.Equal(t, uint64(secret), m.result.Guess)

	view := m.View()
	assert.Contains(t, view, "Your number: 7")
	assert.Contains(t, view, "Questions:   6")
	assert.Contains(t, view, "Efficiency:  66.7%")
	assert.Contains(t, view, "Games: 1 | Average: 6.0 | Best: 6")
}

func TestTerminalModelNoStartsNothingWhileIdle(t *testing.T) {
	host := guess.NewHost(guess.NewMemoryStore())
	m := newTerminalModel(host, "")

	m = press(t, m, runes("n"))
	assert.False(t, host.Playing())
	assert.Nil(t, m.question)
}

func TestTerminalModelStatsAndContact(t *testing.T) {
	host := guess.NewHost(guess.NewMemoryStore())
	m := newTerminalModel(host, "someone@example.com")

	m = press(t, m, runes("s"))
	assert.Contains(t, m.View(), "No games played yet!")

	m = press(t, m, runes("c"))
	assert.Contains(t, m.View(), "someone@example.com")
}

func TestTerminalModelReset(t *testing.T) {
	store := guess.NewMemoryStore()
	best := 4
	require.NoError(t, store.Save(guess.Stats{Games: 2, TotalGuesses: 10, Best: &best}))

	host := guess.NewHost(store)
	m := newTerminalModel(host, "")

	m = press(t, m, runes("r"))
	assert.Contains(t, m.View(), "Do you really want to reset all statistics?")

	m = press(t, m, runes("n"))
	assert.Equal(t, 2, host.Stats().Games)
	assert.False(t, host.ResetPending())

	m = press(t, m, runes("r"))
	m = press(t, m, runes("y"))
	assert.Zero(t, host.Stats().Games)
	assert.Contains(t, m.View(), "Statistics have been reset!")
}

func TestTerminalModelQuit(t *testing.T) {
	m := newTerminalModel(guess.NewHost(guess.NewMemoryStore()), "")

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
