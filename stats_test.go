/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/guesser/games/guess"
)

func seedStats(t *testing.T, fs afero.Fs, path string) {
	t.Helper()

	var s guess.Stats
	s = s.Record(6, time.Date(2026, 10, 1, 9, 30, 0, 0, time.Local))
	s = s.Record(4, time.Date(2026, 10, 2, 9, 30, 0, 0, time.Local))

	require.NoError(t, guess.NewFileStore(fs, path).Save(s))
}

func TestRunStatsShowsDetails(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedStats(t, fs, "game_stats.json")

	cfg := &Config{statsFile: "game_stats.json", contact: "someone@example.com"}

	var out bytes.Buffer
	require.NoError(t, runStats(cfg, fs, strings.NewReader(""), &out, false, false))

	got := out.String()
	assert.Contains(t, got, "Statistics file: game_stats.json (")
	assert.Contains(t, got, "Games:           2")
	assert.Contains(t, got, "Total questions: 10")
	assert.Contains(t, got, "Average:         5.00")
	assert.Contains(t, got, "Best:            4")
	assert.Contains(t, got, "Last game:       02/10/2026 09:30")
	assert.Contains(t, got, "Contact: someone@example.com")
}

func TestRunStatsMissingFile(t *testing.T) {
	cfg := &Config{statsFile: "nowhere.json"}

	var out bytes.Buffer
	require.NoError(t, runStats(cfg, afero.NewMemMapFs(), strings.NewReader(""), &out, false, false))

	assert.Contains(t, out.String(), "Statistics file: nowhere.json\n")
	assert.Contains(t, out.String(), "No games played yet!")
}

func TestRunStatsResetDeclined(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedStats(t, fs, "game_stats.json")

	cfg := &Config{statsFile: "game_stats.json"}

	var out bytes.Buffer
	require.NoError(t, runStats(cfg, fs, strings.NewReader("n\n"), &out, true, false))

	assert.Contains(t, out.String(), "Statistics left unchanged.")

	s, err := guess.NewFileStore(fs, "game_stats.json").Load()
	require.NoError(t, err)
	assert.Equal(t, 2, s.Games)
}

func TestRunStatsResetConfirmed(t *testing.T) {
	for name, tc := range map[string]struct {
		input string
		yes   bool
	}{
		"prompt": {input: "yes\n"},
		"flag":   {yes: true},
	} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			seedStats(t, fs, "game_stats.json")

			cfg := &Config{statsFile: "game_stats.json"}

			var out bytes.Buffer
			require.NoError(t, runStats(cfg, fs, strings.NewReader(tc.input), &out, true, tc.yes))

			assert.Contains(t, out.String(), "Statistics have been reset!")

			s, err := guess.NewFileStore(fs, "game_stats.json").Load()
			require.NoError(t, err)
			assert.Equal(t, guess.Stats{}, s)
		})
	}
}

func TestRunStatsResetUnwritable(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	cfg := &Config{statsFile: "/stats/game_stats.json"}

	var out bytes.Buffer
	err := runStats(cfg, fs, strings.NewReader(""), &out, true, true)

	var writeErr *guess.StorageWriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestConfirmed(t *testing.T) {
	assert.True(t, confirmed(strings.NewReader("y\n")))
	assert.True(t, confirmed(strings.NewReader(" YES ")))
	assert.False(t, confirmed(strings.NewReader("\n")))
	assert.False(t, confirmed(strings.NewReader("")))
	assert.False(t, confirmed(strings.NewReader("nope\n")))
}
