/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guess_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/guesser/games/guess"
)

func intPtr(i int) *int { return &i }

func TestStatsRecord(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 9, 0, 0, time.Local)

	var s guess.Stats
	s = s.Record(6, at)
	s = s.Record(4, at)
	s = s.Record(9, at)

	assert.Equal(t, 3, s.Games)
	assert.Equal(t, 19, s.TotalGuesses)
	require.NotNil(t, s.Best)
	assert.Equal(t, 4, *s.Best)
	assert.Equal(t, "14/03/2026 15:09", s.LastGame)
	assert.InDelta(t, 19.0/3.0, s.Average(), 1e-9)
}

func TestStatsRecordDoesNotAliasBest(t *testing.T) {
	a := guess.Stats{Games: 1, TotalGuesses: 5, Best: intPtr(5)}
	b := a.Record(3, time.Now())

	assert.Equal(t, 5, *a.Best)
	assert.Equal(t, 3, *b.Best)
}

func TestStatsDisplayHelpers(t *testing.T) {
	var s guess.Stats

	assert.Equal(t, "-", s.BestString())
	assert.Equal(t, "Never", s.LastGameString())
	assert.Zero(t, s.Average())

	s.Best = intPtr(7)
	s.LastGame = "01/02/2026 10:00"

	assert.Equal(t, "7", s.BestString())
	assert.Equal(t, "01/02/2026 10:00", s.LastGameString())
}

func TestStatsJSONFields(t *testing.T) {
	data, err := json.Marshal(guess.Stats{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"games":0,"total_guesses":0,"best":null}`, string(data))

	data, err = json.Marshal(guess.Stats{Games: 2, TotalGuesses: 11, Best: intPtr(5), LastGame: "02/01/2026 09:30"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"games":2,"total_guesses":11,"best":5,"last_game":"02/01/2026 09:30"}`, string(data))
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := guess.NewFileStore(fs, "/var/lib/guesser/game_stats.json")

	in := guess.Stats{Games: 3, TotalGuesses: 17, Best: intPtr(4), LastGame: "16/10/2026 12:00"}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// Saves replace the document rather than appending to it.
	in.Games = 4
	require.NoError(t, store.Save(in))

	out, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)

	entries, err := afero.ReadDir(fs, "/var/lib/guesser")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "game_stats.json", entries[0].Name())
}

func TestFileStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	store := guess.NewFileStore(afero.NewBasePathFs(afero.NewOsFs(), dir), "/game_stats.json")

	in := guess.Stats{Games: 1, TotalGuesses: 6, Best: intPtr(6)}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := guess.NewFileStore(afero.NewMemMapFs(), "missing.json")

	_, err := store.Load()
	assert.ErrorIs(t, err, guess.ErrNoStats)
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	cases := map[string]string{
		"invalid json":   `{oops`,
		"python inf":     `{"games": 1, "total_guesses": 3, "best": Infinity, "last_game": null}`,
		"negative games": `{"games": -1, "total_guesses": 3, "best": null}`,
		"negative best":  `{"games": 1, "total_guesses": 3, "best": -3}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "stats.json", []byte(body), 0o644))

			_, err := guess.NewFileStore(fs, "stats.json").Load()

			var readErr *guess.StorageReadError
			require.ErrorAs(t, err, &readErr)
			assert.Equal(t, "stats.json", readErr.Path)
		})
	}
}

func TestFileStoreSaveReadOnly(t *testing.T) {
	store := guess.NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/stats/game_stats.json")

	err := store.Save(guess.Stats{Games: 1})

	var writeErr *guess.StorageWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "/stats/game_stats.json", writeErr.Path)
	assert.Contains(t, err.Error(), "saving statistics to /stats/game_stats.json")
}

func TestMemoryStore(t *testing.T) {
	store := guess.NewMemoryStore()

	_, err := store.Load()
	assert.ErrorIs(t, err, guess.ErrNoStats)

	in := guess.Stats{Games: 1, TotalGuesses: 2, Best: intPtr(2)}
	require.NoError(t, store.Save(in))

	*in.Best = 99

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, *out.Best)
}
