/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guess

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// LastGameLayout is the local date-time format stored in Stats.LastGame.
const LastGameLayout = "02/01/2006 15:04"

// ErrNoStats is returned by a Store that has never been written.
var ErrNoStats = errors.New("no statistics saved yet")

// StorageReadError reports statistics that exist but could not be read or parsed.
type StorageReadError struct {
	Path string
	Err  error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("reading statistics from %s: %v", e.Path, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

// StorageWriteError reports statistics that could not be persisted.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("saving statistics to %s: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// Stats accumulates results across games. A nil Best means no game has been played yet.
type Stats struct {
	Games        int    `json:"games"`
	TotalGuesses int    `json:"total_guesses"`
	Best         *int   `json:"best"`
	LastGame     string `json:"last_game,omitempty"`
}

// Record returns a copy of s updated with one finished game.
func (s Stats) Record(guesses int, at time.Time) Stats {
	s.Games++
	s.TotalGuesses += guesses

	if s.Best == nil || guesses < *s.Best {
		best := guesses
		s.Best = &best
	}

	s.LastGame = at.Local().Format(LastGameLayout)

	return s
}

func (s Stats) Average() float64 {
	if s.Games == 0 {
		return 0
	}

	return float64(s.TotalGuesses) / float64(s.Games)
}

func (s Stats) BestString() string {
	if s.Best == nil {
		return "-"
	}

	return strconv.Itoa(*s.Best)
}

func (s Stats) LastGameString() string {
	if s.LastGame == "" {
		return "Never"
	}

	return s.LastGame
}

func (s Stats) validate() error {
	switch {
	case s.Games < 0:
		return fmt.Errorf("negative game count %d", s.Games)
	case s.TotalGuesses < 0:
		return fmt.Errorf("negative question count %d", s.TotalGuesses)
	case s.Best != nil && *s.Best < 0:
		return fmt.Errorf("negative best score %d", *s.Best)
	}

	return nil
}

// Store persists a single Stats document.
type Store interface {
	Load() (Stats, error)
	Save(Stats) error
}

// FileStore keeps Stats as an indented JSON document, replaced wholesale on every save.
type FileStore struct {
	fs   afero.Fs
	path string
}

func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{
		fs:   fs,
		path: path,
	}
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load() (Stats, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Stats{}, ErrNoStats
	case err != nil:
		return Stats{}, &StorageReadError{Path: f.path, Err: err}
	}

	var s Stats
	if err := json.Unmarshal(data, &s); err != nil {
		return Stats{}, &StorageReadError{Path: f.path, Err: err}
	}

	if err := s.validate(); err != nil {
		return Stats{}, &StorageReadError{Path: f.path, Err: err}
	}

	return s, nil
}

func (f *FileStore) Save(s Stats) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return &StorageWriteError{Path: f.path, Err: err}
	}

	dir := filepath.Dir(f.path)

	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return &StorageWriteError{Path: f.path, Err: err}
	}

	tmp, err := afero.TempFile(f.fs, dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return &StorageWriteError{Path: f.path, Err: err}
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(append(data, '\n'))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = f.fs.Rename(tmpName, f.path)
	}

	if err != nil {
		_ = f.fs.Remove(tmpName)

		return &StorageWriteError{Path: f.path, Err: err}
	}

	return nil
}

// MemoryStore keeps Stats for the lifetime of the process only.
type MemoryStore struct {
	mu    sync.Mutex
	stats *Stats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stats == nil {
		return Stats{}, ErrNoStats
	}

	return m.stats.clone(), nil
}

func (m *MemoryStore) Save(s Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := s.clone()
	m.stats = &c

	return nil
}

func (s Stats) clone() Stats {
	if s.Best != nil {
		best := *s.Best
		s.Best = &best
	}

	return s
}
