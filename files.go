/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Seednode/guesser/games/guess"
)

const defaultStatsFile = "game_stats.json"

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

// sessionStore picks where a web session keeps its statistics. Game IDs only
// ever contain letters and digits, so they are safe to use as file names.
func sessionStore(cfg *Config, fs afero.Fs, gameID string) guess.Store {
	if cfg.statsDir == "" {
		return guess.NewMemoryStore()
	}

	return guess.NewFileStore(fs, filepath.Join(cfg.statsDir, gameID+".json"))
}

// statsFileSize describes the statistics file for display, or "" if it does not exist.
func statsFileSize(fs afero.Fs, path string) string {
	info, err := fs.Stat(path)
	if err != nil {
		return ""
	}

	return humanReadableSize(info.Size())
}
