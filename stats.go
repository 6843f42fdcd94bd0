/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/Seednode/guesser/games/guess"
)

func showStats(cfg *Config, in io.Reader, out io.Writer, reset, yes bool) error {
	return runStats(cfg, afero.NewOsFs(), in, out, reset, yes)
}

func runStats(cfg *Config, fs afero.Fs, in io.Reader, out io.Writer, reset, yes bool) error {
	host := guess.NewHost(guess.NewFileStore(fs, cfg.statsFile), guess.WithLogf(logger(cfg)))

	if reset {
		host.RequestReset()

		if !yes {
			fmt.Fprint(out, "Do you really want to reset all statistics? [y/N] ")

			yes = confirmed(in)
		}

		done, err := host.ConfirmReset(yes)
		if err != nil {
			return err
		}

		if !done {
			fmt.Fprintln(out, "Statistics left unchanged.")

			return nil
		}

		fmt.Fprintln(out, "Statistics have been reset!")
	}

	location := cfg.statsFile
	if size := statsFileSize(fs, cfg.statsFile); size != "" {
		location += " (" + size + ")"
	}

	fmt.Fprintf(out, "Statistics file: %s\n\n", location)
	fmt.Fprintln(out, detailedStats(host.Stats()))

	if cfg.contact != "" {
		fmt.Fprintf(out, "\nContact: %s\n", cfg.contact)
	}

	return nil
}

func confirmed(in io.Reader) bool {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
