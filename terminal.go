/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"

	"github.com/Seednode/guesser/games/guess"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#3498db")).
			Padding(0, 2)
	statsStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#bdc3c7"))
	questionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	panelStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#f39c12")).
			Padding(0, 1)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e67e22"))
)

type keyMap struct {
	Yes     key.Binding
	No      key.Binding
	NewGame key.Binding
	Stats   key.Binding
	Reset   key.Binding
	Contact key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No, k.NewGame, k.Stats, k.Reset, k.Contact, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeys() keyMap {
	return keyMap{
		Yes:     key.NewBinding(key.WithKeys("y", "left"), key.WithHelp("y", "yes"), key.WithDisabled()),
		No:      key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "no"), key.WithDisabled()),
		NewGame: key.NewBinding(key.WithKeys("enter", "g"), key.WithHelp("enter", "new game")),
		Stats:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "statistics")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Contact: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "contact")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type terminalModel struct {
	host    *guess.Host
	contact string

	question *guess.Question
	result   *guess.Result
	panel    string
	notice   string

	keys     keyMap
	progress progress.Model
	help     help.Model
}

func newTerminalModel(host *guess.Host, contact string) terminalModel {
	return terminalModel{
		host:     host,
		contact:  contact,
		keys:     defaultKeys(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:     help.New(),
	}
}

func (m terminalModel) Init() tea.Cmd {
	return nil
}

func (m terminalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

		return m, nil

	case tea.KeyMsg:
		if m.host.ResetPending() {
			return m.confirmReset(msg), nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Yes) && m.host.Playing():
			m.answer(true)

		case key.Matches(msg, m.keys.No) && m.host.Playing():
			m.answer(false)

		case key.Matches(msg, m.keys.NewGame) && !m.host.Playing():
			m.setStep(m.host.StartGame())
			m.panel = ""
			m.notice = ""

		case key.Matches(msg, m.keys.Stats):
			m.panel = detailedStats(m.host.Stats())

		case key.Matches(msg, m.keys.Reset):
			m.host.RequestReset()
			m.notice = "Do you really want to reset all statistics? (y/n)"

		case key.Matches(msg, m.keys.Contact):
			m.panel = "Contact\n\n" + contactText(m.contact)
		}
	}

	return m, nil
}

func (m *terminalModel) answer(yes bool) {
	step, err := m.host.SubmitAnswer(yes)
	if err != nil {
		m.notice = err.Error()

		return
	}

	m.setStep(step)

	if step.Result != nil && step.Result.SaveErr != nil {
		m.notice = "Warning: " + step.Result.SaveErr.Error()
	}
}

func (m *terminalModel) setStep(step guess.Step) {
	m.question = step.Question
	m.result = step.Result

	playing := step.Question != nil
	m.keys.Yes.SetEnabled(playing)
	m.keys.No.SetEnabled(playing)
	m.keys.NewGame.SetEnabled(!playing)
}

func (m terminalModel) confirmReset(msg tea.KeyMsg) terminalModel {
	yes := msg.String() == "y"

	reset, err := m.host.ConfirmReset(yes)

	switch {
	case err != nil && reset:
		m.notice = "Statistics were reset, but could not be saved: " + err.Error()
	case err != nil:
		m.notice = err.Error()
	case reset:
		m.notice = "Statistics have been reset!"
	default:
		m.notice = ""
	}

	if m.panel != "" && reset {
		m.panel = detailedStats(m.host.Stats())
	}

	return m
}

func (m terminalModel) View() string {
	var sb strings.Builder

	s := m.host.Stats()

	sb.WriteString(titleStyle.Render("NUMBER GUESSER"))
	sb.WriteString("\n")
	sb.WriteString("Think of a positive number, I'll guess it!\n\n")
	sb.WriteString(statsStyle.Render(fmt.Sprintf("Games: %d | Average: %.1f | Best: %s", s.Games, s.Average(), s.BestString())))
	sb.WriteString("\n")

	switch {
	case m.question != nil:
		sb.WriteString(questionStyle.Render(fmt.Sprintf("Q%d. %s", m.question.Number, m.question.Text)))
	case m.result != nil:
		sb.WriteString(questionStyle.Render("Ready for a new game?"))
	default:
		sb.WriteString(questionStyle.Render("Press enter to start!"))
	}

	sb.WriteString("\n\n")
	sb.WriteString(m.progress.ViewAs(float64(m.host.Progress()) / 100))
	sb.WriteString("\n")

	if m.result != nil {
		sb.WriteString("\n")
		sb.WriteString(panelStyle.Render(resultText(m.result)))
		sb.WriteString("\n")
	}

	if m.panel != "" {
		sb.WriteString("\n")
		sb.WriteString(panelStyle.Render(m.panel))
		sb.WriteString("\n")
	}

	if m.notice != "" {
		sb.WriteString("\n")
		sb.WriteString(noticeStyle.Render(m.notice))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	sb.WriteString("\n")

	return sb.String()
}

func resultText(r *guess.Result) string {
	return fmt.Sprintf("I found it!\n\nYour number: %d\nQuestions:   %d\nTheoretical: %d\nEfficiency:  %.1f%%",
		r.Guess,
		r.Guesses,
		r.Theoretical,
		r.Efficiency,
	)
}

func detailedStats(s guess.Stats) string {
	if s.Games == 0 {
		return "No games played yet!"
	}

	return fmt.Sprintf("Games:           %d\nTotal questions: %d\nAverage:         %.2f\nBest:            %s\nLast game:       %s",
		s.Games,
		s.TotalGuesses,
		s.Average(),
		s.BestString(),
		s.LastGameString(),
	)
}

func PlayTerminal(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	host := guess.NewHost(guess.NewFileStore(afero.NewOsFs(), cfg.statsFile), guess.WithLogf(logger(cfg)))

	opts := []tea.ProgramOption{tea.WithContext(ctx)}

	// Leave the process's own terminal to bubbletea so it can switch it to raw mode.
	if in != os.Stdin {
		opts = append(opts, tea.WithInput(in))
	}
	if out != os.Stdout {
		opts = append(opts, tea.WithOutput(out))
	}

	p := tea.NewProgram(newTerminalModel(host, cfg.contact), opts...)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}

	return err
}
