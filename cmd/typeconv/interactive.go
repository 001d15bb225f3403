package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/typeconv/conv"
	"github.com/wippyai/typeconv/dtype"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Pick types and convert values in a terminal UI",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec := &recorder{}
			e, log, err := newEngine(conv.WithHandler(rec.handle))
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			defer e.Close()

			_, err = tea.NewProgram(newInteractiveModel(e, rec), tea.WithAltScreen()).Run()
			return err
		},
	}
}

type modelState int

const (
	stateSelectSrc modelState = iota
	stateSelectDst
	stateInputValues
	stateShowResult
)

type interactiveModel struct {
	err      error
	eng      *conv.Engine
	rec      *recorder
	src, dst *dtype.Datatype
	names    []string
	rows     []row
	input    textinput.Model
	selected int
	state    modelState
}

func newInteractiveModel(e *conv.Engine, rec *recorder) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "values separated by spaces"
	ti.Prompt = "values: "
	ti.Width = 60
	return &interactiveModel{
		eng:   e,
		rec:   rec,
		names: typeNames(),
		input: ti,
		state: stateSelectSrc,
	}
}

// convertedMsg carries the outcome of one conversion.
type convertedMsg struct {
	err  error
	rows []row
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputValues {
				return m, tea.Quit
			}

		case "up", "k":
			if m.selecting() && m.selected > 0 {
				m.selected--
				return m, nil
			}

		case "down", "j":
			if m.selecting() && m.selected < len(m.names)-1 {
				m.selected++
				return m, nil
			}

		case "enter":
			switch m.state {
			case stateSelectSrc, stateSelectDst:
				t, err := parseType(m.names[m.selected])
				if err != nil {
					m.err = err
					return m, nil
				}
				if m.state == stateSelectSrc {
					m.src = t
					m.state = stateSelectDst
				} else {
					m.dst = t
					m.state = stateInputValues
					m.input.Focus()
				}
				return m, nil

			case stateInputValues:
				return m, m.convert

			case stateShowResult:
				m.state = stateInputValues
				m.rows, m.err = nil, nil
				m.input.Focus()
				return m, nil
			}

		case "esc":
			switch m.state {
			case stateSelectDst:
				m.state = stateSelectSrc
			case stateInputValues:
				m.input.Blur()
				m.state = stateSelectDst
			case stateShowResult:
				m.state = stateSelectSrc
				m.rows, m.err = nil, nil
			}
			return m, nil
		}

	case convertedMsg:
		m.rows = msg.rows
		m.err = msg.err
		m.input.Blur()
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateInputValues {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) selecting() bool {
	return m.state == stateSelectSrc || m.state == stateSelectDst
}

func (m *interactiveModel) convert() tea.Msg {
	args := strings.Fields(m.input.Value())
	if len(args) == 0 {
		return convertedMsg{err: fmt.Errorf("no values")}
	}
	rows, err := convertValues(m.eng, m.rec, m.src, m.dst, args, false)
	return convertedMsg{rows: rows, err: err}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("typeconv"))
	if m.src != nil {
		b.WriteString(" ")
		b.WriteString(typeStyle.Render(m.src.String()))
	}
	if m.dst != nil && m.state != stateSelectDst {
		b.WriteString(" -> ")
		b.WriteString(typeStyle.Render(m.dst.String()))
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectSrc, stateSelectDst:
		if m.state == stateSelectSrc {
			b.WriteString("Select the source type:\n\n")
		} else {
			b.WriteString("Select the destination type:\n\n")
		}
		for i, name := range m.names {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + name))
			} else {
				b.WriteString("  " + name)
			}
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter choose • esc back • q quit"))

	case stateInputValues:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter convert • esc back • ctrl+c quit"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(resultTable(m.rows).Border(lipgloss.RoundedBorder()).BorderStyle(frameStyle).Render()))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter convert more • esc start over • q quit"))
	}

	return b.String()
}
