package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/ramforge/internal/health"
	"github.com/dd0wney/ramforge/internal/supervisor"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(2).
			MarginTop(1)

	stateStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	statusPath string
	status     supervisor.Status
	readErr    error
	table      table.Model
}

func initialModel(statusPath string) model {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "PID", Width: 10},
		{Title: "UPTIME", Width: 12},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("#FFFFFF"))
	t.SetStyles(s)

	return model{statusPath: statusPath, table: t}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tickMsg:
		m.status, m.readErr = readStatus(m.statusPath)
		m.table.SetRows(rowsFor(m.status))
		return m, tickCmd()
	}
	return m, nil
}

func (m model) View() string {
	out := titleStyle.Render("ramforge cluster monitor") + "\n\n"

	if m.readErr != nil {
		out += errorStyle.Render(fmt.Sprintf("no status file yet at %s: %v", m.statusPath, m.readErr)) + "\n"
		out += helpStyle.Render("q: quit")
		return out
	}

	up, total := m.status.WorkersUp, m.status.TotalSlots
	state := stateColor(m.status.State).Render(fmt.Sprintf(" %s ", m.status.State))
	out += fmt.Sprintf("state: %s   workers: %d/%d   updated: %s\n\n",
		state, up, total, m.status.UpdatedAt.Format(time.Kitchen))

	out += m.table.View() + "\n\n"

	check := workerLivenessRatio(m.status)()
	out += fmt.Sprintf("%s: %s\n\n", check.Name, check.Message)

	out += helpStyle.Render("q: quit")
	return out
}

func stateColor(s supervisor.State) lipgloss.Style {
	switch s {
	case supervisor.StateRunning:
		return stateStyle.Background(lipgloss.Color("#2ECC71"))
	case supervisor.StateDrain:
		return stateStyle.Background(lipgloss.Color("#F1C40F"))
	case supervisor.StateDone:
		return stateStyle.Background(lipgloss.Color("#E74C3C"))
	default:
		return stateStyle.Background(lipgloss.Color("#7F8C8D"))
	}
}

func rowsFor(st supervisor.Status) []table.Row {
	rows := make([]table.Row, 0, len(st.Workers))
	for _, w := range st.Workers {
		uptime := time.Since(w.StartedAt).Truncate(time.Second)
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", w.ID),
			fmt.Sprintf("%d", w.PID),
			uptime.String(),
		})
	}
	return rows
}

func readStatus(path string) (supervisor.Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return supervisor.Status{}, err
	}
	var st supervisor.Status
	if err := json.Unmarshal(data, &st); err != nil {
		return supervisor.Status{}, err
	}
	return st, nil
}

// workerLivenessRatio computes the same up/total summary a running worker's
// own /healthz/ready endpoint would report via health.WorkerCheck, exercised
// here for the monitor's aggregate line rather than for a single worker's
// self-check.
func workerLivenessRatio(st supervisor.Status) health.CheckFunc {
	return health.WorkerCheck(func() (up, total int) {
		return st.WorkersUp, st.TotalSlots
	})
}

func main() {
	statusPath := flag.String("status-path", "./ramforge.status.json", "path to the supervisor's status file")
	flag.Parse()

	p := tea.NewProgram(initialModel(*statusPath), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
