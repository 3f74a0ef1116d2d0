package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowscope/pkg/telemetry"
)

// Dashboard styles
var (
	listDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	listBlockedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

// =============================================================================
// TelemetryModel - Live QPS dashboard
// =============================================================================

// frameMsg delivers a split telemetry frame to the dashboard.
type frameMsg telemetry.Frame

// statusMsg replaces the dashboard's status line.
type statusMsg string

// closedMsg reports that the debugger connection ended.
type closedMsg struct{ err error }

// TelemetryModel is the bubbletea model for the attach dashboard.
type TelemetryModel struct {
	Target  string
	Status  string
	Frame   telemetry.Frame
	Frames  int
	Updated time.Time
	Err     error
	Height  int
}

// NewTelemetryModel creates a dashboard for the runtime at target.
func NewTelemetryModel(target string) TelemetryModel {
	return TelemetryModel{
		Target: target,
		Status: "connecting",
		Height: 20,
	}
}

func (m TelemetryModel) Init() tea.Cmd {
	return nil
}

func (m TelemetryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	case frameMsg:
		m.Frame = telemetry.Frame(msg)
		m.Frames++
		m.Updated = time.Now()
	case statusMsg:
		m.Status = string(msg)
	case closedMsg:
		m.Err = msg.err
		m.Status = "disconnected"
		return m, tea.Quit
	}
	return m, nil
}

func (m TelemetryModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("flowscope " + m.Target))
	b.WriteString("\n")
	status := m.Status
	if m.Frames > 0 {
		status = fmt.Sprintf("%s · %d frames · graph %s", status, m.Frames, m.Frame.Graph)
	}
	b.WriteString(listDimStyle.Render(status + "  q quit"))
	b.WriteString("\n\n")

	if m.Frames == 0 {
		b.WriteString(listDimStyle.Render("  waiting for samples"))
		b.WriteString("\n")
		return b.String()
	}

	ports := m.Frame.Ports
	if len(ports) > m.Height {
		ports = ports[:m.Height]
	}
	rows := make([][]string, 0, len(ports))
	for _, p := range ports {
		rows = append(rows, []string{p.ID, p.Descp, strconv.Itoa(p.Data.Size), strconv.Itoa(p.Data.QPS)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Series", "Port", "Size", "QPS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	if hidden := len(m.Frame.Ports) - len(ports); hidden > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  … %d more ports", hidden)))
		b.WriteString("\n")
	}
	if len(m.Frame.Blocked) > 0 {
		ids := make([]string, len(m.Frame.Blocked))
		for i, id := range m.Frame.Blocked {
			ids[i] = strconv.Itoa(id)
		}
		b.WriteString(listBlockedStyle.Render("  blocked: " + strings.Join(ids, ", ")))
		b.WriteString("\n")
	}
	if len(m.Frame.Skipped) > 0 {
		b.WriteString(listDimStyle.Render("  unresolved: " + strings.Join(m.Frame.Skipped, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}
