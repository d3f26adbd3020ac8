package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"arkman.dev/cli/internal/application/services"
)

// DashboardFlags holds command-line flags for the dashboard command
type DashboardFlags struct {
	RefreshRate time.Duration
}

// NewDashboardCommand creates the dashboard command
func NewDashboardCommand(container *CLIContainer) *cobra.Command {
	flags := &DashboardFlags{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live terminal view of connected players",
		Long: `Launch an interactive terminal dashboard listing the players on every
selected server, refreshed over RCON.

Examples:
  arkman dashboard                     # Whole fleet
  arkman dashboard -s Island,Ragnarok  # Some servers
  arkman dashboard --refresh 10s       # Poll more often`,
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			load := func() []services.PlayerListing {
				return container.Console.ListPlayers(ctx, servers)
			}
			return runDashboard(ctx, load, flags)
		},
	}

	cmd.Flags().DurationVar(&flags.RefreshRate, "refresh", 30*time.Second, "Refresh rate for live updates")

	return cmd
}

// runDashboard starts the terminal dashboard
func runDashboard(ctx context.Context, load func() []services.PlayerListing, flags *DashboardFlags) error {
	model := newDashboardModel(load, flags)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}

	return nil
}

// dashboardModel holds the state for the Bubble Tea dashboard
type dashboardModel struct {
	load         func() []services.PlayerListing
	flags        *DashboardFlags
	listings     []services.PlayerListing
	selectedRow  int
	paused       bool
	loading      bool
	lastUpdate   time.Time
	windowWidth  int
	windowHeight int
}

func newDashboardModel(load func() []services.PlayerListing, flags *DashboardFlags) dashboardModel {
	return dashboardModel{
		load:    load,
		flags:   flags,
		loading: true,
	}
}

// Init implements the Bubble Tea init method
func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.loadPlayersCmd(),
	)
}

// Update implements the Bubble Tea update method
func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case " ":
			m.paused = !m.paused
			return m, nil

		case "up", "k":
			if m.selectedRow > 0 {
				m.selectedRow--
			}
			return m, nil

		case "down", "j":
			if m.selectedRow < len(m.listings)-1 {
				m.selectedRow++
			}
			return m, nil

		case "r":
			m.loading = true
			return m, m.loadPlayersCmd()
		}

	case tickMsg:
		if !m.paused && !m.loading {
			m.loading = true
			return m, tea.Batch(
				m.tickCmd(),
				m.loadPlayersCmd(),
			)
		}
		return m, m.tickCmd()

	case playersLoadedMsg:
		m.listings = msg.listings
		m.loading = false
		m.lastUpdate = msg.at
		if m.selectedRow >= len(m.listings) {
			m.selectedRow = 0
		}
		return m, nil
	}

	return m, nil
}

// View implements the Bubble Tea view method
func (m dashboardModel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderServers(),
		m.renderFooter(),
	)
}

func (m dashboardModel) playerCount() int {
	n := 0
	for _, l := range m.listings {
		n += len(l.Players)
	}
	return n
}

// renderHeader renders the dashboard header
func (m dashboardModel) renderHeader() string {
	title := titleStyle.Render("arkman players")

	info := fmt.Sprintf("Servers: %d | Players: %d", len(m.listings), m.playerCount())

	status := "LIVE"
	statusStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	if m.paused {
		status = "PAUSED"
		statusStyle = statusStyle.Foreground(lipgloss.Color("196"))
	}

	line1 := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", info, "  ", statusStyle.Render(status))

	updated := "loading..."
	if !m.lastUpdate.IsZero() {
		updated = m.lastUpdate.Format("15:04:05")
	}
	line2 := fmt.Sprintf("Last Update: %s | Refresh Rate: %v", updated, m.flags.RefreshRate)

	return lipgloss.JoinVertical(lipgloss.Left, line1, line2, "")
}

// renderServers renders one block per server, players below it
func (m dashboardModel) renderServers() string {
	if len(m.listings) == 0 {
		return dimStyle.Render("\n  Waiting for the servers to answer...\n")
	}

	rows := []string{}
	for i, l := range m.listings {
		rowStyle := lipgloss.NewStyle().Bold(true)
		if i == m.selectedRow {
			rowStyle = rowStyle.Background(lipgloss.Color("240"))
		}

		if l.Err != nil {
			rows = append(rows, rowStyle.Render(fmt.Sprintf("%-20s", l.Server.Name))+" "+
				failStyle.Render(truncateString(l.Err.Error(), 60)))
			continue
		}

		rows = append(rows, rowStyle.Render(fmt.Sprintf("%-20s", l.Server.Name))+" "+
			okStyle.Render(fmt.Sprintf("%d online", len(l.Players))))
		for _, p := range l.Players {
			rows = append(rows, fmt.Sprintf("    %-28s %s", truncateString(p.Name, 28), dimStyle.Render(p.SteamID)))
		}
	}

	return strings.Join(rows, "\n")
}

// renderFooter renders the control instructions footer
func (m dashboardModel) renderFooter() string {
	return dimStyle.Render("\nControls: [Space] Pause/Resume | [↑↓] Navigate | [r] Refresh | [q] Quit")
}

// tickMsg is sent every refresh interval
type tickMsg time.Time

func (m dashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.flags.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// playersLoadedMsg is sent when every server answered
type playersLoadedMsg struct {
	listings []services.PlayerListing
	at       time.Time
}

func (m dashboardModel) loadPlayersCmd() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		return playersLoadedMsg{listings: load(), at: time.Now()}
	}
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
