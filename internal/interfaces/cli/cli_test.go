package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/application/services"
	"arkman.dev/cli/internal/core/fleet"
)

type nopLogger struct{}

func (nopLogger) Log(level ports.LogLevel, message string, fields map[string]interface{}) {}
func (nopLogger) LogError(err error, message string, fields map[string]interface{})       {}
func (nopLogger) LogDebug(message string, fields map[string]interface{})                  {}
func (nopLogger) SetLogLevel(level ports.LogLevel)                                        {}
func (nopLogger) GetLogLevel() ports.LogLevel                                             { return ports.LogLevelInfo }

// fakeConsole answers listplayers from a fixed roster and acknowledges
// everything else
type fakeConsole struct {
	mu       sync.Mutex
	players  map[string]string
	failing  map[string]bool
	commands []string
}

func (f *fakeConsole) Execute(ctx context.Context, server fleet.Server, command string) (string, error) {
	f.mu.Lock()
	f.commands = append(f.commands, server.Name+": "+command)
	f.mu.Unlock()

	if f.failing[server.Name] {
		return "", errors.New("connection refused")
	}
	if command == services.CommandListPlayers {
		return f.players[server.Name], nil
	}
	return "Server received, But no response!!", nil
}

type fakePanel struct{}

func (fakePanel) Login(ctx context.Context) error { return nil }

func (fakePanel) Restart(ctx context.Context, panelID string) (*ports.PanelResponse, error) {
	return &ports.PanelResponse{ServerID: panelID, StatusCode: 200, Message: "Restarting server " + panelID}, nil
}

type fakeRepo struct{}

func (fakeRepo) Load() (*ports.Settings, error)          { return nil, nil }
func (fakeRepo) LoadDefault() *ports.Settings            { return &ports.Settings{} }
func (fakeRepo) Validate(settings *ports.Settings) error { return nil }
func (fakeRepo) GetConfigPath() string                   { return "arkman.yml" }

func newTestContainer(t *testing.T, console *fakeConsole) *CLIContainer {
	t.Helper()
	dir := t.TempDir()

	settings := &ports.Settings{
		Servers: []fleet.Server{
			{Name: "Island", PanelID: "101", Host: "10.0.0.1", Password: "ftp-secret", AdminPassword: "admin-secret"},
			{Name: "Ragnarok", PanelID: "102", Host: "10.0.0.2"},
		},
		Paths: ports.PathSettings{
			IniDir:      filepath.Join(dir, "ini"),
			YAMLDir:     filepath.Join(dir, "yml"),
			IncludesDir: filepath.Join(dir, "yml", "includes"),
			BackupDir:   filepath.Join(dir, "bak"),
		},
	}

	consoleService := services.NewConsoleService(console, nopLogger{})
	noSleep := services.WithSleep(func(ctx context.Context, d time.Duration) error { return ctx.Err() })

	return &CLIContainer{
		Settings:     settings,
		SettingsRepo: fakeRepo{},
		ConfigSync:   services.NewConfigSyncService(settings, nil, nopLogger{}),
		Console:      consoleService,
		Restart:      services.NewRestartService(consoleService, fakePanel{}, nopLogger{}, "", noSleep),
		Logger:       nopLogger{},
	}
}

func run(t *testing.T, container *CLIContainer, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(container)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand(newTestContainer(t, &fakeConsole{}))

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"config", "rcon", "restart", "backup", "dashboard"} {
		assert.Contains(t, names, want)
	}

	for _, path := range [][]string{
		{"config", "pull"}, {"config", "push"}, {"config", "load"}, {"config", "dump"},
		{"config", "import-crates"}, {"config", "convert"}, {"config", "merge"}, {"config", "inspect"},
		{"rcon", "players"}, {"rcon", "broadcast"}, {"rcon", "save-world"}, {"rcon", "kick"}, {"rcon", "kick-all"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[1], cmd.Name())
	}
}

func TestRconPlayers(t *testing.T) {
	console := &fakeConsole{
		players: map[string]string{
			"Island": "0. Alice, 76561198000000001\n1. Bob, 76561198000000002\n",
		},
		failing: map[string]bool{"Ragnarok": true},
	}
	container := newTestContainer(t, console)

	out, err := run(t, container, "rcon", "players")
	assert.EqualError(t, err, "1 of 2 servers failed")
	assert.Contains(t, out, "Island: 2 players")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "76561198000000002")
	assert.Contains(t, out, "Ragnarok: connection refused")
	assert.Contains(t, out, "Total: 2 players")

	out, err = run(t, container, "rcon", "players", "--servers", "island")
	require.NoError(t, err)
	assert.NotContains(t, out, "Ragnarok")
}

func TestRconUnknownServer(t *testing.T) {
	_, err := run(t, newTestContainer(t, &fakeConsole{}), "rcon", "save-world", "-s", "Aberration")
	assert.ErrorIs(t, err, fleet.ErrUnknownServer)
}

func TestRconBroadcastJoinsLines(t *testing.T) {
	console := &fakeConsole{}
	_, err := run(t, newTestContainer(t, console), "rcon", "broadcast", "-s", "Island", "Hello", "world")
	require.NoError(t, err)
	assert.Equal(t, []string{"Island: broadcast Hello\nworld"}, console.commands)
}

func TestRconKickRejectsBadID(t *testing.T) {
	_, err := run(t, newTestContainer(t, &fakeConsole{}), "rcon", "kick", "76561198 000")
	assert.ErrorContains(t, err, "invalid steam id")
}

func TestRestart(t *testing.T) {
	t.Run("invalid_delay", func(t *testing.T) {
		_, err := run(t, newTestContainer(t, &fakeConsole{}), "restart", "--delay", "7")
		assert.ErrorContains(t, err, "invalid delay 7: must be one of 1, 2, 3, 4, 5, 10, 15, 20, 25, 30")
	})

	t.Run("one_minute", func(t *testing.T) {
		console := &fakeConsole{players: map[string]string{"Island": "0. Alice, 76561198000000001"}}
		out, err := run(t, newTestContainer(t, console), "restart", "--delay", "1")
		require.NoError(t, err)

		assert.Contains(t, out, "Restarting Island, Ragnarok in 1 min.")
		assert.Contains(t, out, "01:00 warning sent")
		assert.Contains(t, out, "00:20 warning sent")
		assert.Contains(t, out, "Island: Restarting server 101")
		assert.Contains(t, out, "Ragnarok: Restarting server 102")
		assert.Contains(t, console.commands, "Island: kickplayer 76561198000000001")
	})

	t.Run("default_delay", func(t *testing.T) {
		assert.Equal(t, "15", NewRestartCommand(newTestContainer(t, &fakeConsole{})).Flags().Lookup("delay").DefValue)

		out, err := run(t, newTestContainer(t, &fakeConsole{}), "restart")
		require.NoError(t, err)
		assert.Contains(t, out, "Restarting Island, Ragnarok in 15 min.")
		assert.Contains(t, out, "15:00 warning sent")
	})
}

func TestSettingsErrorBlocksServerCommands(t *testing.T) {
	container := newTestContainer(t, &fakeConsole{})
	container.SettingsErr = errors.New("duplicate server name")

	_, err := run(t, container, "rcon", "players")
	assert.ErrorContains(t, err, "settings are not usable: duplicate server name")

	_, err = run(t, container, "config", "show")
	assert.ErrorContains(t, err, "failed to load settings")
}

func TestConfigShowMasksSecrets(t *testing.T) {
	out, err := run(t, newTestContainer(t, &fakeConsole{}), "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "Island")
	assert.Contains(t, out, "10.0.0.1:27020")
	assert.NotContains(t, out, "ftp-secret")
	assert.NotContains(t, out, "admin-secret")
	assert.Contains(t, out, "ft********")
}

func TestConfigConvertAndInspect(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Game.ini")
	require.NoError(t, os.WriteFile(src, []byte("[ServerSettings]\r\nMaxPlayers=70\r\nServerPVE=True\r\n"), 0o644))
	dst := filepath.Join(dir, "Game.json")

	container := newTestContainer(t, &fakeConsole{})

	out, err := run(t, container, "config", "convert", src, dst)
	require.NoError(t, err)
	assert.Contains(t, out, "Game.json")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"ServerSettings\": {\n    \"MaxPlayers\": 70,\n    \"ServerPVE\": true\n  }\n}\n", string(data))

	out, err = run(t, container, "config", "inspect", "--format", "dump", src)
	require.NoError(t, err)
	assert.Contains(t, out, "[ServerSettings]")
	assert.Contains(t, out, "MaxPlayers = (int64) 70")
	assert.Contains(t, out, "ServerPVE = (bool) true")

	out, err = run(t, container, "config", "inspect", "-f", "ini", src)
	require.NoError(t, err)
	assert.Equal(t, "[ServerSettings]\nMaxPlayers=70\nServerPVE=true\n", out)

	_, err = run(t, container, "config", "inspect", "-f", "toml", src)
	assert.ErrorContains(t, err, `unknown format "toml"`)

	_, err = run(t, container, "config", "convert", "--encoding", "latin-1", src, filepath.Join(dir, "out.ini"))
	assert.ErrorContains(t, err, "unsupported encoding")
}

func TestConfigMergeRequiresOutput(t *testing.T) {
	_, err := run(t, newTestContainer(t, &fakeConsole{}), "config", "merge", "a.ini")
	assert.ErrorContains(t, err, `required flag(s) "output" not set`)
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "(not set)"},
		{"abc", "***"},
		{"hunter2", "hu*****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, maskSecret(tt.in))
	}
}

func TestDashboardModel(t *testing.T) {
	listings := []services.PlayerListing{
		{Server: fleet.Server{Name: "Island"}, Players: []fleet.Player{{Name: "Alice", SteamID: "76561198000000001"}}},
		{Server: fleet.Server{Name: "Ragnarok"}, Err: errors.New("Ragnarok: connection refused")},
	}
	calls := 0
	load := func() []services.PlayerListing {
		calls++
		return listings
	}

	m := newDashboardModel(load, &DashboardFlags{RefreshRate: time.Second})
	assert.Contains(t, m.View(), "Waiting for the servers to answer")

	msg := m.loadPlayersCmd()()
	assert.Equal(t, 1, calls)

	updated, _ := m.Update(msg)
	m = updated.(dashboardModel)
	view := m.View()
	assert.Contains(t, view, "Servers: 2 | Players: 1")
	assert.Contains(t, view, "Alice")
	assert.Contains(t, view, "1 online")
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "LIVE")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = updated.(dashboardModel)
	assert.True(t, m.paused)
	assert.Contains(t, m.View(), "PAUSED")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(dashboardModel)
	assert.Equal(t, 1, m.selectedRow)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString(strings.Repeat("abcdefghij", 2), 10))
}
