package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/application/services"
	"arkman.dev/cli/internal/core/fleet"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// CLIContainer holds all the dependencies for CLI commands
type CLIContainer struct {
	Settings     *ports.Settings
	SettingsErr  error
	SettingsRepo ports.SettingsRepository

	ConfigSync *services.ConfigSyncService
	Console    *services.ConsoleService
	Restart    *services.RestartService
	Backup     *services.BackupService

	Logger        ports.LoggingGateway
	MainContainer interface{} // Will be set to *di.Container, avoiding circular import
}

// NewRootCommand RootCommand represents the base command when called without any subcommands
func NewRootCommand(container *CLIContainer) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "arkman",
		Short: "arkman - ARK server fleet management",
		Long: `arkman manages a fleet of ARK: Survival Evolved servers.

It keeps Game.ini and GameUserSettings.ini as editable YAML, syncs them over
FTP, talks to the servers over RCON, restarts them through the hosting panel
and keeps compressed backups of their saves.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfigurationOverrides(cmd, container); err != nil {
				return fmt.Errorf("failed to apply configuration overrides: %w", err)
			}
			return nil
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Settings file path (default is $ARKMAN_CONFIG_FILE or ./arkman.yml)")
	rootCmd.PersistentFlags().StringSliceP("servers", "s", nil, "Servers to act on (default all)")

	rootCmd.AddCommand(NewConfigCommand(container))
	rootCmd.AddCommand(NewRconCommand(container))
	rootCmd.AddCommand(NewRestartCommand(container))
	rootCmd.AddCommand(NewBackupCommand(container))
	rootCmd.AddCommand(NewDashboardCommand(container))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// applyConfigurationOverrides applies configuration overrides from command line flags
func applyConfigurationOverrides(cmd *cobra.Command, container *CLIContainer) error {
	mainContainer, ok := container.MainContainer.(interface {
		ApplyConfigFileOverride(string) error
		ApplyDebugOverride()
	})
	if !ok {
		return nil
	}

	if cmd.Flags().Changed("config") {
		path, _ := cmd.Flags().GetString("config")
		if err := mainContainer.ApplyConfigFileOverride(path); err != nil {
			return fmt.Errorf("failed to load settings file: %w", err)
		}
	}

	if debugMode, _ := cmd.Flags().GetBool("debug"); debugMode {
		mainContainer.ApplyDebugOverride()
	}

	return nil
}

// selectedServers resolves --servers against the fleet. Loading errors are
// reported here so commands that never touch a server still run.
func selectedServers(cmd *cobra.Command, container *CLIContainer) ([]fleet.Server, error) {
	if container.SettingsErr != nil {
		return nil, fmt.Errorf("settings are not usable: %w", container.SettingsErr)
	}

	names, _ := cmd.Flags().GetStringSlice("servers")
	servers, err := fleet.Select(container.Settings.Servers, names)
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", container.SettingsRepo.GetConfigPath())
	}
	return servers, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Cancelling ctx stops long running commands such as restart.
func Execute(ctx context.Context, container *CLIContainer) {
	rootCmd := NewRootCommand(container)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
