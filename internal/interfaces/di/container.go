package di

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/application/services"
	"arkman.dev/cli/internal/infrastructure/config"
	"arkman.dev/cli/internal/infrastructure/ftp"
	"arkman.dev/cli/internal/infrastructure/panel"
	"arkman.dev/cli/internal/infrastructure/rcon"
	"arkman.dev/cli/internal/interfaces/cli"
)

// Container holds all application dependencies
type Container struct {
	// Configuration
	SettingsRepo *config.CompositeSettingsRepository
	Settings     *ports.Settings
	SettingsErr  error

	// Infrastructure
	FileTransfer *ftp.Gateway
	Console      *rcon.Gateway
	Panel        *panel.Gateway

	// Application services
	ConfigSync     *services.ConfigSyncService
	ConsoleService *services.ConsoleService
	RestartService *services.RestartService
	BackupService  *services.BackupService

	// CLI
	CLIContainer *cli.CLIContainer

	// Logger
	Logger  *log.Logger
	logging *loggingGatewayAdapter
}

// NewContainer creates and configures the dependency injection container
func NewContainer() (*Container, error) {
	return NewContainerWithOutput(os.Stderr, "")
}

// NewContainerWithOutput builds a container logging to out and reading
// settings from configPath (empty for the default lookup).
func NewContainerWithOutput(out io.Writer, configPath string) (*Container, error) {
	logger := log.New(out, "[arkman] ", log.LstdFlags)
	container := &Container{
		Logger:  logger,
		logging: &loggingGatewayAdapter{logger: logger, logLevel: ports.LogLevelInfo},
	}

	if err := container.initializeComponents(configPath); err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return container, nil
}

// initializeComponents wires settings, gateways and services
func (c *Container) initializeComponents(configPath string) error {
	// 1. Settings
	c.SettingsRepo = config.NewCompositeSettingsRepository(configPath)

	settings, err := c.SettingsRepo.Load()
	if err != nil {
		c.Logger.Printf("Warning: Failed to load settings, using defaults: %v", err)
		settings = c.SettingsRepo.LoadDefault()
	}
	c.Settings = settings
	c.SettingsErr = err

	c.logging.SetLogLevel(settings.LogLevel)
	if settings.Debug {
		c.logging.SetLogLevel(ports.LogLevelDebug)
	}

	// 2. Infrastructure
	timeout := time.Duration(settings.Panel.Timeout) * time.Second
	c.FileTransfer = ftp.NewGateway(timeout, c.logging)
	c.Console = rcon.NewGateway(rcon.DefaultTimeout, c.logging)
	c.Panel = panel.NewGateway(panel.Credentials{
		BaseURL:   settings.Panel.BaseURL,
		Email:     settings.Panel.Email,
		Password:  settings.Panel.Password,
		UserAgent: settings.Panel.UserAgent,
	}, timeout, c.logging)

	// 3. Application services
	c.ConfigSync = services.NewConfigSyncService(settings, c.FileTransfer, c.logging)
	c.ConsoleService = services.NewConsoleService(c.Console, c.logging)
	c.RestartService = services.NewRestartService(c.ConsoleService, c.Panel, c.logging, settings.Panel.RestartMessage)
	c.BackupService = services.NewBackupService(settings, c.FileTransfer, c.logging)

	// 4. CLI container
	cliContainer := cli.CLIContainer{
		Settings:      settings,
		SettingsErr:   err,
		SettingsRepo:  c.SettingsRepo,
		ConfigSync:    c.ConfigSync,
		Console:       c.ConsoleService,
		Restart:       c.RestartService,
		Backup:        c.BackupService,
		Logger:        c.logging,
		MainContainer: c,
	}
	if c.CLIContainer == nil {
		c.CLIContainer = &cliContainer
	} else {
		*c.CLIContainer = cliContainer
	}

	c.logging.LogDebug("Dependency injection container initialized", map[string]interface{}{
		"config_file": c.SettingsRepo.GetConfigPath(),
		"servers":     len(settings.Servers),
	})
	return nil
}

// GetCLIContainer returns the CLI container for command execution
func (c *Container) GetCLIContainer() *cli.CLIContainer {
	return c.CLIContainer
}

// ApplyConfigFileOverride reloads everything from another settings file
func (c *Container) ApplyConfigFileOverride(path string) error {
	if path == "" {
		return fmt.Errorf("config file path cannot be empty")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return c.initializeComponents(path)
}

// ApplyDebugOverride turns on debug logging
func (c *Container) ApplyDebugOverride() {
	c.Settings.Debug = true
	c.logging.SetLogLevel(ports.LogLevelDebug)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	c.logging.LogDebug("Shutting down application", nil)
	return nil
}

// GetVersion returns version information
func (c *Container) GetVersion() map[string]string {
	return map[string]string{
		"version":    cli.Version,
		"build_time": cli.BuildTime,
	}
}

// loggingGatewayAdapter adapts the standard logger to the LoggingGateway interface
type loggingGatewayAdapter struct {
	logger   *log.Logger
	logLevel ports.LogLevel
}

func (l *loggingGatewayAdapter) LogError(err error, message string, fields map[string]interface{}) {
	if !l.shouldLog(ports.LogLevelError) {
		return
	}
	if fields != nil {
		l.logger.Printf("ERROR: %s: %v (fields: %v)", message, err, fields)
	} else {
		l.logger.Printf("ERROR: %s: %v", message, err)
	}
}

func (l *loggingGatewayAdapter) LogDebug(message string, fields map[string]interface{}) {
	l.Log(ports.LogLevelDebug, message, fields)
}

// Log writes the message when level is at or above the current level
func (l *loggingGatewayAdapter) Log(level ports.LogLevel, message string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}

	levelStr := "INFO"
	switch level {
	case ports.LogLevelFatal:
		levelStr = "FATAL"
	case ports.LogLevelError:
		levelStr = "ERROR"
	case ports.LogLevelWarn:
		levelStr = "WARN"
	case ports.LogLevelDebug:
		levelStr = "DEBUG"
	}

	if fields != nil {
		l.logger.Printf("%s: %s (fields: %v)", levelStr, message, fields)
	} else {
		l.logger.Printf("%s: %s", levelStr, message)
	}
}

// SetLogLevel sets the logging level
func (l *loggingGatewayAdapter) SetLogLevel(level ports.LogLevel) {
	l.logLevel = level
}

// GetLogLevel returns the current logging level
func (l *loggingGatewayAdapter) GetLogLevel() ports.LogLevel {
	return l.logLevel
}

func (l *loggingGatewayAdapter) shouldLog(level ports.LogLevel) bool {
	return level.Severity() >= l.logLevel.Severity()
}
