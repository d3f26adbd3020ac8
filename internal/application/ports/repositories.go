package ports

import (
	"arkman.dev/cli/internal/core/arkconfig"
	"arkman.dev/cli/internal/core/fleet"
)

// SettingsRepository loads the operator's fleet settings
type SettingsRepository interface {
	// Load retrieves the merged settings from all sources
	Load() (*Settings, error)

	// LoadDefault returns the built-in settings
	LoadDefault() *Settings

	// Validate checks settings for consistency
	Validate(settings *Settings) error

	// GetConfigPath returns the path of the settings file
	GetConfigPath() string
}

// Settings is everything the tool needs to know about the fleet
type Settings struct {
	Servers  []fleet.Server `yaml:"servers" json:"servers"`
	Panel    PanelSettings  `yaml:"panel" json:"panel"`
	Paths    PathSettings   `yaml:"paths" json:"paths"`
	Remote   RemoteSettings `yaml:"remote" json:"remote"`
	LogLevel LogLevel       `yaml:"log_level" json:"log_level"`
	Debug    bool           `yaml:"debug" json:"debug"`
}

// PanelSettings holds the hosting panel credentials
type PanelSettings struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	Email          string `yaml:"email" json:"email"`
	Password       string `yaml:"password" json:"-"`
	UserAgent      string `yaml:"user_agent" json:"user_agent"`
	RestartMessage string `yaml:"restart_message" json:"restart_message"`
	Timeout        int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// PathSettings holds the local working directories
type PathSettings struct {
	IniDir      string `yaml:"ini_dir" json:"ini_dir"`
	YAMLDir     string `yaml:"yml_dir" json:"yml_dir"`
	IncludesDir string `yaml:"includes_dir" json:"includes_dir"`
	BackupDir   string `yaml:"backup_dir" json:"backup_dir"`
}

// RemoteSettings holds the server-side directories and managed files
type RemoteSettings struct {
	ConfigDir string       `yaml:"config_dir" json:"config_dir"`
	SavesDir  string       `yaml:"saves_dir" json:"saves_dir"`
	Files     []ConfigFile `yaml:"files" json:"files"`
}

// ConfigFile is a managed server config file and the encoding the game
// expects it in
type ConfigFile struct {
	Name     string             `yaml:"name" json:"name"`
	Encoding arkconfig.Encoding `yaml:"encoding" json:"encoding"`
}
