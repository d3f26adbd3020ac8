package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/core/arkconfig"
	"arkman.dev/cli/internal/core/fleet"
)

const (
	// DefaultConfigFile is the settings file looked up in the working directory
	DefaultConfigFile = "arkman.yml"
	// DefaultDotEnvFile holds secrets kept out of the settings file
	DefaultDotEnvFile = ".env"

	configFileEnv  = "ARKMAN_CONFIG_FILE"
	panelEnvPrefix = "ARK_HOSTER_"
)

// CompositeSettingsRepository implements the SettingsRepository interface
type CompositeSettingsRepository struct {
	sources    []SettingsSource
	configPath string
}

// SettingsSource defines the interface for settings sources
type SettingsSource interface {
	Load() (*ports.Settings, error)
	Priority() int
	Name() string
}

// NewCompositeSettingsRepository creates a new settings repository. An empty
// configPath falls back to ARKMAN_CONFIG_FILE, then arkman.yml.
func NewCompositeSettingsRepository(configPath string) *CompositeSettingsRepository {
	if configPath == "" {
		configPath = os.Getenv(configFileEnv)
	}
	if configPath == "" {
		configPath = DefaultConfigFile
	}

	repo := &CompositeSettingsRepository{configPath: configPath}
	repo.AddSource(NewFileSettingsSource(configPath))
	repo.AddSource(NewDotEnvSettingsSource(DefaultDotEnvFile))
	repo.AddSource(NewEnvironmentSettingsSource(os.Environ))
	return repo
}

// AddSource adds a settings source
func (r *CompositeSettingsRepository) AddSource(source SettingsSource) {
	r.sources = append(r.sources, source)
}

// Load merges defaults with every source. Lower priority numbers are applied
// last and therefore win.
func (r *CompositeSettingsRepository) Load() (*ports.Settings, error) {
	settings := r.LoadDefault()

	sorted := make([]SettingsSource, len(r.sources))
	copy(sorted, r.sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})

	for _, source := range sorted {
		loaded, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load %s settings: %w", source.Name(), err)
		}
		settings = mergeSettings(settings, loaded)
	}

	if err := r.Validate(settings); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return settings, nil
}

// LoadDefault returns the default settings
func (r *CompositeSettingsRepository) LoadDefault() *ports.Settings {
	return &ports.Settings{
		Servers: []fleet.Server{},
		Panel: ports.PanelSettings{
			Timeout: 30,
		},
		Paths: ports.PathSettings{
			IniDir:      "./configs/ini",
			YAMLDir:     "./configs/yml",
			IncludesDir: arkconfig.DefaultIncludesDir,
			BackupDir:   "./bak",
		},
		Remote: ports.RemoteSettings{
			ConfigDir: "/ShooterGame/Saved/Config/WindowsServer",
			SavesDir:  "/ShooterGame/Saved/SavedArks",
			Files: []ports.ConfigFile{
				{Name: "Game.ini", Encoding: arkconfig.UTF8},
				{Name: "GameUserSettings.ini", Encoding: arkconfig.UTF16},
			},
		},
		LogLevel: ports.LogLevelInfo,
	}
}

// Validate validates the settings
func (r *CompositeSettingsRepository) Validate(settings *ports.Settings) error {
	if settings == nil {
		return fmt.Errorf("settings cannot be nil")
	}

	seen := make(map[string]bool, len(settings.Servers))
	for _, s := range settings.Servers {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("server name is required")
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			return fmt.Errorf("duplicate server name %q", s.Name)
		}
		seen[key] = true

		if s.Host == "" {
			return fmt.Errorf("server %s has no host", s.Name)
		}
		if !validPort(s.FTPPort) {
			return fmt.Errorf("server %s: invalid ftp port %d", s.Name, s.FTPPort)
		}
		if !validPort(s.RCONPort) {
			return fmt.Errorf("server %s: invalid rcon port %d", s.Name, s.RCONPort)
		}
	}

	for _, f := range settings.Remote.Files {
		if f.Name == "" {
			return fmt.Errorf("managed file name is required")
		}
		if _, err := arkconfig.ParseEncoding(string(f.Encoding)); err != nil {
			return fmt.Errorf("managed file %s: %w", f.Name, err)
		}
	}

	if settings.Panel.Timeout < 0 {
		return fmt.Errorf("panel timeout cannot be negative")
	}
	if ports.ParseLogLevel(string(settings.LogLevel)) != settings.LogLevel {
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}
	return nil
}

// GetConfigPath returns the path to the settings file
func (r *CompositeSettingsRepository) GetConfigPath() string {
	return r.configPath
}

func validPort(p int) bool {
	return p >= 0 && p <= 65535
}

// mergeSettings overlays the non-zero values of source onto target. Servers
// are matched by their environment prefix so env overrides reach entries
// declared in the settings file; unmatched servers need a host to be added.
func mergeSettings(target, source *ports.Settings) *ports.Settings {
	if source == nil {
		return target
	}
	result := *target
	result.Servers = append([]fleet.Server(nil), target.Servers...)

	known := len(target.Servers)
	for _, s := range source.Servers {
		idx := -1
		for i, existing := range result.Servers[:known] {
			if existing.EnvPrefix() == s.EnvPrefix() {
				idx = i
				break
			}
		}
		if idx < 0 {
			if s.Host != "" {
				result.Servers = append(result.Servers, s)
			}
			continue
		}
		result.Servers[idx] = mergeServer(result.Servers[idx], s)
	}

	overlay(&result.Panel.BaseURL, source.Panel.BaseURL)
	overlay(&result.Panel.Email, source.Panel.Email)
	overlay(&result.Panel.Password, source.Panel.Password)
	overlay(&result.Panel.UserAgent, source.Panel.UserAgent)
	overlay(&result.Panel.RestartMessage, source.Panel.RestartMessage)
	if source.Panel.Timeout != 0 {
		result.Panel.Timeout = source.Panel.Timeout
	}

	overlay(&result.Paths.IniDir, source.Paths.IniDir)
	overlay(&result.Paths.YAMLDir, source.Paths.YAMLDir)
	overlay(&result.Paths.IncludesDir, source.Paths.IncludesDir)
	overlay(&result.Paths.BackupDir, source.Paths.BackupDir)

	overlay(&result.Remote.ConfigDir, source.Remote.ConfigDir)
	overlay(&result.Remote.SavesDir, source.Remote.SavesDir)
	if len(source.Remote.Files) > 0 {
		result.Remote.Files = append([]ports.ConfigFile(nil), source.Remote.Files...)
	}

	if source.LogLevel != "" {
		result.LogLevel = source.LogLevel
	}
	if source.Debug {
		result.Debug = true
	}
	return &result
}

func mergeServer(target, source fleet.Server) fleet.Server {
	overlay(&target.PanelID, source.PanelID)
	overlay(&target.Host, source.Host)
	overlay(&target.User, source.User)
	overlay(&target.Password, source.Password)
	overlay(&target.AdminPassword, source.AdminPassword)
	if source.FTPPort != 0 {
		target.FTPPort = source.FTPPort
	}
	if source.RCONPort != 0 {
		target.RCONPort = source.RCONPort
	}
	return target
}

func overlay(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// FileSettingsSource loads settings from a YAML file
type FileSettingsSource struct {
	filePath string
}

// NewFileSettingsSource creates a new file settings source
func NewFileSettingsSource(filePath string) *FileSettingsSource {
	return &FileSettingsSource{filePath: filePath}
}

// Load loads settings from file. A missing file yields no settings.
func (f *FileSettingsSource) Load() (*ports.Settings, error) {
	data, err := os.ReadFile(f.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings ports.Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", f.filePath, err)
	}
	return &settings, nil
}

// Priority returns the priority of this source (lower number = higher priority)
func (f *FileSettingsSource) Priority() int {
	return 100
}

// Name returns the name of this source
func (f *FileSettingsSource) Name() string {
	return "file"
}

// DotEnvSettingsSource loads the same variables as the environment source
// from a .env file
type DotEnvSettingsSource struct {
	filePath string
}

// NewDotEnvSettingsSource creates a new .env settings source
func NewDotEnvSettingsSource(filePath string) *DotEnvSettingsSource {
	return &DotEnvSettingsSource{filePath: filePath}
}

// Load reads the .env file. A missing file yields no settings.
func (d *DotEnvSettingsSource) Load() (*ports.Settings, error) {
	vars, err := godotenv.Read(d.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.filePath, err)
	}
	return settingsFromVars(vars)
}

// Priority returns the priority of this source (lower number = higher priority)
func (d *DotEnvSettingsSource) Priority() int {
	return 50
}

// Name returns the name of this source
func (d *DotEnvSettingsSource) Name() string {
	return "dotenv"
}

// EnvironmentSettingsSource loads settings from environment variables
type EnvironmentSettingsSource struct {
	environ func() []string
}

// NewEnvironmentSettingsSource creates a new environment settings source
func NewEnvironmentSettingsSource(environ func() []string) *EnvironmentSettingsSource {
	return &EnvironmentSettingsSource{environ: environ}
}

// Load loads settings from environment variables
func (e *EnvironmentSettingsSource) Load() (*ports.Settings, error) {
	vars := make(map[string]string)
	for _, kv := range e.environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return settingsFromVars(vars)
}

// Priority returns the priority of this source (lower number = higher priority)
func (e *EnvironmentSettingsSource) Priority() int {
	return 10
}

// Name returns the name of this source
func (e *EnvironmentSettingsSource) Name() string {
	return "environment"
}

// serverVarSuffixes are matched longest first so that _SERVER_ADMIN_PASS is
// not read as _PASS.
var serverVarSuffixes = []string{"_SERVER_ADMIN_PASS", "_RCON_PORT", "_FTP_PORT", "_HOST", "_USER", "_PASS", "_ID"}

// settingsFromVars maps ARK_HOSTER_*, ARKMAN_* and <SERVER>_* variables onto
// settings. Servers without a host only override entries loaded earlier.
func settingsFromVars(vars map[string]string) (*ports.Settings, error) {
	settings := &ports.Settings{}

	settings.Panel.BaseURL = vars[panelEnvPrefix+"BASE_URL"]
	settings.Panel.Email = vars[panelEnvPrefix+"EMAIL"]
	settings.Panel.Password = vars[panelEnvPrefix+"PASSWORD"]
	settings.Panel.UserAgent = vars[panelEnvPrefix+"USER_AGENT"]
	settings.Panel.RestartMessage = vars[panelEnvPrefix+"M_RESTART"]

	if val := vars["ARKMAN_LOG_LEVEL"]; val != "" {
		settings.LogLevel = ports.LogLevel(strings.ToLower(val))
	}
	if val := vars["ARKMAN_DEBUG"]; val == "true" || val == "1" {
		settings.Debug = true
	}
	settings.Paths.IniDir = vars["ARKMAN_INI_DIR"]
	settings.Paths.YAMLDir = vars["ARKMAN_YML_DIR"]
	settings.Paths.IncludesDir = vars["ARKMAN_INCLUDES_DIR"]
	settings.Paths.BackupDir = vars["ARKMAN_BACKUP_DIR"]

	prefixes := make(map[string]bool)
	for k := range vars {
		if strings.HasPrefix(k, panelEnvPrefix) || strings.HasPrefix(k, "ARKMAN_") {
			continue
		}
		for _, suffix := range serverVarSuffixes {
			if prefix, ok := strings.CutSuffix(k, suffix); ok && prefix != "" {
				prefixes[prefix] = true
				break
			}
		}
	}

	names := make([]string, 0, len(prefixes))
	for prefix := range prefixes {
		names = append(names, prefix)
	}
	sort.Strings(names)

	for _, prefix := range names {
		server := fleet.Server{
			Name:          prefix,
			Host:          vars[prefix+"_HOST"],
			PanelID:       vars[prefix+"_ID"],
			User:          vars[prefix+"_USER"],
			Password:      vars[prefix+"_PASS"],
			AdminPassword: vars[prefix+"_SERVER_ADMIN_PASS"],
		}

		var err error
		if server.FTPPort, err = portVar(vars, prefix+"_FTP_PORT"); err != nil {
			return nil, err
		}
		if server.RCONPort, err = portVar(vars, prefix+"_RCON_PORT"); err != nil {
			return nil, err
		}
		settings.Servers = append(settings.Servers, server)
	}

	return settings, nil
}

func portVar(vars map[string]string, key string) (int, error) {
	val := vars[key]
	if val == "" {
		return 0, nil
	}
	port, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || !validPort(port) {
		return 0, fmt.Errorf("%s: invalid port %q", key, val)
	}
	return port, nil
}
