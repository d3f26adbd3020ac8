package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/core/arkconfig"
	"arkman.dev/cli/internal/core/complexvalue"
	"arkman.dev/cli/internal/core/cratesheet"
	"arkman.dev/cli/internal/core/fleet"
)

// ConfigSyncService moves server config files between the servers, the
// local INI mirror and the YAML sources operators edit.
type ConfigSyncService struct {
	settings *ports.Settings
	ftp      ports.FileTransferGateway
	logger   ports.LoggingGateway
}

// NewConfigSyncService creates a new config sync service
func NewConfigSyncService(settings *ports.Settings, ftp ports.FileTransferGateway, logger ports.LoggingGateway) *ConfigSyncService {
	return &ConfigSyncService{
		settings: settings,
		ftp:      ftp,
		logger:   logger,
	}
}

// SyncReport is the outcome of a sync operation on one server. Err is set
// when the server could not be processed at all.
type SyncReport struct {
	Server fleet.Server
	Files  []FileOutcome
	Err    error
}

// FileOutcome is the outcome for one file. Skipped files had no source.
type FileOutcome struct {
	File    string
	Path    string
	Skipped bool
	Err     error
}

// Failed reports whether the server or any of its files failed.
func (r SyncReport) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, f := range r.Files {
		if f.Err != nil {
			return true
		}
	}
	return false
}

// DumpOptions tunes YAML to INI generation.
type DumpOptions struct {
	// StrictEnv fails on ${NAME} placeholders whose variable is unset
	StrictEnv bool
	// ExpandLiterals turns inline literals of structured options into values
	ExpandLiterals bool
}

func (s *ConfigSyncService) iniDir(server fleet.Server) string {
	return filepath.Join(s.settings.Paths.IniDir, server.Name)
}

func (s *ConfigSyncService) yamlPath(file ports.ConfigFile, server string) string {
	stem := strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
	if server == "" {
		return filepath.Join(s.settings.Paths.YAMLDir, stem+".yml")
	}
	return filepath.Join(s.settings.Paths.YAMLDir, stem+"."+server+".yml")
}

// Pull downloads the managed config files of every server into the local
// INI mirror.
func (s *ConfigSyncService) Pull(ctx context.Context, servers []fleet.Server) []SyncReport {
	opID := newOperationID()
	reports := make([]SyncReport, len(servers))

	forEachServer(ctx, servers, DefaultConcurrency, func(ctx context.Context, i int, server fleet.Server) {
		reports[i] = s.pullServer(ctx, opID, server)
	})
	return reports
}

func (s *ConfigSyncService) pullServer(ctx context.Context, opID string, server fleet.Server) SyncReport {
	report := SyncReport{Server: server}

	session, err := s.openConfigDir(ctx, opID, server)
	if err != nil {
		report.Err = err
		return report
	}
	defer s.quit(session, server)

	localDir := s.iniDir(server)
	if err := os.MkdirAll(localDir, 0755); err != nil {
		report.Err = fmt.Errorf("failed to create %s: %w", localDir, err)
		return report
	}

	for _, file := range s.settings.Remote.Files {
		outcome := FileOutcome{File: file.Name, Path: filepath.Join(localDir, file.Name)}

		var buf bytes.Buffer
		if err := session.Retrieve(file.Name, &buf); err != nil {
			outcome.Err = fmt.Errorf("failed to download %s: %w", file.Name, err)
		} else if err := os.WriteFile(outcome.Path, buf.Bytes(), 0644); err != nil {
			outcome.Err = fmt.Errorf("failed to write %s: %w", outcome.Path, err)
		}

		s.logFile(opID, "pull", server, outcome)
		report.Files = append(report.Files, outcome)
	}
	return report
}

// Push uploads the local INI mirror of every server. Files missing locally
// are skipped.
func (s *ConfigSyncService) Push(ctx context.Context, servers []fleet.Server) []SyncReport {
	opID := newOperationID()
	reports := make([]SyncReport, len(servers))

	forEachServer(ctx, servers, DefaultConcurrency, func(ctx context.Context, i int, server fleet.Server) {
		reports[i] = s.pushServer(ctx, opID, server)
	})
	return reports
}

func (s *ConfigSyncService) pushServer(ctx context.Context, opID string, server fleet.Server) SyncReport {
	report := SyncReport{Server: server}

	session, err := s.openConfigDir(ctx, opID, server)
	if err != nil {
		report.Err = err
		return report
	}
	defer s.quit(session, server)

	for _, file := range s.settings.Remote.Files {
		outcome := FileOutcome{File: file.Name, Path: filepath.Join(s.iniDir(server), file.Name)}

		data, err := os.ReadFile(outcome.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			outcome.Skipped = true
		case err != nil:
			outcome.Err = fmt.Errorf("failed to read %s: %w", outcome.Path, err)
		default:
			if err := session.Store(file.Name, bytes.NewReader(data)); err != nil {
				outcome.Err = fmt.Errorf("failed to upload %s: %w", file.Name, err)
			}
		}

		s.logFile(opID, "push", server, outcome)
		report.Files = append(report.Files, outcome)
	}
	return report
}

func (s *ConfigSyncService) openConfigDir(ctx context.Context, opID string, server fleet.Server) (ports.FileTransferSession, error) {
	session, err := s.ftp.Connect(ctx, server)
	if err != nil {
		s.logger.LogError(err, "Could not connect to server", map[string]interface{}{
			"operation_id": opID,
			"server":       server.Name,
			"host":         server.Host,
		})
		return nil, fmt.Errorf("could not connect to %s: %w", server, err)
	}

	if err := session.ChangeDir(s.settings.Remote.ConfigDir); err != nil {
		s.quit(session, server)
		return nil, fmt.Errorf("failed to change directory to %s: %w", s.settings.Remote.ConfigDir, err)
	}
	return session, nil
}

func (s *ConfigSyncService) quit(session ports.FileTransferSession, server fleet.Server) {
	if err := session.Quit(); err != nil {
		s.logger.LogDebug("Closing file transfer session failed", map[string]interface{}{
			"server": server.Name,
			"error":  err.Error(),
		})
	}
}

func (s *ConfigSyncService) logFile(opID, action string, server fleet.Server, outcome FileOutcome) {
	fields := map[string]interface{}{
		"operation_id": opID,
		"action":       action,
		"server":       server.Name,
		"file":         outcome.File,
	}
	switch {
	case outcome.Err != nil:
		s.logger.LogError(outcome.Err, "File transfer failed", fields)
	case outcome.Skipped:
		s.logger.Log(ports.LogLevelWarn, "Local file missing, skipped", fields)
	default:
		s.logger.Log(ports.LogLevelInfo, "File transferred", fields)
	}
}

// Load converts the local INI mirror of every server into YAML sources
// named <Base>.<server>.yml.
func (s *ConfigSyncService) Load(ctx context.Context, servers []fleet.Server, expandLiterals bool) []SyncReport {
	reports := make([]SyncReport, 0, len(servers))

	for _, server := range servers {
		report := SyncReport{Server: server}
		if err := ctx.Err(); err != nil {
			report.Err = err
			reports = append(reports, report)
			continue
		}
		if err := os.MkdirAll(s.settings.Paths.YAMLDir, 0755); err != nil {
			report.Err = fmt.Errorf("failed to create %s: %w", s.settings.Paths.YAMLDir, err)
			reports = append(reports, report)
			continue
		}

		for _, file := range s.settings.Remote.Files {
			iniPath := filepath.Join(s.iniDir(server), file.Name)
			outcome := FileOutcome{File: file.Name, Path: s.yamlPath(file, server.Name)}

			if _, err := os.Stat(iniPath); errors.Is(err, os.ErrNotExist) {
				outcome.Skipped = true
				report.Files = append(report.Files, outcome)
				continue
			}

			outcome.Err = s.iniToYAML(iniPath, outcome.Path, expandLiterals)
			report.Files = append(report.Files, outcome)
		}
		reports = append(reports, report)
	}
	return reports
}

func (s *ConfigSyncService) iniToYAML(iniPath, yamlPath string, expandLiterals bool) error {
	cfg, err := arkconfig.Read(iniPath)
	if err != nil {
		return err
	}
	if expandLiterals {
		if err := cfg.ExpandComplex(); err != nil {
			return fmt.Errorf("%s: %w", iniPath, err)
		}
	}
	s.logger.LogDebug("Writing YAML config", map[string]interface{}{
		"source":   iniPath,
		"target":   yamlPath,
		"encoding": cfg.Encoding.String(),
	})
	return cfg.WriteYAMLFile(yamlPath)
}

// Dump generates INI files from the YAML sources of every server. A shared
// <Base>.yml, when present, is merged under the server's own file.
func (s *ConfigSyncService) Dump(ctx context.Context, servers []fleet.Server, opts DumpOptions) []SyncReport {
	reports := make([]SyncReport, 0, len(servers))

	for _, server := range servers {
		report := SyncReport{Server: server}
		if err := ctx.Err(); err != nil {
			report.Err = err
			reports = append(reports, report)
			continue
		}

		for _, file := range s.settings.Remote.Files {
			yamlPath := s.yamlPath(file, server.Name)
			outcome := FileOutcome{File: file.Name, Path: filepath.Join(s.iniDir(server), file.Name)}

			if _, err := os.Stat(yamlPath); errors.Is(err, os.ErrNotExist) {
				outcome.Skipped = true
				report.Files = append(report.Files, outcome)
				continue
			}

			outcome.Err = s.yamlToINI(file, yamlPath, outcome.Path, opts)
			if outcome.Err != nil {
				s.logger.LogError(outcome.Err, "Dump failed", map[string]interface{}{
					"server": server.Name,
					"file":   file.Name,
				})
			}
			report.Files = append(report.Files, outcome)
		}
		reports = append(reports, report)
	}
	return reports
}

func (s *ConfigSyncService) yamlToINI(file ports.ConfigFile, yamlPath, iniPath string, opts DumpOptions) error {
	readOpts := s.yamlOptions(opts.StrictEnv)

	cfg, err := arkconfig.ReadYAMLFile(yamlPath, readOpts...)
	if err != nil {
		return err
	}

	shared := s.yamlPath(file, "")
	if _, err := os.Stat(shared); err == nil {
		base, err := arkconfig.ReadYAMLFile(shared, readOpts...)
		if err != nil {
			return err
		}
		cfg = base.Merge(cfg)
	}

	if opts.ExpandLiterals {
		if err := cfg.ExpandComplex(); err != nil {
			return fmt.Errorf("%s: %w", yamlPath, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(iniPath), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(iniPath), err)
	}
	cfg.Encoding = file.Encoding
	return cfg.Write(iniPath)
}

func (s *ConfigSyncService) yamlOptions(strict bool) []arkconfig.Option {
	opts := []arkconfig.Option{arkconfig.WithIncludesDir(s.settings.Paths.IncludesDir)}
	if strict {
		opts = append(opts, arkconfig.WithEnvPolicy(arkconfig.EnvStrict))
	}
	return opts
}

// ImportCrates reads a supply crate sheet (.csv or .xlsx) and writes the
// crates as a YAML include fragment. A relative output path is placed in
// the includes directory. It returns the number of crates written.
func (s *ConfigSyncService) ImportCrates(ctx context.Context, input, sheet, output string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	crates, err := s.readCrates(input, sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", input, err)
	}

	data, err := cratesheet.Fragment(crates)
	if err != nil {
		return 0, err
	}

	if !filepath.IsAbs(output) {
		output = filepath.Join(s.settings.Paths.IncludesDir, output)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", filepath.Dir(output), err)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", output, err)
	}

	s.logger.Log(ports.LogLevelInfo, "Supply crates imported", map[string]interface{}{
		"input":  input,
		"output": output,
		"crates": len(crates),
	})
	return len(crates), nil
}

func (s *ConfigSyncService) readCrates(input, sheet string) ([]*complexvalue.SupplyCrateItemsOverride, error) {
	if strings.EqualFold(filepath.Ext(input), ".xlsx") {
		return cratesheet.ReadXLSX(input, sheet)
	}
	return cratesheet.ReadCSVFile(input)
}
