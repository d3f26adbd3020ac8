package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"arkman.dev/cli/internal/core/arkconfig"
)

// Format is a config file representation, chosen by file extension.
type Format string

const (
	FormatINI  Format = "ini"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf returns the format of a path from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		return FormatINI, nil
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension: %q", filepath.Ext(path))
	}
}

// ConvertOptions tunes single-file conversions.
type ConvertOptions struct {
	// Encoding of written INI files. Defaults to the source's encoding, or
	// UTF-8 when the source is not INI.
	Encoding       arkconfig.Encoding
	StrictEnv      bool
	ExpandLiterals bool
}

// ReadFile loads an INI or YAML file. YAML includes resolve from the
// configured includes directory.
func (s *ConfigSyncService) ReadFile(ctx context.Context, path string, strictEnv bool) (*arkconfig.Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatINI:
		return arkconfig.Read(path)
	case FormatYAML:
		return arkconfig.ReadYAMLFile(path, s.yamlOptions(strictEnv)...)
	default:
		return nil, fmt.Errorf("cannot read config from %s files", format)
	}
}

// WriteFile stores a config in the format given by the path's extension.
func (s *ConfigSyncService) WriteFile(cfg *arkconfig.Config, path string, enc arkconfig.Encoding) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	switch format {
	case FormatINI:
		if enc == "" {
			enc = cfg.Encoding
		}
		if enc == "" {
			enc = arkconfig.UTF8
		}
		return cfg.Write(path, arkconfig.WithEncoding(enc))
	case FormatYAML:
		return cfg.WriteYAMLFile(path)
	default:
		data, err := cfg.ToJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	}
}

// Convert rewrites one config file in another format.
func (s *ConfigSyncService) Convert(ctx context.Context, src, dst string, opts ConvertOptions) error {
	cfg, err := s.ReadFile(ctx, src, opts.StrictEnv)
	if err != nil {
		return err
	}
	if opts.ExpandLiterals {
		if err := cfg.ExpandComplex(); err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
	}

	if err := s.WriteFile(cfg, dst, opts.Encoding); err != nil {
		return err
	}
	s.logger.LogDebug("Config converted", map[string]interface{}{
		"source": src,
		"target": dst,
	})
	return nil
}

// MergeFiles merges config files left to right, later files winning per
// option, and writes the result to dst.
func (s *ConfigSyncService) MergeFiles(ctx context.Context, srcs []string, dst string, opts ConvertOptions) error {
	if len(srcs) == 0 {
		return fmt.Errorf("nothing to merge")
	}

	var merged *arkconfig.Config
	for _, src := range srcs {
		cfg, err := s.ReadFile(ctx, src, opts.StrictEnv)
		if err != nil {
			return err
		}
		if merged == nil {
			merged = cfg
			continue
		}
		merged = merged.Merge(cfg)
	}

	if opts.ExpandLiterals {
		if err := merged.ExpandComplex(); err != nil {
			return err
		}
	}
	return s.WriteFile(merged, dst, opts.Encoding)
}

// Inspect loads a config file for display.
func (s *ConfigSyncService) Inspect(ctx context.Context, path string, expandLiterals bool) (*arkconfig.Config, error) {
	cfg, err := s.ReadFile(ctx, path, false)
	if err != nil {
		return nil, err
	}
	if expandLiterals {
		if err := cfg.ExpandComplex(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return cfg, nil
}
