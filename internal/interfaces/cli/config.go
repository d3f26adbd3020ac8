package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/application/services"
	"arkman.dev/cli/internal/core/arkconfig"
)

// NewConfigCommand creates the config command
func NewConfigCommand(container *CLIContainer) *cobra.Command {
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage server configuration files",
		Long: `Manage Game.ini and GameUserSettings.ini across the fleet.

Files are pulled into a local INI mirror, loaded into YAML for editing,
dumped back to INI and pushed to the servers.`,
	}

	configCmd.AddCommand(NewConfigShowCommand(container))
	configCmd.AddCommand(NewConfigPathCommand(container))
	configCmd.AddCommand(NewConfigPullCommand(container))
	configCmd.AddCommand(NewConfigPushCommand(container))
	configCmd.AddCommand(NewConfigLoadCommand(container))
	configCmd.AddCommand(NewConfigDumpCommand(container))
	configCmd.AddCommand(NewConfigImportCratesCommand(container))
	configCmd.AddCommand(NewConfigConvertCommand(container))
	configCmd.AddCommand(NewConfigMergeCommand(container))
	configCmd.AddCommand(NewConfigInspectCommand(container))

	return configCmd
}

// NewConfigShowCommand creates the show subcommand
func NewConfigShowCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.SettingsErr != nil {
				return fmt.Errorf("failed to load settings: %w", container.SettingsErr)
			}
			printSettings(cmd.OutOrStdout(), container.Settings)
			return nil
		},
	}
}

func printSettings(w io.Writer, settings *ports.Settings) {
	printTitle(w, "Servers:")
	for _, s := range settings.Servers {
		fmt.Fprintf(w, "  %-16s host=%s ftp=%s rcon=%s panel_id=%s user=%s password=%s admin_password=%s\n",
			s.Name, s.Host, s.FTPAddr(), s.RCONAddr(), orUnset(s.PanelID), orUnset(s.User),
			maskSecret(s.Password), maskSecret(s.AdminPassword))
	}
	if len(settings.Servers) == 0 {
		fmt.Fprintln(w, "  (none)")
	}

	printTitle(w, "Panel:")
	fmt.Fprintf(w, "  Base URL: %s\n", orUnset(settings.Panel.BaseURL))
	fmt.Fprintf(w, "  Email: %s\n", orUnset(settings.Panel.Email))
	fmt.Fprintf(w, "  Password: %s\n", maskSecret(settings.Panel.Password))
	fmt.Fprintf(w, "  Timeout: %ds\n", settings.Panel.Timeout)

	printTitle(w, "Paths:")
	fmt.Fprintf(w, "  INI: %s\n", settings.Paths.IniDir)
	fmt.Fprintf(w, "  YAML: %s\n", settings.Paths.YAMLDir)
	fmt.Fprintf(w, "  Includes: %s\n", settings.Paths.IncludesDir)
	fmt.Fprintf(w, "  Backups: %s\n", settings.Paths.BackupDir)

	printTitle(w, "Remote:")
	fmt.Fprintf(w, "  Config dir: %s\n", settings.Remote.ConfigDir)
	fmt.Fprintf(w, "  Saves dir: %s\n", settings.Remote.SavesDir)
	for _, f := range settings.Remote.Files {
		fmt.Fprintf(w, "  %s (%s)\n", f.Name, f.Encoding)
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// maskSecret masks a password for display
func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "***"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-2)
}

// NewConfigPathCommand creates the path subcommand
func NewConfigPathCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the settings file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), container.SettingsRepo.GetConfigPath())
			return nil
		},
	}
}

// NewConfigPullCommand creates the pull subcommand
func NewConfigPullCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Download server config files into the INI mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			return printSyncReports(cmd.OutOrStdout(), container.ConfigSync.Pull(cmd.Context(), servers))
		},
	}
}

// NewConfigPushCommand creates the push subcommand
func NewConfigPushCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the INI mirror to the servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			return printSyncReports(cmd.OutOrStdout(), container.ConfigSync.Push(cmd.Context(), servers))
		},
	}
}

// NewConfigLoadCommand creates the load subcommand
func NewConfigLoadCommand(container *CLIContainer) *cobra.Command {
	var expand bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Convert the INI mirror into per-server YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			return printSyncReports(cmd.OutOrStdout(), container.ConfigSync.Load(cmd.Context(), servers, expand))
		},
	}

	cmd.Flags().BoolVar(&expand, "expand", false, "Expand inline literals of structured options into YAML mappings")
	return cmd
}

// NewConfigDumpCommand creates the dump subcommand
func NewConfigDumpCommand(container *CLIContainer) *cobra.Command {
	var opts services.DumpOptions

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Render per-server YAML back into the INI mirror",
		Long: `Render configs/yml/<File>.<server>.yml into configs/ini/<server>/<File>.ini.

A shared configs/yml/<File>.yml is merged underneath each server's document,
the server's own values winning.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			return printSyncReports(cmd.OutOrStdout(), container.ConfigSync.Dump(cmd.Context(), servers, opts))
		},
	}

	cmd.Flags().BoolVar(&opts.StrictEnv, "strict-env", false, "Fail on ${NAME} placeholders whose variable is unset")
	cmd.Flags().BoolVar(&opts.ExpandLiterals, "expand", false, "Expand inline literals before rendering")
	return cmd
}

// NewConfigImportCratesCommand creates the import-crates subcommand
func NewConfigImportCratesCommand(container *CLIContainer) *cobra.Command {
	var (
		sheet  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "import-crates <sheet.csv|sheet.xlsx>",
		Short: "Turn a supply crate spreadsheet into a YAML include",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := container.ConfigSync.ImportCrates(cmd.Context(), args[0], sheet, output)
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Imported %d crate overrides from %s", n, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read from an .xlsx file (default first)")
	cmd.Flags().StringVarP(&output, "output", "o", "crates.yml", "Output file, relative to the includes dir")
	return cmd
}

func addConvertFlags(cmd *cobra.Command, opts *services.ConvertOptions, encoding *string) {
	cmd.Flags().StringVar(encoding, "encoding", "", "Encoding of a written INI file: utf-8 or utf-16")
	cmd.Flags().BoolVar(&opts.StrictEnv, "strict-env", false, "Fail on ${NAME} placeholders whose variable is unset")
	cmd.Flags().BoolVar(&opts.ExpandLiterals, "expand", false, "Expand inline literals of structured options")
}

func resolveEncoding(opts *services.ConvertOptions, encoding string) error {
	if encoding == "" {
		return nil
	}
	enc, err := arkconfig.ParseEncoding(encoding)
	if err != nil {
		return err
	}
	opts.Encoding = enc
	return nil
}

// NewConfigConvertCommand creates the convert subcommand
func NewConfigConvertCommand(container *CLIContainer) *cobra.Command {
	var (
		opts     services.ConvertOptions
		encoding string
	)

	cmd := &cobra.Command{
		Use:   "convert <source> <target>",
		Short: "Convert a config file between INI, YAML and JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveEncoding(&opts, encoding); err != nil {
				return err
			}
			if err := container.ConfigSync.Convert(cmd.Context(), args[0], args[1], opts); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "%s -> %s", args[0], args[1])
			return nil
		},
	}

	addConvertFlags(cmd, &opts, &encoding)
	return cmd
}

// NewConfigMergeCommand creates the merge subcommand
func NewConfigMergeCommand(container *CLIContainer) *cobra.Command {
	var (
		opts     services.ConvertOptions
		encoding string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "merge <file>...",
		Short: "Merge config files, later files winning per option",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveEncoding(&opts, encoding); err != nil {
				return err
			}
			if err := container.ConfigSync.MergeFiles(cmd.Context(), args, output, opts); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Merged %d files into %s", len(args), output)
			return nil
		},
	}

	addConvertFlags(cmd, &opts, &encoding)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Merged output file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// NewConfigInspectCommand creates the inspect subcommand
func NewConfigInspectCommand(container *CLIContainer) *cobra.Command {
	var (
		format string
		expand bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print a config file as JSON, YAML, INI or a typed dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := container.ConfigSync.Inspect(cmd.Context(), args[0], expand)
			if err != nil {
				return err
			}
			return renderConfig(cmd.OutOrStdout(), cfg, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml, ini or dump")
	cmd.Flags().BoolVar(&expand, "expand", false, "Expand inline literals of structured options")
	return cmd
}

func renderConfig(w io.Writer, cfg *arkconfig.Config, format string) error {
	switch format {
	case "json":
		data, err := cfg.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case "yaml", "yml":
		data, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(data))
	case "ini":
		fmt.Fprint(w, cfg.Dump(arkconfig.WithNewline("\n")))
	case "dump":
		dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
		for _, name := range cfg.SectionNames() {
			section, err := cfg.Section(name)
			if err != nil {
				return err
			}
			printTitle(w, "["+name+"]")
			for _, item := range section.Items() {
				fmt.Fprintf(w, "%s = ", item.Key)
				dumper.Fdump(w, item.Value)
			}
		}
	default:
		return fmt.Errorf("unknown format %q (want json, yaml, ini or dump)", format)
	}
	return nil
}
