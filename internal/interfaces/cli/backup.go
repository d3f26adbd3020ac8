package cli

import (
	"io"

	"github.com/spf13/cobra"

	"arkman.dev/cli/internal/application/services"
)

// NewBackupCommand creates the backup command
func NewBackupCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Download new or changed saves as gzip files",
		Long: `Back up world, profile and tribe saves of the servers.

A save is fetched when no local copy exists. Live world saves are fetched
again when their remote time moved by more than two minutes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			return printBackupReports(cmd.OutOrStdout(), container.Backup.Backup(cmd.Context(), servers))
		},
	}
}

func printBackupReports(w io.Writer, reports []services.BackupReport) error {
	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
			printFail(w, "%s: %v", r.Server.Name, r.Err)
			continue
		}

		fileErrors := 0
		for _, f := range r.Files {
			if f.Err != nil {
				fileErrors++
			}
		}
		if fileErrors > 0 {
			failed++
			printFail(w, "%s: fetched %d of %d saves", r.Server.Name, r.Fetched(), len(r.Files))
		} else {
			printOK(w, "%s: fetched %d of %d saves", r.Server.Name, r.Fetched(), len(r.Files))
		}
		for _, f := range r.Files {
			switch {
			case f.Err != nil:
				printDetail(w, "%s: %v", f.Name, f.Err)
			case f.Fetched:
				printDetail(w, "%s -> %s", f.Name, f.Path)
			}
		}
	}
	return failures(failed, len(reports))
}
