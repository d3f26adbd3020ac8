package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"arkman.dev/cli/internal/application/services"
	"arkman.dev/cli/internal/core/fleet"
)

// NewRestartCommand creates the restart command
func NewRestartCommand(container *CLIContainer) *cobra.Command {
	var delay int

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Warn players, save, kick and restart the servers",
		Long: `Schedule a restart after a countdown.

Players are warned every five minutes, then every minute, then every 20
seconds. At 30 seconds the world is saved and everyone is kicked. When the
countdown ends the servers are restarted through the hosting panel.
Interrupting the command cancels the restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !fleet.ValidRestartDelay(delay) {
				return fmt.Errorf("invalid delay %d: must be one of %s", delay, joinInts(fleet.RestartDelays))
			}
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printTitle(w, fmt.Sprintf("Restarting %s in %d min.", strings.Join(fleet.Names(servers), ", "), delay))

			report, err := container.Restart.Restart(cmd.Context(), servers, services.RestartOptions{
				Delay: time.Duration(delay) * time.Minute,
				OnNotify: func(secondsLeft int, results []services.CommandResult) {
					printDetail(w, "%02d:%02d warning sent", secondsLeft/60, secondsLeft%60)
					for _, r := range results {
						if r.Err != nil {
							printDetail(w, "  %v", r.Err)
						}
					}
				},
			})
			if err != nil {
				return err
			}
			return printRestartReport(w, report)
		},
	}

	cmd.Flags().IntVarP(&delay, "delay", "d", 15, "Minutes before the restart: "+joinInts(fleet.RestartDelays))
	return cmd
}

func printRestartReport(w io.Writer, report *services.RestartReport) error {
	failed := 0
	for _, o := range report.Outcomes {
		switch {
		case o.Err != nil:
			failed++
			printFail(w, "%s: %v", o.Server.Name, o.Err)
		case o.Response.StatusCode < 200 || o.Response.StatusCode >= 300:
			failed++
			printFail(w, "%s: %d %s", o.Server.Name, o.Response.StatusCode, o.Response.Message)
		default:
			printOK(w, "%s: %s", o.Server.Name, o.Response.Message)
		}
	}
	printDetail(w, "operation %s", report.OperationID)
	return failures(failed, len(report.Outcomes))
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
