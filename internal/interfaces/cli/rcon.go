package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"arkman.dev/cli/internal/application/services"
)

// NewRconCommand creates the rcon command
func NewRconCommand(container *CLIContainer) *cobra.Command {
	var rconCmd = &cobra.Command{
		Use:   "rcon",
		Short: "Run admin commands on the servers",
	}

	rconCmd.AddCommand(NewRconPlayersCommand(container))
	rconCmd.AddCommand(NewRconBroadcastCommand(container))
	rconCmd.AddCommand(NewRconSaveWorldCommand(container))
	rconCmd.AddCommand(NewRconKickCommand(container))
	rconCmd.AddCommand(NewRconKickAllCommand(container))
	rconCmd.AddCommand(NewRconExecCommand(container))

	return rconCmd
}

// NewRconPlayersCommand creates the players subcommand
func NewRconPlayersCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "List connected players",
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			return printPlayerListings(cmd.OutOrStdout(), container.Console.ListPlayers(cmd.Context(), servers))
		},
	}
}

func printPlayerListings(w io.Writer, listings []services.PlayerListing) error {
	failed := 0
	total := 0
	for _, l := range listings {
		if l.Err != nil {
			failed++
			printFail(w, "%v", l.Err)
			continue
		}
		total += len(l.Players)
		printOK(w, "%s: %d players", l.Server.Name, len(l.Players))
		for _, p := range l.Players {
			printDetail(w, "%-24s %s", p.Name, p.SteamID)
		}
	}
	fmt.Fprintf(w, "Total: %d players\n", total)
	return failures(failed, len(listings))
}

// NewRconBroadcastCommand creates the broadcast subcommand
func NewRconBroadcastCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast <line>...",
		Short: "Show a message to every player; each argument is one line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			results, err := container.Console.Broadcast(cmd.Context(), servers, strings.Join(args, "\n"))
			if err != nil {
				return err
			}
			return printCommandResults(cmd.OutOrStdout(), results)
		},
	}
}

// NewRconSaveWorldCommand creates the save-world subcommand
func NewRconSaveWorldCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "save-world",
		Short: "Save the world",
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			return printCommandResults(cmd.OutOrStdout(), container.Console.SaveWorld(cmd.Context(), servers))
		},
	}
}

// NewRconKickCommand creates the kick subcommand
func NewRconKickCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "kick <steam-id>",
		Short: "Kick one player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			results, err := container.Console.KickPlayer(cmd.Context(), servers, args[0])
			if err != nil {
				return err
			}
			return printCommandResults(cmd.OutOrStdout(), results)
		},
	}
}

// NewRconKickAllCommand creates the kick-all subcommand
func NewRconKickAllCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "kick-all",
		Short: "Kick every connected player",
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			return printKickReports(cmd.OutOrStdout(), container.Console.KickAll(cmd.Context(), servers))
		},
	}
}

func printKickReports(w io.Writer, reports []services.KickReport) error {
	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
			printFail(w, "%v", r.Err)
			continue
		}
		printOK(w, "%s: kicked %d players", r.Server.Name, len(r.Kicked))
		for _, k := range r.Kicked {
			if k.Err != nil {
				printDetail(w, "%s (%s): %v", k.Player.Name, k.Player.SteamID, k.Err)
				continue
			}
			printDetail(w, "%s (%s)", k.Player.Name, k.Player.SteamID)
		}
	}
	return failures(failed, len(reports))
}

// NewRconExecCommand creates the exec subcommand
func NewRconExecCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command>...",
		Short: "Run a raw console command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := selectedServers(cmd, container)
			if err != nil {
				return err
			}
			return printCommandResults(cmd.OutOrStdout(), container.Console.Run(cmd.Context(), servers, strings.Join(args, " ")))
		},
	}
}
