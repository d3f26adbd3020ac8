package services

import (
	"context"
	"fmt"
	"strings"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/core/fleet"
)

// Console commands understood by the game server.
const (
	CommandListPlayers = "listplayers"
	CommandBroadcast   = "broadcast"
	CommandSaveWorld   = "saveworld"
	CommandKickPlayer  = "kickplayer"
)

// ConsoleService runs remote console commands across the fleet
type ConsoleService struct {
	console     ports.RemoteConsoleGateway
	logger      ports.LoggingGateway
	concurrency int
}

// NewConsoleService creates a new console service
func NewConsoleService(console ports.RemoteConsoleGateway, logger ports.LoggingGateway) *ConsoleService {
	return &ConsoleService{
		console:     console,
		logger:      logger,
		concurrency: DefaultConcurrency,
	}
}

// CommandResult is a server's response to one command
type CommandResult struct {
	Server   fleet.Server
	Response string
	Err      error
}

// PlayerListing lists the players connected to one server
type PlayerListing struct {
	Server  fleet.Server
	Players []fleet.Player
	Err     error
}

// KickReport is the outcome of kicking everyone from one server
type KickReport struct {
	Server fleet.Server
	Kicked []KickResult
	Err    error
}

// KickResult is the outcome of kicking one player
type KickResult struct {
	Player   fleet.Player
	Response string
	Err      error
}

// Run sends the same command to every server. Results keep server order.
func (s *ConsoleService) Run(ctx context.Context, servers []fleet.Server, command string) []CommandResult {
	results := make([]CommandResult, len(servers))

	forEachServer(ctx, servers, s.concurrency, func(ctx context.Context, i int, server fleet.Server) {
		response, err := s.execute(ctx, server, command)
		results[i] = CommandResult{Server: server, Response: response, Err: err}
	})
	return results
}

func (s *ConsoleService) execute(ctx context.Context, server fleet.Server, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.logger.LogDebug("Sending console command", map[string]interface{}{
		"server":  server.Name,
		"command": strings.SplitN(command, " ", 2)[0],
	})

	response, err := s.console.Execute(ctx, server, command)
	if err != nil {
		err = fmt.Errorf("%s: %w", server.Name, err)
		s.logger.LogError(err, "Console command failed", map[string]interface{}{
			"server": server.Name,
			"host":   server.Host,
		})
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// ListPlayers returns the players connected to each server.
func (s *ConsoleService) ListPlayers(ctx context.Context, servers []fleet.Server) []PlayerListing {
	listings := make([]PlayerListing, len(servers))

	forEachServer(ctx, servers, s.concurrency, func(ctx context.Context, i int, server fleet.Server) {
		listings[i] = s.listPlayers(ctx, server)
	})
	return listings
}

func (s *ConsoleService) listPlayers(ctx context.Context, server fleet.Server) PlayerListing {
	response, err := s.execute(ctx, server, CommandListPlayers)
	if err != nil {
		return PlayerListing{Server: server, Err: err}
	}
	return PlayerListing{Server: server, Players: fleet.ParsePlayers(response)}
}

// Broadcast shows a message to every player on the servers.
func (s *ConsoleService) Broadcast(ctx context.Context, servers []fleet.Server, message string) ([]CommandResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("broadcast message cannot be empty")
	}
	return s.Run(ctx, servers, CommandBroadcast+" "+message), nil
}

// SaveWorld saves the world on the servers.
func (s *ConsoleService) SaveWorld(ctx context.Context, servers []fleet.Server) []CommandResult {
	return s.Run(ctx, servers, CommandSaveWorld)
}

// KickPlayer kicks one player, by Steam id, from the servers.
func (s *ConsoleService) KickPlayer(ctx context.Context, servers []fleet.Server, steamID string) ([]CommandResult, error) {
	steamID = strings.TrimSpace(steamID)
	if steamID == "" || strings.ContainsAny(steamID, " \t\r\n") {
		return nil, fmt.Errorf("invalid steam id: %q", steamID)
	}
	return s.Run(ctx, servers, CommandKickPlayer+" "+steamID), nil
}

// KickAll kicks every connected player from the servers.
func (s *ConsoleService) KickAll(ctx context.Context, servers []fleet.Server) []KickReport {
	reports := make([]KickReport, len(servers))

	forEachServer(ctx, servers, s.concurrency, func(ctx context.Context, i int, server fleet.Server) {
		listing := s.listPlayers(ctx, server)
		report := KickReport{Server: server, Err: listing.Err}

		for _, player := range listing.Players {
			response, err := s.execute(ctx, server, CommandKickPlayer+" "+player.SteamID)
			report.Kicked = append(report.Kicked, KickResult{Player: player, Response: response, Err: err})
		}
		reports[i] = report
	})
	return reports
}
