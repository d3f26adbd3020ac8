package services

import (
	"context"
	"fmt"
	"time"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/core/fleet"
)

// RestartService counts down a restart, warning and finally kicking
// players over the console, then restarts the servers through the panel.
type RestartService struct {
	console *ConsoleService
	panel   ports.HostingPanelGateway
	logger  ports.LoggingGateway
	message string
	sleep   func(ctx context.Context, d time.Duration) error
}

// RestartOption customises a RestartService
type RestartOption func(*RestartService)

// WithSleep replaces the one second countdown wait.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RestartOption {
	return func(s *RestartService) {
		s.sleep = sleep
	}
}

// NewRestartService creates a new restart service. message is the broadcast
// template with {minutes} and {seconds} placeholders.
func NewRestartService(console *ConsoleService, panel ports.HostingPanelGateway, logger ports.LoggingGateway, message string, opts ...RestartOption) *RestartService {
	s := &RestartService{
		console: console,
		panel:   panel,
		logger:  logger,
		message: message,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RestartOptions configures one scheduled restart
type RestartOptions struct {
	Delay time.Duration
	// OnTick is called once per second with the seconds left
	OnTick func(secondsLeft int)
	// OnNotify is called after each warning broadcast
	OnNotify func(secondsLeft int, results []CommandResult)
}

// RestartReport describes a finished restart
type RestartReport struct {
	OperationID   string
	Notifications []int
	Outcomes      []RestartOutcome
}

// RestartOutcome is the panel's answer for one server
type RestartOutcome struct {
	Server   fleet.Server
	Response *ports.PanelResponse
	Err      error
}

// Restart runs the countdown and restarts the servers. Cancelling ctx
// during the countdown aborts the restart without touching the panel.
func (s *RestartService) Restart(ctx context.Context, servers []fleet.Server, opts RestartOptions) (*RestartReport, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers selected")
	}
	for _, server := range servers {
		if server.PanelID == "" {
			return nil, fmt.Errorf("server %s has no panel id", server.Name)
		}
	}

	report := &RestartReport{OperationID: newOperationID()}
	total := int(opts.Delay / time.Second)

	s.logger.Log(ports.LogLevelInfo, "Scheduled server restart", map[string]interface{}{
		"operation_id": report.OperationID,
		"servers":      fleet.Names(servers),
		"delay":        opts.Delay.String(),
	})

	for left := total; left > 0; left-- {
		if fleet.ShouldNotify(left) {
			results := s.console.Run(ctx, servers, CommandBroadcast+" "+fleet.FormatRestartMessage(s.message, left))
			report.Notifications = append(report.Notifications, left)
			if opts.OnNotify != nil {
				opts.OnNotify(left, results)
			}
		}

		if left == fleet.SaveAndKickAt {
			s.saveAndKick(ctx, report.OperationID, servers)
		}

		if opts.OnTick != nil {
			opts.OnTick(left)
		}
		if err := s.sleep(ctx, time.Second); err != nil {
			s.logger.Log(ports.LogLevelWarn, "Restart cancelled", map[string]interface{}{
				"operation_id": report.OperationID,
				"seconds_left": left,
			})
			return nil, fmt.Errorf("restart cancelled: %w", err)
		}
	}

	if err := s.panel.Login(ctx); err != nil {
		s.logger.LogError(err, "Panel login failed", map[string]interface{}{
			"operation_id": report.OperationID,
		})
		return nil, fmt.Errorf("panel login failed: %w", err)
	}

	report.Outcomes = make([]RestartOutcome, len(servers))
	forEachServer(ctx, servers, len(servers), func(ctx context.Context, i int, server fleet.Server) {
		response, err := s.panel.Restart(ctx, server.PanelID)
		if err != nil {
			s.logger.LogError(err, "Restart request failed", map[string]interface{}{
				"operation_id": report.OperationID,
				"server":       server.Name,
			})
		}
		report.Outcomes[i] = RestartOutcome{Server: server, Response: response, Err: err}
	})

	return report, nil
}

func (s *RestartService) saveAndKick(ctx context.Context, opID string, servers []fleet.Server) {
	for _, result := range s.console.SaveWorld(ctx, servers) {
		if result.Err != nil {
			s.logger.LogError(result.Err, "Saving world before restart failed", map[string]interface{}{
				"operation_id": opID,
				"server":       result.Server.Name,
			})
		}
	}

	for _, kick := range s.console.KickAll(ctx, servers) {
		s.logger.Log(ports.LogLevelInfo, "Kicked players before restart", map[string]interface{}{
			"operation_id": opID,
			"server":       kick.Server.Name,
			"players":      len(kick.Kicked),
		})
	}
}
