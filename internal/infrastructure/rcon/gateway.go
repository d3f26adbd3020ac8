// Package rcon sends admin commands to game servers over Source RCON.
package rcon

import (
	"context"
	"fmt"
	"time"

	"github.com/gorcon/rcon"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/core/fleet"
)

// DefaultTimeout bounds dialing and each command round trip.
const DefaultTimeout = 10 * time.Second

// Gateway implements ports.RemoteConsoleGateway. Each command opens its own
// authenticated connection.
type Gateway struct {
	timeout time.Duration
	logger  ports.LoggingGateway
}

// NewGateway creates a new RCON gateway
func NewGateway(timeout time.Duration, logger ports.LoggingGateway) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{timeout: timeout, logger: logger}
}

type result struct {
	response string
	err      error
}

// Execute runs command on server and returns its raw response.
func (g *Gateway) Execute(ctx context.Context, server fleet.Server, command string) (string, error) {
	if server.AdminPassword == "" {
		return "", fmt.Errorf("no admin password configured for %s", server.Name)
	}

	done := make(chan result, 1)
	go func() {
		response, err := g.execute(server, command)
		done <- result{response: response, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.response, r.err
	}
}

func (g *Gateway) execute(server fleet.Server, command string) (string, error) {
	conn, err := rcon.Dial(server.RCONAddr(), server.AdminPassword,
		rcon.SetDialTimeout(g.timeout),
		rcon.SetDeadline(g.timeout),
	)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", server.RCONAddr(), err)
	}
	defer func() {
		_ = conn.Close()
	}()

	start := time.Now()
	response, err := conn.Execute(command)
	if err != nil {
		return "", fmt.Errorf("command failed: %w", err)
	}

	g.logger.LogDebug("RCON command executed", map[string]interface{}{
		"server":  server.Name,
		"command": command,
		"latency": time.Since(start).String(),
	})
	return response, nil
}

var _ ports.RemoteConsoleGateway = (*Gateway)(nil)
