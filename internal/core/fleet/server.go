// Package fleet models the game servers an operator manages and the small
// amount of protocol text they produce.
package fleet

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	DefaultFTPPort  = 21
	DefaultRCONPort = 27020
)

// ErrUnknownServer is returned when a selection names a server that is not
// part of the fleet.
var ErrUnknownServer = errors.New("unknown server")

// Server holds the connection details of one server instance.
type Server struct {
	Name          string `yaml:"name" json:"name"`
	PanelID       string `yaml:"panel_id,omitempty" json:"panel_id,omitempty"`
	Host          string `yaml:"host" json:"host"`
	FTPPort       int    `yaml:"ftp_port,omitempty" json:"ftp_port,omitempty"`
	User          string `yaml:"user,omitempty" json:"user,omitempty"`
	Password      string `yaml:"password,omitempty" json:"-"`
	AdminPassword string `yaml:"admin_password,omitempty" json:"-"`
	RCONPort      int    `yaml:"rcon_port,omitempty" json:"rcon_port,omitempty"`
}

// EnvPrefix is the prefix of the per-server environment variables,
// e.g. CRYSTAL_ISLES for Crystal_Isles.
func (s Server) EnvPrefix() string {
	return EnvPrefix(s.Name)
}

// EnvPrefix converts a server name to its environment variable prefix.
func EnvPrefix(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(name))
}

// FTPAddr returns host:port for the file transfer connection.
func (s Server) FTPAddr() string {
	port := s.FTPPort
	if port == 0 {
		port = DefaultFTPPort
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(port))
}

// RCONAddr returns host:port for the remote console.
func (s Server) RCONAddr() string {
	port := s.RCONPort
	if port == 0 {
		port = DefaultRCONPort
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(port))
}

func (s Server) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Host)
}

// Select returns the servers named in names, in fleet order. An empty
// selection returns the whole fleet. Names match case-insensitively.
func Select(servers []Server, names []string) ([]Server, error) {
	if len(names) == 0 {
		out := make([]Server, len(servers))
		copy(out, servers)
		return out, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = false
	}

	var out []Server
	for _, s := range servers {
		key := strings.ToLower(s.Name)
		if _, ok := wanted[key]; ok {
			wanted[key] = true
			out = append(out, s)
		}
	}

	var missing []string
	for _, n := range names {
		if !wanted[strings.ToLower(strings.TrimSpace(n))] {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, strings.Join(missing, ", "))
	}
	return out, nil
}

// Names lists server names in order.
func Names(servers []Server) []string {
	out := make([]string, len(servers))
	for i, s := range servers {
		out[i] = s.Name
	}
	return out
}
