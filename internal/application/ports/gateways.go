package ports

import (
	"context"
	"io"
	"time"

	"arkman.dev/cli/internal/core/fleet"
)

// FileTransferGateway opens file transfer sessions to servers
type FileTransferGateway interface {
	// Connect dials the server and logs in with its credentials
	Connect(ctx context.Context, server fleet.Server) (FileTransferSession, error)
}

// FileTransferSession is one logged-in file transfer connection.
// Sessions are not safe for concurrent use.
type FileTransferSession interface {
	// ChangeDir changes the remote working directory
	ChangeDir(path string) error

	// List returns the regular files of the working directory
	List() ([]RemoteFile, error)

	// Retrieve copies a remote file into w
	Retrieve(name string, w io.Writer) error

	// Store uploads r as a remote file
	Store(name string, r io.Reader) error

	// Quit closes the connection
	Quit() error
}

// RemoteFile describes a file on a server
type RemoteFile struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// RemoteConsoleGateway runs console commands on servers
type RemoteConsoleGateway interface {
	// Execute sends a command and returns the server's response
	Execute(ctx context.Context, server fleet.Server, command string) (string, error)
}

// HostingPanelGateway controls servers through the hosting provider's web panel
type HostingPanelGateway interface {
	// Login authenticates against the panel. It must succeed before Restart.
	Login(ctx context.Context) error

	// Restart asks the panel to restart the server with the given panel id
	Restart(ctx context.Context, panelID string) (*PanelResponse, error)
}

// PanelResponse is the panel's answer to a control action
type PanelResponse struct {
	ServerID   string `json:"server_id"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// LoggingGateway defines the interface for logging operations
type LoggingGateway interface {
	// Log logs a message with the specified level
	Log(level LogLevel, message string, fields map[string]interface{})

	// LogError logs an error
	LogError(err error, message string, fields map[string]interface{})

	// LogDebug logs a debug message
	LogDebug(message string, fields map[string]interface{})

	// SetLogLevel sets the logging level
	SetLogLevel(level LogLevel)

	// GetLogLevel returns the current logging level
	GetLogLevel() LogLevel
}

// LogLevel defines the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// Severity orders levels so they can be compared. Unknown levels rank as info.
func (l LogLevel) Severity() int {
	switch l {
	case LogLevelDebug:
		return 0
	case LogLevelWarn:
		return 2
	case LogLevelError:
		return 3
	case LogLevelFatal:
		return 4
	default:
		return 1
	}
}

// ParseLogLevel converts a name to a LogLevel, defaulting to info.
func ParseLogLevel(name string) LogLevel {
	switch l := LogLevel(name); l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal:
		return l
	default:
		return LogLevelInfo
	}
}
