// Package ftp moves configuration and save files over plain FTP.
package ftp

import (
	"context"
	"fmt"
	"io"
	"time"

	goftp "github.com/jlaffaye/ftp"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/core/fleet"
)

// DefaultTimeout bounds dialing and each control connection exchange.
const DefaultTimeout = 30 * time.Second

// Gateway implements ports.FileTransferGateway
type Gateway struct {
	timeout time.Duration
	logger  ports.LoggingGateway
}

// NewGateway creates a new FTP gateway
func NewGateway(timeout time.Duration, logger ports.LoggingGateway) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{timeout: timeout, logger: logger}
}

// Connect dials the server's FTP port and logs in with its credentials.
func (g *Gateway) Connect(ctx context.Context, server fleet.Server) (ports.FileTransferSession, error) {
	conn, err := goftp.Dial(server.FTPAddr(),
		goftp.DialWithContext(ctx),
		goftp.DialWithTimeout(g.timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", server.FTPAddr(), err)
	}

	if err := conn.Login(server.User, server.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("failed to log in as %s: %w", server.User, err)
	}

	g.logger.LogDebug("FTP session opened", map[string]interface{}{
		"server": server.Name,
		"addr":   server.FTPAddr(),
	})
	return &session{conn: conn}, nil
}

type session struct {
	conn *goftp.ServerConn
}

func (s *session) ChangeDir(dir string) error {
	return s.conn.ChangeDir(dir)
}

func (s *session) List() ([]ports.RemoteFile, error) {
	entries, err := s.conn.List("")
	if err != nil {
		return nil, err
	}
	return remoteFiles(entries), nil
}

func (s *session) Retrieve(name string, w io.Writer) error {
	resp, err := s.conn.Retr(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, resp); err != nil {
		_ = resp.Close()
		return err
	}
	return resp.Close()
}

func (s *session) Store(name string, r io.Reader) error {
	return s.conn.Stor(name, r)
}

func (s *session) Quit() error {
	return s.conn.Quit()
}

// remoteFiles keeps regular files only.
func remoteFiles(entries []*goftp.Entry) []ports.RemoteFile {
	files := make([]ports.RemoteFile, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.Type != goftp.EntryTypeFile {
			continue
		}
		files = append(files, ports.RemoteFile{
			Name:    e.Name,
			Size:    int64(e.Size),
			ModTime: e.Time,
		})
	}
	return files
}

var _ ports.FileTransferGateway = (*Gateway)(nil)
