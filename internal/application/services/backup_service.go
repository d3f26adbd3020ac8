package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/core/fleet"
)

// BackupService keeps gzip copies of server saves on the local disk
type BackupService struct {
	settings *ports.Settings
	ftp      ports.FileTransferGateway
	logger   ports.LoggingGateway
}

// NewBackupService creates a new backup service
func NewBackupService(settings *ports.Settings, ftp ports.FileTransferGateway, logger ports.LoggingGateway) *BackupService {
	return &BackupService{
		settings: settings,
		ftp:      ftp,
		logger:   logger,
	}
}

// BackupReport is the outcome of backing up one server
type BackupReport struct {
	Server fleet.Server
	Files  []BackupFile
	Err    error
}

// BackupFile is the outcome for one remote file
type BackupFile struct {
	Name    string
	Path    string
	Fetched bool
	Err     error
}

// Fetched counts the files that were downloaded.
func (r BackupReport) Fetched() int {
	n := 0
	for _, f := range r.Files {
		if f.Fetched {
			n++
		}
	}
	return n
}

// Backup fetches new or changed saves of every server. Saves already backed
// up are skipped unless they are live world saves whose remote time moved.
func (s *BackupService) Backup(ctx context.Context, servers []fleet.Server) []BackupReport {
	opID := newOperationID()
	reports := make([]BackupReport, len(servers))

	forEachServer(ctx, servers, DefaultConcurrency, func(ctx context.Context, i int, server fleet.Server) {
		reports[i] = s.backupServer(ctx, opID, server)
		if reports[i].Err != nil {
			s.logger.LogError(reports[i].Err, "Backup failed", map[string]interface{}{
				"operation_id": opID,
				"server":       server.Name,
			})
		}
	})
	return reports
}

func (s *BackupService) backupServer(ctx context.Context, opID string, server fleet.Server) BackupReport {
	report := BackupReport{Server: server}

	session, err := s.ftp.Connect(ctx, server)
	if err != nil {
		report.Err = fmt.Errorf("could not connect to %s: %w", server, err)
		return report
	}
	defer func() {
		_ = session.Quit()
	}()

	if err := session.ChangeDir(s.settings.Remote.SavesDir); err != nil {
		report.Err = fmt.Errorf("failed to change directory to %s: %w", s.settings.Remote.SavesDir, err)
		return report
	}

	files, err := session.List()
	if err != nil {
		report.Err = fmt.Errorf("failed to list %s: %w", s.settings.Remote.SavesDir, err)
		return report
	}

	localDir := filepath.Join(s.settings.Paths.BackupDir, server.Name)
	if err := os.MkdirAll(localDir, 0755); err != nil {
		report.Err = fmt.Errorf("failed to create %s: %w", localDir, err)
		return report
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			report.Err = err
			return report
		}

		entry := BackupFile{Name: file.Name, Path: filepath.Join(localDir, file.Name+".gz")}
		if !fleet.NeedsBackup(file.Name, file.ModTime, localModTime(entry.Path)) {
			report.Files = append(report.Files, entry)
			continue
		}

		entry.Err = s.fetch(session, file, entry.Path)
		entry.Fetched = entry.Err == nil
		s.logger.LogDebug("Backed up save", map[string]interface{}{
			"operation_id": opID,
			"server":       server.Name,
			"file":         file.Name,
			"ok":           entry.Fetched,
		})
		report.Files = append(report.Files, entry)
	}
	return report
}

func localModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (s *BackupService) fetch(session ports.FileTransferSession, file ports.RemoteFile, path string) error {
	var raw bytes.Buffer
	if err := session.Retrieve(file.Name, &raw); err != nil {
		return fmt.Errorf("failed to download %s: %w", file.Name, err)
	}

	data, err := gzipBytes(raw.Bytes(), file.Name, file.ModTime)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if !file.ModTime.IsZero() {
		if err := os.Chtimes(path, file.ModTime, file.ModTime); err != nil {
			return fmt.Errorf("failed to set times on %s: %w", path, err)
		}
	}
	return nil
}

func gzipBytes(data []byte, name string, modTime time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Name = name
	zw.ModTime = modTime

	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", name, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
