package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/core/fleet"
)

type logEntry struct {
	level   ports.LogLevel
	message string
	err     error
}

// recordingLogger collects log lines so tests can assert on them
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
	level   ports.LogLevel
}

func (l *recordingLogger) Log(level ports.LogLevel, message string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, message: message})
}

func (l *recordingLogger) LogError(err error, message string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: ports.LogLevelError, message: message, err: err})
}

func (l *recordingLogger) LogDebug(message string, fields map[string]interface{}) {
	l.Log(ports.LogLevelDebug, message, fields)
}

func (l *recordingLogger) SetLogLevel(level ports.LogLevel) { l.level = level }

func (l *recordingLogger) GetLogLevel() ports.LogLevel { return l.level }

func (l *recordingLogger) errors() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == ports.LogLevelError {
			out = append(out, e)
		}
	}
	return out
}

type fakeFile struct {
	data    []byte
	modTime time.Time
}

// fakeFTP is an in-memory file transfer gateway keyed by server name
type fakeFTP struct {
	mu       sync.Mutex
	files    map[string]map[string]fakeFile // server -> absolute path -> file
	refuse   map[string]bool
	retrieve map[string]int // absolute path -> download count
}

func newFakeFTP() *fakeFTP {
	return &fakeFTP{
		files:    map[string]map[string]fakeFile{},
		refuse:   map[string]bool{},
		retrieve: map[string]int{},
	}
}

func (f *fakeFTP) put(server, file string, data []byte, modTime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files[server] == nil {
		f.files[server] = map[string]fakeFile{}
	}
	f.files[server][file] = fakeFile{data: data, modTime: modTime}
}

func (f *fakeFTP) get(server, file string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ff, ok := f.files[server][file]
	return ff.data, ok
}

func (f *fakeFTP) downloads(file string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retrieve[file]
}

func (f *fakeFTP) Connect(ctx context.Context, server fleet.Server) (ports.FileTransferSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse[server.Name] {
		return nil, errors.New("connection refused")
	}
	return &fakeSession{ftp: f, server: server.Name, cwd: "/"}, nil
}

type fakeSession struct {
	ftp    *fakeFTP
	server string
	cwd    string
}

func (s *fakeSession) ChangeDir(dir string) error {
	s.ftp.mu.Lock()
	defer s.ftp.mu.Unlock()
	for p := range s.ftp.files[s.server] {
		if path.Dir(p) == dir {
			s.cwd = dir
			return nil
		}
	}
	return fmt.Errorf("550 %s: no such directory", dir)
}

func (s *fakeSession) List() ([]ports.RemoteFile, error) {
	s.ftp.mu.Lock()
	defer s.ftp.mu.Unlock()
	var out []ports.RemoteFile
	for p, f := range s.ftp.files[s.server] {
		if path.Dir(p) == s.cwd {
			out = append(out, ports.RemoteFile{Name: path.Base(p), Size: int64(len(f.data)), ModTime: f.modTime})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeSession) Retrieve(name string, w io.Writer) error {
	s.ftp.mu.Lock()
	full := path.Join(s.cwd, name)
	f, ok := s.ftp.files[s.server][full]
	s.ftp.retrieve[full]++
	s.ftp.mu.Unlock()
	if !ok {
		return fmt.Errorf("550 %s: not found", name)
	}
	_, err := io.Copy(w, bytes.NewReader(f.data))
	return err
}

func (s *fakeSession) Store(name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.ftp.put(s.server, path.Join(s.cwd, name), data, time.Now())
	return nil
}

func (s *fakeSession) Quit() error { return nil }

// MockConsole is a testify mock of the remote console gateway
type MockConsole struct {
	mock.Mock
}

func (m *MockConsole) Execute(ctx context.Context, server fleet.Server, command string) (string, error) {
	args := m.Called(server.Name, command)
	return args.String(0), args.Error(1)
}

// MockPanel is a testify mock of the hosting panel gateway
type MockPanel struct {
	mock.Mock
}

func (m *MockPanel) Login(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockPanel) Restart(ctx context.Context, panelID string) (*ports.PanelResponse, error) {
	args := m.Called(panelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.PanelResponse), args.Error(1)
}

func testServers() []fleet.Server {
	return []fleet.Server{
		{Name: "Island", PanelID: "101", Host: "10.0.0.1"},
		{Name: "Ragnarok", PanelID: "102", Host: "10.0.0.2"},
	}
}
