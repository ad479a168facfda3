package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const sessionExt = ".json"

// FileStore keeps one JSON file per session in a directory. The CLI uses
// it for the signed-in user; `serve` can use it when no Redis is
// configured.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore opens (and creates) dir. An empty dir means
// <user config dir>/curricula/sessions.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		dir = filepath.Join(base, "curricula", "sessions")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// file maps a session ID to its path. IDs that could leave the directory
// are rejected.
func (s *FileStore) file(id string) (string, bool) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", false
	}
	return filepath.Join(s.dir, id+sessionExt), true
}

// Get returns the session, or nil, nil when it is missing or expired.
// Expired files are removed on sight.
func (s *FileStore) Get(_ context.Context, id string) (*Session, error) {
	path, ok := s.file(id)
	if !ok {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := readSessionFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() {
		_ = os.Remove(path)
		return nil, nil
	}
	return sess, nil
}

// Set writes the session through a temp file so readers never see a
// partial document.
func (s *FileStore) Set(_ context.Context, sess *Session) error {
	path, ok := s.file(sess.ID)
	if !ok {
		return fmt.Errorf("invalid session id %q", sess.ID)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	path, ok := s.file(id)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Cleanup removes expired and unreadable session files. Other files in the
// directory are left alone.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() || filepath.Ext(e.Name()) != sessionExt {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		sess, err := readSessionFile(path)
		if err == nil && !sess.IsExpired() {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)

func readSessionFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", filepath.Base(path), err)
	}
	return &sess, nil
}

// =============================================================================
// CLI
// =============================================================================

// cliSessionID names the file of the CLI's single signed-in session.
const cliSessionID = "default"

// CLIStore holds the one session `curricula login` creates.
type CLIStore struct {
	files *FileStore
}

// NewCLIStore opens the CLI session store under dir ("" for the default
// location).
func NewCLIStore(dir string) (*CLIStore, error) {
	files, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &CLIStore{files: files}, nil
}

// GetSession returns the signed-in session, or nil when logged out or
// expired.
func (c *CLIStore) GetSession(ctx context.Context) (*Session, error) {
	return c.files.Get(ctx, cliSessionID)
}

// SaveSession replaces the signed-in session.
func (c *CLIStore) SaveSession(ctx context.Context, sess *Session) error {
	sess.ID = cliSessionID
	return c.files.Set(ctx, sess)
}

// DeleteSession logs out.
func (c *CLIStore) DeleteSession(ctx context.Context) error {
	return c.files.Delete(ctx, cliSessionID)
}

// Path returns the session file.
func (c *CLIStore) Path() string {
	path, _ := c.files.file(cliSessionID)
	return path
}
