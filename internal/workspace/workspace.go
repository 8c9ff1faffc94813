package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/presencewatch/internal/logfields"
)

// Manager handles workspace directories.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
	logger     *slog.Logger
}

// NewManager creates a manager with ephemeral timestamped directories under baseDir.
func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, logger: orDefault(logger)}
}

// NewPersistentManager creates a manager for the fixed directory baseDir/subdir, which
// Cleanup leaves in place.
func NewPersistentManager(baseDir, subdir string, logger *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if subdir == "" {
		subdir = "checkout"
	}
	return &Manager{
		baseDir:    baseDir,
		dir:        filepath.Join(baseDir, subdir),
		persistent: true,
		logger:     orDefault(logger),
	}
}

// Create makes the workspace directory. The checkout itself lives in Path().
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
			return fmt.Errorf("failed to create persistent workspace directory: %w", err)
		}
		m.logger.Debug("Using persistent workspace", logfields.Path(m.dir))
		return nil
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base directory: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, "presencewatch-"+time.Now().Format("20060102-150405")+"-")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = filepath.Join(dir, "checkout")
	m.logger.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the checkout path; empty for an ephemeral manager before Create.
func (m *Manager) Path() string { return m.dir }

// Persistent reports whether the workspace survives Cleanup.
func (m *Manager) Persistent() bool { return m.persistent }

// Cleanup removes an ephemeral workspace and does nothing for a persistent one.
func (m *Manager) Cleanup() error {
	if m.dir == "" || m.persistent {
		return nil
	}
	root := filepath.Dir(m.dir)
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	m.logger.Debug("Cleaned up workspace", logfields.Path(root))
	m.dir = ""
	return nil
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
