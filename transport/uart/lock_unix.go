//go:build unix

package uart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// portLock is an advisory flock on a per-port file so two sessions never
// talk to the same sensor.
type portLock struct {
	file *os.File
}

func lockPath(dir, portName string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(filepath.Base(portName))
	return filepath.Join(dir, "fingerprint-"+name+".lock")
}

func acquireLock(dir, portName string) (*portLock, error) {
	path := lockPath(dir, portName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrPortLocked, portName)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	_ = f.Truncate(0)
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	return &portLock{file: f}, nil
}

func (l *portLock) release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
