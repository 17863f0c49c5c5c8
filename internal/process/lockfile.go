//go:build !windows
// +build !windows

// Package process keeps a single taskly daemon per user through a flock'ed
// PID file.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"taskly/internal/logger"

	gopsprocess "github.com/shirou/gopsutil/v4/process"
)

// ErrAlreadyRunning is returned when another daemon holds the lock
var ErrAlreadyRunning = errors.New("another taskly instance is already running")

// ErrNotRunning is returned when no daemon holds the lock
var ErrNotRunning = errors.New("taskly daemon is not running")

// LockFile represents an exclusive lock on a PID file
type LockFile struct {
	path string
	fd   int
	log  *logger.Logger
}

// Path returns the PID file path
func (lf *LockFile) Path() string {
	return lf.path
}

// Acquire creates and locks the PID file. It fails with ErrAlreadyRunning
// when another process holds the lock.
func Acquire(pidFile string, log *logger.Logger) (*LockFile, error) {
	if log == nil {
		log = logger.Discard()
	}
	return acquire(pidFile, log, true)
}

func acquire(pidFile string, log *logger.Logger, retryStale bool) (*LockFile, error) {
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create PID directory: %w", err)
	}

	// Open without truncating: the old PID stays readable until we hold the lock
	fd, err := syscall.Open(pidFile, syscall.O_RDWR|syscall.O_CREAT, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open PID file: %w", err)
	}

	if err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		syscall.Close(fd)

		if isStale, stalePID := checkStaleLock(pidFile); isStale && retryStale {
			log.Info("Cleaning up stale PID file (process %d no longer exists)", stalePID)
			os.Remove(pidFile)
			return acquire(pidFile, log, false)
		}
		return nil, ErrAlreadyRunning
	}

	if err := syscall.Ftruncate(fd, 0); err != nil {
		syscall.Flock(fd, syscall.LOCK_UN)
		syscall.Close(fd)
		return nil, fmt.Errorf("failed to truncate PID file: %w", err)
	}

	pid := fmt.Sprintf("%d\n", os.Getpid())
	if _, err := syscall.Write(fd, []byte(pid)); err != nil {
		syscall.Flock(fd, syscall.LOCK_UN)
		syscall.Close(fd)
		return nil, fmt.Errorf("failed to write PID: %w", err)
	}

	log.Info("Acquired PID file lock: %s (PID: %d)", pidFile, os.Getpid())

	// fd stays open to hold the lock
	return &LockFile{path: pidFile, fd: fd, log: log}, nil
}

// Release unlocks and removes the PID file. Safe to call more than once.
func (lf *LockFile) Release() error {
	if lf == nil || lf.fd <= 0 {
		return nil
	}

	lf.log.Info("Releasing PID file lock: %s", lf.path)

	syscall.Flock(lf.fd, syscall.LOCK_UN)
	syscall.Close(lf.fd)
	os.Remove(lf.path)

	lf.fd = 0
	return nil
}

// Check reports whether a process holds the lock on pidFile and its PID
func Check(pidFile string) (bool, int, error) {
	fd, err := syscall.Open(pidFile, syscall.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("failed to open PID file: %w", err)
	}
	defer syscall.Close(fd)

	if err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return true, readPIDFromFd(fd), nil
	}

	syscall.Flock(fd, syscall.LOCK_UN)
	return false, 0, nil
}

// checkStaleLock reports whether pidFile exists but nobody holds its lock
func checkStaleLock(pidFile string) (bool, int) {
	fd, err := syscall.Open(pidFile, syscall.O_RDONLY, 0)
	if err != nil {
		return false, 0
	}
	defer syscall.Close(fd)

	if err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return false, 0
	}
	syscall.Flock(fd, syscall.LOCK_UN)

	return true, readPIDFromFd(fd)
}

func readPIDFromFd(fd int) int {
	buf := make([]byte, 32)
	n, err := syscall.Read(fd, buf)
	if err != nil || n == 0 {
		return 0
	}

	var pid int
	fmt.Sscanf(string(buf[:n]), "%d", &pid)
	return pid
}

// IsDaemonProcess verifies that pid is a taskly daemon, guarding against
// PID reuse
func IsDaemonProcess(ctx context.Context, pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := gopsprocess.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return false
	}
	cmdline, err := p.CmdlineWithContext(ctx)
	if err != nil {
		return false
	}

	cmdline = strings.ToLower(cmdline)
	return strings.Contains(cmdline, "taskly") && strings.Contains(cmdline, "daemon")
}

// CleanupStale removes pidFile when no live daemon owns it
func CleanupStale(ctx context.Context, pidFile string, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}

	running, pid, err := Check(pidFile)
	if err != nil {
		return err
	}
	if !running {
		os.Remove(pidFile)
		return nil
	}

	if !IsDaemonProcess(ctx, pid) {
		log.Info("PID file contains PID of non-taskly process (%d), cleaning up", pid)
		os.Remove(pidFile)
		return nil
	}
	return fmt.Errorf("taskly daemon is running (PID %d)", pid)
}

// Terminate sends SIGTERM to the daemon holding pidFile and waits up to
// timeout for it to release the lock
func Terminate(ctx context.Context, pidFile string, timeout time.Duration) (int, error) {
	running, pid, err := Check(pidFile)
	if err != nil {
		return 0, err
	}
	if !running || pid <= 0 {
		return 0, ErrNotRunning
	}
	if !IsDaemonProcess(ctx, pid) {
		return pid, fmt.Errorf("PID %d does not belong to a taskly daemon", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return pid, fmt.Errorf("failed to signal PID %d: %w", pid, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if running, _, _ := Check(pidFile); !running {
			return pid, nil
		}
		select {
		case <-ctx.Done():
			return pid, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return pid, fmt.Errorf("daemon (PID %d) did not stop within %s", pid, timeout)
}
