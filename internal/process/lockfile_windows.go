//go:build windows
// +build windows

package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"taskly/internal/logger"

	gopsprocess "github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/windows"
)

var ErrAlreadyRunning = errors.New("another taskly instance is already running")

var ErrNotRunning = errors.New("taskly daemon is not running")

// lockOffset puts the locked byte past the PID text so other processes can
// still read it
var lockOffset = windows.Overlapped{OffsetHigh: 1}

type LockFile struct {
	path string
	file *os.File
	log  *logger.Logger
}

func (lf *LockFile) Path() string {
	return lf.path
}

func Acquire(pidFile string, log *logger.Logger) (*LockFile, error) {
	if log == nil {
		log = logger.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create PID directory: %w", err)
	}

	f, err := os.OpenFile(pidFile, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open PID file: %w", err)
	}

	ol := lockOffset
	err = windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, &ol)
	if err != nil {
		f.Close()
		return nil, ErrAlreadyRunning
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to truncate PID file: %w", err)
	}
	if _, err := f.WriteAt([]byte(fmt.Sprintf("%d\n", os.Getpid())), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write PID: %w", err)
	}

	log.Info("Acquired PID file lock: %s (PID: %d)", pidFile, os.Getpid())
	return &LockFile{path: pidFile, file: f, log: log}, nil
}

func (lf *LockFile) Release() error {
	if lf == nil || lf.file == nil {
		return nil
	}
	lf.log.Info("Releasing PID file lock: %s", lf.path)

	ol := lockOffset
	windows.UnlockFileEx(windows.Handle(lf.file.Fd()), 0, 1, 0, &ol)
	lf.file.Close()
	os.Remove(lf.path)

	lf.file = nil
	return nil
}

func Check(pidFile string) (bool, int, error) {
	f, err := os.OpenFile(pidFile, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("failed to open PID file: %w", err)
	}
	defer f.Close()

	ol := lockOffset
	h := windows.Handle(f.Fd())
	if err := windows.LockFileEx(h, windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, &ol); err != nil {
		data, _ := os.ReadFile(pidFile)
		pid, _ := strconv.Atoi(strings.TrimSpace(string(data)))
		return true, pid, nil
	}
	windows.UnlockFileEx(h, 0, 1, 0, &ol)
	return false, 0, nil
}

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

func CleanupStale(ctx context.Context, pidFile string, log *logger.Logger) error {
	running, pid, err := Check(pidFile)
	if err != nil {
		return err
	}
	if !running || !IsDaemonProcess(ctx, pid) {
		os.Remove(pidFile)
		return nil
	}
	return fmt.Errorf("taskly daemon is running (PID %d)", pid)
}

// Terminate kills the daemon holding pidFile. Windows has no SIGTERM, so
// the daemon gets no chance to flush.
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
	if err := proc.Kill(); err != nil {
		return pid, fmt.Errorf("failed to stop PID %d: %w", pid, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if running, _, _ := Check(pidFile); !running {
			os.Remove(pidFile)
			return pid, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return pid, fmt.Errorf("daemon (PID %d) did not stop within %s", pid, timeout)
}
