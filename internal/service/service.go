// Package service installs taskly as a system service and talks to systemd
// while the daemon runs.
package service

import (
	"fmt"
	"os"

	"github.com/takama/daemon"

	constants "taskly/config"
	"taskly/internal/logger"
)

// Service wraps takama/daemon for cross-platform service management
type Service struct {
	daemon daemon.Daemon
	log    *logger.Logger
}

// New creates a Service. Root installs a system daemon; other users get a
// per-user agent.
func New(log *logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.Discard()
	}

	kind := daemon.UserAgent
	if os.Geteuid() == 0 {
		kind = daemon.SystemDaemon
	}

	d, err := daemon.New(constants.SERVICE_NAME, constants.SERVICE_DESC, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon: %w", err)
	}

	return &Service{daemon: d, log: log}, nil
}

// Install registers the service to run `taskly daemon` with extra args
func (s *Service) Install(args ...string) (string, error) {
	status, err := s.daemon.Install(append([]string{"daemon"}, args...)...)
	if err != nil {
		return status, err
	}

	s.log.Info("Service installed: %s", status)
	return status, nil
}

// Remove removes the service
func (s *Service) Remove() (string, error) {
	status, err := s.daemon.Remove()
	if err != nil {
		return status, err
	}

	s.log.Info("Service removed: %s", status)
	return status, nil
}

// Start starts the service
func (s *Service) Start() (string, error) {
	status, err := s.daemon.Start()
	if err != nil {
		return status, err
	}

	s.log.Info("Service started: %s", status)
	return status, nil
}

// Stop stops the service
func (s *Service) Stop() (string, error) {
	status, err := s.daemon.Stop()
	if err != nil {
		return status, err
	}

	s.log.Info("Service stopped: %s", status)
	return status, nil
}

// Status returns the service manager's status line
func (s *Service) Status() (string, error) {
	return s.daemon.Status()
}
