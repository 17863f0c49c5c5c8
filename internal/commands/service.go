package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"taskly/internal/service"
	"taskly/internal/ui"
)

// NewServiceCmd creates the service command with subcommands
func NewServiceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the taskly system service",
		Long: `Manage the taskly daemon as a system service (systemd on Linux,
launchd on macOS, the service manager on Windows).

Examples:
  taskly service install   # Install the service
  taskly service start     # Start the service
  taskly service stop      # Stop the service
  taskly service status    # Check service status
  taskly service remove    # Remove the service`,
	}

	install := func(svc *service.Service) (string, error) {
		if app.ConfigFile != "" {
			path, err := filepath.Abs(app.ConfigFile)
			if err != nil {
				return "", err
			}
			return svc.Install("--config", path)
		}
		return svc.Install()
	}

	cmd.AddCommand(
		newServiceActionCmd(app, "install", "Install taskly as a system service", "Installing Service", install),
		newServiceActionCmd(app, "remove", "Remove the taskly system service", "Removing Service", (*service.Service).Remove),
		newServiceActionCmd(app, "start", "Start the taskly service", "Starting Service", (*service.Service).Start),
		newServiceActionCmd(app, "stop", "Stop the taskly service", "Stopping Service", (*service.Service).Stop),
		newServiceActionCmd(app, "status", "Show the taskly service status", "Service Status", (*service.Service).Status),
	)
	return cmd
}

func newServiceActionCmd(app *App, use, short, title string, action func(*service.Service) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			log, err := openLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			fmt.Fprintln(app.Out, ui.RenderSectionStart(title))
			defer fmt.Fprintln(app.Out, ui.RenderSectionEnd())

			svc, err := service.New(log)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			status, err := action(svc)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, ui.RenderStatus("success", status))
			return nil
		},
	}
}
