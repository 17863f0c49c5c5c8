package commands

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	constants "taskly/config"
	"taskly/internal/metrics"
	"taskly/internal/monitor"
	"taskly/internal/ui"
)

// NewWatchCmd creates the live dashboard command
func NewWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			if cfg.LogFile == "" {
				// stderr would tear the alt screen
				cfg.LogFile = constants.LOG_FILE
			}
			log, err := openLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, cancel := context.WithCancel(parent)
			defer cancel()

			s := buildStack(ctx, cfg, log)
			prefs := newPreferences(cfg, log)

			updates := make(chan *monitor.State, 1)
			s.loop.OnTick(func(st *monitor.State) {
				select {
				case updates <- st:
				default:
					// dashboard is behind; drop the stale state and keep the newest
					select {
					case <-updates:
					default:
					}
					select {
					case updates <- st:
					default:
					}
				}
			})

			loopDone := make(chan error, 1)
			go func() {
				loopDone <- s.loop.Run(ctx)
			}()

			dashboard := ui.NewDashboard(ui.DashboardOptions{
				Updates:        updates,
				Language:       prefs.Language(),
				SortBy:         metrics.ParseSortKey(cfg.SortBy),
				SetSortBy:      s.loop.SetSortBy,
				ToggleLanguage: prefs.Toggle,
				ClearAlerts:    s.evaluator.Clear,
			})

			program := tea.NewProgram(dashboard, tea.WithAltScreen(), tea.WithContext(ctx))
			_, runErr := program.Run()

			cancel()
			if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().String("sort", "", "initial sort key: cpu or memory")
	app.bindFlag(cmd, "sort_by", "sort")
	return cmd
}
