package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	constants "taskly/config"
	"taskly/internal/monitor"
	"taskly/internal/process"
	"taskly/internal/ui"
	"taskly/pkg/utils"
)

// warmUpTicks gives rates and CPU deltas one full interval to settle
const warmUpTicks = 2

// NewStatusCmd creates the status command
func NewStatusCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a one-shot system overview",
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

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s := buildStack(ctx, cfg, log)

			var state *monitor.State
			sample := func() error {
				state, err = s.warmUp(ctx, warmUpTicks)
				return err
			}
			if asJSON {
				err = sample()
			} else {
				err = ui.WithSpinner(app.Out, "Sampling system...", sample)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(app.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}

			labels := ui.LabelsFor(newPreferences(cfg, log).Language())
			fmt.Fprintln(app.Out, ui.RenderBanner())
			fmt.Fprintln(app.Out)
			fmt.Fprintln(app.Out, ui.RenderCards(state.Snapshot, labels))
			fmt.Fprintln(app.Out)
			fmt.Fprintln(app.Out, ui.RenderProcessTable(state.Processes, state.SortBy, labels))
			fmt.Fprintln(app.Out)
			fmt.Fprintln(app.Out, ui.RenderAlerts(state.RecentAlerts, time.Now(), labels))
			fmt.Fprintln(app.Out)

			fmt.Fprintln(app.Out, ui.RenderSectionStart("Daemon"))
			running, pid, err := process.Check(constants.PID_FILE)
			switch {
			case err != nil:
				fmt.Fprintln(app.Out, ui.RenderStatus("warning", fmt.Sprintf("Lock check failed: %v", err)))
			case running:
				fmt.Fprintln(app.Out, ui.RenderStatus("success", fmt.Sprintf("Running (PID %d)", pid)))
			default:
				fmt.Fprintln(app.Out, ui.RenderStatus("info", "Not running"))
			}
			fmt.Fprintln(app.Out, ui.RenderKeyValue("Uptime", utils.FormatUptime(state.Snapshot.System.UptimeSeconds)))
			fmt.Fprintln(app.Out, ui.RenderSectionEnd())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the sampled state as JSON")
	return cmd
}
