package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"taskly/internal/metrics"
	"taskly/internal/ui"
)

// NewProcessesCmd creates the processes command
func NewProcessesCmd(app *App) *cobra.Command {
	var (
		asJSON bool
		raw    bool
	)

	cmd := &cobra.Command{
		Use:     "processes",
		Aliases: []string{"ps", "top"},
		Short:   "Rank the busiest processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			if raw {
				cfg.NormalizeCPU = false
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

			state, err := s.warmUp(ctx, warmUpTicks)
			if err != nil {
				return err
			}
			if state.Processes == nil {
				return fmt.Errorf("process ranking unavailable, see %s", logTarget(cfg.LogFile))
			}

			if asJSON {
				enc := json.NewEncoder(app.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(state.Processes)
			}
			if !isTerminal(app.Out) {
				return writeProcessTSV(app, state.Processes)
			}

			labels := ui.LabelsFor(newPreferences(cfg, log).Language())
			fmt.Fprintln(app.Out, ui.RenderProcessTable(state.Processes, state.SortBy, labels))
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 0, "number of processes to show")
	cmd.Flags().String("sort", "", "sort key: cpu or memory")
	cmd.Flags().BoolVar(&raw, "raw", false, "report CPU per core instead of normalised to the whole machine")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the ranking as JSON")
	app.bindFlag(cmd, "top_processes", "limit")
	app.bindFlag(cmd, "sort_by", "sort")
	return cmd
}

func writeProcessTSV(app *App, procs []metrics.ProcessSample) error {
	w := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tNAME\tCPU%\tMEM%")
	for _, p := range procs {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%.1f\n", p.PID, p.Name, p.CPUPercent, p.MemoryPercent)
	}
	return w.Flush()
}

func logTarget(path string) string {
	if path == "" {
		return "stderr"
	}
	return path
}
