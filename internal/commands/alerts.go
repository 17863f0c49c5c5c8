package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	constants "taskly/config"
	"taskly/internal/alerts"
	"taskly/internal/storage"
	"taskly/internal/ui"
)

// NewAlertsCmd creates the alert history command
func NewAlertsCmd(app *App) *cobra.Command {
	var (
		alertType string
		severity  string
		since     time.Duration
		limit     int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show alerts stored by the daemon",
		Long: `Show alerts the daemon stored in the alert database (alert_db).

The database is only written when alert_db is set, for example:
  TASKLY_ALERT_DB=~/.taskly/alerts.db taskly daemon`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			if cfg.AlertDB == "" {
				return fmt.Errorf("alert history is disabled; set alert_db in the config or TASKLY_ALERT_DB")
			}

			db, err := storage.Open(cfg.AlertDB)
			if err != nil {
				return err
			}
			defer storage.Close(db)

			filter := storage.AlertFilter{
				Type:     alerts.AlertType(alertType),
				Severity: alerts.AlertSeverity(severity),
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			records, err := storage.NewAlertRepository(db).List(filter, limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(app.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			list := make([]alerts.Alert, 0, len(records))
			for _, r := range records {
				list = append(list, r.Alert())
			}
			labels := ui.LabelsFor(newPreferences(cfg, nil).Language())
			fmt.Fprintln(app.Out, ui.RenderAlerts(list, time.Now(), labels))
			return nil
		},
	}

	cmd.Flags().StringVar(&alertType, "type", "", "only this alert type: cpu, ram or temperature")
	cmd.Flags().StringVar(&severity, "severity", "", "only this severity: warning or critical")
	cmd.Flags().DurationVar(&since, "since", 0, "only alerts fired within this window, e.g. 24h")
	cmd.Flags().IntVarP(&limit, "limit", "n", constants.DEFAULT_ALERT_HISTORY, "maximum alerts to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the records as JSON")
	return cmd
}
