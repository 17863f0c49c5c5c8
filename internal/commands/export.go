package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	constants "taskly/config"
	"taskly/internal/export"
	"taskly/internal/ui"
)

// NewExportCmd creates the export command
func NewExportCmd(app *App) *cobra.Command {
	var (
		formats []string
		list    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a metrics snapshot to disk",
		Long: fmt.Sprintf(`Sample the system and write one file per requested format into the
export directory. Supported formats: %s.

Use --list to show the most recent exports instead.`, formatNames()),
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

			exporter := export.NewExporter(cfg.ExportDir, log)

			if list {
				files, err := exporter.History(constants.DEFAULT_EXPORT_HISTORY)
				if err != nil {
					return err
				}
				fmt.Fprintln(app.Out, ui.RenderSectionStart("Recent exports"))
				if len(files) == 0 {
					fmt.Fprintln(app.Out, ui.RenderStatus("info", fmt.Sprintf("No exports in %s", exporter.Dir())))
				}
				for _, f := range files {
					fmt.Fprintln(app.Out, ui.RenderStatus("info", filepath.Base(f)))
				}
				fmt.Fprintln(app.Out, ui.RenderSectionEnd())
				return nil
			}

			parsed := make([]export.Format, 0, len(formats))
			for _, f := range formats {
				format, err := export.ParseFormat(f)
				if err != nil {
					return err
				}
				parsed = append(parsed, format)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s := buildStack(ctx, cfg, log)
			state, err := s.warmUp(ctx, warmUpTicks)
			if err != nil {
				return err
			}

			var failed int
			for _, format := range parsed {
				path, err := exporter.Export(state, format)
				if err != nil {
					failed++
					fmt.Fprintln(app.Out, ui.RenderStatus("error", fmt.Sprintf("%s: %v", format, err)))
					continue
				}
				fmt.Fprintln(app.Out, ui.RenderStatus("success", path))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d exports failed", failed, len(parsed))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{string(export.FormatJSON)}, "export formats ("+formatNames()+")")
	cmd.Flags().BoolVar(&list, "list", false, "list recent exports")
	cmd.Flags().String("dir", "", "export directory")
	app.bindFlag(cmd, "export_dir", "dir")
	return cmd
}

func formatNames() string {
	names := make([]string, 0, len(export.Formats))
	for _, f := range export.Formats {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
