// Package commands implements the taskly command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskly/internal/ui"
)

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:                "taskly",
		Short:              "Terminal system monitor",
		DisableSuggestions: true,
		SilenceUsage:       true,
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Lookup("version").Changed {
				fmt.Fprintf(app.Out, "v%s\n", app.Version)
				return nil
			}

			fmt.Fprintln(app.Out, ui.RenderBanner())
			fmt.Fprintln(app.Out)
			fmt.Fprintln(app.Out, ui.RenderSectionStart("Commands"))
			for _, c := range cmd.Commands() {
				if c.Hidden {
					continue
				}
				fmt.Fprintln(app.Out, ui.RenderKeyValue(fmt.Sprintf("%-10s", c.Name()), c.Short))
			}
			fmt.Fprintln(app.Out, ui.RenderSectionEnd())
			fmt.Fprintln(app.Out, ui.RenderStatus("info", "Use 'taskly [command] --help' for detailed help"))
			return nil
		},
	}

	rootCmd.SetOut(app.Out)
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.ConfigFile, "config", "", "config file (default ~/.taskly/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warning, error")
	flags.String("log-file", "", "log file path (empty logs to stderr)")
	flags.Duration("interval", 0, "poll interval")
	flags.String("disk", "", "mount point to monitor")
	for key, flag := range map[string]string{
		"log_level":     "log-level",
		"log_file":      "log-file",
		"poll_interval": "interval",
		"disk_path":     "disk",
	} {
		if err := app.Loader.BindFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(
		NewStatusCmd(app),
		NewProcessesCmd(app),
		NewWatchCmd(app),
		NewDaemonCmd(app),
		NewExportCmd(app),
		NewAlertsCmd(app),
		NewLangCmd(app),
		NewConfigCmd(app),
		NewServiceCmd(app),
		NewVersionCmd(app),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute(app *App) {
	if err := NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderStatus("error", err.Error()))
		os.Exit(1)
	}
}
