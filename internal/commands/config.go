package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taskly/internal/config"
	"taskly/internal/ui"
)

// NewConfigCmd creates the config command
func NewConfigCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration after defaults, the config file, TASKLY_*
environment variables and flags are merged.

The output is valid YAML and can be saved as ~/.taskly/config.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}

			source := app.Loader.ConfigFileUsed()
			if source == "" {
				source = "built-in defaults"
			}
			fmt.Fprintf(app.Out, "# %s\n", source)
			return writeConfigYAML(app, cfg)
		},
	}
}

func writeConfigYAML(app *App, cfg *config.Config) error {
	redacted := *cfg
	if redacted.OTLPToken != "" {
		redacted.OTLPToken = "********"
	}

	enc := yaml.NewEncoder(app.Out)
	enc.SetIndent(2)
	if err := enc.Encode(&redacted); err != nil {
		fmt.Fprintln(app.Out, ui.RenderStatus("error", "Failed to encode configuration"))
		return err
	}
	return enc.Close()
}
