package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskly/internal/preferences"
	"taskly/internal/ui"
)

// NewLangCmd creates the language preference command
func NewLangCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "lang [fr|en|toggle]",
		Short:     "Show or change the display language",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"fr", "en", "toggle"},
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

			return runLang(app, newPreferences(cfg, log), args)
		},
	}
}

func runLang(app *App, prefs *preferences.Store, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(app.Out, ui.RenderKeyValue("Language", prefs.Language()))
		fmt.Fprintln(app.Out, ui.RenderKeyValue("Allowed", strings.Join(prefs.Allowed(), ", ")))
		fmt.Fprintln(app.Out, ui.RenderKeyValue("File", prefs.Path()))
		return nil
	}

	var (
		lang string
		err  error
	)
	if strings.EqualFold(args[0], "toggle") {
		lang, err = prefs.Toggle()
	} else {
		lang = strings.ToLower(args[0])
		err = prefs.SetLanguage(lang)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, ui.RenderStatus("success", ui.LabelsFor(lang).LanguageSet))
	return nil
}
