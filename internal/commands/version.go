package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"taskly/internal/ui"
)

// NewVersionCmd creates the version command
func NewVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(app.Out, ui.RenderSectionStart("Version"))
			fmt.Fprintln(app.Out, ui.RenderKeyValue("Version", "v"+app.Version))
			fmt.Fprintln(app.Out, ui.RenderKeyValue("Go", runtime.Version()))
			fmt.Fprintln(app.Out, ui.RenderKeyValue("Platform", runtime.GOOS+"/"+runtime.GOARCH))
			fmt.Fprintln(app.Out, ui.RenderSectionEnd())
		},
	}
}
