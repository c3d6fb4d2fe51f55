package cli

import "github.com/spf13/cobra"

type App struct {
	RoutesPath string
}

func Execute() error {
	app := &App{}
	rootCmd := NewRootCmd(app)
	return rootCmd.Execute()
}

func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Tracks scheduled public-transit journeys and exposes their derived state",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(
		&app.RoutesPath,
		"routes",
		"",
		"Path to the route definitions file (overrides ROUTES_FILE)",
	)

	cmd.AddCommand(NewRunCmd(app))
	cmd.AddCommand(NewCheckConfigCmd(app))

	return cmd
}
