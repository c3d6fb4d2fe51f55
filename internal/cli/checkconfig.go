package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"journey-tracker/internal/config"
	"journey-tracker/internal/journey"
)

func NewCheckConfigCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the route definitions file and print derived keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.RoutesPath
			if path == "" {
				path = os.Getenv("ROUTES_FILE")
			}
			if path == "" {
				path = "routes.toml"
			}

			routes, err := config.LoadRoutes(path)
			if err != nil {
				return err
			}

			for i, d := range routes.Departures {
				key := journey.DeriveKey(d.From, d.Destination, d.Lines, i)
				fmt.Printf("departure %-30s -> %-30s key=%s pause_key=%s\n",
					d.From, d.Destination, key, journey.PauseKey(key))
			}
			for i, w := range routes.JourneyLists {
				key := journey.WindowKey(w.From, w.Destination, w.StartTime, w.EndTime, w.RelatesTo(), i)
				fmt.Printf("journey list %-26s -> %-30s key=%s\n", w.From, w.Destination, key)
			}
			fmt.Printf("%d departures, %d journey lists: OK\n", len(routes.Departures), len(routes.JourneyLists))
			return nil
		},
	}
}
