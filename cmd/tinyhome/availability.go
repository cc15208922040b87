package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"tinyhome/internal/app/dto"
	availabilityapp "tinyhome/internal/app/handlers/availability"
	"tinyhome/internal/app/queries"
	"tinyhome/internal/infra/config"
	"tinyhome/internal/infra/obs"
)

func newAvailabilityCmd() *cobra.Command {
	var days bool

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Print the merged availability (or the booked days) as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
			app, err := buildApplication(cfg, logger, dependencies{})
			if err != nil {
				return err
			}
			defer app.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if days {
				view, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.CalendarView](cmd.Context(), app.queries, availabilityapp.GetCalendarQuery{})
				if err != nil {
					return err
				}
				return enc.Encode(view)
			}
			result, err := queries.Ask[availabilityapp.GetAvailabilityQuery, dto.Availability](cmd.Context(), app.queries, availabilityapp.GetAvailabilityQuery{})
			if err != nil {
				return err
			}
			return enc.Encode(result)
		},
	}
	cmd.Flags().BoolVar(&days, "days", false, "print booked and arrival days instead of events")
	return cmd
}
