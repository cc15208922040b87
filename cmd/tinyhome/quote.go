package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tinyhome/internal/app/dto"
	domainbooking "tinyhome/internal/domain/booking"
	"tinyhome/internal/domain/shared/daterange"
	"tinyhome/internal/infra/config"
)

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote FROM TO",
		Short: "Price a stay between two YYYY-MM-DD days",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			engine, err := newPricingEngine(cfg)
			if err != nil {
				return err
			}
			stay, err := daterange.Parse(args[0], args[1])
			if err != nil {
				return domainbooking.Invalid("range", err.Error())
			}
			quote := dto.MapQuote(engine.ComputeStay(stay.Start, stay.End))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, night := range quote.Nightly {
				fmt.Fprintf(w, "%s\t%.2f\t%s\n", night.Day, night.Price, night.Rule)
			}
			fmt.Fprintf(w, "subtotal\t%.2f\t\n", quote.Subtotal)
			if quote.DiscountPercent > 0 {
				fmt.Fprintf(w, "discount\t-%.2f\t%d%%\n", quote.DiscountAmount, quote.DiscountPercent)
			}
			fmt.Fprintf(w, "total\t%.2f\t%s, %d nights\n", quote.FinalPrice, quote.Currency, quote.Nights)
			return w.Flush()
		},
	}
}
