package cli

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"moneymanager/internal/core"
	"moneymanager/internal/rates"
)

func (r *Runner) ratesCommand() *cobra.Command {
	var (
		bases  []string
		amount string
	)
	cmd := &cobra.Command{
		Use:   "rates [CURRENCY...]",
		Short: "Show exchange rates for a base currency",
		Long: `Show exchange rates for one or more base currencies. With no
arguments the selectable currencies are listed; pass codes to pick others.

Selectable bases: ` + strings.Join(rates.AvailableCurrencies, ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.App(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if app.Rates == nil {
				return ErrRatesNotConfigured
			}

			value := decimal.Zero
			if amount != "" {
				if value, err = core.ParseAmount(amount); err != nil {
					return err
				}
			}
			if len(bases) == 0 {
				bases = []string{app.Config.BaseCurrency}
			}
			codes := rates.AvailableCurrencies
			if len(args) > 0 {
				codes = nil
				for _, a := range args {
					code, err := rates.NormalizeCode(a)
					if err != nil {
						return err
					}
					codes = append(codes, code)
				}
			}

			var views []RateView
			if len(bases) == 1 {
				t, err := app.Rates.Latest(ctx, bases[0])
				if err != nil {
					return err
				}
				views = append(views, rateView(t, codes, value))
			} else {
				tables, err := app.Rates.Tables(ctx, bases)
				if err != nil {
					return err
				}
				for _, b := range bases {
					code, _ := rates.NormalizeCode(b)
					if t, ok := tables[code]; ok {
						views = append(views, rateView(t, codes, value))
					}
				}
			}
			return r.printer.Rates(views)
		},
	}
	cmd.Flags().StringSliceVarP(&bases, "base", "b", nil, "Base currency; repeat or comma-separate for several")
	cmd.Flags().StringVar(&amount, "amount", "", "Convert this amount from the base currency")
	return cmd
}
