package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"moneymanager/internal/core"
	"moneymanager/internal/rates"
)

// Output formats accepted by -o.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var outputFormats = []string{FormatTable, FormatJSON, FormatYAML}

// Printer renders command results in the selected format.
type Printer struct {
	w      io.Writer
	format string
}

func NewPrinter(w io.Writer, format string) (*Printer, error) {
	for _, f := range outputFormats {
		if f == format {
			return &Printer{w: w, format: format}, nil
		}
	}
	return nil, fmt.Errorf("invalid output format %q: must be one of %v", format, outputFormats)
}

// print writes v as JSON or YAML, or calls table for the table format.
func (p *Printer) print(v any, table func(tw *tabwriter.Writer)) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

// MonthView is one month group as printed by the list command.
type MonthView struct {
	Month    string         `json:"month" yaml:"month"`
	Total    string         `json:"total" yaml:"total"`
	Expenses []core.Expense `json:"expenses" yaml:"expenses"`
}

func monthViews(g core.Groups) []MonthView {
	months := g.Months()
	out := make([]MonthView, 0, len(months))
	for _, m := range months {
		total := decimal.Zero
		for _, e := range g[m] {
			total = total.Add(e.Amount)
		}
		out = append(out, MonthView{Month: m, Total: core.FormatAmount(total), Expenses: g[m]})
	}
	return out
}

// Groups prints the month groups, latest month first.
func (p *Printer) Groups(g core.Groups) error {
	views := monthViews(g)
	return p.print(views, func(tw *tabwriter.Writer) {
		if len(views) == 0 {
			fmt.Fprintln(tw, "No expenses yet.")
			return
		}
		fmt.Fprintln(tw, "ID\tDATE\tTITLE\tAMOUNT\tRECEIPT")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t\t\t%s\t\n", v.Month, v.Total)
			for _, e := range v.Expenses {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Date.Display(), e.Title, core.FormatAmount(e.Amount), receiptMark(e))
			}
		}
	})
}

// Expense prints a single record.
func (p *Printer) Expense(e core.Expense) error {
	return p.print(e, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "ID:\t%s\n", e.ID)
		fmt.Fprintf(tw, "Title:\t%s\n", e.Title)
		fmt.Fprintf(tw, "Amount:\t%s\n", core.FormatAmount(e.Amount))
		fmt.Fprintf(tw, "Date:\t%s\n", e.Date.Display())
		fmt.Fprintf(tw, "Month:\t%s\n", e.Month)
		if e.ImageURL != "" {
			fmt.Fprintf(tw, "Receipt:\t%s\n", e.ImageURL)
		}
	})
}

// Receipts prints the records that carry an image.
func (p *Printer) Receipts(items []core.Expense) error {
	return p.print(items, func(tw *tabwriter.Writer) {
		if len(items) == 0 {
			fmt.Fprintln(tw, "No receipts.")
			return
		}
		fmt.Fprintln(tw, "ID\tDATE\tTITLE\tURL")
		for _, e := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Date.Display(), e.Title, e.ImageURL)
		}
	})
}

// SummaryView is the dashboard as printed.
type SummaryView struct {
	Year    int           `json:"year" yaml:"year"`
	Monthly []MonthAmount `json:"monthly" yaml:"monthly"`
	Total   string        `json:"total" yaml:"total"`
}

type MonthAmount struct {
	Month  string `json:"month" yaml:"month"`
	Amount string `json:"amount" yaml:"amount"`
}

func summaryView(s core.SpendingSummary) SummaryView {
	v := SummaryView{Year: s.Year, Total: core.FormatAmount(s.Total)}
	for _, m := range s.Monthly {
		v.Monthly = append(v.Monthly, MonthAmount{Month: m.Month.String(), Amount: core.FormatAmount(m.Amount)})
	}
	return v
}

// Summary prints monthly and yearly spending.
func (p *Printer) Summary(s core.SpendingSummary) error {
	v := summaryView(s)
	return p.print(v, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "MONTH\t%d\n", v.Year)
		for _, m := range v.Monthly {
			fmt.Fprintf(tw, "%s\t%s\n", m.Month, m.Amount)
		}
		fmt.Fprintf(tw, "Total\t%s\n", v.Total)
	})
}

// RateView is one base currency's table as printed.
type RateView struct {
	Base      string    `json:"base" yaml:"base"`
	FetchedAt time.Time `json:"fetchedAt" yaml:"fetchedAt"`
	Rates     []RateRow `json:"rates" yaml:"rates"`
}

type RateRow struct {
	Currency  string `json:"currency" yaml:"currency"`
	Rate      string `json:"rate" yaml:"rate"`
	Converted string `json:"converted,omitempty" yaml:"converted,omitempty"`
}

func rateView(t core.RateTable, codes []string, amount decimal.Decimal) RateView {
	v := RateView{Base: t.Base, FetchedAt: t.FetchedAt}
	for _, r := range rates.Select(t, codes) {
		row := RateRow{Currency: r.Currency, Rate: rates.FormatRate(r.Rate)}
		if amount.IsPositive() {
			row.Converted = rates.Convert(amount, r.Rate).StringFixed(2)
		}
		v.Rates = append(v.Rates, row)
	}
	return v
}

// Rates prints one table per base currency, in the order given.
func (p *Printer) Rates(views []RateView) error {
	var v any = views
	if len(views) == 1 {
		v = views[0]
	}
	return p.print(v, func(tw *tabwriter.Writer) {
		for i, rv := range views {
			if i > 0 {
				fmt.Fprintln(tw)
			}
			converted := len(rv.Rates) > 0 && rv.Rates[0].Converted != ""
			if converted {
				fmt.Fprintf(tw, "1 %s\tRATE\tAMOUNT\n", rv.Base)
			} else {
				fmt.Fprintf(tw, "1 %s\tRATE\n", rv.Base)
			}
			for _, r := range rv.Rates {
				if converted {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Currency, r.Rate, r.Converted)
				} else {
					fmt.Fprintf(tw, "%s\t%s\n", r.Currency, r.Rate)
				}
			}
		}
	})
}

// IdentityView is the signed-in user as printed by whoami.
type IdentityView struct {
	Email     string    `json:"email" yaml:"email"`
	UID       string    `json:"uid" yaml:"uid"`
	Provider  string    `json:"provider" yaml:"provider"`
	ExpiresAt time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

// Identity prints the signed-in user. Tokens are never printed.
func (p *Printer) Identity(id core.Identity) error {
	v := IdentityView{Email: id.Email, UID: id.UID, Provider: id.Provider, ExpiresAt: id.ExpiresAt}
	return p.print(v, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Email:\t%s\n", v.Email)
		fmt.Fprintf(tw, "UID:\t%s\n", v.UID)
		fmt.Fprintf(tw, "Provider:\t%s\n", v.Provider)
		if !v.ExpiresAt.IsZero() {
			fmt.Fprintf(tw, "Expires:\t%s\n", v.ExpiresAt.Local().Format(time.RFC1123))
		}
	})
}

func receiptMark(e core.Expense) string {
	if e.ImageURL != "" {
		return "yes"
	}
	return ""
}
