package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"moneymanager/internal/aggregator"
	"moneymanager/internal/core"
)

type expenseFlags struct {
	title        string
	amount       string
	date         string
	receipt      string
	clearReceipt bool
}

func (f *expenseFlags) register(cmd *cobra.Command, edit bool) {
	cmd.Flags().StringVar(&f.title, "title", "", "Expense title")
	cmd.Flags().StringVar(&f.amount, "amount", "", "Amount, e.g. 25.50")
	cmd.Flags().StringVar(&f.receipt, "receipt", "", "Receipt image to upload")
	if edit {
		cmd.Flags().StringVar(&f.date, "date", "", "Date as DD/MM/YYYY or YYYY-MM-DD")
		cmd.Flags().BoolVar(&f.clearReceipt, "clear-receipt", false, "Drop the receipt reference without deleting the image")
		cmd.MarkFlagsMutuallyExclusive("receipt", "clear-receipt")
		return
	}
	cmd.Flags().StringVar(&f.date, "date", time.Now().Format(core.DisplayLayout), "Date as DD/MM/YYYY or YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("amount")
}

// apply copies the flags that were set onto d.
func (f *expenseFlags) apply(cmd *cobra.Command, d *core.Draft) error {
	flags := cmd.Flags()
	if flags.Changed("title") || d.ID == "" {
		d.Title = f.title
	}
	if flags.Changed("amount") || d.ID == "" {
		amount, err := core.ParseAmount(f.amount)
		if err != nil {
			return err
		}
		d.Amount = amount
	}
	if flags.Changed("date") || d.ID == "" {
		d.Date = f.date
	}
	if f.clearReceipt {
		d.ImageURL = ""
		d.ClearImage = true
	}
	return nil
}

func (f *expenseFlags) file() (*core.ReceiptFile, error) {
	if f.receipt == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.receipt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUploadFailure, err)
	}
	return &core.ReceiptFile{Name: filepath.Base(f.receipt), Data: data}, nil
}

func (r *Runner) expensesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"expense", "ex"},
		Short:   "List and manage expenses",
		Args:    cobra.NoArgs,
		RunE:    r.listExpenses,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List expenses grouped by month, latest first",
			Args:    cobra.NoArgs,
			RunE:    r.listExpenses,
		},
		r.addExpenseCommand(),
		r.editExpenseCommand(),
		r.deleteExpenseCommand(),
		r.removeReceiptCommand(),
	)
	return cmd
}

func (r *Runner) listExpenses(cmd *cobra.Command, args []string) error {
	app, err := r.signedIn(cmd)
	if err != nil {
		return err
	}
	return r.printer.Groups(app.Expenses.Groups())
}

func (r *Runner) addExpenseCommand() *cobra.Command {
	var f expenseFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.signedIn(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var d core.Draft
			if err := f.apply(cmd, &d); err != nil {
				return fmt.Errorf("%w: %w", core.ErrCreateFailure, err)
			}
			file, err := f.file()
			if err != nil {
				return err
			}
			e, err := app.Expenses.Insert(ctx, d, file)
			if err != nil {
				return err
			}
			return r.printer.Expense(e)
		},
	}
	f.register(cmd, false)
	return cmd
}

func (r *Runner) editExpenseCommand() *cobra.Command {
	var f expenseFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change an expense; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.signedIn(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			current, ok := app.Expenses.Groups().Find(args[0])
			if !ok {
				return fmt.Errorf("%w: %w", core.ErrUpdateFailure, aggregator.ErrNotFound)
			}
			d := core.DraftOf(current)
			if err := f.apply(cmd, &d); err != nil {
				return fmt.Errorf("%w: %w", core.ErrUpdateFailure, err)
			}
			file, err := f.file()
			if err != nil {
				return err
			}
			e, err := app.Expenses.Update(ctx, d, file)
			if err != nil {
				return err
			}
			return r.printer.Expense(e)
		},
	}
	f.register(cmd, true)
	return cmd
}

func (r *Runner) deleteExpenseCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID...",
		Aliases: []string{"delete"},
		Short:   "Delete expenses",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.signedIn(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			for _, id := range args {
				if err := app.Expenses.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Deleted %s\n", id)
			}
			return nil
		},
	}
}

func (r *Runner) removeReceiptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-receipt ID",
		Short: "Delete an expense's receipt image and unlink it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.signedIn(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			e, err := app.Expenses.RemoveReceipt(ctx, args[0])
			if err != nil {
				return err
			}
			return r.printer.Expense(e)
		},
	}
}

func (r *Runner) receiptsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "receipts",
		Short: "List expenses that have a receipt image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.signedIn(cmd)
			if err != nil {
				return err
			}
			return r.printer.Receipts(app.Expenses.Receipts())
		},
	}
}

func (r *Runner) dashboardCommand() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show monthly and yearly spending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.signedIn(cmd)
			if err != nil {
				return err
			}
			return r.printer.Summary(app.Expenses.Summary(year))
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "Year to summarise")
	return cmd
}
