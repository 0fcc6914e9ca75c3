package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	flagBudgetFrom   string
	flagBudgetMonths int
	flagBudgetSet    []string
)

var budgetCmd = &cobra.Command{
	Use:     "budget",
	Aliases: []string{"budgets"},
	Short:   "Manage monthly project budgets",
}

var budgetListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List the months that have a budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetList,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <project> <month> <amount>",
	Short: "Set the budget of one month; 0 clears it",
	Args:  cobra.ExactArgs(3),
	RunE:  runBudgetSet,
}

var budgetWindowCmd = &cobra.Command{
	Use:   "window <project>",
	Short: "Show or edit the forward budget window",
	Long: "Show the budgets of the next months, prefilled with the stored amounts. " +
		"With --set, every month of the window is replaced in one edit.",
	Args: cobra.ExactArgs(1),
	RunE: runBudgetWindow,
}

func init() {
	budgetWindowCmd.Flags().StringVar(&flagBudgetFrom, "from", "", "First month of the window (default: current month)")
	budgetWindowCmd.Flags().IntVar(&flagBudgetMonths, "months", tracker.ForwardMonths, "Number of months in the window")
	budgetWindowCmd.Flags().StringArrayVar(&flagBudgetSet, "set", nil, "Month budget as YYYY-MM=amount (repeatable)")

	budgetCmd.AddCommand(budgetListCmd, budgetSetCmd, budgetWindowCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetList(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		budgets, err := a.tracker.Budgets.List(ctx, p.ID)
		if err != nil {
			return err
		}
		budgets = tracker.NonZero(budgets)
		if len(budgets) == 0 {
			fmt.Printf("\n  %s has no budgets.\n", p.Name)
			return nil
		}
		printBudgets(p.Name, budgets)
		return nil
	})
}

func runBudgetSet(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		month, err := model.ParseMonth(args[1])
		if err != nil {
			return err
		}
		amount, err := parseAmount("budget_amount", args[2])
		if err != nil {
			return err
		}
		if amount.IsNegative() {
			return model.NewValidationError("budget_amount", "budget must not be negative")
		}
		if amount.IsZero() {
			if err := a.tracker.Budgets.Clear(ctx, p.ID, []model.Month{month}); err != nil {
				return err
			}
			fmt.Printf("  %s budget for %s cleared\n", p.Name, month.Label())
			return nil
		}
		err = a.tracker.Budgets.Replace(ctx, p.ID, []model.MonthlyBudget{{Month: month, Amount: amount}})
		if err != nil {
			return err
		}
		fmt.Printf("  %s budget for %s set to %s\n", p.Name, month.Label(), cli.FormatMoney(amount))
		return nil
	})
}

func runBudgetWindow(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		from, err := parseMonthArg(flagBudgetFrom)
		if err != nil {
			return err
		}
		if flagBudgetMonths < 1 {
			return model.NewValidationError("months", "window must have at least one month")
		}
		existing, err := a.tracker.Budgets.List(ctx, p.ID)
		if err != nil {
			return err
		}
		window := tracker.ForwardWindow(existing, from, flagBudgetMonths)

		if len(flagBudgetSet) > 0 {
			if err := applyBudgetEdits(window, flagBudgetSet); err != nil {
				return err
			}
			if err := a.tracker.Budgets.SaveWindow(ctx, p.ID, window); err != nil {
				return err
			}
			progressf("Saved %d months of budgets", len(tracker.NonZero(window)))
		}
		printBudgets(p.Name, window)
		return nil
	})
}

// applyBudgetEdits applies YYYY-MM=amount edits to the months of window.
func applyBudgetEdits(window []model.MonthlyBudget, edits []string) error {
	for _, e := range edits {
		rawMonth, rawAmount, ok := strings.Cut(e, "=")
		if !ok {
			return model.NewValidationError("set", fmt.Sprintf("%q is not YYYY-MM=amount", e))
		}
		month, err := model.ParseMonth(rawMonth)
		if err != nil {
			return err
		}
		amount, err := parseAmount("budget_amount", rawAmount)
		if err != nil {
			return err
		}
		found := false
		for i := range window {
			if window[i].Month == month {
				window[i].Amount = amount
				found = true
			}
		}
		if !found {
			return model.NewValidationError("set", fmt.Sprintf("%s is outside the window", month.Label()))
		}
	}
	return nil
}

func printBudgets(title string, budgets []model.MonthlyBudget) {
	rows := make([][]string, 0, len(budgets))
	for _, b := range budgets {
		amount := cli.FormatMoney(b.Amount)
		if !b.Amount.IsPositive() {
			amount = cli.Muted(amount)
		}
		rows = append(rows, []string{b.Month.Label(), amount})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Month", "Budget"},
		Rows:    rows,
	}))
}
