package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/editor"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/reconcile"
	"github.com/theirongolddev/tally/internal/tui"
	"github.com/theirongolddev/tally/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var flagAllocMonth string

var allocCmd = &cobra.Command{
	Use:     "alloc",
	Aliases: []string{"allocations"},
	Short:   "Plan member hours for a month",
}

var allocShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show allocations, caps and the remaining budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runAllocShow,
}

var allocSetCmd = &cobra.Command{
	Use:   "set <project> <user> <hours>",
	Short: "Set one member's hours; 0 removes the allocation",
	Args:  cobra.ExactArgs(3),
	RunE:  runAllocSet,
}

var allocEditCmd = &cobra.Command{
	Use:   "edit <project>",
	Short: "Edit a month's allocations interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runAllocEdit,
}

func init() {
	allocCmd.PersistentFlags().StringVarP(&flagAllocMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")

	allocCmd.AddCommand(allocShowCmd, allocSetCmd, allocEditCmd)
	rootCmd.AddCommand(allocCmd)
}

// allocRows lists the members to allocate: every member with a rate plus
// anyone holding an allocation without one, by display name.
func allocRows(d model.ProjectDetails, month model.Month, names map[uuid.UUID]string) []tui.Member {
	rates := d.Rates()
	seen := make(map[uuid.UUID]bool)
	var rows []tui.Member
	for _, m := range d.Members {
		seen[m.UserID] = true
		rows = append(rows, tui.Member{UserID: m.UserID, Name: nameOf(names, m.UserID), Rate: m.Rate, Rated: true})
	}
	for u := range d.AllocationsFor(month) {
		if !seen[u] {
			_, rated := rates[u]
			rows = append(rows, tui.Member{UserID: u, Name: nameOf(names, u), Rated: rated})
		}
	}
	slices.SortFunc(rows, func(a, b tui.Member) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return rows
}

func runAllocShow(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		month, err := parseMonthArg(flagAllocMonth)
		if err != nil {
			return err
		}
		d, err := a.tracker.Projects.Hydrate(ctx, p.ID)
		if err != nil {
			return err
		}
		names, err := userNames(ctx, a)
		if err != nil {
			return err
		}

		budget := d.BudgetFor(month)
		allocs := d.AllocationsFor(month)
		proposed := make(map[uuid.UUID]decimal.Decimal, len(allocs))
		for u, h := range allocs {
			proposed[u] = h.OrZero()
		}

		var rows [][]string
		for _, m := range allocRows(d, month, names) {
			hours := allocs[m.UserID].OrZero()
			limit := reconcile.MaxHours(budget, m.Rate)
			rate, cost := cli.Muted("no rate"), cli.Muted("-")
			if m.Rated {
				rate = cli.FormatMoney(m.Rate) + "/h"
				cost = cli.FormatMoney(hours.Mul(m.Rate))
			} else {
				limit = reconcile.Cap{Unbounded: true}
			}
			hoursCell := cli.FormatHours(hours)
			if !limit.Allows(hours) {
				hoursCell = cli.Bad(hoursCell)
			}
			rows = append(rows, []string{m.Name, rate, hoursCell, limit.String(), cost})
		}

		remaining := reconcile.Remaining(budget, d.Rates(), proposed)
		remainingCell := cli.Good(cli.FormatMoney(remaining))
		if remaining.IsNegative() {
			remainingCell = cli.Bad(cli.FormatMoney(remaining))
		}
		rows = append(rows, []string{"---"},
			[]string{"Budget", "", "", "", cli.FormatMoney(budget)},
			[]string{"Remaining", "", "", "", remainingCell})

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s", strings.ToUpper(p.Name), month.Label())))
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Member", "Rate", "Allocated", "Max hours", "Cost"},
			Rows:    rows,
		}))
		return nil
	})
}

func runAllocSet(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		userID, err := resolveUser(ctx, a, args[1])
		if err != nil {
			return err
		}
		month, err := parseMonthArg(flagAllocMonth)
		if err != nil {
			return err
		}
		hours, err := parseAmount("allocated_hours", args[2])
		if err != nil {
			return err
		}
		if hours.IsNegative() {
			return model.NewValidationError("allocated_hours", "hours must not be negative")
		}
		if err := a.tracker.Allocations.Upsert(ctx, p.ID, userID, month, hours); err != nil {
			return err
		}
		if hours.IsZero() {
			fmt.Printf("  Removed %s's allocation on %s for %s\n", args[1], p.Name, month.Label())
			return nil
		}
		fmt.Printf("  Allocated %s to %s on %s for %s\n", cli.FormatHours(hours), args[1], p.Name, month.Label())
		return nil
	})
}

func runAllocEdit(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		month, err := parseMonthArg(flagAllocMonth)
		if err != nil {
			return err
		}
		d, err := a.tracker.Projects.Hydrate(ctx, p.ID)
		if err != nil {
			return err
		}
		names, err := userNames(ctx, a)
		if err != nil {
			return err
		}

		ed := editor.New(a.tracker.Allocations, p.ID, month, d.AllocationsFor(month))
		m := tui.NewAllocModel(ctx, d.Name, ed, d.BudgetFor(month), allocRows(d, month, names))

		theme.SetActive(a.cfg.Appearance.Theme)
		lipgloss.SetColorProfile(termenv.TrueColor)

		if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		if ed.HasChanges() {
			fmt.Println("  Unsaved allocation changes were discarded.")
		}
		return nil
	})
}
