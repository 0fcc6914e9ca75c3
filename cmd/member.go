package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/tally/internal/cli"

	"github.com/spf13/cobra"
)

var (
	flagMemberRate  string
	flagMemberHours string
)

var memberCmd = &cobra.Command{
	Use:     "member",
	Aliases: []string{"members"},
	Short:   "Manage project members and their rates",
}

var memberListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List members of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemberList,
}

var memberAddCmd = &cobra.Command{
	Use:   "add <project> <user>",
	Short: "Add a user to a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runMemberAdd,
}

var memberRateCmd = &cobra.Command{
	Use:   "rate <project> <user> <rate>",
	Short: "Change a member's hourly rate",
	Args:  cobra.ExactArgs(3),
	RunE:  runMemberRate,
}

var memberRemoveCmd = &cobra.Command{
	Use:     "rm <project> <user>",
	Aliases: []string{"remove"},
	Short:   "Remove a member from a project",
	Args:    cobra.ExactArgs(2),
	RunE:    runMemberRemove,
}

var memberAvailableCmd = &cobra.Command{
	Use:   "available <project>",
	Short: "List users who are not members of a project yet",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemberAvailable,
}

func init() {
	memberAddCmd.Flags().StringVar(&flagMemberRate, "rate", "", "Hourly rate (required)")
	memberAddCmd.Flags().StringVar(&flagMemberHours, "hours", "0", "Informational monthly hours budget")
	_ = memberAddCmd.MarkFlagRequired("rate")

	memberCmd.AddCommand(memberListCmd, memberAddCmd, memberRateCmd, memberRemoveCmd, memberAvailableCmd)
	rootCmd.AddCommand(memberCmd)
}

func runMemberList(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		members, err := a.tracker.Projects.Members(ctx, p.ID)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			fmt.Printf("\n  %s has no members.\n", p.Name)
			return nil
		}
		names, err := userNames(ctx, a)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(members))
		for _, m := range members {
			rows = append(rows, []string{
				nameOf(names, m.UserID),
				m.UserID.String(),
				cli.FormatMoney(m.Rate) + "/h",
				cli.FormatHours(m.MonthlyHoursBudget),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   p.Name,
			Headers: []string{"Member", "User ID", "Rate", "Hours budget"},
			Rows:    rows,
		}))
		return nil
	})
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		userID, err := resolveUser(ctx, a, args[1])
		if err != nil {
			return err
		}
		rate, err := parseAmount("rate_per_hour", flagMemberRate)
		if err != nil {
			return err
		}
		hours, err := parseAmount("monthly_hours_budget", flagMemberHours)
		if err != nil {
			return err
		}
		if err := a.tracker.Projects.AddMember(ctx, p.ID, userID, rate, hours); err != nil {
			return err
		}
		fmt.Printf("  Added %s to %s at %s/h\n", args[1], p.Name, cli.FormatMoney(rate))
		return nil
	})
}

func runMemberRate(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		userID, err := resolveUser(ctx, a, args[1])
		if err != nil {
			return err
		}
		rate, err := parseAmount("rate_per_hour", args[2])
		if err != nil {
			return err
		}
		if err := a.tracker.Projects.UpdateRate(ctx, p.ID, userID, rate); err != nil {
			return err
		}
		fmt.Printf("  %s now bills %s/h on %s\n", args[1], cli.FormatMoney(rate), p.Name)
		return nil
	})
}

func runMemberRemove(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		userID, err := resolveUser(ctx, a, args[1])
		if err != nil {
			return err
		}
		if err := a.tracker.Projects.RemoveMember(ctx, p.ID, userID); err != nil {
			return err
		}
		fmt.Printf("  Removed %s from %s (allocations and logs are kept)\n", args[1], p.Name)
		return nil
	})
}

func runMemberAvailable(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		users, err := a.tracker.Projects.AvailableUsers(ctx, p.ID)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("\n  Every known user is already a member.")
			return nil
		}
		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{u.DisplayName(), u.Email, u.ID.String()})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Available for " + p.Name,
			Headers: []string{"Name", "Email", "User ID"},
			Rows:    rows,
		}))
		return nil
	})
}
