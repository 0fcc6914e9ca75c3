package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/tracker"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var flagProjectMembers []string

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project owned by the signed-in user",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename <project> <name>",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectRename,
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show a project's members, budgets and allocations",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

func init() {
	projectCreateCmd.Flags().StringArrayVar(&flagProjectMembers, "member", nil,
		"Initial member as user=rate (repeatable)")

	projectCmd.AddCommand(projectListCmd, projectCreateCmd, projectRenameCmd, projectShowCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectList(cmd *cobra.Command, _ []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		projects, err := a.tracker.Projects.List(ctx)
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("\n  No projects yet. Create one with `tally project create <name>`.")
			return nil
		}
		names, err := userNames(ctx, a)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			rows = append(rows, []string{
				truncate(p.Name, 28),
				shortID(p.ID),
				nameOf(names, p.CreatedBy),
				p.CreatedAt.Local().Format("2006-01-02"),
			})
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("PROJECTS"))
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Project", "ID", "Owner", "Created"},
			Rows:    rows,
		}))
		return nil
	})
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		members := make([]model.TeamMember, 0, len(flagProjectMembers))
		for _, entry := range flagProjectMembers {
			user, rate, ok := strings.Cut(entry, "=")
			if !ok {
				return model.NewValidationError("member", fmt.Sprintf("%q is not user=rate", entry))
			}
			userID, err := resolveUser(ctx, a, user)
			if err != nil {
				return err
			}
			r, err := parseAmount("rate_per_hour", rate)
			if err != nil {
				return err
			}
			members = append(members, model.TeamMember{UserID: userID, Rate: r})
		}

		p, err := a.tracker.Projects.Create(ctx, strings.TrimSpace(args[0]), members)
		if p.ID != uuid.Nil {
			fmt.Printf("  Created project %s (%s)\n", p.Name, p.ID)
		}
		return err
	})
}

func runProjectRename(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
		if err != nil {
			return err
		}
		if err := a.tracker.Projects.Rename(ctx, p.ID, strings.TrimSpace(args[1])); err != nil {
			return err
		}
		fmt.Printf("  Renamed %s to %s\n", p.Name, strings.TrimSpace(args[1]))
		return nil
	})
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	return withTracker(cmd, func(ctx context.Context, a *app) error {
		p, err := resolveProject(ctx, a, args[0])
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
		month := today().MonthOf()

		fmt.Println()
		fmt.Println(cli.RenderTitle(strings.ToUpper(d.Name)))
		fmt.Printf("\n  ID:      %s\n", d.ID)
		fmt.Printf("  Owner:   %s\n", nameOf(names, d.CreatedBy))
		fmt.Printf("  Created: %s\n\n", d.CreatedAt.Local().Format("2006-01-02"))

		if len(d.Members) == 0 {
			fmt.Println("  No members.")
		} else {
			allocs := d.AllocationsFor(month)
			rows := make([][]string, 0, len(d.Members))
			for _, m := range d.Members {
				rows = append(rows, []string{
					nameOf(names, m.UserID),
					cli.FormatMoney(m.Rate) + "/h",
					cli.FormatHours(m.MonthlyHoursBudget),
					cli.FormatHours(allocs[m.UserID].OrZero()),
				})
			}
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   "Members",
				Headers: []string{"Member", "Rate", "Hours budget", "Allocated " + month.Label()},
				Rows:    rows,
			}))
		}

		if budgets := tracker.NonZero(d.Budgets); len(budgets) > 0 {
			fmt.Println()
			rows := make([][]string, 0, len(budgets))
			for _, b := range budgets {
				rows = append(rows, []string{b.Month.Label(), cli.FormatMoney(b.Amount)})
			}
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   "Budgets",
				Headers: []string{"Month", "Budget"},
				Rows:    rows,
			}))
		}
		return nil
	})
}
