package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// resolveProject accepts a project ID or a case-insensitive name.
func resolveProject(ctx context.Context, a *app, arg string) (model.Project, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return a.tracker.Projects.Get(ctx, id)
	}
	projects, err := a.tracker.Projects.List(ctx)
	if err != nil {
		return model.Project{}, err
	}
	var matches []model.Project
	for _, p := range projects {
		if strings.EqualFold(p.Name, arg) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return model.Project{}, fmt.Errorf("project %q: %w", arg, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Project{}, fmt.Errorf("%d projects are named %q; use the project ID", len(matches), arg)
	}
}

// resolveUser accepts a user ID, "me", an email or a display name.
func resolveUser(ctx context.Context, a *app, arg string) (uuid.UUID, error) {
	if arg == "me" {
		return a.identity.CurrentUser()
	}
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}
	profiles, err := a.tracker.Projects.Profiles(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	var matches []uuid.UUID
	for _, p := range profiles {
		if strings.EqualFold(p.Email, arg) || strings.EqualFold(p.FullName, arg) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("user %q: %w", arg, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return uuid.Nil, fmt.Errorf("%d users match %q; use the user ID", len(matches), arg)
	}
}

// userNames maps profile IDs to display names.
func userNames(ctx context.Context, a *app) (map[uuid.UUID]string, error) {
	profiles, err := a.tracker.Projects.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.DisplayName()
	}
	return names, nil
}

func nameOf(names map[uuid.UUID]string, id uuid.UUID) string {
	if n, ok := names[id]; ok {
		return n
	}
	return shortID(id)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// parseMonthArg parses a month, defaulting to the current one when empty.
func parseMonthArg(s string) (model.Month, error) {
	if s == "" {
		return today().MonthOf(), nil
	}
	return model.ParseMonth(s)
}

// parseDateArg parses a date, defaulting to today when empty.
func parseDateArg(s string) (model.Date, error) {
	if s == "" {
		return today(), nil
	}
	return model.ParseDate(s)
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Zero, model.NewValidationError(field, fmt.Sprintf("invalid number %q", s))
	}
	return d, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
