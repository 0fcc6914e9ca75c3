package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/retry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ProjectStore manages projects, members and user profiles.
type ProjectStore struct {
	projects ProjectBackend
	profiles ProfileBackend
	budgets  *BudgetStore
	allocs   *AllocationStore
	identity Identity
	policy   retry.Policy
	log      *slog.Logger
}

// NewProjectStore returns a ProjectStore. Hydration reads budgets and
// allocations through the given stores.
func NewProjectStore(projects ProjectBackend, profiles ProfileBackend, budgets *BudgetStore, allocs *AllocationStore, identity Identity, policy retry.Policy, logger *slog.Logger) *ProjectStore {
	logger = orDiscard(logger)
	return &ProjectStore{
		projects: projects,
		profiles: profiles,
		budgets:  budgets,
		allocs:   allocs,
		identity: identity,
		policy:   withLogger(policy, logger),
		log:      logger,
	}
}

// List returns all projects.
func (s *ProjectStore) List(ctx context.Context) ([]model.Project, error) {
	projects, err := retry.Do(ctx, s.policy, "list_projects", s.projects.ListProjects)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Get returns one project.
func (s *ProjectStore) Get(ctx context.Context, id uuid.UUID) (model.Project, error) {
	p, err := retry.Do(ctx, s.policy, "get_project", func(ctx context.Context) (model.Project, error) {
		return s.projects.GetProject(ctx, id)
	})
	if err != nil {
		return model.Project{}, fmt.Errorf("loading project: %w", err)
	}
	return p, nil
}

// Create makes a project owned by the signed-in user and adds the initial
// members. A member that fails to be added is reported but the project is
// kept.
func (s *ProjectStore) Create(ctx context.Context, name string, members []model.TeamMember) (model.Project, error) {
	userID, err := currentUser(s.identity)
	if err != nil {
		return model.Project{}, err
	}
	p, err := s.projects.CreateProject(ctx, model.Project{Name: name, CreatedBy: userID})
	if err != nil {
		return model.Project{}, fmt.Errorf("creating project: %w", err)
	}
	s.log.Info("project created", "project", p.ID, "name", p.Name)

	var errs []error
	for _, m := range members {
		m.ProjectID = p.ID
		if err := s.projects.AddMember(ctx, m); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", m.UserID, err))
		}
	}
	if len(errs) > 0 {
		return p, &model.BatchError{Op: "add members", Total: len(members), Errors: errs}
	}
	return p, nil
}

// Rename changes a project's name.
func (s *ProjectStore) Rename(ctx context.Context, id uuid.UUID, name string) error {
	if err := s.projects.RenameProject(ctx, id, name); err != nil {
		return fmt.Errorf("renaming project: %w", err)
	}
	return nil
}

// Members returns the members of a project.
func (s *ProjectStore) Members(ctx context.Context, projectID uuid.UUID) ([]model.TeamMember, error) {
	members, err := retry.Do(ctx, s.policy, "list_members", func(ctx context.Context) ([]model.TeamMember, error) {
		return s.projects.ListMembers(ctx, projectID)
	})
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

// AddMember adds a user to a project at rate.
func (s *ProjectStore) AddMember(ctx context.Context, projectID, userID uuid.UUID, rate, hoursBudget decimal.Decimal) error {
	err := s.projects.AddMember(ctx, model.TeamMember{
		ProjectID:          projectID,
		UserID:             userID,
		Rate:               rate,
		MonthlyHoursBudget: hoursBudget,
	})
	if err != nil {
		return fmt.Errorf("adding member: %w", err)
	}
	return nil
}

// UpdateRate changes a member's hourly rate, keeping the hours budget.
func (s *ProjectStore) UpdateRate(ctx context.Context, projectID, userID uuid.UUID, rate decimal.Decimal) error {
	members, err := s.Members(ctx, projectID)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(members, func(m model.TeamMember) bool { return m.UserID == userID })
	if i < 0 {
		return fmt.Errorf("member %s: %w", userID, model.ErrNotFound)
	}
	m := members[i]
	m.Rate = rate
	if err := s.projects.UpdateMember(ctx, m); err != nil {
		return fmt.Errorf("updating member: %w", err)
	}
	return nil
}

// RemoveMember drops a user from a project. Their allocations and logs are
// not touched.
func (s *ProjectStore) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	if err := s.projects.RemoveMember(ctx, projectID, userID); err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	return nil
}

// Profiles returns every known user profile.
func (s *ProjectStore) Profiles(ctx context.Context) ([]model.Profile, error) {
	profiles, err := retry.Do(ctx, s.policy, "list_profiles", s.profiles.ListProfiles)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return profiles, nil
}

// SaveProfile creates or updates a user profile.
func (s *ProjectStore) SaveProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	saved, err := s.profiles.UpsertProfile(ctx, p)
	if err != nil {
		return model.Profile{}, fmt.Errorf("saving profile: %w", err)
	}
	return saved, nil
}

// AvailableUsers returns the profiles that are not yet members of projectID.
func (s *ProjectStore) AvailableUsers(ctx context.Context, projectID uuid.UUID) ([]model.Profile, error) {
	var (
		members  []model.TeamMember
		profiles []model.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		members, err = s.Members(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		profiles, err = s.Profiles(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	taken := make(map[uuid.UUID]bool, len(members))
	for _, m := range members {
		taken[m.UserID] = true
	}
	out := make([]model.Profile, 0, len(profiles))
	for _, p := range profiles {
		if !taken[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// Hydrate loads a project with its members, budgets and allocations. The
// reads run concurrently; any failure fails the whole hydration.
func (s *ProjectStore) Hydrate(ctx context.Context, id uuid.UUID) (model.ProjectDetails, error) {
	var d model.ProjectDetails
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Project, err = s.Get(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		d.Members, err = s.Members(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		d.Budgets, err = s.budgets.List(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		d.Allocations, err = s.allocs.List(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ProjectDetails{}, fmt.Errorf("hydrating project %s: %w", id, err)
	}
	return d, nil
}
