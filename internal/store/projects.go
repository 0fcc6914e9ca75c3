package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
)

// ListProjects returns every project ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_by, created_at FROM projects ORDER BY name, id")
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		var created string
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedBy, &created); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(created)
		out = append(out, p)
	}
	return out, classify(rows.Err())
}

// GetProject returns one project or model.ErrNotFound.
func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (model.Project, error) {
	var p model.Project
	var created string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM projects WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &p.CreatedBy, &created)
	if err != nil {
		return model.Project{}, fmt.Errorf("project %s: %w", id, classify(err))
	}
	p.CreatedAt = parseTime(created)
	return p, nil
}

// CreateProject inserts p, assigning an ID when p has none.
func (s *Store) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return model.Project{}, model.NewValidationError("name", "project name is required")
	}
	if p.CreatedBy == uuid.Nil {
		return model.Project{}, model.ErrUnauthenticated
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	created := s.timestamp()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (id, name, created_by, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, p.CreatedBy, created)
	if err != nil {
		return model.Project{}, classify(err)
	}
	p.CreatedAt = parseTime(created)
	return p, nil
}

// RenameProject changes the name of an existing project.
func (s *Store) RenameProject(ctx context.Context, id uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.NewValidationError("name", "project name is required")
	}
	res, err := s.db.ExecContext(ctx, "UPDATE projects SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return classify(err)
	}
	return mustAffect(res, "project", id)
}

// ListMembers returns the members of a project in join order.
func (s *Store) ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.TeamMember, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT project_id, user_id, rate_per_hour,
		monthly_hours_budget, created_at
		FROM project_users WHERE project_id = ? ORDER BY created_at, user_id`, projectID)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.TeamMember
	for rows.Next() {
		var m model.TeamMember
		var created string
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Rate, &m.MonthlyHoursBudget, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, classify(rows.Err())
}

// AddMember inserts a membership. Adding an existing member is rejected.
func (s *Store) AddMember(ctx context.Context, m model.TeamMember) error {
	if err := validateMember(m); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO project_users
		(project_id, user_id, rate_per_hour, monthly_hours_budget, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ProjectID, m.UserID, m.Rate, m.MonthlyHoursBudget, s.timestamp())
	return classify(err)
}

// UpdateMember changes the rate and hours budget of an existing member.
func (s *Store) UpdateMember(ctx context.Context, m model.TeamMember) error {
	if err := validateMember(m); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE project_users
		SET rate_per_hour = ?, monthly_hours_budget = ?
		WHERE project_id = ? AND user_id = ?`,
		m.Rate, m.MonthlyHoursBudget, m.ProjectID, m.UserID)
	if err != nil {
		return classify(err)
	}
	return mustAffect(res, "member", m.UserID)
}

// RemoveMember deletes a membership. Allocations and logs of the user are
// kept.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM project_users WHERE project_id = ? AND user_id = ?", projectID, userID)
	if err != nil {
		return classify(err)
	}
	return mustAffect(res, "member", userID)
}

func validateMember(m model.TeamMember) error {
	if m.ProjectID == uuid.Nil || m.UserID == uuid.Nil {
		return model.NewValidationError("user_id", "project and user are required")
	}
	if !m.Rate.IsPositive() {
		return model.NewValidationError("rate_per_hour", "rate must be greater than zero")
	}
	if m.MonthlyHoursBudget.IsNegative() {
		return model.NewValidationError("monthly_hours_budget", "hours budget must not be negative")
	}
	return nil
}

func mustAffect(res sql.Result, what string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, model.ErrNotFound)
	}
	return nil
}
