package store

import (
	"context"
	"strings"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
)

// ListProfiles returns all known users ordered by display name.
func (s *Store) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, email, full_name, created_at FROM profiles
		ORDER BY CASE WHEN full_name = '' THEN email ELSE full_name END, id`)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		var created string
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &created); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(created)
		out = append(out, p)
	}
	return out, classify(rows.Err())
}

// UpsertProfile creates or updates a profile. A profile without an ID gets
// a new one.
func (s *Store) UpsertProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	p.Email = strings.TrimSpace(p.Email)
	p.FullName = strings.TrimSpace(p.FullName)
	if p.Email == "" && p.FullName == "" {
		return model.Profile{}, model.NewValidationError("email", "email or full name is required")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	created := s.timestamp()
	_, err := s.db.ExecContext(ctx, `INSERT INTO profiles (id, email, full_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email, full_name = excluded.full_name`,
		p.ID, p.Email, p.FullName, created)
	if err != nil {
		return model.Profile{}, classify(err)
	}
	err = s.db.QueryRowContext(ctx, "SELECT created_at FROM profiles WHERE id = ?", p.ID).Scan(&created)
	if err != nil {
		return model.Profile{}, classify(err)
	}
	p.CreatedAt = parseTime(created)
	return p, nil
}
