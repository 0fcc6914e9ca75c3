package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func projectPath(id uuid.UUID, rest string) string {
	return "/projects/" + id.String() + rest
}

// ListProjects implements tracker.Backend.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	err := c.do(ctx, http.MethodGet, "/projects", nil, nil, &out)
	return out, err
}

// GetProject implements tracker.Backend.
func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (model.Project, error) {
	var out model.Project
	err := c.do(ctx, http.MethodGet, projectPath(id, ""), nil, nil, &out)
	return out, err
}

// CreateProject implements tracker.Backend.
func (c *Client) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	var out model.Project
	err := c.do(ctx, http.MethodPost, "/projects", nil, p, &out)
	return out, err
}

// RenameProject implements tracker.Backend.
func (c *Client) RenameProject(ctx context.Context, id uuid.UUID, name string) error {
	return c.do(ctx, http.MethodPatch, projectPath(id, ""), nil, api.RenameRequest{Name: name}, nil)
}

// ListMembers implements tracker.Backend.
func (c *Client) ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.TeamMember, error) {
	var out []model.TeamMember
	err := c.do(ctx, http.MethodGet, projectPath(projectID, "/members"), nil, nil, &out)
	return out, err
}

// AddMember implements tracker.Backend.
func (c *Client) AddMember(ctx context.Context, m model.TeamMember) error {
	return c.do(ctx, http.MethodPost, projectPath(m.ProjectID, "/members"), nil, m, nil)
}

// UpdateMember implements tracker.Backend.
func (c *Client) UpdateMember(ctx context.Context, m model.TeamMember) error {
	return c.do(ctx, http.MethodPut, projectPath(m.ProjectID, "/members/"+m.UserID.String()), nil, m, nil)
}

// RemoveMember implements tracker.Backend.
func (c *Client) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, projectPath(projectID, "/members/"+userID.String()), nil, nil, nil)
}

// ListBudgets implements tracker.Backend.
func (c *Client) ListBudgets(ctx context.Context, projectID uuid.UUID) ([]model.MonthlyBudget, error) {
	var out []model.MonthlyBudget
	err := c.do(ctx, http.MethodGet, projectPath(projectID, "/budgets"), nil, nil, &out)
	return out, err
}

// DeleteBudgets implements tracker.Backend.
func (c *Client) DeleteBudgets(ctx context.Context, projectID uuid.UUID, months []model.Month) error {
	if len(months) == 0 {
		return nil
	}
	q := url.Values{}
	for _, m := range months {
		q.Add("month", m.Key())
	}
	return c.do(ctx, http.MethodDelete, projectPath(projectID, "/budgets"), q, nil, nil)
}

// InsertBudgets implements tracker.Backend.
func (c *Client) InsertBudgets(ctx context.Context, projectID uuid.UUID, budgets []model.MonthlyBudget) error {
	if len(budgets) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPost, projectPath(projectID, "/budgets"), nil, budgets, nil)
}

// ListAllocations implements tracker.Backend.
func (c *Client) ListAllocations(ctx context.Context, projectID uuid.UUID) ([]model.MonthlyAllocation, error) {
	var out []model.MonthlyAllocation
	err := c.do(ctx, http.MethodGet, projectPath(projectID, "/allocations"), nil, nil, &out)
	return out, err
}

// UpsertAllocation implements tracker.Backend.
func (c *Client) UpsertAllocation(ctx context.Context, a model.MonthlyAllocation) error {
	return c.do(ctx, http.MethodPut, projectPath(a.ProjectID, "/allocations"), nil, a, nil)
}

// DeleteAllocation implements tracker.Backend.
func (c *Client) DeleteAllocation(ctx context.Context, projectID, userID uuid.UUID, month model.Month) error {
	path := projectPath(projectID, "/allocations/"+userID.String()+"/"+month.Key())
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ListLogs implements tracker.Backend.
func (c *Client) ListLogs(ctx context.Context, projectID uuid.UUID, from, to model.Date) ([]model.DailyLog, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.String())
	}
	if !to.IsZero() {
		q.Set("to", to.String())
	}
	var out []model.DailyLog
	err := c.do(ctx, http.MethodGet, projectPath(projectID, "/logs"), q, nil, &out)
	return out, err
}

// InsertLog implements tracker.Backend.
func (c *Client) InsertLog(ctx context.Context, l model.DailyLog) (model.DailyLog, error) {
	var out model.DailyLog
	err := c.do(ctx, http.MethodPost, projectPath(l.ProjectID, "/logs"), nil, l, &out)
	return out, err
}

// UpdateLog implements tracker.Backend.
func (c *Client) UpdateLog(ctx context.Context, id uuid.UUID, hours decimal.Decimal, descriptions []string) error {
	body := api.LogUpdate{Hours: hours, Descriptions: descriptions}
	return c.do(ctx, http.MethodPatch, "/logs/"+id.String(), nil, body, nil)
}

// DeleteLog implements tracker.Backend.
func (c *Client) DeleteLog(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/logs/"+id.String(), nil, nil, nil)
}

// ListProfiles implements tracker.Backend.
func (c *Client) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	var out []model.Profile
	err := c.do(ctx, http.MethodGet, "/profiles", nil, nil, &out)
	return out, err
}

// UpsertProfile implements tracker.Backend.
func (c *Client) UpsertProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	var out model.Profile
	err := c.do(ctx, http.MethodPost, "/profiles", nil, p, &out)
	return out, err
}

// MonthWorkingDays implements tracker.Backend.
func (c *Client) MonthWorkingDays(ctx context.Context, month model.Month) (int, error) {
	var out api.DaysResponse
	err := c.do(ctx, http.MethodPost, "/rpc/get_month_working_days", nil, api.MonthRequest{Month: month}, &out)
	return out.Days, err
}

// CalculateWorkingDays implements tracker.Backend.
func (c *Client) CalculateWorkingDays(ctx context.Context, start, end model.Date) (int, error) {
	var out api.DaysResponse
	err := c.do(ctx, http.MethodPost, "/rpc/calculate_working_days", nil, api.RangeRequest{Start: start, End: end}, &out)
	return out.Days, err
}

// ScheduleMonth implements tracker.Backend.
func (c *Client) ScheduleMonth(ctx context.Context, month model.Month, override *int) (int, error) {
	var out api.DaysResponse
	err := c.do(ctx, http.MethodPut, "/calendar/"+month.Key(), nil, api.ScheduleRequest{Days: override}, &out)
	return out.Days, err
}

// AddHoliday implements tracker.Backend.
func (c *Client) AddHoliday(ctx context.Context, date model.Date, name string) error {
	return c.do(ctx, http.MethodPost, "/holidays", nil, model.Holiday{Date: date, Name: name}, nil)
}

// ListHolidays implements tracker.Backend.
func (c *Client) ListHolidays(ctx context.Context, from, to model.Date) ([]model.Holiday, error) {
	q := url.Values{"from": {from.String()}, "to": {to.String()}}
	var out []model.Holiday
	err := c.do(ctx, http.MethodGet, "/holidays", q, nil, &out)
	return out, err
}
