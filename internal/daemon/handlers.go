package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
)

const maxBodySize = 1 << 20 // 1 MB

func (s *Service) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/projects", s.listProjects)
	mux.HandleFunc("POST /v1/projects", s.createProject)
	mux.HandleFunc("GET /v1/projects/{id}", s.getProject)
	mux.HandleFunc("PATCH /v1/projects/{id}", s.renameProject)

	mux.HandleFunc("GET /v1/projects/{id}/members", s.listMembers)
	mux.HandleFunc("POST /v1/projects/{id}/members", s.addMember)
	mux.HandleFunc("PUT /v1/projects/{id}/members/{user}", s.updateMember)
	mux.HandleFunc("DELETE /v1/projects/{id}/members/{user}", s.removeMember)

	mux.HandleFunc("GET /v1/projects/{id}/budgets", s.listBudgets)
	mux.HandleFunc("POST /v1/projects/{id}/budgets", s.insertBudgets)
	mux.HandleFunc("DELETE /v1/projects/{id}/budgets", s.deleteBudgets)

	mux.HandleFunc("GET /v1/projects/{id}/allocations", s.listAllocations)
	mux.HandleFunc("PUT /v1/projects/{id}/allocations", s.upsertAllocation)
	mux.HandleFunc("DELETE /v1/projects/{id}/allocations/{user}/{month}", s.deleteAllocation)

	mux.HandleFunc("GET /v1/projects/{id}/logs", s.listLogs)
	mux.HandleFunc("POST /v1/projects/{id}/logs", s.insertLog)
	mux.HandleFunc("PATCH /v1/logs/{log}", s.updateLog)
	mux.HandleFunc("DELETE /v1/logs/{log}", s.deleteLog)

	mux.HandleFunc("GET /v1/profiles", s.listProfiles)
	mux.HandleFunc("POST /v1/profiles", s.upsertProfile)

	mux.HandleFunc("POST /v1/rpc/get_month_working_days", s.monthWorkingDays)
	mux.HandleFunc("POST /v1/rpc/calculate_working_days", s.calculateWorkingDays)
	mux.HandleFunc("PUT /v1/calendar/{month}", s.scheduleMonth)
	mux.HandleFunc("GET /v1/holidays", s.listHolidays)
	mux.HandleFunc("POST /v1/holidays", s.addHoliday)
}

// Projects and members.

func (s *Service) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.backend.ListProjects(r.Context())
	s.respond(w, projects, err)
}

func (s *Service) createProject(w http.ResponseWriter, r *http.Request) {
	var p model.Project
	if !s.decode(w, r, &p) {
		return
	}
	created, err := s.backend.CreateProject(r.Context(), p)
	if err == nil {
		s.publish("project_created", created.ID, created.Name)
	}
	s.respondStatus(w, http.StatusCreated, created, err)
}

func (s *Service) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.backend.GetProject(r.Context(), id)
	s.respond(w, p, err)
}

func (s *Service) renameProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req api.RenameRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.backend.RenameProject(r.Context(), id, req.Name)
	if err == nil {
		s.publish("project_renamed", id, req.Name)
	}
	s.respondEmpty(w, err)
}

func (s *Service) listMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	members, err := s.backend.ListMembers(r.Context(), id)
	s.respond(w, members, err)
}

func (s *Service) addMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var m model.TeamMember
	if !s.decode(w, r, &m) {
		return
	}
	m.ProjectID = id
	err := s.backend.AddMember(r.Context(), m)
	if err == nil {
		s.publish("member_added", id, m.UserID.String())
	}
	s.respondEmpty(w, err)
}

func (s *Service) updateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	user, ok := s.pathID(w, r, "user")
	if !ok {
		return
	}
	var m model.TeamMember
	if !s.decode(w, r, &m) {
		return
	}
	m.ProjectID, m.UserID = id, user
	err := s.backend.UpdateMember(r.Context(), m)
	if err == nil {
		s.publish("member_updated", id, user.String())
	}
	s.respondEmpty(w, err)
}

func (s *Service) removeMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	user, ok := s.pathID(w, r, "user")
	if !ok {
		return
	}
	err := s.backend.RemoveMember(r.Context(), id, user)
	if err == nil {
		s.publish("member_removed", id, user.String())
	}
	s.respondEmpty(w, err)
}

// Budgets.

func (s *Service) listBudgets(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	budgets, err := s.backend.ListBudgets(r.Context(), id)
	s.respond(w, budgets, err)
}

func (s *Service) insertBudgets(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var budgets []model.MonthlyBudget
	if !s.decode(w, r, &budgets) {
		return
	}
	err := s.backend.InsertBudgets(r.Context(), id, budgets)
	if err == nil {
		s.publish("budgets_inserted", id, "")
	}
	s.respondEmpty(w, err)
}

func (s *Service) deleteBudgets(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var months []model.Month
	for _, v := range r.URL.Query()["month"] {
		m, err := model.ParseMonth(v)
		if err != nil {
			s.fail(w, err)
			return
		}
		months = append(months, m)
	}
	err := s.backend.DeleteBudgets(r.Context(), id, months)
	if err == nil {
		s.publish("budgets_deleted", id, "")
	}
	s.respondEmpty(w, err)
}

// Allocations.

func (s *Service) listAllocations(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	allocs, err := s.backend.ListAllocations(r.Context(), id)
	s.respond(w, allocs, err)
}

func (s *Service) upsertAllocation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var a model.MonthlyAllocation
	if !s.decode(w, r, &a) {
		return
	}
	a.ProjectID = id
	err := s.backend.UpsertAllocation(r.Context(), a)
	if err == nil {
		s.publish("allocation_upserted", id, a.UserID.String()+"@"+a.Month.Key())
	}
	s.respondEmpty(w, err)
}

func (s *Service) deleteAllocation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	user, ok := s.pathID(w, r, "user")
	if !ok {
		return
	}
	month, err := model.ParseMonth(r.PathValue("month"))
	if err != nil {
		s.fail(w, err)
		return
	}
	err = s.backend.DeleteAllocation(r.Context(), id, user, month)
	if err == nil {
		s.publish("allocation_deleted", id, user.String()+"@"+month.Key())
	}
	s.respondEmpty(w, err)
}

// Logs.

func (s *Service) listLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var from, to model.Date
	q := r.URL.Query()
	if err := from.UnmarshalText([]byte(q.Get("from"))); err != nil {
		s.fail(w, err)
		return
	}
	if err := to.UnmarshalText([]byte(q.Get("to"))); err != nil {
		s.fail(w, err)
		return
	}
	logs, err := s.backend.ListLogs(r.Context(), id, from, to)
	s.respond(w, logs, err)
}

func (s *Service) insertLog(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var l model.DailyLog
	if !s.decode(w, r, &l) {
		return
	}
	l.ProjectID = id
	created, err := s.backend.InsertLog(r.Context(), l)
	if err == nil {
		s.publish("log_created", id, created.ID.String())
	}
	s.respondStatus(w, http.StatusCreated, created, err)
}

func (s *Service) updateLog(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "log")
	if !ok {
		return
	}
	var req api.LogUpdate
	if !s.decode(w, r, &req) {
		return
	}
	err := s.backend.UpdateLog(r.Context(), id, req.Hours, req.Descriptions)
	if err == nil {
		s.publish("log_updated", uuid.Nil, id.String())
	}
	s.respondEmpty(w, err)
}

func (s *Service) deleteLog(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "log")
	if !ok {
		return
	}
	err := s.backend.DeleteLog(r.Context(), id)
	if err == nil {
		s.publish("log_deleted", uuid.Nil, id.String())
	}
	s.respondEmpty(w, err)
}

// Profiles.

func (s *Service) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.backend.ListProfiles(r.Context())
	s.respond(w, profiles, err)
}

func (s *Service) upsertProfile(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if !s.decode(w, r, &p) {
		return
	}
	saved, err := s.backend.UpsertProfile(r.Context(), p)
	if err == nil {
		s.publish("profile_saved", uuid.Nil, saved.ID.String())
	}
	s.respond(w, saved, err)
}

// Calendar.

func (s *Service) monthWorkingDays(w http.ResponseWriter, r *http.Request) {
	var req api.MonthRequest
	if !s.decode(w, r, &req) {
		return
	}
	days, err := s.backend.MonthWorkingDays(r.Context(), req.Month)
	s.respond(w, api.DaysResponse{Days: days}, err)
}

func (s *Service) calculateWorkingDays(w http.ResponseWriter, r *http.Request) {
	var req api.RangeRequest
	if !s.decode(w, r, &req) {
		return
	}
	days, err := s.backend.CalculateWorkingDays(r.Context(), req.Start, req.End)
	s.respond(w, api.DaysResponse{Days: days}, err)
}

func (s *Service) scheduleMonth(w http.ResponseWriter, r *http.Request) {
	month, err := model.ParseMonth(r.PathValue("month"))
	if err != nil {
		s.fail(w, err)
		return
	}
	var req api.ScheduleRequest
	if !s.decode(w, r, &req) {
		return
	}
	days, err := s.backend.ScheduleMonth(r.Context(), month, req.Days)
	if err == nil {
		s.publish("schedule_set", uuid.Nil, month.Key())
	}
	s.respond(w, api.DaysResponse{Days: days}, err)
}

func (s *Service) listHolidays(w http.ResponseWriter, r *http.Request) {
	var from, to model.Date
	q := r.URL.Query()
	if err := from.UnmarshalText([]byte(q.Get("from"))); err != nil {
		s.fail(w, err)
		return
	}
	if err := to.UnmarshalText([]byte(q.Get("to"))); err != nil {
		s.fail(w, err)
		return
	}
	holidays, err := s.backend.ListHolidays(r.Context(), from, to)
	s.respond(w, holidays, err)
}

func (s *Service) addHoliday(w http.ResponseWriter, r *http.Request) {
	var h model.Holiday
	if !s.decode(w, r, &h) {
		return
	}
	err := s.backend.AddHoliday(r.Context(), h.Date, h.Name)
	if err == nil {
		s.publish("holiday_added", uuid.Nil, h.Date.String())
	}
	s.respondEmpty(w, err)
}

// Plumbing.

func (s *Service) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.fail(w, model.NewValidationError(name, "invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func (s *Service) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, model.NewValidationError("body", "malformed JSON: "+err.Error()))
		return false
	}
	return true
}

func (s *Service) respond(w http.ResponseWriter, v any, err error) {
	s.respondStatus(w, http.StatusOK, v, err)
}

func (s *Service) respondStatus(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, status, v)
}

func (s *Service) respondEmpty(w http.ResponseWriter, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) fail(w http.ResponseWriter, err error) {
	status, body := api.Classify(err)
	if status >= http.StatusInternalServerError {
		s.recordError(err)
		s.log.Error("request failed", "err", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
