// Package api defines the JSON contract shared by the record-store server
// and its client: request bodies, the error envelope and the mapping
// between errors and HTTP statuses.
package api

import (
	"errors"
	"net/http"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/shopspring/decimal"
)

// Error codes carried in ErrorBody.Code.
const (
	CodeNotFound        = "not_found"
	CodeNoData          = "no_data"
	CodeValidation      = "validation"
	CodeUnauthenticated = "unauthenticated"
	CodeUnavailable     = "unavailable"
	CodeInternal        = "internal"
)

// ErrorBody is the envelope of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// Classify maps err to a status and envelope.
func Classify(err error) (int, ErrorBody) {
	body := ErrorBody{Error: err.Error()}
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		body.Code, body.Field, body.Error = CodeValidation, ve.Field, ve.Message
		return http.StatusBadRequest, body
	case errors.Is(err, model.ErrNoData):
		body.Code = CodeNoData
		return http.StatusNotFound, body
	case errors.Is(err, model.ErrNotFound):
		body.Code = CodeNotFound
		return http.StatusNotFound, body
	case errors.Is(err, model.ErrUnauthenticated):
		body.Code = CodeUnauthenticated
		return http.StatusUnauthorized, body
	case model.IsTransient(err):
		body.Code = CodeUnavailable
		return http.StatusServiceUnavailable, body
	}
	body.Code = CodeInternal
	return http.StatusInternalServerError, body
}

// Decode rebuilds the error a response stands for. Gateway and
// availability failures are transient.
func Decode(status int, body ErrorBody) error {
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusBadRequest || body.Code == CodeValidation:
		return &model.ValidationError{Field: body.Field, Message: msg}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return model.ErrUnauthenticated
	case status == http.StatusNotFound && body.Code == CodeNoData:
		return wrap(model.ErrNoData, msg)
	case status == http.StatusNotFound:
		return wrap(model.ErrNotFound, msg)
	case status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout,
		status == http.StatusTooManyRequests:
		return model.Transient(errors.New(msg))
	}
	return &StatusError{Status: status, Message: msg}
}

// StatusError is an unexpected response status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return "server returned " + http.StatusText(e.Status) + ": " + e.Message
}

type wrapped struct {
	sentinel error
	msg      string
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.sentinel }

// wrap keeps the server's message while matching sentinel.
func wrap(sentinel error, msg string) error {
	return &wrapped{sentinel: sentinel, msg: msg}
}

// RenameRequest renames a project.
type RenameRequest struct {
	Name string `json:"name"`
}

// LogUpdate replaces the editable fields of a log.
type LogUpdate struct {
	Hours        decimal.Decimal `json:"hours_spent"`
	Descriptions []string        `json:"work_description"`
}

// MonthRequest is the body of the month working-days procedure.
type MonthRequest struct {
	Month model.Month `json:"month_date"`
}

// RangeRequest is the body of the range working-days procedure.
type RangeRequest struct {
	Start model.Date `json:"start_date"`
	End   model.Date `json:"end_date"`
}

// DaysResponse carries a working-day count.
type DaysResponse struct {
	Days int `json:"days"`
}

// ScheduleRequest sets a month's working days. A nil Days derives the count
// from the calendar.
type ScheduleRequest struct {
	Days *int `json:"days,omitempty"`
}
