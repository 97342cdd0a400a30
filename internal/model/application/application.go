package application

import (
	"strconv"
	"time"

	"github.com/zhouzirui/recordhub/backend/internal/validate"
)

// Status is the closed set of states a job application can be in.
type Status string

const (
	StatusPending      Status = "Pending"
	StatusInterviewing Status = "Interviewing"
	StatusRejected     Status = "Rejected"
	StatusAccepted     Status = "Accepted"
)

// Statuses lists every valid Status.
func Statuses() []Status {
	return []Status{StatusPending, StatusInterviewing, StatusRejected, StatusAccepted}
}

// ParseStatus accepts only the exact status names.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if err := validate.OneOf("status", s, Statuses()...); err != nil {
		return "", err
	}
	return s, nil
}

// Application tracks one job application.
type Application struct {
	ID          int       `json:"id"`
	Company     string    `json:"company"`
	Title       string    `json:"title"`
	Status      Status    `json:"status"`
	DateApplied time.Time `json:"date_applied"`
}

func (a Application) RecordID() string { return strconv.Itoa(a.ID) }

func (a Application) WithID(id string) Application {
	a.ID, _ = strconv.Atoi(id)
	return a
}

func (a Application) Validate() error {
	return validate.First(
		validate.NotBlank("company", a.Company),
		validate.NotBlank("title", a.Title),
		validate.OneOf("status", a.Status, Statuses()...),
	)
}

// Derive stamps date_applied on creation and keeps it afterwards. A missing
// status on creation defaults to Pending.
func (a Application) Derive(prev *Application, now time.Time) Application {
	if prev == nil {
		a.DateApplied = now
		if a.Status == "" {
			a.Status = StatusPending
		}
		return a
	}
	a.DateApplied = prev.DateApplied
	return a
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Company *string `json:"company"`
	Title   *string `json:"title"`
	Status  *Status `json:"status"`
}

func (p Patch) Apply(a Application) Application {
	if p.Company != nil {
		a.Company = *p.Company
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	return a
}
