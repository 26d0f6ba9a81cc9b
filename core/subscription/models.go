package subscription

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Subscription statuses; derived from the session counters, never stored.
const (
	StatusActive    = "active"
	StatusExhausted = "exhausted"
)

// Subscription is a prepaid pack of tutoring sessions for one student. Only
// the two counters are persisted; remaining sessions and status are always
// computed from them.
type Subscription struct {
	ID            string      `json:"id"`
	StudentID     string      `json:"student_id"`
	PackageName   string      `json:"package_name"`
	TotalSessions int         `json:"total_sessions"`
	UsedSessions  int         `json:"used_sessions"`
	StartDate     null.Time   `json:"start_date"`
	EndDate       null.Time   `json:"end_date"`
	Notes         null.String `json:"notes"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at"` // UTC
}

func (s *Subscription) RemainingSessions() int {
	return s.TotalSessions - s.UsedSessions
}

func (s *Subscription) Status() string {
	if s.RemainingSessions() > 0 {
		return StatusActive
	}
	return StatusExhausted
}

// NewSubscription contains information needed to create a new Subscription.
// A zero-session pack is valid; it just starts out exhausted.
type NewSubscription struct {
	StudentID     string    `json:"student_id" validate:"required,uuid4"`
	PackageName   string    `json:"package_name" validate:"required"`
	TotalSessions int       `json:"total_sessions" validate:"min=0"`
	StartDate     time.Time `json:"start_date" validate:"omitempty"`
	EndDate       time.Time `json:"end_date" validate:"omitempty,gtfield=StartDate"`
	Notes         string    `json:"notes" validate:"omitempty"`
}

func (ns *NewSubscription) Validate() error {
	ns.PackageName = core.CleanString(ns.PackageName)
	ns.Notes = core.CleanString(ns.Notes)
	return core.Validate.Struct(ns)
}

// UpdateSubscription defines what information may be provided to modify an
// existing Subscription. The session counters are pointers so a zero value
// can be told apart from "leave unchanged"; they are validated together
// against the effective pair.
type UpdateSubscription struct {
	PackageName   string    `json:"package_name" validate:"omitempty"`
	TotalSessions *int      `json:"total_sessions" validate:"omitempty,min=0"`
	UsedSessions  *int      `json:"used_sessions" validate:"omitempty,min=0"`
	StartDate     time.Time `json:"start_date" validate:"omitempty"`
	EndDate       time.Time `json:"end_date" validate:"omitempty"`
	Notes         string    `json:"notes" validate:"omitempty"`
}

func (us *UpdateSubscription) Validate() error {
	us.PackageName = core.CleanString(us.PackageName)
	us.Notes = core.CleanString(us.Notes)
	return core.Validate.Struct(us)
}

// UseSessions records sessions consumed against a subscription.
type UseSessions struct {
	Count int `json:"count" validate:"omitempty,min=1"`
}

// Validate defaults a missing count to a single session.
func (u *UseSessions) Validate() error {
	if u.Count == 0 {
		u.Count = 1
	}
	return core.Validate.Struct(u)
}
