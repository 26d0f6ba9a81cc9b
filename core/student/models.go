package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Student belongs to exactly one Parent; everything hanging off a student
// (subscriptions, class registrations) inherits that ownership.
type Student struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Dob       null.String `json:"dob"` // "YYYY-MM-DD"
	Gender    null.String `json:"gender"`
	Grade     null.String `json:"grade"`
	Notes     null.String `json:"notes"`
	ParentID  string      `json:"parent_id"`
	CreatedAt time.Time   `json:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at"` // UTC
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name     string `json:"name" validate:"required"`
	Dob      string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other"`
	Grade    string `json:"grade" validate:"omitempty"`
	Notes    string `json:"notes" validate:"omitempty"`
	ParentID string `json:"parent_id" validate:"required,uuid4"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Dob = core.CleanString(ns.Dob)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.Grade = core.CleanString(ns.Grade)
	ns.Notes = core.CleanString(ns.Notes)
	return core.Validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name   string `json:"name" validate:"omitempty"`
	Dob    string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender string `json:"gender" validate:"omitempty,oneof=male female other"`
	Grade  string `json:"grade" validate:"omitempty"`
	Notes  string `json:"notes" validate:"omitempty"`
}

func (us *UpdateStudent) Validate() error {
	us.Name = core.CleanString(us.Name)
	us.Dob = core.CleanString(us.Dob)
	us.Gender = core.CleanString(us.Gender, true /* lower */)
	us.Grade = core.CleanString(us.Grade)
	us.Notes = core.CleanString(us.Notes)
	return core.Validate.Struct(us)
}

// ReassignStudent moves a student under a different parent.
type ReassignStudent struct {
	ParentID string `json:"parent_id" validate:"required,uuid4"`
}

func (rs ReassignStudent) Validate() error { return core.Validate.Struct(rs) }
