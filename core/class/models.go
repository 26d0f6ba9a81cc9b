package class

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

const DefaultMaxStudents = 20

// Class statuses; only active classes accept enrollments.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Registration statuses.
const (
	RegistrationActive  = "active"
	RegistrationDropped = "dropped"
)

// Class is a recurring group lesson. The schedule fields are optional: a
// class without a day or time window never conflicts with anything.
type Class struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Subject     null.String `json:"subject"`
	Teacher     null.String `json:"teacher"`
	DayOfWeek   null.String `json:"day_of_week"`
	StartTime   null.String `json:"start_time"` // "HH:MM", 24h
	EndTime     null.String `json:"end_time"`   // "HH:MM", 24h
	MaxStudents int         `json:"max_students"`
	Status      string      `json:"status"`
	CreatedBy   string      `json:"created_by"` // staff user ID
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

func (c *Class) Enrollable() bool { return c.Status == StatusActive }

// Registration links a student to a class. Dropped registrations are kept
// and revived on re-enrollment instead of inserting a duplicate row.
type Registration struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	StudentID string    `json:"student_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (r *Registration) Active() bool { return r.Status == RegistrationActive }

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name        string `json:"name" validate:"required"`
	Subject     string `json:"subject" validate:"omitempty"`
	Teacher     string `json:"teacher" validate:"omitempty"`
	DayOfWeek   string `json:"day_of_week" validate:"omitempty,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime   string `json:"start_time" validate:"omitempty,classtime,required_with=EndTime"`
	EndTime     string `json:"end_time" validate:"omitempty,classtime,required_with=StartTime,gtfield=StartTime"`
	MaxStudents int    `json:"max_students" validate:"omitempty,min=1"`
	Status      string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject)
	nc.Teacher = core.CleanString(nc.Teacher)
	nc.DayOfWeek = core.CleanString(nc.DayOfWeek, true /* lower */)
	nc.StartTime = core.CleanString(nc.StartTime)
	nc.EndTime = core.CleanString(nc.EndTime)
	nc.Status = core.CleanString(nc.Status, true /* lower */)
	return core.Validate.Struct(nc)
}

// UpdateClass defines what information may be provided to modify an existing Class.
type UpdateClass struct {
	Name        string `json:"name" validate:"omitempty"`
	Subject     string `json:"subject" validate:"omitempty"`
	Teacher     string `json:"teacher" validate:"omitempty"`
	DayOfWeek   string `json:"day_of_week" validate:"omitempty,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime   string `json:"start_time" validate:"omitempty,classtime"`
	EndTime     string `json:"end_time" validate:"omitempty,classtime"`
	MaxStudents int    `json:"max_students" validate:"omitempty,min=1"`
	Status      string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (uc *UpdateClass) Validate() error {
	uc.Name = core.CleanString(uc.Name)
	uc.Subject = core.CleanString(uc.Subject)
	uc.Teacher = core.CleanString(uc.Teacher)
	uc.DayOfWeek = core.CleanString(uc.DayOfWeek, true /* lower */)
	uc.StartTime = core.CleanString(uc.StartTime)
	uc.EndTime = core.CleanString(uc.EndTime)
	uc.Status = core.CleanString(uc.Status, true /* lower */)
	return core.Validate.Struct(uc)
}

// RegisterStudent enrolls a student into a class.
type RegisterStudent struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
}

func (rs RegisterStudent) Validate() error { return core.Validate.Struct(rs) }
