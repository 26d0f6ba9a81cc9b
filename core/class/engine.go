package class

import (
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound             = errors.New("class not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyRegistered    = errors.New("student is already registered in this class")
	ErrScheduleConflict     = errors.New("class schedule conflicts with another registered class")
	ErrClassFull            = errors.New("class is full")
	ErrClassNotActive       = errors.New("class is not active")
)

// Conflicts reports whether the schedules of two classes overlap. Classes
// missing a day or a time window never conflict.
func Conflicts(a, b Class) bool {
	if !a.DayOfWeek.Valid || !b.DayOfWeek.Valid || a.DayOfWeek.String != b.DayOfWeek.String {
		return false
	}
	if !a.StartTime.Valid || !a.EndTime.Valid || !b.StartTime.Valid || !b.EndTime.Valid {
		return false
	}
	// zero-padded HH:MM compares chronologically
	return a.StartTime.String < b.EndTime.String && b.StartTime.String < a.EndTime.String
}

// CheckEnrollment decides whether a student may enroll in cls. enrolled are
// the classes the student is actively registered in; activeCount is the
// class's current active registration count. Checks run in a fixed order so
// a caller always gets the same failure for the same state: enrollable state
// first, then duplicate, then schedule conflict, then capacity.
func CheckEnrollment(cls Class, enrolled []Class, activeCount int) error {
	if !cls.Enrollable() {
		return ErrClassNotActive
	}
	for _, other := range enrolled {
		if other.ID == cls.ID {
			return ErrAlreadyRegistered
		}
	}
	for _, other := range enrolled {
		if Conflicts(cls, other) {
			return ErrScheduleConflict
		}
	}
	if activeCount >= cls.MaxStudents {
		return ErrClassFull
	}
	return nil
}
