package class

import (
	"testing"

	"github.com/volatiletech/null/v8"
)

func scheduledClass(id, day, start, end string) Class {
	return Class{
		ID:          id,
		Name:        "c-" + id,
		DayOfWeek:   null.StringFrom(day),
		StartTime:   null.StringFrom(start),
		EndTime:     null.StringFrom(end),
		MaxStudents: DefaultMaxStudents,
		Status:      StatusActive,
	}
}

func TestConflicts(t *testing.T) {
	tests := []struct {
		name string
		a, b Class
		want bool
	}{
		{name: "different days", a: scheduledClass("a", "monday", "10:00", "11:00"), b: scheduledClass("b", "tuesday", "10:00", "11:00")},
		{name: "same day no overlap", a: scheduledClass("a", "monday", "10:00", "11:00"), b: scheduledClass("b", "monday", "11:00", "12:00")},
		{name: "back to back reversed", a: scheduledClass("a", "monday", "11:00", "12:00"), b: scheduledClass("b", "monday", "10:00", "11:00")},
		{name: "partial overlap", a: scheduledClass("a", "monday", "10:00", "11:00"), b: scheduledClass("b", "monday", "10:30", "11:30"), want: true},
		{name: "contained", a: scheduledClass("a", "monday", "09:00", "12:00"), b: scheduledClass("b", "monday", "10:00", "11:00"), want: true},
		{name: "identical window", a: scheduledClass("a", "monday", "10:00", "11:00"), b: scheduledClass("b", "monday", "10:00", "11:00"), want: true},
		{name: "unscheduled a", a: Class{ID: "a"}, b: scheduledClass("b", "monday", "10:00", "11:00")},
		{name: "missing times", a: Class{ID: "a", DayOfWeek: null.StringFrom("monday")}, b: scheduledClass("b", "monday", "10:00", "11:00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Conflicts(tt.a, tt.b); got != tt.want {
				t.Errorf("Conflicts() = %v, want %v", got, tt.want)
			}
			// symmetry
			if got := Conflicts(tt.b, tt.a); got != tt.want {
				t.Errorf("Conflicts() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckEnrollment(t *testing.T) {
	target := scheduledClass("target", "monday", "10:00", "11:00")
	clashing := scheduledClass("clash", "monday", "10:30", "11:30")
	unrelated := scheduledClass("other", "friday", "10:00", "11:00")

	full := target
	full.MaxStudents = 1

	inactive := target
	inactive.Status = StatusInactive

	tests := []struct {
		name        string
		cls         Class
		enrolled    []Class
		activeCount int
		wantErr     error
	}{
		{name: "ok no enrollments", cls: target},
		{name: "ok unrelated enrollment", cls: target, enrolled: []Class{unrelated}},
		{name: "duplicate", cls: target, enrolled: []Class{target}, wantErr: ErrAlreadyRegistered},
		{name: "inactive class", cls: inactive, wantErr: ErrClassNotActive},
		// inactive wins over everything else
		{name: "inactive beats duplicate", cls: inactive, enrolled: []Class{inactive, clashing}, activeCount: 5, wantErr: ErrClassNotActive},
		{name: "schedule conflict", cls: target, enrolled: []Class{unrelated, clashing}, wantErr: ErrScheduleConflict},
		{name: "full", cls: full, activeCount: 1, wantErr: ErrClassFull},
		// duplicate wins over conflict and capacity
		{name: "duplicate beats conflict", cls: full, enrolled: []Class{full, clashing}, activeCount: 1, wantErr: ErrAlreadyRegistered},
		// conflict wins over capacity
		{name: "conflict beats capacity", cls: full, enrolled: []Class{clashing}, activeCount: 1, wantErr: ErrScheduleConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckEnrollment(tt.cls, tt.enrolled, tt.activeCount); err != tt.wantErr {
				t.Errorf("CheckEnrollment() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
