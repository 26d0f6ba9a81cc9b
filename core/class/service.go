package class

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/student"
)

var (
	// ErrMaxBelowEnrolled is returned when a capacity update would leave the
	// class with more active registrations than seats.
	ErrMaxBelowEnrolled = errors.New("max students cannot be lower than current registrations")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		QueryAllClasses(ctx context.Context, ordering ...core.DBOrdering) ([]Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		DeleteClass(ctx context.Context, id string) error
		CountActiveRegistrations(ctx context.Context, classID string) (int, error)

		// Register enrolls a student, serialized per class: the duplicate,
		// schedule conflict and capacity checks run atomically with the
		// write. A dropped registration is revived rather than duplicated.
		Register(ctx context.Context, classID, studentID string) (Registration, error)
		// Unregister marks the student's active registration dropped.
		Unregister(ctx context.Context, classID, studentID string) error
		QueryClassesByStudent(ctx context.Context, studentID string) ([]Class, error)
	}

	Service struct {
		repo        Repository
		studentRepo student.Repository
	}
)

func NewService(repo Repository, studentRepo student.Repository) *Service {
	return &Service{repo: repo, studentRepo: studentRepo}
}

// Create adds a class; staff and admin only.
func (svc *Service) Create(ctx context.Context, act access.Actor, nc NewClass) (Class, error) {
	var creatorID string
	switch a := act.(type) {
	case access.Admin:
		creatorID = a.UserID
	case access.Staff:
		creatorID = a.UserID
	default:
		return Class{}, core.ErrAccessDenied
	}

	now := time.Now().UTC()
	cls := Class{
		Name:        nc.Name,
		MaxStudents: nc.MaxStudents,
		Status:      nc.Status,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if cls.MaxStudents == 0 {
		cls.MaxStudents = DefaultMaxStudents
	}
	if cls.Status == "" {
		cls.Status = StatusActive
	}
	if nc.Subject != "" {
		cls.Subject = null.StringFrom(nc.Subject)
	}
	if nc.Teacher != "" {
		cls.Teacher = null.StringFrom(nc.Teacher)
	}
	if nc.DayOfWeek != "" {
		cls.DayOfWeek = null.StringFrom(nc.DayOfWeek)
	}
	if nc.StartTime != "" {
		cls.StartTime = null.StringFrom(nc.StartTime)
		cls.EndTime = null.StringFrom(nc.EndTime)
	}
	return svc.repo.CreateClass(ctx, cls)
}

// Query lists all classes. Any authenticated actor may browse the catalogue.
func (svc *Service) Query(ctx context.Context, act access.Actor, ordering ...core.DBOrdering) ([]Class, error) {
	if act == nil {
		return nil, core.ErrAccessDenied
	}
	return svc.repo.QueryAllClasses(ctx, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, act access.Actor, id string) (Class, error) {
	if act == nil {
		return Class{}, core.ErrAccessDenied
	}
	return svc.repo.GetClassByID(ctx, id)
}

// Update modifies a class; only the staff user who created it (or the
// admin). Shrinking the capacity below the current active registration
// count is rejected.
func (svc *Service) Update(ctx context.Context, act access.Actor, id string, uc UpdateClass) (Class, error) {
	if !access.IsStaffOrAdmin(act) {
		return Class{}, core.ErrAccessDenied
	}
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if !access.CanAccess(act, access.OwnerPath{ManagerID: cls.CreatedBy}) {
		return Class{}, core.ErrAccessDenied
	}

	if uc.MaxStudents > 0 && uc.MaxStudents != cls.MaxStudents {
		count, err := svc.repo.CountActiveRegistrations(ctx, id)
		if err != nil {
			return Class{}, errors.Wrap(err, "counting registrations")
		}
		if uc.MaxStudents < count {
			return Class{}, ErrMaxBelowEnrolled
		}
		cls.MaxStudents = uc.MaxStudents
	}
	if uc.Name != "" {
		cls.Name = uc.Name
	}
	if uc.Subject != "" {
		cls.Subject = null.StringFrom(uc.Subject)
	}
	if uc.Teacher != "" {
		cls.Teacher = null.StringFrom(uc.Teacher)
	}
	if uc.DayOfWeek != "" {
		cls.DayOfWeek = null.StringFrom(uc.DayOfWeek)
	}
	if uc.StartTime != "" {
		cls.StartTime = null.StringFrom(uc.StartTime)
	}
	if uc.EndTime != "" {
		cls.EndTime = null.StringFrom(uc.EndTime)
	}
	if uc.Status != "" {
		cls.Status = uc.Status
	}
	if cls.StartTime.Valid && cls.EndTime.Valid && cls.EndTime.String <= cls.StartTime.String {
		return Class{}, core.NewValidationError(
			errors.New("invalid schedule"),
			core.FieldError{Field: "end_time", Error: "end_time must be after start_time"},
		)
	}
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}

// Delete removes a class; only the staff user who created it (or the
// admin). Blocked while students are still actively registered.
func (svc *Service) Delete(ctx context.Context, act access.Actor, id string) error {
	if !access.IsStaffOrAdmin(act) {
		return core.ErrAccessDenied
	}
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccess(act, access.OwnerPath{ManagerID: cls.CreatedBy}) {
		return core.ErrAccessDenied
	}

	count, err := svc.repo.CountActiveRegistrations(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting registrations")
	}
	if count > 0 {
		return core.NewDependentsError("class", "registrations", count)
	}
	return svc.repo.DeleteClass(ctx, id)
}

// Register enrolls a student in a class. The actor must have access to the
// student; parents may only enroll their own children.
func (svc *Service) Register(ctx context.Context, act access.Actor, classID string, rs RegisterStudent) (Registration, error) {
	if _, err := svc.repo.GetClassByID(ctx, classID); err != nil {
		return Registration{}, err
	}
	if err := svc.authorizeStudent(ctx, act, rs.StudentID); err != nil {
		return Registration{}, err
	}
	return svc.repo.Register(ctx, classID, rs.StudentID)
}

// Unregister drops a student's active registration. The row is kept so a
// later re-enrollment revives it.
func (svc *Service) Unregister(ctx context.Context, act access.Actor, classID string, rs RegisterStudent) error {
	if _, err := svc.repo.GetClassByID(ctx, classID); err != nil {
		return err
	}
	if err := svc.authorizeStudent(ctx, act, rs.StudentID); err != nil {
		return err
	}
	return svc.repo.Unregister(ctx, classID, rs.StudentID)
}

// QueryStudentClasses lists the classes a student is actively registered in.
func (svc *Service) QueryStudentClasses(ctx context.Context, act access.Actor, studentID string) ([]Class, error) {
	if err := svc.authorizeStudent(ctx, act, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryClassesByStudent(ctx, studentID)
}

func (svc *Service) authorizeStudent(ctx context.Context, act access.Actor, studentID string) error {
	path, err := svc.studentRepo.GetStudentOwnerPath(ctx, studentID)
	if err != nil {
		return err
	}
	if !access.CanAccess(act, path) {
		return core.ErrAccessDenied
	}
	return nil
}
