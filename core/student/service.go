package student

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/parent"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		QueryStudentsByManager(ctx context.Context, managerID string) ([]Student, error)
		QueryStudentsByParent(ctx context.Context, parentID string) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// GetStudentOwnerPath resolves the ownership chain (managing staff,
		// parent) for a student without loading the whole aggregate.
		GetStudentOwnerPath(ctx context.Context, id string) (access.OwnerPath, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
		CountSubscriptions(ctx context.Context, studentID string) (int, error)
		CountRegistrations(ctx context.Context, studentID string) (int, error)
	}

	Service struct {
		repo       Repository
		parentRepo parent.Repository
	}
)

func NewService(repo Repository, parentRepo parent.Repository) *Service {
	return &Service{repo: repo, parentRepo: parentRepo}
}

// Create adds a student under the given parent. Staff may only create under
// parents they manage; a parent only under themselves.
func (svc *Service) Create(ctx context.Context, act access.Actor, ns NewStudent) (Student, error) {
	prt, err := svc.parentRepo.GetParentByID(ctx, ns.ParentID)
	if err != nil {
		if err == parent.ErrNotFound {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "parent_id", Error: err.Error()})
		}
		return Student{}, err
	}
	if !access.CanAccess(act, prt.OwnerPath()) {
		return Student{}, core.ErrAccessDenied
	}

	now := time.Now().UTC()
	std := Student{
		Name:      ns.Name,
		ParentID:  ns.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ns.Dob != "" {
		std.Dob = null.StringFrom(ns.Dob)
	}
	if ns.Gender != "" {
		std.Gender = null.StringFrom(ns.Gender)
	}
	if ns.Grade != "" {
		std.Grade = null.StringFrom(ns.Grade)
	}
	if ns.Notes != "" {
		std.Notes = null.StringFrom(ns.Notes)
	}
	return svc.repo.CreateStudent(ctx, std)
}

// Query lists students scoped to the actor: admin sees all, staff see the
// students of parents they manage, parents see their own.
func (svc *Service) Query(ctx context.Context, act access.Actor) ([]Student, error) {
	switch a := act.(type) {
	case access.Admin:
		return svc.repo.QueryAllStudents(ctx)
	case access.Staff:
		return svc.repo.QueryStudentsByManager(ctx, a.UserID)
	case access.Parent:
		return svc.repo.QueryStudentsByParent(ctx, a.ParentID)
	}
	return nil, core.ErrAccessDenied
}

func (svc *Service) GetByID(ctx context.Context, act access.Actor, id string) (Student, error) {
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err := svc.authorize(ctx, act, id); err != nil {
		return Student{}, err
	}
	return std, nil
}

func (svc *Service) Update(ctx context.Context, act access.Actor, id string, us UpdateStudent) (Student, error) {
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err := svc.authorize(ctx, act, id); err != nil {
		return Student{}, err
	}

	if us.Name != "" {
		std.Name = us.Name
	}
	if us.Dob != "" {
		std.Dob = null.StringFrom(us.Dob)
	}
	if us.Gender != "" {
		std.Gender = null.StringFrom(us.Gender)
	}
	if us.Grade != "" {
		std.Grade = null.StringFrom(us.Grade)
	}
	if us.Notes != "" {
		std.Notes = null.StringFrom(us.Notes)
	}
	std.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, std)
}

// Delete removes a student; blocked while subscriptions or class
// registrations still reference them.
func (svc *Service) Delete(ctx context.Context, act access.Actor, id string) error {
	if _, err := svc.repo.GetStudentByID(ctx, id); err != nil {
		return err
	}
	if err := svc.authorize(ctx, act, id); err != nil {
		return err
	}

	subCount, err := svc.repo.CountSubscriptions(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting subscriptions")
	}
	if subCount > 0 {
		return core.NewDependentsError("student", "subscriptions", subCount)
	}
	regCount, err := svc.repo.CountRegistrations(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting registrations")
	}
	if regCount > 0 {
		return core.NewDependentsError("student", "class registrations", regCount)
	}
	return svc.repo.DeleteStudent(ctx, id)
}

// Reassign moves a student to another parent. Staff and admin only; staff
// must manage both the student's current parent and the target parent.
func (svc *Service) Reassign(ctx context.Context, act access.Actor, id string, rs ReassignStudent) (Student, error) {
	if !access.IsStaffOrAdmin(act) {
		return Student{}, core.ErrAccessDenied
	}
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err := svc.authorize(ctx, act, id); err != nil {
		return Student{}, err
	}

	target, err := svc.parentRepo.GetParentByID(ctx, rs.ParentID)
	if err != nil {
		if err == parent.ErrNotFound {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "parent_id", Error: err.Error()})
		}
		return Student{}, err
	}
	if !access.CanAccess(act, target.OwnerPath()) {
		return Student{}, core.ErrAccessDenied
	}

	std.ParentID = target.ID
	std.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *Service) authorize(ctx context.Context, act access.Actor, id string) error {
	path, err := svc.repo.GetStudentOwnerPath(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccess(act, path) {
		return core.ErrAccessDenied
	}
	return nil
}
