package subscription

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/student"
)

type (
	Repository interface {
		CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
		QueryAllSubscriptions(ctx context.Context) ([]Subscription, error)
		QuerySubscriptionsByManager(ctx context.Context, managerID string) ([]Subscription, error)
		QuerySubscriptionsByParent(ctx context.Context, parentID string) ([]Subscription, error)
		QuerySubscriptionsByStudent(ctx context.Context, studentID string) ([]Subscription, error)
		GetSubscriptionByID(ctx context.Context, id string) (Subscription, error)
		GetSubscriptionOwnerPath(ctx context.Context, id string) (access.OwnerPath, error)
		UpdateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
		DeleteSubscription(ctx context.Context, id string) error

		// UseSessionsSerialized consumes n sessions, serialized per
		// subscription: the limit check runs atomically with the write so
		// concurrent usage cannot overdraw the counters.
		UseSessionsSerialized(ctx context.Context, id string, n int) (Subscription, error)
	}

	Service struct {
		repo        Repository
		studentRepo student.Repository
	}
)

func NewService(repo Repository, studentRepo student.Repository) *Service {
	return &Service{repo: repo, studentRepo: studentRepo}
}

// Create adds a subscription for a student; staff and admin only, scoped to
// students they manage.
func (svc *Service) Create(ctx context.Context, act access.Actor, ns NewSubscription) (Subscription, error) {
	if !access.IsStaffOrAdmin(act) {
		return Subscription{}, core.ErrAccessDenied
	}
	path, err := svc.studentRepo.GetStudentOwnerPath(ctx, ns.StudentID)
	if err != nil {
		if err == student.ErrNotFound {
			return Subscription{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Subscription{}, err
	}
	if !access.CanAccess(act, path) {
		return Subscription{}, core.ErrAccessDenied
	}

	now := time.Now().UTC()
	sub := Subscription{
		StudentID:     ns.StudentID,
		PackageName:   ns.PackageName,
		TotalSessions: ns.TotalSessions,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !ns.StartDate.IsZero() {
		sub.StartDate = null.TimeFrom(ns.StartDate.UTC())
	}
	if !ns.EndDate.IsZero() {
		sub.EndDate = null.TimeFrom(ns.EndDate.UTC())
	}
	if ns.Notes != "" {
		sub.Notes = null.StringFrom(ns.Notes)
	}
	return svc.repo.CreateSubscription(ctx, sub)
}

// Query lists subscriptions scoped to the actor: admin sees all, staff see
// those of students whose parents they manage, parents see their children's.
func (svc *Service) Query(ctx context.Context, act access.Actor) ([]Subscription, error) {
	switch a := act.(type) {
	case access.Admin:
		return svc.repo.QueryAllSubscriptions(ctx)
	case access.Staff:
		return svc.repo.QuerySubscriptionsByManager(ctx, a.UserID)
	case access.Parent:
		return svc.repo.QuerySubscriptionsByParent(ctx, a.ParentID)
	}
	return nil, core.ErrAccessDenied
}

// QueryByStudent lists a student's subscriptions, newest first.
func (svc *Service) QueryByStudent(ctx context.Context, act access.Actor, studentID string) ([]Subscription, error) {
	path, err := svc.studentRepo.GetStudentOwnerPath(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(act, path) {
		return nil, core.ErrAccessDenied
	}
	return svc.repo.QuerySubscriptionsByStudent(ctx, studentID)
}

func (svc *Service) GetByID(ctx context.Context, act access.Actor, id string) (Subscription, error) {
	sub, err := svc.repo.GetSubscriptionByID(ctx, id)
	if err != nil {
		return Subscription{}, err
	}
	if err := svc.authorize(ctx, act, id); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// Update patches a subscription; staff and admin only. The session counters
// are validated as an effective pair.
func (svc *Service) Update(ctx context.Context, act access.Actor, id string, us UpdateSubscription) (Subscription, error) {
	if !access.IsStaffOrAdmin(act) {
		return Subscription{}, core.ErrAccessDenied
	}
	sub, err := svc.repo.GetSubscriptionByID(ctx, id)
	if err != nil {
		return Subscription{}, err
	}
	if err := svc.authorize(ctx, act, id); err != nil {
		return Subscription{}, err
	}

	sub, err = ApplyPatch(sub, us)
	if err != nil {
		return Subscription{}, err
	}
	if us.PackageName != "" {
		sub.PackageName = us.PackageName
	}
	if !us.StartDate.IsZero() {
		sub.StartDate = null.TimeFrom(us.StartDate.UTC())
	}
	if !us.EndDate.IsZero() {
		sub.EndDate = null.TimeFrom(us.EndDate.UTC())
	}
	if us.Notes != "" {
		sub.Notes = null.StringFrom(us.Notes)
	}
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubscription(ctx, sub)
}

// Delete removes a subscription; staff and admin only.
func (svc *Service) Delete(ctx context.Context, act access.Actor, id string) error {
	if !access.IsStaffOrAdmin(act) {
		return core.ErrAccessDenied
	}
	if _, err := svc.repo.GetSubscriptionByID(ctx, id); err != nil {
		return err
	}
	if err := svc.authorize(ctx, act, id); err != nil {
		return err
	}
	return svc.repo.DeleteSubscription(ctx, id)
}

// UseSessions records consumed sessions; staff and admin only. Fails with
// ErrSessionLimitExceeded when the pack does not have enough sessions left,
// nothing is clamped or retried.
func (svc *Service) UseSessions(ctx context.Context, act access.Actor, id string, u UseSessions) (Subscription, error) {
	if !access.IsStaffOrAdmin(act) {
		return Subscription{}, core.ErrAccessDenied
	}
	if _, err := svc.repo.GetSubscriptionByID(ctx, id); err != nil {
		return Subscription{}, err
	}
	if err := svc.authorize(ctx, act, id); err != nil {
		return Subscription{}, err
	}
	return svc.repo.UseSessionsSerialized(ctx, id, u.Count)
}

func (svc *Service) authorize(ctx context.Context, act access.Actor, id string) error {
	path, err := svc.repo.GetSubscriptionOwnerPath(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccess(act, path) {
		return core.ErrAccessDenied
	}
	return nil
}
