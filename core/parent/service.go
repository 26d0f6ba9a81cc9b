package parent

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
)

var (
	// errors
	ErrNotFound         = errors.New("parent not found")
	ErrEmailExists      = errors.New("a parent with this email already exists")
	ErrNotActivated     = errors.New("parent account is not activated")
	ErrAlreadyActivated = errors.New("parent account is already activated")
	ErrNoManagerAvail   = errors.New("no staff available to manage this parent")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedParents ...Parent) error
		CreateParent(ctx context.Context, prt Parent) (Parent, error)
		QueryAllParents(ctx context.Context) ([]Parent, error)
		QueryParentsByManager(ctx context.Context, managerID string) ([]Parent, error)
		GetParentByID(ctx context.Context, id string) (Parent, error)
		GetParentByEmail(ctx context.Context, email string) (Parent, error)
		UpdateParent(ctx context.Context, prt Parent) (Parent, error)
		DeleteParent(ctx context.Context, id string) error
		// LeastLoadedManager returns the staff user managing the fewest
		// parents, ties broken by earliest account creation.
		LeastLoadedManager(ctx context.Context) (string, error)
		CountStudents(ctx context.Context, parentID string) (int, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclParents ...Parent) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclParents...); err != nil {
		if err != ErrEmailExists {
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}
	return nil
}

// Create adds a parent managed by the acting staff user (or by the admin).
// An activation invite is emailed; the parent has no password until they
// complete it.
func (svc *Service) Create(ctx context.Context, act access.Actor, np NewParent) (Parent, error) {
	var managerID string
	switch a := act.(type) {
	case access.Admin:
		managerID = a.UserID
	case access.Staff:
		managerID = a.UserID
	default:
		return Parent{}, core.ErrAccessDenied
	}

	now := time.Now().UTC()
	prt := Parent{
		Name:      np.Name,
		Email:     np.Email,
		CreatedBy: managerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if np.Phone != "" {
		prt.Phone.SetValid(np.Phone)
	}
	prt, err := svc.repo.CreateParent(ctx, prt)
	if err != nil {
		return Parent{}, err
	}
	svc.sendActivationMail(prt)
	return prt, nil
}

// Register signs a parent up without staff involvement. The account is
// assigned to the least-loaded staff member and usable right away.
func (svc *Service) Register(ctx context.Context, sr SelfRegistration) (Parent, error) {
	managerID, err := svc.repo.LeastLoadedManager(ctx)
	if err != nil {
		return Parent{}, err
	}

	now := time.Now().UTC()
	prt := Parent{
		Name:      sr.Name,
		Email:     sr.Email,
		CreatedBy: managerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sr.Phone != "" {
		prt.Phone.SetValid(sr.Phone)
	}
	if err := prt.SetPassword(sr.Password); err != nil {
		return Parent{}, err
	}
	return svc.repo.CreateParent(ctx, prt)
}

// Activate completes a staff-created parent's invite and sets their password.
func (svc *Service) Activate(ctx context.Context, ap ActivateParent) (Parent, error) {
	id, err := decodeUID(ap.UID)
	if err != nil {
		return Parent{}, core.NewValidationError(errInvalidToken)
	}
	prt, err := svc.repo.GetParentByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Parent{}, core.NewValidationError(errInvalidToken)
		}
		return Parent{}, err
	}
	if prt.Activated() {
		return Parent{}, ErrAlreadyActivated
	}
	if err := verifyActivationToken(prt, ap.Token); err != nil {
		return Parent{}, core.NewValidationError(err)
	}

	if err := prt.SetPassword(ap.Password); err != nil {
		return Parent{}, err
	}
	prt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateParent(ctx, prt)
}

// Authenticate checks a parent's login credentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Parent, error) {
	prt, err := svc.repo.GetParentByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return Parent{}, err
	}
	if !prt.Activated() {
		return Parent{}, ErrNotActivated
	}
	if err := prt.CheckPassword(pwd); err != nil {
		return Parent{}, err
	}
	return prt, nil
}

func (svc *Service) SetLastLogin(ctx context.Context, prt Parent) (Parent, error) {
	prt.LastLogin = time.Now().UTC()
	return svc.repo.UpdateParent(ctx, prt)
}

// Query lists parents scoped to the actor: admin sees all, staff see the
// parents they manage, parents see only themselves.
func (svc *Service) Query(ctx context.Context, act access.Actor) ([]Parent, error) {
	switch a := act.(type) {
	case access.Admin:
		return svc.repo.QueryAllParents(ctx)
	case access.Staff:
		return svc.repo.QueryParentsByManager(ctx, a.UserID)
	case access.Parent:
		prt, err := svc.repo.GetParentByID(ctx, a.ParentID)
		if err != nil {
			return nil, err
		}
		return []Parent{prt}, nil
	}
	return nil, core.ErrAccessDenied
}

func (svc *Service) GetByID(ctx context.Context, act access.Actor, id string) (Parent, error) {
	prt, err := svc.repo.GetParentByID(ctx, id)
	if err != nil {
		return Parent{}, err
	}
	if !access.CanAccess(act, prt.OwnerPath()) {
		return Parent{}, core.ErrAccessDenied
	}
	return prt, nil
}

func (svc *Service) Update(ctx context.Context, act access.Actor, id string, up UpdateParent) (Parent, error) {
	prt, err := svc.repo.GetParentByID(ctx, id)
	if err != nil {
		return Parent{}, err
	}
	if !access.CanAccess(act, prt.OwnerPath()) {
		return Parent{}, core.ErrAccessDenied
	}
	if err := up.Validate(ctx, prt, svc); err != nil {
		return Parent{}, err
	}

	if up.Name != "" {
		prt.Name = up.Name
	}
	if up.Phone != "" {
		prt.Phone.SetValid(up.Phone)
	}
	prt.Email = up.Email
	prt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateParent(ctx, prt)
}

// Delete removes a parent. Staff and admin only; blocked while the parent
// still has students.
func (svc *Service) Delete(ctx context.Context, act access.Actor, id string) error {
	if !access.IsStaffOrAdmin(act) {
		return core.ErrAccessDenied
	}
	prt, err := svc.repo.GetParentByID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccess(act, prt.OwnerPath()) {
		return core.ErrAccessDenied
	}

	count, err := svc.repo.CountStudents(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	if count > 0 {
		return core.NewDependentsError("parent", "students", count)
	}
	return svc.repo.DeleteParent(ctx, id)
}

// ResendActivation re-emails the activation invite for an inactive parent.
func (svc *Service) ResendActivation(ctx context.Context, act access.Actor, id string) error {
	prt, err := svc.repo.GetParentByID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccess(act, prt.OwnerPath()) {
		return core.ErrAccessDenied
	}
	if prt.Activated() {
		return ErrAlreadyActivated
	}
	svc.sendActivationMail(prt)
	return nil
}

func (svc *Service) sendActivationMail(prt Parent) {
	token, err := makeActivationToken(prt)
	if err != nil {
		return
	}
	url := fmt.Sprintf("%s/activate?uid=%s&token=%s", core.Conf.FrontendBaseURL, encodeUID(prt), token)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: prt.Name, Address: prt.Email}},
		Subject: fmt.Sprintf("Welcome to %s", core.Conf.AppName),
		Body: fmt.Sprintf(
			"Hi %s,\n\nAn account was created for you. "+
				"Please go to the following page to choose a password and activate it:\n%s\n", prt.Name, url),
	})
}
