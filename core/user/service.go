package user

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
	ErrNotFound          = errors.New("user not found")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrAdminExists       = errors.New("an admin account already exists")
	ErrCannotDeleteAdmin = errors.New("the admin account cannot be deleted")
	ErrCannotDeleteSelf  = errors.New("users cannot delete their own account")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id string) error
		CountUsersByRole(ctx context.Context, role string) (int, error)
		// CountManagedParents counts the parents whose created_by is this user.
		CountManagedParents(ctx context.Context, userID string) (int, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err != ErrEmailExists {
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}
	return nil
}

// CreateAdmin creates the sole admin account. It fails with ErrAdminExists if
// an admin already exists; used by the bootstrap CLI only.
func (svc *Service) CreateAdmin(ctx context.Context, nu NewUser) (User, error) {
	count, err := svc.repo.CountUsersByRole(ctx, access.RoleAdmin)
	if err != nil {
		return User{}, errors.Wrap(err, "counting admins")
	}
	if count > 0 {
		return User{}, ErrAdminExists
	}
	return svc.create(ctx, nu, access.RoleAdmin)
}

// CreateStaff creates a staff account; admin only.
func (svc *Service) CreateStaff(ctx context.Context, act access.Actor, nu NewUser) (User, error) {
	if _, ok := act.(access.Admin); !ok {
		return User{}, core.ErrAccessDenied
	}
	return svc.create(ctx, nu, access.RoleStaff)
}

func (svc *Service) create(ctx context.Context, nu NewUser, role string) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Email:     nu.Email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

// QueryAll lists all back-office users; admin only.
func (svc *Service) QueryAll(ctx context.Context, act access.Actor) ([]User, error) {
	if _, ok := act.(access.Admin); !ok {
		return nil, core.ErrAccessDenied
	}
	return svc.repo.QueryAllUsers(ctx)
}

// GetByID returns a user; admin, or staff looking at themselves.
func (svc *Service) GetByID(ctx context.Context, act access.Actor, id string) (User, error) {
	switch a := act.(type) {
	case access.Admin:
	case access.Staff:
		if a.UserID != id {
			return User{}, core.ErrAccessDenied
		}
	default:
		return User{}, core.ErrAccessDenied
	}
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Update modifies a user account. Admin may update anyone; staff only themselves.
func (svc *Service) Update(ctx context.Context, act access.Actor, id string, uu UpdateUser) (User, error) {
	switch a := act.(type) {
	case access.Admin:
	case access.Staff:
		if a.UserID != id {
			return User{}, core.ErrAccessDenied
		}
	default:
		return User{}, core.ErrAccessDenied
	}

	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := uu.Validate(ctx, usr, svc); err != nil {
		return User{}, err
	}

	usr.Email = uu.Email
	usr.UpdatedAt = time.Now().UTC()
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Delete removes a staff account; admin only. The admin account itself and
// the acting user are protected, and staff still managing parents block
// deletion until their parents are reassigned or removed.
func (svc *Service) Delete(ctx context.Context, act access.Actor, id string) error {
	a, ok := act.(access.Admin)
	if !ok {
		return core.ErrAccessDenied
	}
	if a.UserID == id {
		return ErrCannotDeleteSelf
	}

	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if usr.IsAdmin() {
		return ErrCannotDeleteAdmin
	}

	count, err := svc.repo.CountManagedParents(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting managed parents")
	}
	if count > 0 {
		return core.NewDependentsError("user", "parents", count)
	}
	return svc.repo.DeleteUser(ctx, id)
}

// RequestPasswordReset emails a password reset link to the given address.
// ErrNotFound is returned (and swallowed by the API) for unknown emails.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := MakeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}

	url := fmt.Sprintf("%s/password-reset?uid=%s&token=%s", core.Conf.FrontendBaseURL, EncodeUID(usr), token)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: usr.Email}},
		Subject: "Password reset",
		Body: fmt.Sprintf(
			"You're receiving this email because you requested a password reset for your account.\n\n"+
				"Please go to the following page and choose a new password:\n%s\n", url),
	})
	return nil
}

// ResetPassword completes the password reset flow.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}

	if err := usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
