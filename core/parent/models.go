package parent

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
)

// Parent is a guardian account. Parents created by staff start out without a
// password and must activate via an emailed invite; self-registered parents
// choose their password up front.
type Parent struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Phone        null.String `json:"phone"`
	Email        string      `json:"email"`
	PasswordHash null.Bytes  `json:"-"`
	CreatedBy    string      `json:"created_by"` // managing staff user ID
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
	LastLogin    time.Time   `json:"last_login"` // UTC
}

func (p *Parent) Activated() bool {
	return len(p.PasswordHash.Bytes) > 0
}

func (p *Parent) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = null.BytesFrom(hash)
	return nil
}

func (p *Parent) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(p.PasswordHash.Bytes, []byte(pwd))
}

// Actor returns the access identity of this parent.
func (p *Parent) Actor() access.Actor {
	return access.Parent{ParentID: p.ID}
}

// OwnerPath returns the ownership chain used for access checks.
func (p *Parent) OwnerPath() access.OwnerPath {
	return access.OwnerPath{ManagerID: p.CreatedBy, ParentID: p.ID}
}

// NewParent contains information needed by staff to create a Parent.
type NewParent struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"omitempty"`
	Email string `json:"email" validate:"required,email"`
}

func (np *NewParent) Validate(ctx context.Context, svc *Service) error {
	np.Name = core.CleanString(np.Name)
	np.Phone = core.CleanString(np.Phone)
	np.Email = core.CleanString(np.Email, true /* lower */)

	if err := core.Validate.Struct(np); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, np.Email)
}

// SelfRegistration contains information a parent provides to sign themselves
// up. The password is set immediately; no activation round-trip.
type SelfRegistration struct {
	Name            string `json:"name" validate:"required"`
	Phone           string `json:"phone" validate:"omitempty"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (sr *SelfRegistration) Validate(ctx context.Context, svc *Service) error {
	sr.Name = core.CleanString(sr.Name)
	sr.Phone = core.CleanString(sr.Phone)
	sr.Email = core.CleanString(sr.Email, true /* lower */)

	if err := core.Validate.Struct(sr); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, sr.Email)
}

// UpdateParent defines what information may be provided to modify an existing Parent.
type UpdateParent struct {
	Name  string `json:"name" validate:"omitempty"`
	Phone string `json:"phone" validate:"omitempty"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (up *UpdateParent) Validate(ctx context.Context, origPrt Parent, svc *Service) error {
	up.Name = core.CleanString(up.Name)
	up.Phone = core.CleanString(up.Phone)
	email := core.CleanString(up.Email, true /* lower */)
	if email != "" {
		up.Email = email
	} else {
		up.Email = origPrt.Email
	}

	if err := core.Validate.Struct(up); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, up.Email, origPrt)
}

// ActivateParent completes a staff-created parent's invite.
type ActivateParent struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (ap ActivateParent) Validate() error { return core.Validate.Struct(ap) }
