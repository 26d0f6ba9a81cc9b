package access

import (
	"github.com/pkg/errors"
)

// Roles carried in auth claims.
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleParent = "parent"
)

var errUnknownRole = errors.New("unknown actor role")

type (
	// Actor is the authenticated identity performing an operation.
	// It is a closed set: Admin, Staff or Parent.
	Actor interface {
		Role() string
	}

	Admin struct {
		UserID string
	}

	Staff struct {
		UserID string
	}

	Parent struct {
		ParentID string
	}
)

func (Admin) Role() string  { return RoleAdmin }
func (Staff) Role() string  { return RoleStaff }
func (Parent) Role() string { return RoleParent }

// FromRole builds an Actor from auth claims.
func FromRole(role, userID, parentID string) (Actor, error) {
	switch role {
	case RoleAdmin:
		return Admin{UserID: userID}, nil
	case RoleStaff:
		return Staff{UserID: userID}, nil
	case RoleParent:
		return Parent{ParentID: parentID}, nil
	}
	return nil, errors.Wrap(errUnknownRole, role)
}

// OwnerPath is the ownership chain of a target entity, resolved up front by
// the entity's repository: the managing staff/admin at the top and, when the
// chain runs through a family, the owning parent. A Class has no ParentID;
// a Parent's ManagerID is its created_by user.
type OwnerPath struct {
	ManagerID string
	ParentID  string
}

// CanAccess decides whether an actor may act on the entity whose ownership
// chain is path. Pure; never errors — a nil (unauthenticated) actor is denied.
func CanAccess(act Actor, path OwnerPath) bool {
	switch a := act.(type) {
	case Admin:
		return true
	case Staff:
		return path.ManagerID != "" && path.ManagerID == a.UserID
	case Parent:
		return path.ParentID != "" && path.ParentID == a.ParentID
	}
	return false
}

// IsStaffOrAdmin reports whether the actor is a back-office user.
func IsStaffOrAdmin(act Actor) bool {
	switch act.(type) {
	case Admin, Staff:
		return true
	}
	return false
}
