package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/parent"
	"github.com/trezcool/darasa/core/user"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "actorToken",
		Claims:        new(Claims),
	}
)

// Claims represents the authorization claims transmitted via a JWT. Role is
// one of admin, staff or parent; ParentID is only set for parent tokens.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	ParentID     string `json:"parent_id,omitempty"`
}

// Actor maps the claims to the access identity they carry.
func (c Claims) Actor() (access.Actor, error) {
	return access.FromRole(c.Role, c.Subject, c.ParentID)
}

func newClaims(sub, email, role, parentID string, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   sub,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        email,
		Role:         role,
		ParentID:     parentID,
	}
}

func GetUserClaims(usr user.User, origIat ...int64) *Claims {
	return newClaims(usr.ID, usr.Email, usr.Role, "", origIat...)
}

func GetParentClaims(prt parent.Parent, origIat ...int64) *Claims {
	return newClaims(prt.ID, prt.Email, access.RoleParent, prt.ID, origIat...)
}

func authenticateUser(ctx echo.Context, email, pwd string, svc *user.Service) (*Claims, error) {
	usr, err := svc.GetByEmail(ctx.Request().Context(), email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	usr, err = svc.SetLastLogin(ctx.Request().Context(), usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetUserClaims(usr), nil
}

func authenticateParent(ctx echo.Context, email, pwd string, svc *parent.Service) (*Claims, error) {
	prt, err := svc.Authenticate(ctx.Request().Context(), email, pwd)
	if err != nil {
		switch errors.Cause(err) {
		case parent.ErrNotFound, bcrypt.ErrMismatchedHashAndPassword:
			return nil, errAuthenticationFailed
		case parent.ErrNotActivated:
			return nil, errAccountNotActivated
		}
		return nil, errors.Wrap(err, "authenticating parent")
	}
	prt, err = svc.SetLastLogin(ctx.Request().Context(), prt)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetParentClaims(prt), nil
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextActor(ctx echo.Context) (access.Actor, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, err
	}
	act, err := claims.Actor()
	if err != nil {
		return nil, errUnauthorized
	}
	return act, nil
}

func refreshToken(ctx echo.Context, usrSvc *user.Service, prtSvc *parent.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	// check that the account still exists
	var newClms *Claims
	if claims.Role == access.RoleParent {
		prt, err := prtSvc.GetByID(ctx.Request().Context(), access.Parent{ParentID: claims.ParentID}, claims.ParentID)
		if err != nil {
			return "", errUnauthorized
		}
		newClms = GetParentClaims(prt, claims.OrigIssuedAt)
	} else {
		usr, err := usrSvc.GetByEmail(ctx.Request().Context(), claims.Email)
		if err != nil || usr.ID != claims.Subject {
			return "", errUnauthorized
		}
		newClms = GetUserClaims(usr, claims.OrigIssuedAt)
	}

	token, err := GenerateToken(newClms)
	return token, errors.Wrap(err, "generating token")
}
