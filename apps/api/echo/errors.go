package echoapi

import (
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/parent"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subscription"
	"github.com/trezcool/darasa/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountNotActivated  = echo.NewHTTPError(http.StatusForbidden, "account not activated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// notFoundErrs map to 404. Access denied is deliberately not among them: a
// 403 tells an authenticated caller the resource exists but is out of reach.
var notFoundErrs = map[error]bool{
	user.ErrNotFound:              true,
	parent.ErrNotFound:            true,
	student.ErrNotFound:           true,
	class.ErrNotFound:             true,
	class.ErrRegistrationNotFound: true,
	subscription.ErrNotFound:      true,
}

// conflictErrs map to 409: the request was well-formed but clashes with the
// current state of the data.
var conflictErrs = map[error]bool{
	user.ErrEmailExists:                  true,
	user.ErrAdminExists:                  true,
	parent.ErrEmailExists:                true,
	parent.ErrAlreadyActivated:           true,
	parent.ErrNoManagerAvail:             true,
	class.ErrClassNotActive:              true,
	class.ErrAlreadyRegistered:           true,
	class.ErrScheduleConflict:            true,
	class.ErrClassFull:                   true,
	class.ErrMaxBelowEnrolled:            true,
	subscription.ErrSessionLimitExceeded: true,
}

var forbiddenErrs = map[error]bool{
	core.ErrAccessDenied:      true,
	user.ErrCannotDeleteAdmin: true,
	user.ErrCannotDeleteSelf:  true,
	parent.ErrNotActivated:    true,
}

func isMapKeyable(err error) bool {
	t := reflect.TypeOf(err)
	return t == nil || t.Comparable()
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		// Slice-typed errors (e.g. validator.ValidationErrors) are unhashable
		// and would panic the map lookups below; they always fall through to
		// handleGenericErr anyway.
		keyable := isMapKeyable(cause)
		switch {
		case keyable && notFoundErrs[cause]:
			code = http.StatusNotFound
			message = cause.Error()
		case keyable && forbiddenErrs[cause]:
			code = http.StatusForbidden
			message = cause.Error()
		case keyable && conflictErrs[cause]:
			code = http.StatusConflict
			message = cause.Error()
		case cause == subscription.ErrInvalidSessionCounts:
			code = http.StatusBadRequest
			message = cause.Error()
		default:
			code, message = handleGenericErr(err, cause, ctx, logger, signalShutdown)
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func handleGenericErr(
	err, cause error,
	ctx echo.Context,
	logger core.Logger,
	signalShutdown func(),
) (code int, message interface{}) {
	switch origErr := cause.(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, origErr.Message
		}
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		return origErr.Code, origErr.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
		}
		return http.StatusBadRequest, fldErrs
	case *core.ValidationError:
		if origErr.Fields != nil {
			fldErrs := make(map[string]string, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			message = fldErrs
		} else {
			message = origErr.Error()
		}
		return http.StatusBadRequest, message
	case *core.DependentsError:
		return http.StatusConflict, origErr.Error()
	default: // any other error is a server error
		msg := http.StatusText(http.StatusInternalServerError)

		var usr user.User
		if claims, cErr := getContextClaims(ctx); cErr == nil {
			usr.ID = claims.Subject
			usr.Email = claims.Email
		}
		logger.Error(msg, errors.Wrap(err, msg), usr)

		// shutting down...
		if core.IsShutdown(err) {
			signalShutdown()
		}
		return http.StatusInternalServerError, msg
	}
}
