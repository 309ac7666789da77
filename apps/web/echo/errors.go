package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/profile"
)

// flashMessages lists the errors users may recover from, with the texts flashed on the next page.
var flashMessages = []struct {
	err error
	msg string
}{
	{profile.ErrNotFound, "User not found."},
	{profile.ErrInvalidPassword, "Invalid password"},
	{profile.ErrUsernameExists, "User already exists"},
	{profile.ErrEmailMismatch, "Email addresses do not match"},
	{profile.ErrPasswordMismatch, "Passwords do not match"},
	{profile.ErrPasswordTooLong, "Password is too long"},
}

// flashesFor returns the flash messages describing err, or nil when err is not a user error.
func flashesFor(err error) []string {
	for _, fm := range flashMessages {
		if errors.Is(err, fm.err) {
			return []string{fm.msg}
		}
	}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Messages()
	}
	return nil
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *core.ValidationError:
			fldErrs := make(map[string]string, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				fldErrs[fErr.Field] = fErr.Message
			}
			code = http.StatusBadRequest
			message = fldErrs
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg)}
			if sess := getSession(ctx); sess.IsAuthenticated() {
				args = append(args, profile.Profile{Username: sess.Username})
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
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
