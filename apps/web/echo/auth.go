package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core/profile"
)

type loginRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type indexData struct {
	LoginError bool
}

func (app *webApp) index(ctx echo.Context) error {
	sess := getSession(ctx)
	if sess.IsAuthenticated() {
		return ctx.Redirect(http.StatusFound, "/home")
	}
	return app.render(ctx, http.StatusOK, "index", indexData{LoginError: sess.TakeLoginError()})
}

func (app *webApp) login(ctx echo.Context) error {
	var data loginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}

	p, err := app.profileSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		msgs := flashesFor(err)
		if msgs == nil {
			return errors.Wrap(err, "authenticating")
		}
		getSession(ctx).LoginError = true
		return app.flashRedirect(ctx, "/", msgs...)
	}

	if err := app.sessions.start(ctx, p.Username); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, "/home")
}

func (app *webApp) signupForm(ctx echo.Context) error {
	return app.render(ctx, http.StatusOK, "register", nil)
}

func (app *webApp) signup(ctx echo.Context) error {
	var data profile.NewProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfile")
	}

	err := data.Validate(app.validate)
	if err == nil {
		var p profile.Profile
		if p, err = app.profileSvc.Register(ctx.Request().Context(), data); err == nil {
			if err := app.sessions.start(ctx, p.Username); err != nil {
				return err
			}
			return ctx.Redirect(http.StatusFound, "/home")
		}
	}

	msgs := flashesFor(err)
	if msgs == nil {
		return errors.Wrap(err, "registering profile")
	}
	return app.flashRedirect(ctx, "/signup", msgs...)
}

func (app *webApp) logout(ctx echo.Context) error {
	if err := app.sessions.destroy(ctx); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, "/")
}
