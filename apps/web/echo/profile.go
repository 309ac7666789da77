package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core/profile"
	"github.com/trezcool/yellowsub/core/session"
)

func (app *webApp) home(ctx echo.Context) error {
	return app.render(ctx, http.StatusOK, "home", nil)
}

func (app *webApp) contactInfo(ctx echo.Context) error {
	getSession(ctx).LastTab = session.TabContact
	return app.render(ctx, http.StatusOK, "contact_info", nil)
}

func (app *webApp) accountPage(ctx echo.Context) error {
	getSession(ctx).LastTab = session.TabAccount

	p, err := app.sessionProfile(ctx)
	if errors.Is(err, profile.ErrNotFound) { // deleted since login
		return app.logout(ctx)
	}
	if err != nil {
		return err
	}
	return app.render(ctx, http.StatusOK, "account_page", p)
}

func (app *webApp) updateAccount(ctx echo.Context) error {
	var data profile.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}

	if _, err := app.profileSvc.Update(ctx.Request().Context(), getSession(ctx).Username, data); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return app.logout(ctx)
		}
		return errors.Wrap(err, "updating profile")
	}
	return redirectBack(ctx, "/account_page")
}

// sessionProfile loads the Profile the Session is authenticated as.
func (app *webApp) sessionProfile(ctx echo.Context) (profile.Profile, error) {
	p, err := app.profileSvc.GetByUsername(ctx.Request().Context(), getSession(ctx).Username)
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		return profile.Profile{}, errors.Wrap(err, "fetching profile")
	}
	return p, err
}
