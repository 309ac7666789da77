package echoweb

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/feedback"
	"github.com/trezcool/yellowsub/core/profile"
)

type webApp struct {
	conf        *core.Config
	logger      core.Logger
	profileSvc  profile.Service
	feedbackSvc feedback.Service
	sessions    *sessionManager
	validate    *core.Validator
}

func registerPages(e *echo.Echo, app *webApp) {
	e.GET("/", app.index)
	e.POST("/login", app.login)
	e.GET("/signup", app.signupForm)
	e.POST("/signup", app.signup)
	e.POST("/logout", app.logout)

	e.GET("/home", app.home, requireAuth)
	e.GET("/account_page", app.accountPage, requireAuth)
	e.POST("/updateAccount", app.updateAccount, requireAuth)
	e.GET("/contact_info", app.contactInfo, requireAuth)
	e.GET("/feedback_form", app.feedbackForm, requireAuth)
	e.POST("/submitFeedback", app.submitFeedback, requireAuth)
}

// redirectBack redirects to the Referer when it points to this host, or to fallback.
func redirectBack(ctx echo.Context, fallback string) error {
	target := fallback
	if ref := ctx.Request().Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == ctx.Request().Host) && u.Path != "" {
			target = u.RequestURI()
		}
	}
	return ctx.Redirect(http.StatusFound, target)
}

// flashRedirect adds the messages to the Session, persists it and redirects to path.
func (app *webApp) flashRedirect(ctx echo.Context, path string, msgs ...string) error {
	sess := getSession(ctx)
	for _, msg := range msgs {
		sess.AddFlash(msg)
	}
	if err := app.sessions.save(ctx); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, path)
}
