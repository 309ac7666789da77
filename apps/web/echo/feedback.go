package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core/feedback"
	"github.com/trezcool/yellowsub/core/profile"
	"github.com/trezcool/yellowsub/core/session"
)

type feedbackFormData struct {
	Profile     profile.Profile
	EmailSent   bool
	EmailFailed bool
}

func (app *webApp) feedbackForm(ctx echo.Context) error {
	sess := getSession(ctx)
	sess.LastTab = session.TabFeedback

	p, err := app.sessionProfile(ctx)
	if errors.Is(err, profile.ErrNotFound) {
		return app.logout(ctx)
	}
	if err != nil {
		return err
	}

	status := sess.TakeEmailStatus()
	return app.render(ctx, http.StatusOK, "feedback_form", feedbackFormData{
		Profile:     p,
		EmailSent:   status == session.EmailSuccess,
		EmailFailed: status == session.EmailFailed,
	})
}

// submitFeedback records the delivery outcome in the Session; it is shown once by feedbackForm.
func (app *webApp) submitFeedback(ctx echo.Context) error {
	var data feedback.Feedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Feedback")
	}

	sess := getSession(ctx)
	if err := app.feedbackSvc.Submit(ctx.Request().Context(), data); err != nil {
		app.logger.Warn("feedback not delivered", err, profile.Profile{Username: sess.Username})
		sess.EmailStatus = session.EmailFailed
	} else {
		sess.EmailStatus = session.EmailSuccess
	}

	if err := app.sessions.save(ctx); err != nil {
		return err
	}
	return redirectBack(ctx, "/feedback_form")
}
