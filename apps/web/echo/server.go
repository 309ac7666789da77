package echoweb

import (
	"context"
	"crypto/sha256"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/csrf"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/feedback"
	"github.com/trezcool/yellowsub/core/profile"
	"github.com/trezcool/yellowsub/core/session"
)

const csrfFieldName = "csrf_token"

type (
	Options struct {
		DisableReqLogs bool
	}

	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		ProfileSvc  profile.Service
		FeedbackSvc feedback.Service
		Sessions    session.Store
		DB          core.DBPinger // optional; checked by /healthz
		Validate    *core.Validator
		Options     Options
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) (*Server, error) {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	conf := s.deps.Conf

	renderer, err := newTemplateRenderer()
	if err != nil {
		return errors.Wrap(err, "parsing page templates")
	}
	s.app.Renderer = renderer
	s.app.HideBanner = true
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.Options.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Server.CSRF {
		key := sha256.Sum256([]byte(conf.SecretKey))
		s.app.Use(echo.WrapMiddleware(csrf.Protect(
			key[:],
			csrf.Secure(conf.Session.Secure),
			csrf.Path("/"),
			csrf.FieldName(csrfFieldName),
			csrf.ErrorHandler(http.HandlerFunc(csrfFailureHandler)),
		)))
	}

	sessionKey := sha256.Sum256([]byte("session:" + conf.SecretKey))
	sessions := &sessionManager{
		store:      newDBStore(s.deps.Sessions, conf.Session.MaxAge, conf.Session.Secure, sessionKey[:]),
		cookieName: conf.Session.CookieName,
	}
	s.app.Use(sessions.middleware)

	s.app.GET("/healthz", s.healthz)

	registerPages(s.app, &webApp{
		conf:        conf,
		logger:      s.deps.Logger,
		profileSvc:  s.deps.ProfileSvc,
		feedbackSvc: s.deps.FeedbackSvc,
		sessions:    sessions,
		validate:    s.deps.Validate,
	})
	return nil
}

// Start listens on conf.Server.Address. Listener errors are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives SIGINT, SIGTERM and shutdown requests coming from the error handler.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) healthz(ctx echo.Context) error {
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(ctx.Request().Context()); err != nil {
			return errors.Wrap(err, "pinging database")
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func csrfFailureHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Forbidden - "+csrf.FailureReason(r).Error(), http.StatusForbidden)
}
