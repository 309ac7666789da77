package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/yellowsub/apps/web/echo"
	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/feedback"
	"github.com/trezcool/yellowsub/core/profile"
	"github.com/trezcool/yellowsub/services/email"
	"github.com/trezcool/yellowsub/storage/database/sqlx"
	"github.com/trezcool/yellowsub/tests"
)

// countingRepo records how many times profiles were read.
type countingRepo struct {
	profile.Repository
	reads int64
}

func (r *countingRepo) GetProfile(ctx context.Context, filter profile.GetFilter) (profile.Profile, error) {
	atomic.AddInt64(&r.reads, 1)
	return r.Repository.GetProfile(ctx, filter)
}

func (r *countingRepo) Reads() int64 {
	return atomic.LoadInt64(&r.reads)
}

type testApp struct {
	conf       *core.Config
	db         *sqlx.DB
	server     *Server
	repo       *countingRepo
	profileSvc profile.Service
	mailSvc    core.EmailService
}

type setupOption func(conf *core.Config, app *testApp)

func withCSRF(conf *core.Config, _ *testApp) { conf.Server.CSRF = true }

func withMailService(svc core.EmailService) setupOption {
	return func(_ *core.Config, app *testApp) { app.mailSvc = svc }
}

func setup(t *testing.T, opts ...setupOption) *testApp {
	conf := testutil.NewConfig(t)
	db := testutil.PrepareDB(t)

	app := &testApp{
		conf:    conf,
		db:      db,
		repo:    &countingRepo{Repository: sqlxrepos.NewProfileRepository(db)},
		mailSvc: emailsvc.NewConsoleServiceMock(conf),
	}
	for _, opt := range opts {
		opt(conf, app)
	}

	validate := core.NewValidator()
	app.profileSvc = profile.NewService(app.repo)

	server, err := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      testutil.NewLogger(t, conf),
		ProfileSvc:  app.profileSvc,
		FeedbackSvc: feedback.NewService(app.mailSvc, conf),
		Sessions:    sqlxrepos.NewSessionStore(db),
		DB:          db,
		Validate:    validate,
		Options:     Options{DisableReqLogs: true},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	app.server = server
	return app
}

func (app *testApp) register(t *testing.T, uname, pwd string) profile.Profile {
	np := profile.NewProfile{Username: uname, Password: pwd, ConfirmPassword: pwd}
	p, err := app.profileSvc.Register(context.Background(), np)
	require.NoError(t, err)
	return p
}

// browser replays the cookies set by the server, like a web browser would.
type browser struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
	referer string
}

func (app *testApp) newBrowser(t *testing.T) *browser {
	return &browser{t: t, app: app, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if b.referer != "" {
		req.Header.Set("Referer", b.referer)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.app.server.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
		} else {
			b.cookies[c.Name] = c
		}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return b.do(http.MethodPost, path, form)
}

func (b *browser) login(uname, pwd string) {
	rec := b.post("/login", url.Values{"username": {uname}, "password": {pwd}})
	checkRedirect(b.t, rec, "/home")
}

type httpTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	wantCode     int
	wantLocation string
	wantBody     []string
	wantNotBody  []string
}

func checkRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusFound)
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Errorf("failed! location = %q; wantLocation %q", got, location)
	}
}

func checkCodeAndBody(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantLocation != "" {
		if got := rec.Header().Get("Location"); got != tt.wantLocation {
			t.Errorf("failed! location = %q; wantLocation %q", got, tt.wantLocation)
		}
	}
	body := rec.Body.String()
	for _, want := range tt.wantBody {
		if !strings.Contains(body, want) {
			t.Errorf("failed! body = %v; want it to contain %q", body, want)
		}
	}
	for _, notWant := range tt.wantNotBody {
		if strings.Contains(body, notWant) {
			t.Errorf("failed! body = %v; want it not to contain %q", body, notWant)
		}
	}
}
