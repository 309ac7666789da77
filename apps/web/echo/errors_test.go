package echoweb

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/profile"
	"github.com/trezcool/yellowsub/tests"
)

func Test_flashesFor(t *testing.T) {
	type form struct {
		Username string `form:"username" validate:"required"`
	}
	vErr := core.NewValidator().Struct(form{})

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{name: "sentinel", err: profile.ErrUsernameExists, want: []string{"User already exists"}},
		{name: "wrapped sentinel", err: errors.Wrap(profile.ErrPasswordTooLong, "registering"), want: []string{"Password is too long"}},
		{name: "validation", err: vErr, want: []string{"username: this field is required"}},
		{name: "wrapped validation", err: errors.Wrap(vErr, "validating"), want: []string{"username: this field is required"}},
		{name: "server error", err: errors.New("connection refused"), want: nil},
		{name: "shutdown", err: core.NewShutdownError("integrity issue"), want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flashesFor(tt.err))
		})
	}
}

func Test_appHTTPErrorHandler(t *testing.T) {
	conf := testutil.NewConfig(t)
	shutdowns := 0
	handler := newAppHTTPErrorHandler(testutil.NewLogger(t, conf), func() { shutdowns++ })
	e := echo.New()

	tests := []struct {
		name         string
		err          error
		wantCode     int
		wantBody     string
		wantShutdown int
	}{
		{
			name:     "validation",
			err:      core.NewValidationError(core.FieldError{Field: "email", Message: "email must be a valid email address"}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"email":"email must be a valid email address"}`,
		},
		{name: "http error", err: echo.ErrNotFound, wantCode: http.StatusNotFound, wantBody: `{"error":"Not Found"}`},
		{name: "server error", err: errors.New("connection refused"), wantCode: http.StatusInternalServerError, wantBody: `{"error":"Internal Server Error"}`},
		{
			name:         "shutdown",
			err:          errors.Wrap(core.NewShutdownError("integrity issue"), "updating profile"),
			wantCode:     http.StatusInternalServerError,
			wantBody:     `{"error":"Internal Server Error"}`,
			wantShutdown: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdowns = 0
			rec := httptest.NewRecorder()
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/home", nil), rec)

			handler(tt.err, ctx)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantShutdown, shutdowns)
		})
	}
}
