package emailsvc

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/yellowsub/core"
)

// Mail backends
const (
	BackendConsole  = "console"
	BackendSendgrid = "sendgrid"
	BackendSMTP     = "smtp"
)

type sendFunc func(ctx context.Context, msg *core.EmailMessage) error

// New returns the EmailService selected by conf.Mail.Backend.
func New(conf *core.Config, out ...io.Writer) (core.EmailService, error) {
	switch conf.Mail.Backend {
	case BackendConsole, "":
		var w io.Writer = os.Stdout
		if len(out) > 0 {
			w = out[0]
		}
		return NewConsoleService(conf, w), nil
	case BackendSendgrid:
		if conf.SendgridApiKey == "" {
			return nil, errors.New("sendgrid backend requires a SendgridApiKey")
		}
		return NewSendgridService(conf), nil
	case BackendSMTP:
		return NewSMTPService(conf), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", conf.Mail.Backend)
	}
}

// sendAll renders and sends messages concurrently; it waits for all of them
// and returns the first error.
func sendAll(ctx context.Context, appName string, send sendFunc, messages []*core.EmailMessage) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, msg := range messages {
		msg := msg
		g.Go(func() error {
			if err := msg.Render(appName); err != nil {
				return errors.Wrap(err, "rendering email")
			}
			if !(msg.HasRecipients() && msg.HasContent()) {
				return nil
			}
			return send(ctx, msg)
		})
	}
	return g.Wait()
}
