package emailsvc

import (
	"context"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core"
)

var smtpSendMailFunc = smtp.SendMail // mockable

type smtpService struct {
	appName          string
	addr             string
	auth             smtp.Auth
	defaultFromEmail mail.Address
}

var _ core.EmailService = (*smtpService)(nil)

// NewSMTPService returns an EmailService relaying messages through conf.Mail's SMTP server.
func NewSMTPService(conf *core.Config) core.EmailService {
	svc := &smtpService{
		appName:          conf.AppName,
		addr:             net.JoinHostPort(conf.Mail.SMTPHost, strconv.Itoa(conf.Mail.SMTPPort)),
		defaultFromEmail: conf.DefaultFromEmail(),
	}
	if conf.Mail.SMTPUser != "" {
		svc.auth = smtp.PlainAuth("", conf.Mail.SMTPUser, conf.Mail.SMTPPassword, conf.Mail.SMTPHost)
	}
	return svc
}

func (svc *smtpService) SendMessages(ctx context.Context, messages ...*core.EmailMessage) error {
	return sendAll(ctx, svc.appName, svc.send, messages)
}

func (svc *smtpService) send(ctx context.Context, msg *core.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := buildMIME(svc.defaultFromEmail, msg, time.Now())
	if err != nil {
		return errors.Wrap(err, "building email")
	}
	if err = smtpSendMailFunc(svc.addr, svc.auth, svc.defaultFromEmail.Address, recipients(msg), body); err != nil {
		return errors.Wrap(err, "sending email")
	}
	return nil
}
