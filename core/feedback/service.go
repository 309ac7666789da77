package feedback

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core"
)

// TemplateName is the email template used for feedback messages.
const TemplateName = "feedback"

// Feedback is a message a parent sends to the staff.
type Feedback struct {
	Email    string `form:"email"`
	Name     string `form:"first_name"`
	Comments string `form:"comments"`
}

// Clean trims the sender fields. Comments are sent as written.
func (fb *Feedback) Clean() {
	fb.Email = core.CleanString(fb.Email, true /* lower */)
	fb.Name = core.CleanString(fb.Name)
}

type Service interface {
	// Submit emails fb to the staff and returns the delivery error.
	Submit(ctx context.Context, fb Feedback) error
}

type service struct {
	mailSvc core.EmailService
	staff   mail.Address
	subject string
}

var _ Service = (*service)(nil)

func NewService(mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		mailSvc: mailSvc,
		staff:   mail.Address{Name: conf.AppName, Address: conf.Feedback.StaffEmail},
		subject: conf.Feedback.Subject,
	}
}

func (svc *service) newMessage(fb Feedback) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:           []mail.Address{svc.staff},
		Subject:      svc.subject,
		TemplateName: TemplateName,
		TemplateData: fb,
	}
	if fb.Email != "" {
		msg.ReplyTo = &mail.Address{Name: fb.Name, Address: fb.Email}
	}
	return msg
}

func (svc *service) Submit(ctx context.Context, fb Feedback) error {
	fb.Clean()
	if err := svc.mailSvc.SendMessages(ctx, svc.newMessage(fb)); err != nil {
		return errors.Wrap(err, "sending feedback email")
	}
	return nil
}
