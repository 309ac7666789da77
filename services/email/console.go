package emailsvc

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/yellowsub/core"
)

type consoleService struct {
	appName          string
	defaultFromEmail mail.Address
	out              io.Writer
	mu               sync.Mutex
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService returns an EmailService that prints messages to out instead of sending them.
func NewConsoleService(conf *core.Config, out io.Writer) core.EmailService {
	return &consoleService{
		appName:          conf.AppName,
		defaultFromEmail: conf.DefaultFromEmail(),
		out:              out,
	}
}

func (svc *consoleService) SendMessages(ctx context.Context, messages ...*core.EmailMessage) error {
	return sendAll(ctx, svc.appName, svc.send, messages)
}

func (svc *consoleService) send(_ context.Context, msg *core.EmailMessage) error {
	body, err := buildMIME(svc.defaultFromEmail, msg, time.Now())
	if err != nil {
		return errors.Wrap(err, "building email")
	}

	// do not interleave concurrent messages
	svc.mu.Lock()
	defer svc.mu.Unlock()
	_, err = fmt.Fprintf(svc.out, "%s\r\n\r\n", body)
	return err
}

// ConsoleServiceMock records messages instead of printing them.
type ConsoleServiceMock struct {
	appName string

	mu           sync.Mutex
	SentMessages []core.EmailMessage
}

var _ core.EmailService = (*ConsoleServiceMock)(nil)

func NewConsoleServiceMock(conf *core.Config) *ConsoleServiceMock {
	return &ConsoleServiceMock{appName: conf.AppName}
}

func (svc *ConsoleServiceMock) SendMessages(ctx context.Context, messages ...*core.EmailMessage) error {
	return sendAll(ctx, svc.appName, svc.record, messages)
}

func (svc *ConsoleServiceMock) record(_ context.Context, msg *core.EmailMessage) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.SentMessages = append(svc.SentMessages, *msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (svc *ConsoleServiceMock) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.SentMessages...)
}

func (svc *ConsoleServiceMock) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.SentMessages = nil
}

// FailingServiceMock fails every delivery with Err.
type FailingServiceMock struct {
	Err error
}

var _ core.EmailService = FailingServiceMock{}

func (svc FailingServiceMock) SendMessages(context.Context, ...*core.EmailMessage) error {
	return svc.Err
}
