package natsnotify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"changectl/internal/errs"
	"changectl/internal/ports"
)

// Publisher delivers notifications as JSON messages on a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

var _ ports.Notifier = (*Publisher)(nil)

func New(url string, subject string) (*Publisher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}

	conn, err := nats.Connect(url, nats.Name("changectl"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}

	return &Publisher{conn: conn, subject: subject}, nil
}

type notificationMessage struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	SentAt    string `json:"sent_at"`
}

func (p *Publisher) SendNotification(ctx context.Context, recipient string, subject string, body string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	data, err := json.Marshal(notificationMessage{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return errs.Wrap(err, "encode notification")
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return errs.Wrap(err, "publish notification")
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errs.Wrap(err, "flush notification")
	}
	return nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
