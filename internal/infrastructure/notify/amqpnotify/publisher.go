package amqpnotify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"changectl/internal/errs"
	"changectl/internal/ports"
)

// Publisher delivers notifications to a durable AMQP queue as persistent
// JSON messages.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

var _ ports.Notifier = (*Publisher)(nil)

func New(url string, queue string) (*Publisher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("amqp url is required")
	}
	queue = strings.TrimSpace(queue)
	if queue == "" {
		return nil, errors.New("amqp queue is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errs.Wrap(err, "dial amqp")
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errs.Wrap(err, "open amqp channel")
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, errs.Wrap(err, "declare notification queue")
	}

	return &Publisher{conn: conn, channel: channel, queue: queue}, nil
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

	if err := p.channel.PublishWithContext(
		ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         data,
		},
	); err != nil {
		return errs.Wrap(err, "publish notification")
	}
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
