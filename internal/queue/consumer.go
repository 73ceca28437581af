package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Handler processes one request. It always returns a response; failures are
// reported through Response.Status.
type Handler func(ctx context.Context, req Request) Response

// Config names the stream, subjects and durable consumer.
type Config struct {
	Stream          string
	RequestSubject  string
	ResponseSubject string
	Durable         string
	// AckWait bounds one request, pipeline included. Defaults to 10 minutes.
	AckWait time.Duration
	// MaxDeliver is the number of delivery attempts, 3 when zero.
	MaxDeliver int
}

// publisher is the subset of jetstream.JetStream used for responses.
type publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Consumer reads requests from the stream one at a time.
type Consumer struct {
	js     jetstream.JetStream
	pub    publisher
	cfg    Config
	logger *slog.Logger
}

// NewConsumer creates a consumer over js.
func NewConsumer(js jetstream.JetStream, cfg Config, logger *slog.Logger) *Consumer {
	if cfg.AckWait <= 0 {
		cfg.AckWait = 10 * time.Minute
	}
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{js: js, pub: js, cfg: cfg, logger: logger}
}

// Setup creates or updates the stream carrying both subjects.
func (c *Consumer) Setup(ctx context.Context) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     c.cfg.Stream,
		Subjects: []string{c.cfg.RequestSubject, c.cfg.ResponseSubject},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", c.cfg.Stream, err)
	}
	return nil
}

// Run consumes requests until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	cons, err := c.js.CreateOrUpdateConsumer(ctx, c.cfg.Stream, jetstream.ConsumerConfig{
		Durable:       c.cfg.Durable,
		FilterSubject: c.cfg.RequestSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.cfg.AckWait,
		MaxDeliver:    c.cfg.MaxDeliver,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", c.cfg.Durable, err)
	}

	msgs, err := cons.Messages()
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.RequestSubject, err)
	}
	go func() {
		<-ctx.Done()
		msgs.Stop()
	}()

	c.logger.Info("consuming requests", "stream", c.cfg.Stream, "subject", c.cfg.RequestSubject)
	for {
		msg, err := msgs.Next()
		if errors.Is(err, jetstream.ErrMsgIteratorClosed) {
			return ctx.Err()
		}
		if err != nil {
			c.logger.Warn("next message failed", "error", err)
			continue
		}
		c.process(ctx, msg, handle)
	}
}

// process handles one message. The request is acked only after its
// response is published; undecodable requests are terminated.
func (c *Consumer) process(ctx context.Context, msg jetstream.Msg, handle Handler) {
	req, err := DecodeRequest(msg.Data())
	if err != nil {
		c.logger.Warn("dropping malformed request", "error", err)
		if err := msg.Term(); err != nil {
			c.logger.Warn("term failed", "error", err)
		}
		return
	}

	c.logger.Info("request received", "project_id", req.ProjectID, "user_id", req.UserID, "files", len(req.ObjectKeys))
	resp := handle(ctx, req)

	if err := c.Respond(ctx, resp); err != nil {
		c.logger.Warn("publish response failed", "project_id", req.ProjectID, "error", err)
		if err := msg.Nak(); err != nil {
			c.logger.Warn("nak failed", "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		c.logger.Warn("ack failed", "project_id", req.ProjectID, "error", err)
	}
	c.logger.Info("response sent", "project_id", req.ProjectID, "status", resp.Status)
}

// Respond publishes resp on the response subject.
func (c *Consumer) Respond(ctx context.Context, resp Response) error {
	data, err := EncodeResponse(resp)
	if err != nil {
		return err
	}
	_, err = c.pub.Publish(ctx, c.cfg.ResponseSubject, data)
	return err
}

// Submit publishes a request on the request subject.
func (c *Consumer) Submit(ctx context.Context, req Request) error {
	data, err := EncodeRequest(req)
	if err != nil {
		return err
	}
	if _, err := c.pub.Publish(ctx, c.cfg.RequestSubject, data); err != nil {
		return fmt.Errorf("publish request: %w", err)
	}
	return nil
}
