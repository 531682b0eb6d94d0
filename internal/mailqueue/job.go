// Package mailqueue moves confirmation emails off the request path.
// Jobs go either to an in-process worker pool or to a RabbitMQ queue drained by cmd/worker.
package mailqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/redmonkez12/go-contacts-api/internal/email"
)

var (
	ErrQueueFull   = errors.New("mail queue is full")
	ErrQueueClosed = errors.New("mail queue is closed")
)

// Job outcomes reported to a Recorder.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

// Job asks for a confirmation email carrying Token to be delivered to To.
type Job struct {
	To       string `json:"to"`
	Username string `json:"username"`
	Token    string `json:"token"`
	BaseURL  string `json:"base_url"`
}

func (j Job) validate() error {
	if j.To == "" || j.Token == "" || j.BaseURL == "" {
		return fmt.Errorf("incomplete mail job for %q", j.To)
	}
	return nil
}

// Sender delivers a rendered confirmation email.
type Sender interface {
	SendConfirmationEmail(ctx context.Context, toEmail, username, link string) error
}

// Recorder counts job outcomes.
type Recorder interface {
	RecordEmailJob(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordEmailJob(string) {}

// Deliver sends the email described by job.
func Deliver(ctx context.Context, sender Sender, job Job) error {
	if err := job.validate(); err != nil {
		return err
	}
	return sender.SendConfirmationEmail(ctx, job.To, job.Username, email.ConfirmationLink(job.BaseURL, job.Token))
}
