package ports

import (
	"context"
	"time"
)

// EmailJob is one outbound message: a named template rendered with Data and
// sent to Recipient.
type EmailJob struct {
	Template  string
	Recipient string
	Name      string
	Data      map[string]string
}

// EmailSender delivers a rendered template to a recipient. Transport failures
// are reported to the caller; the auth flow itself never waits on delivery.
type EmailSender interface {
	Send(ctx context.Context, job EmailJob) error
}

// EmailQueue decouples the auth flow from email delivery. Enqueue is
// fire-and-forget: delivery failures are logged by the queue, not propagated.
type EmailQueue interface {
	Enqueue(job EmailJob)
}

// VerificationStore holds one-time email-verification tokens. Take consumes
// the token: a second Take of the same token fails.
type VerificationStore interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	Take(ctx context.Context, token string) (userID string, err error)
}
