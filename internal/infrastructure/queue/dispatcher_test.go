package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/userhub/user-management/internal/core/ports"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []ports.EmailJob
	err  error
	done chan struct{}
}

func (s *recordingSender) Send(_ context.Context, job ports.EmailJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, job)
	if s.done != nil {
		s.done <- struct{}{}
	}
	return s.err
}

func TestDispatcher_DeliversJobs(t *testing.T) {
	sender := &recordingSender{done: make(chan struct{}, 8)}
	d := NewDispatcher(2, sender, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	jobs := []ports.EmailJob{
		{Template: "email_verification", Recipient: "a@example.com"},
		{Template: "email_verification", Recipient: "b@example.com"},
		{Template: "account_locked", Recipient: "a@example.com"},
	}
	for _, j := range jobs {
		d.Enqueue(j)
	}

	for range jobs {
		select {
		case <-sender.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for deliveries")
		}
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != len(jobs) {
		t.Fatalf("expected %d deliveries, got %d", len(jobs), len(sender.sent))
	}
}

func TestDispatcher_SameRecipientSameWorker(t *testing.T) {
	d := NewDispatcher(4, &recordingSender{}, zerolog.Nop())

	first := d.shardIndex("test@example.com")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("test@example.com"); got != first {
			t.Fatalf("shard index not deterministic: %d vs %d", got, first)
		}
	}
}

func TestDispatcher_FailureDoesNotStopWorker(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down"), done: make(chan struct{}, 8)}
	d := NewDispatcher(1, sender, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.EmailJob{Template: "email_verification", Recipient: "a@example.com"})
	d.Enqueue(ports.EmailJob{Template: "email_verification", Recipient: "a@example.com"})

	for i := 0; i < 2; i++ {
		select {
		case <-sender.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("worker stopped after delivery failure")
		}
	}
}
