package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestStartRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("not a cron", nil, nil)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("0 * * * *", time.UTC, nil)
	next, err := s.Next(time.Date(2025, 11, 8, 10, 15, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if want := time.Date(2025, 11, 8, 11, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("@every 1h", time.UTC, nil)
	if err := s.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("second start should be a no-op: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
