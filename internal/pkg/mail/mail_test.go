package mail

import (
	"errors"
	"testing"
)

type recorder struct{ to string }

func (r *recorder) Send(to, _, _, _ string) error {
	r.to = to
	return nil
}

func TestDefaultSender(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	if err := Default().Send("a@example.com", "s", "", "b"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	rec := &recorder{}
	SetDefault(rec)
	if err := Default().Send("owner@example.com", "s", "", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.to != "owner@example.com" {
		t.Fatalf("expected recorder to receive the message, got %q", rec.to)
	}
}
