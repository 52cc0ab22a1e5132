package booking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/uninest/uninest/internal/rules"
)

type outbox []struct{ to, subject, body string }

func (o *outbox) Send(to, subject, body string) error {
	*o = append(*o, struct{ to, subject, body string }{to, subject, body})
	return nil
}

type emailBook map[string]string

func (b emailBook) Email(_ context.Context, uid string) (string, error) {
	if e, ok := b[uid]; ok {
		return e, nil
	}
	return "", errors.New("no such user")
}

func TestMailNotifier(t *testing.T) {
	var sent outbox
	n := NewMailNotifier(&sent, emailBook{"l1": "lydia@example.com"}, "http://localhost:8080")
	ctx := context.Background()
	i := &Interest{
		ID: "i1", PropertyTitle: "Bedsitter", LandlordID: "l1", MoveInDate: "2026-09-01",
		StudentName: "Amina", StudentEmail: "amina@example.com", Status: rules.StatusPending,
	}

	if err := n.InterestCreated(ctx, i); err != nil {
		t.Fatalf("created: %v", err)
	}
	i.Status = rules.StatusAccepted
	if err := n.InterestStatusChanged(ctx, i); err != nil {
		t.Fatalf("changed: %v", err)
	}

	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	if sent[0].to != "lydia@example.com" || !strings.Contains(sent[0].body, "http://localhost:8080/api/interests/i1") ||
		!strings.Contains(sent[0].body, "2026-09-01") {
		t.Errorf("landlord notification = %+v", sent[0])
	}
	if sent[1].to != "amina@example.com" || !strings.Contains(sent[1].body, "accepted") {
		t.Errorf("student notification = %+v", sent[1])
	}

	i.LandlordID = "unknown"
	if err := n.InterestCreated(ctx, i); err == nil {
		t.Error("expected error for unknown landlord")
	}
	i.StudentEmail = ""
	if err := n.InterestStatusChanged(ctx, i); err != nil || len(sent) != 2 {
		t.Errorf("no student email: err = %v, sent = %d", err, len(sent))
	}
}
