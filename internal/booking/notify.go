package booking

import (
	"context"
	"fmt"

	"github.com/uninest/uninest/internal/rules"
)

// Sender delivers a plain-text email.
type Sender interface {
	Send(to, subject, body string) error
}

// EmailLookup resolves a uid to its email address.
type EmailLookup interface {
	Email(ctx context.Context, uid string) (string, error)
}

// MailNotifier emails landlords about new interests and students about
// status changes.
type MailNotifier struct {
	sender  Sender
	emails  EmailLookup
	baseURL string
}

// NewMailNotifier creates a MailNotifier. baseURL prefixes links in the
// landlord's email.
func NewMailNotifier(sender Sender, emails EmailLookup, baseURL string) *MailNotifier {
	return &MailNotifier{sender: sender, emails: emails, baseURL: baseURL}
}

// InterestCreated tells the landlord about a new booking interest.
func (n *MailNotifier) InterestCreated(ctx context.Context, i *Interest) error {
	to, err := n.emails.Email(ctx, i.LandlordID)
	if err != nil {
		return fmt.Errorf("resolving landlord email: %w", err)
	}
	body := fmt.Sprintf("%s is interested in %q.\n", i.StudentName, i.PropertyTitle)
	if i.MoveInDate != "" {
		body += fmt.Sprintf("Preferred move-in date: %s\n", i.MoveInDate)
	}
	if i.Message != "" {
		body += "\n" + i.Message + "\n"
	}
	body += fmt.Sprintf("\nReply to %s or review it at %s/api/interests/%s\n", i.StudentEmail, n.baseURL, i.ID)
	return n.sender.Send(to, "New interest in "+i.PropertyTitle, body)
}

// InterestStatusChanged tells the student their interest moved on.
func (n *MailNotifier) InterestStatusChanged(_ context.Context, i *Interest) error {
	if i.StudentEmail == "" {
		return nil
	}
	var summary string
	switch i.Status {
	case rules.StatusContacted:
		summary = "The landlord has seen your interest and will be in touch."
	case rules.StatusAccepted:
		summary = "Your interest was accepted."
	case rules.StatusRejected:
		summary = "Your interest was declined."
	default:
		summary = fmt.Sprintf("Your interest is now %s.", i.Status)
	}
	body := fmt.Sprintf("Update on %q:\n\n%s\n", i.PropertyTitle, summary)
	return n.sender.Send(i.StudentEmail, "Update on "+i.PropertyTitle, body)
}
