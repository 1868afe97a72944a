package activity

import (
	"context"
	"fmt"

	"github.com/trainops/workshop-portal/internal/azure"
)

// Email contains activities for operator notification mail.
type Email struct {
	mailer *azure.Mailer
}

func NewEmail(mailer *azure.Mailer) *Email {
	return &Email{mailer: mailer}
}

type SendProvisionedMailParams struct {
	Recipient    string `json:"recipient"`
	WorkshopName string `json:"workshop_name"`
	Succeeded    int    `json:"succeeded"`
	Failed       int    `json:"failed"`
}

// SendProvisionedMail tells the workshop creator that provisioning settled
// and that the one-time credentials file is ready for download. Mail is
// best-effort: when SMTP is not configured this is a no-op.
func (a *Email) SendProvisionedMail(ctx context.Context, params SendProvisionedMailParams) error {
	if !a.mailer.Enabled() {
		return nil
	}

	subject := fmt.Sprintf("Workshop %q is ready", params.WorkshopName)
	body := fmt.Sprintf(
		"Provisioning for workshop %q finished.\n\n"+
			"Participants provisioned: %d\nParticipants failed: %d\n\n"+
			"Participant credentials are available for a one-time download in the portal.\n",
		params.WorkshopName, params.Succeeded, params.Failed,
	)
	return a.mailer.Send(ctx, params.Recipient, subject, body)
}
