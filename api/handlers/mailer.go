package handlers

import (
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/valentine-apple/vouchers-api/models"
	templates "github.com/valentine-apple/vouchers-api/templates/html"
)

// ReviewMailer notifies the admin when a claim with evidence needs review.
// Delivery is best effort, a failed email never fails the claim.
type ReviewMailer struct {
	AdminEmail string
}

// SendReviewRequest emails the admin a link-free summary of the pending claim
func (m ReviewMailer) SendReviewRequest(claim models.Claim, voucher models.Voucher) {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" || m.AdminEmail == "" {
		zap.S().Debug("review mail skipped, sendgrid not configured")
		return
	}

	subject := "New claim awaiting review"
	body := fmt.Sprintf(
		"A claim for %q was submitted with photo evidence and is waiting for review.\n\nClaim ID: %s\nSubmitted: %s\nEvidence: %s",
		voucher.Title,
		claim.ID.Hex(),
		claim.ClaimedAt.Format("Jan 2, 2006 at 3:04 PM"),
		claim.EvidenceImage,
	)

	from := mail.NewEmail("Valentine Vouchers", "noreply@valentine-vouchers.app")
	to := mail.NewEmail("Admin", m.AdminEmail)
	message := mail.NewSingleEmail(from, subject, to, body, templates.RenderGenericEmail(subject, body))

	client := sendgrid.NewSendClient(apiKey)
	resp, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send review email", "error", err)
		return
	}
	if resp.StatusCode >= 400 {
		zap.S().Errorw("review email rejected", "status", resp.StatusCode, "body", resp.Body)
	}
}
