package service

import (
	"context"
	"fmt"
	"strings"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type AlertConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	Recipients     []string
}

type mailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type emailAlertService struct {
	client mailSender
	cfg    AlertConfig
}

// NewAlertService mails settlement alerts to operators through SendGrid.
// Without an API key or recipients alerts are only logged.
func NewAlertService(cfg AlertConfig) AlertService {
	if cfg.SendGridAPIKey == "" || len(cfg.Recipients) == 0 {
		return logAlertService{}
	}
	return &emailAlertService{client: sendgrid.NewSendClient(cfg.SendGridAPIKey), cfg: cfg}
}

func (s *emailAlertService) SendSettlementAlert(ctx context.Context, st *domain.Settlement, reason string) error {
	logger.ExternalServiceCall("sendgrid", "SendSettlementAlert", "settlementID", st.ID)

	subject := fmt.Sprintf("[nftrental] %s settlement %s needs attention", strings.ToLower(string(st.Kind)), st.ID)
	body := alertBody(st, reason)

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail))
	message.Subject = subject
	p := mail.NewPersonalization()
	for _, to := range s.cfg.Recipients {
		p.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/plain", body))

	response, err := s.client.Send(message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "SendSettlementAlert", err)
	if err != nil {
		return fmt.Errorf("failed to send settlement alert: %w", err)
	}
	return nil
}

type logAlertService struct{}

func (logAlertService) SendSettlementAlert(ctx context.Context, st *domain.Settlement, reason string) error {
	logger.Error("Settlement alert", "settlementID", st.ID, "operationID", st.OperationID, "status", st.Status, "reason", reason)
	return nil
}

func alertBody(st *domain.Settlement, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Settlement:   %s\n", st.ID)
	fmt.Fprintf(&b, "Rental:       %s\n", st.RentalID)
	fmt.Fprintf(&b, "Operation id: %s\n", st.OperationID)
	fmt.Fprintf(&b, "Status:       %s\n", st.Status)
	fmt.Fprintf(&b, "Attempts:     %d\n", st.Attempts)
	fmt.Fprintf(&b, "Reason:       %s\n\nTransfers:\n", reason)
	for _, t := range st.Transfers {
		fmt.Fprintf(&b, "  %s -> %s  %d  (%s)\n", t.From, t.To, t.Amount, t.Purpose)
	}
	return b.String()
}
