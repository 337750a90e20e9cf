package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"unimarket-backend/internal/logger"
)

// NewEmailService returns the SendGrid-backed notifier, or a log-only one
// when no API key is configured (local development, tests).
func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	if apiKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, email notifications will be logged only")
		return &logEmailService{}
	}
	return &sendgridEmailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

type sendgridEmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func (s *sendgridEmailService) send(toEmail, toName, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	resp, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email: status %d", resp.StatusCode)
	}

	logger.Info("email sent", "to", toEmail, "subject", subject)
	return nil
}

func (s *sendgridEmailService) SendWelcome(_ context.Context, email, name string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to UniMarket! Your account is ready.\n\nTop up your wallet to start shopping, or list your first item if you registered as a seller.\n\nBest regards,\nThe UniMarket Team",
		name,
	)
	return s.send(email, name, "Welcome to UniMarket", body)
}

func (s *sendgridEmailService) SendReferralBonusNotice(_ context.Context, email, name string, amountMinor int64) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nSomeone just signed up with your referral code. We credited your wallet with a bonus of %s.\n\nBest regards,\nThe UniMarket Team",
		name, formatAmount(amountMinor),
	)
	return s.send(email, name, "You earned a referral bonus", body)
}

func (s *sendgridEmailService) SendAccountStatusNotice(_ context.Context, email, name, status, reason string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour UniMarket account status has changed to: %s.\nReason: %s\n\nIf you believe this is a mistake, reply to this email to reach support.\n\nBest regards,\nThe UniMarket Team",
		name, status, reason,
	)
	return s.send(email, name, "Your account status has changed", body)
}

func (s *sendgridEmailService) SendEscrowReleaseNotice(_ context.Context, email, name, orderRef string, amountMinor int64) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nThe buyer confirmed delivery of order %s. %s has been released from escrow to your wallet.\n\nBest regards,\nThe UniMarket Team",
		name, orderRef, formatAmount(amountMinor),
	)
	return s.send(email, name, "Escrow released for your order", body)
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("₦%d.%02d", minor/100, minor%100)
}

// logEmailService writes notifications to the log instead of sending them.
type logEmailService struct{}

func (s *logEmailService) SendWelcome(_ context.Context, email, name string) error {
	logger.Info("email (log only): welcome", "to", email, "name", name)
	return nil
}

func (s *logEmailService) SendReferralBonusNotice(_ context.Context, email, name string, amountMinor int64) error {
	logger.Info("email (log only): referral bonus", "to", email, "amount_minor", amountMinor)
	return nil
}

func (s *logEmailService) SendAccountStatusNotice(_ context.Context, email, name, status, reason string) error {
	logger.Info("email (log only): account status", "to", email, "status", status, "reason", reason)
	return nil
}

func (s *logEmailService) SendEscrowReleaseNotice(_ context.Context, email, name, orderRef string, amountMinor int64) error {
	logger.Info("email (log only): escrow release", "to", email, "order", orderRef, "amount_minor", amountMinor)
	return nil
}
