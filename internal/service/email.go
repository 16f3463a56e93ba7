package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type emailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) send(to, subject, plainText string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", to)

	message := mail.NewSingleEmail(from, subject, recipient, plainText, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *emailService) SendBookingRequestNotification(ctx context.Context, ownerEmail, renterName, vehicleName string) error {
	subject := fmt.Sprintf("New booking request for %s", vehicleName)
	body := fmt.Sprintf("Hello,\n\n%s has paid for your %s and is waiting for your approval.\n\nPlease review the booking in the app.\n\nBest regards,\nThe Motorent Team", renterName, vehicleName)
	return s.send(ownerEmail, subject, body)
}

func (s *emailService) SendBookingConfirmedNotification(ctx context.Context, renterEmail, vehicleName string) error {
	subject := fmt.Sprintf("Booking confirmed: %s", vehicleName)
	body := fmt.Sprintf("Hello,\n\nThe owner has confirmed your booking for %s. See the app for pickup details.\n\nBest regards,\nThe Motorent Team", vehicleName)
	return s.send(renterEmail, subject, body)
}

func (s *emailService) SendCancellationNotification(ctx context.Context, email, vehicleName, reason string) error {
	subject := fmt.Sprintf("Rental cancelled: %s", vehicleName)
	body := fmt.Sprintf("Hello,\n\nThe rental of %s has been cancelled.", vehicleName)
	if reason != "" {
		body += fmt.Sprintf("\n\nReason: %s", reason)
	}
	body += "\n\nAny applicable refund has been issued to the original payment method.\n\nBest regards,\nThe Motorent Team"
	return s.send(email, subject, body)
}

func (s *emailService) SendCompletionNotification(ctx context.Context, ownerEmail, vehicleName string, earning int64) error {
	subject := fmt.Sprintf("Rental completed: %s", vehicleName)
	body := fmt.Sprintf("Hello,\n\nThe rental of your %s is complete. Your earning of %d VND has been posted to your ledger.\n\nBest regards,\nThe Motorent Team", vehicleName, earning)
	return s.send(ownerEmail, subject, body)
}

func (s *emailService) SendDisputeOpenedNotification(ctx context.Context, email, vehicleName, reason string) error {
	subject := fmt.Sprintf("Dispute opened: %s", vehicleName)
	body := fmt.Sprintf("Hello,\n\nA dispute has been opened on the rental of %s.\n\nReason: %s\n\nOur team will review the case and may ask you for evidence.\n\nBest regards,\nThe Motorent Team", vehicleName, reason)
	return s.send(email, subject, body)
}

func (s *emailService) SendDisputeResolvedNotification(ctx context.Context, email, vehicleName, outcome string) error {
	subject := fmt.Sprintf("Dispute resolved: %s", vehicleName)
	body := fmt.Sprintf("Hello,\n\nThe dispute on the rental of %s has been resolved: %s.\n\nBest regards,\nThe Motorent Team", vehicleName, outcome)
	return s.send(email, subject, body)
}

func (s *emailService) SendCommissionStatementNotification(ctx context.Context, ownerEmail string, weekStart time.Time, amount int64) error {
	subject := fmt.Sprintf("Weekly commission statement, week of %s", weekStart.Format("2006-01-02"))
	body := fmt.Sprintf("Hello,\n\nYour commission for the week of %s is %d VND.\n\nPlease settle it and submit your invoice reference in the app.\n\nBest regards,\nThe Motorent Team", weekStart.Format("2006-01-02"), amount)
	return s.send(ownerEmail, subject, body)
}
