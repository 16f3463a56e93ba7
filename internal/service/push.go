package service

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"motorent-backend/internal/logger"
)

type fcmPushService struct {
	client *messaging.Client
}

// NewFCMPushService builds a push sender backed by Firebase Cloud Messaging.
// credsFile is the service-account JSON path; an empty path returns a no-op
// sender so local setups work without Firebase credentials.
func NewFCMPushService(ctx context.Context, credsFile string) (PushService, error) {
	if credsFile == "" {
		logger.Warn("no firebase credentials configured, push notifications disabled")
		return &noopPushService{}, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fcm client: %w", err)
	}
	return &fcmPushService{client: client}, nil
}

func (s *fcmPushService) Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	return nil
}

type noopPushService struct{}

func (s *noopPushService) Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	return nil
}
