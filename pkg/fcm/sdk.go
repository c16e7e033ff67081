package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// messageSender is the slice of the Admin SDK messaging client we use;
// narrowed to an interface so tests can substitute a fake.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// SDKDispatcher delivers through the Firebase Admin SDK, which handles
// authentication internally from the service-account credentials.
type SDKDispatcher struct {
	client messageSender
}

// NewSDKDispatcher initializes the Admin SDK app from raw service-account
// JSON and returns a dispatcher backed by its messaging client.
func NewSDKDispatcher(ctx context.Context, projectID string, credentialsJSON []byte) (*SDKDispatcher, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID},
		option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize messaging client: %w", err)
	}

	return &SDKDispatcher{client: client}, nil
}

// Publish sends the payload to a topic through the Admin SDK.
func (d *SDKDispatcher) Publish(ctx context.Context, topic string, payload Payload) error {
	msg := d.buildMessage(payload)
	msg.Topic = topic

	if _, err := d.client.Send(ctx, msg); err != nil {
		return &DeliveryError{Target: topic, Err: err}
	}
	return nil
}

// SendToDevice sends the payload to one device token.
func (d *SDKDispatcher) SendToDevice(ctx context.Context, token string, payload Payload) error {
	msg := d.buildMessage(payload)
	msg.Token = token

	if _, err := d.client.Send(ctx, msg); err != nil {
		return &DeliveryError{Target: token, Err: err}
	}
	return nil
}

func (d *SDKDispatcher) buildMessage(payload Payload) *messaging.Message {
	return &messaging.Message{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
		Android: &messaging.AndroidConfig{
			Priority: string(payload.Priority),
			Notification: &messaging.AndroidNotification{
				Sound:       payload.Sound,
				ClickAction: payload.ClickAction,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound:          payload.Sound,
					MutableContent: true,
				},
			},
		},
	}
}
