package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the production FCM v1 API base URL.
const DefaultEndpoint = "https://fcm.googleapis.com"

// TokenSource supplies a bearer token for authenticating against the FCM
// REST API. Implemented by googleauth.TokenSource.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RESTDispatcher talks to the FCM v1 HTTP API directly, building the
// message envelope itself. Used where the Admin SDK is unavailable.
type RESTDispatcher struct {
	projectID string
	endpoint  string
	tokens    TokenSource
	client    *http.Client
}

// RESTConfig configures a RESTDispatcher. Endpoint and Client are
// optional; tests point Endpoint at an httptest server.
type RESTConfig struct {
	ProjectID string
	Endpoint  string
	Tokens    TokenSource
	Client    *http.Client
}

func NewRESTDispatcher(cfg RESTConfig) (*RESTDispatcher, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("fcm: project id is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("fcm: token source is required")
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &RESTDispatcher{
		projectID: cfg.ProjectID,
		endpoint:  endpoint,
		tokens:    cfg.Tokens,
		client:    client,
	}, nil
}

// FCM v1 envelope. Exactly one of Topic or Token is set.
type restEnvelope struct {
	Message restMessage `json:"message"`
}

type restMessage struct {
	Topic        string            `json:"topic,omitempty"`
	Token        string            `json:"token,omitempty"`
	Notification restNotification  `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      restAndroid       `json:"android"`
}

type restNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type restAndroid struct {
	Priority string `json:"priority"`
}

// Publish sends the payload to a topic via the v1 messages:send endpoint.
func (d *RESTDispatcher) Publish(ctx context.Context, topic string, payload Payload) error {
	msg := d.buildMessage(payload)
	msg.Topic = topic
	return d.send(ctx, topic, msg)
}

// SendToDevice sends the payload to a single device token.
func (d *RESTDispatcher) SendToDevice(ctx context.Context, token string, payload Payload) error {
	msg := d.buildMessage(payload)
	msg.Token = token
	return d.send(ctx, token, msg)
}

func (d *RESTDispatcher) buildMessage(payload Payload) restMessage {
	return restMessage{
		Notification: restNotification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
		// The v1 API wants the priority upper-cased.
		Android: restAndroid{Priority: strings.ToUpper(string(payload.Priority))},
	}
}

func (d *RESTDispatcher) send(ctx context.Context, target string, msg restMessage) error {
	accessToken, err := d.tokens.Token(ctx)
	if err != nil {
		return &DeliveryError{Target: target, Err: fmt.Errorf("obtain access token: %w", err)}
	}

	body, err := json.Marshal(restEnvelope{Message: msg})
	if err != nil {
		return &DeliveryError{Target: target, Err: fmt.Errorf("encode message: %w", err)}
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", d.endpoint, d.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Target: target, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := d.client.Do(req)
	if err != nil {
		return &DeliveryError{Target: target, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &DeliveryError{Target: target, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DeliveryError{
			Target: target,
			Detail: fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(respBody))),
		}
	}

	return nil
}
