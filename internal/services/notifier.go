package services

import (
	"context"
	"errors"
	"log"
	"time"

	"skypulse-backend/internal/models"
	"skypulse-backend/pkg/fcm"
)

// AlertSource supplies the current alerts for a location. The weather
// polling job implements this; it is injected so tests can fake it.
type AlertSource interface {
	AlertsForLocation(ctx context.Context, latitude, longitude float64) ([]models.Alert, error)
}

// AlertOutcome is the per-alert result of a batch dispatch. Skipped alerts
// were below the notification severity threshold.
type AlertOutcome struct {
	Alert   models.Alert         `json:"alert"`
	Skipped bool                 `json:"skipped"`
	Targets []fcm.DispatchResult `json:"targets,omitempty"`
}

// Failed reports whether any delivery attempt for this alert failed.
func (o AlertOutcome) Failed() bool {
	for _, t := range o.Targets {
		if !t.OK() {
			return true
		}
	}
	return false
}

// NotificationService decides which alerts warrant a push and fans them
// out to the global and city topics through the configured dispatcher.
type NotificationService struct {
	dispatcher fcm.Dispatcher
	source     AlertSource
	now        func() time.Time
}

func NewNotificationService(dispatcher fcm.Dispatcher) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// SetAlertSource wires the alert provider for CheckAlerts.
func (s *NotificationService) SetAlertSource(source AlertSource) {
	s.source = source
}

// NotifyForUpdatedAlerts processes a batch of alerts in input order. Only
// high and critical alerts are dispatched; a failure for one alert is
// logged and recorded but never aborts the rest of the batch.
func (s *NotificationService) NotifyForUpdatedAlerts(ctx context.Context, alerts []models.Alert, city string) []AlertOutcome {
	outcomes := make([]AlertOutcome, 0, len(alerts))

	for _, alert := range alerts {
		alert = alert.Normalized()

		if !alert.Severity.ShouldNotify() {
			outcomes = append(outcomes, AlertOutcome{Alert: alert, Skipped: true})
			continue
		}

		targets, err := s.SendAlert(ctx, alert, city)
		if err != nil {
			log.Printf("Failed to send alert notification %q: %v", alert.Title, err)
		}
		outcomes = append(outcomes, AlertOutcome{Alert: alert, Targets: targets})
	}

	return outcomes
}

// SendAlert publishes one alert to the global topic and, when a city is
// given, to the city topic. Both attempts are made regardless of the
// other's outcome and both results are returned; the error aggregates any
// failures.
func (s *NotificationService) SendAlert(ctx context.Context, alert models.Alert, city string) ([]fcm.DispatchResult, error) {
	alert = alert.Normalized()
	payload := fcm.NewPayload(alert, city, s.now())

	topics := []string{fcm.GlobalTopic}
	if fcm.NormalizeCity(city) != "" {
		topics = append(topics, fcm.TopicForCity(city))
	}

	results := make([]fcm.DispatchResult, 0, len(topics))
	var errs []error
	for _, topic := range topics {
		result := fcm.DispatchResult{Topic: topic}
		if err := s.dispatcher.Publish(ctx, topic, payload); err != nil {
			result.Error = err.Error()
			errs = append(errs, err)
		}
		results = append(results, result)
	}

	return results, errors.Join(errs...)
}

// SendToDevice delivers one alert directly to a device token, always at
// high priority.
func (s *NotificationService) SendToDevice(ctx context.Context, token string, alert models.Alert) error {
	payload := fcm.NewDevicePayload(alert)
	return s.dispatcher.SendToDevice(ctx, token, payload)
}

// CheckAlerts fetches the current alerts for a location and notifies for
// the eligible ones.
func (s *NotificationService) CheckAlerts(ctx context.Context, latitude, longitude float64, city string) ([]AlertOutcome, error) {
	if s.source == nil {
		return nil, errors.New("no alert source configured")
	}

	alerts, err := s.source.AlertsForLocation(ctx, latitude, longitude)
	if err != nil {
		return nil, err
	}

	return s.NotifyForUpdatedAlerts(ctx, alerts, city), nil
}
