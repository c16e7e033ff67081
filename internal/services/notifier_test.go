package services

import (
	"context"
	"errors"
	"testing"

	"skypulse-backend/internal/models"
	"skypulse-backend/pkg/fcm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDispatcher records publishes and fails for configured topics or
// alert titles.
type fakeDispatcher struct {
	published   []publishCall
	deviceSends []deviceCall
	failTopics  map[string]bool
	failTitles  map[string]bool
}

type publishCall struct {
	topic   string
	payload fcm.Payload
}

type deviceCall struct {
	token   string
	payload fcm.Payload
}

func (f *fakeDispatcher) Publish(ctx context.Context, topic string, payload fcm.Payload) error {
	f.published = append(f.published, publishCall{topic: topic, payload: payload})
	if f.failTopics[topic] || f.failTitles[payload.Title] {
		return &fcm.DeliveryError{Target: topic, Detail: "simulated failure"}
	}
	return nil
}

func (f *fakeDispatcher) SendToDevice(ctx context.Context, token string, payload fcm.Payload) error {
	f.deviceSends = append(f.deviceSends, deviceCall{token: token, payload: payload})
	return nil
}

func (f *fakeDispatcher) topics() []string {
	out := make([]string, 0, len(f.published))
	for _, p := range f.published {
		out = append(out, p.topic)
	}
	return out
}

type fakeAlertSource struct {
	alerts []models.Alert
	err    error
}

func (f *fakeAlertSource) AlertsForLocation(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
	return f.alerts, f.err
}

func TestNotifyForUpdatedAlertsSeverityFilter(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	notifier := NewNotificationService(dispatcher)

	alerts := []models.Alert{
		{Title: "Light drizzle", Message: "m", Severity: models.SeverityLow},
		{Title: "Cloudy", Message: "m", Severity: models.SeverityMedium},
		{Title: "No severity", Message: "m"},
		{Title: "Heavy rain", Message: "m", Severity: models.SeverityHigh},
		{Title: "Flash flood", Message: "m", Severity: models.SeverityCritical},
	}

	outcomes := notifier.NotifyForUpdatedAlerts(context.Background(), alerts, "")
	require.Len(t, outcomes, 5)

	assert.True(t, outcomes[0].Skipped)
	assert.True(t, outcomes[1].Skipped)
	assert.True(t, outcomes[2].Skipped, "absent severity defaults to medium and is skipped")
	assert.False(t, outcomes[3].Skipped)
	assert.False(t, outcomes[4].Skipped)

	// One global publish per eligible alert, nothing for the skipped ones
	assert.Equal(t, []string{fcm.GlobalTopic, fcm.GlobalTopic}, dispatcher.topics())
}

func TestNotifyForUpdatedAlertsCityTopic(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	notifier := NewNotificationService(dispatcher)

	alerts := []models.Alert{{Title: "Heavy rain", Message: "m", Severity: models.SeverityHigh}}

	notifier.NotifyForUpdatedAlerts(context.Background(), alerts, "North Nazimabad")

	assert.Equal(t, []string{"all_alerts", "north_nazimabad_alerts"}, dispatcher.topics())
}

func TestNotifyForUpdatedAlertsContinuesPastFailures(t *testing.T) {
	dispatcher := &fakeDispatcher{failTitles: map[string]bool{"Second": true}}
	notifier := NewNotificationService(dispatcher)

	alerts := []models.Alert{
		{Title: "First", Message: "m", Severity: models.SeverityHigh},
		{Title: "Second", Message: "m", Severity: models.SeverityHigh},
		{Title: "Third", Message: "m", Severity: models.SeverityCritical},
	}

	outcomes := notifier.NotifyForUpdatedAlerts(context.Background(), alerts, "")
	require.Len(t, outcomes, 3)

	assert.False(t, outcomes[0].Failed())
	assert.True(t, outcomes[1].Failed())
	assert.False(t, outcomes[2].Failed(), "alert after a failure must still be attempted")
	assert.Len(t, dispatcher.published, 3)
}

func TestSendAlertGlobalFailureStillAttemptsCityTopic(t *testing.T) {
	dispatcher := &fakeDispatcher{failTopics: map[string]bool{fcm.GlobalTopic: true}}
	notifier := NewNotificationService(dispatcher)

	results, err := notifier.SendAlert(context.Background(),
		models.Alert{Title: "Storm", Message: "m", Severity: models.SeverityCritical}, "Islamabad")
	require.Error(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, fcm.GlobalTopic, results[0].Topic)
	assert.False(t, results[0].OK())
	assert.Equal(t, "islamabad_alerts", results[1].Topic)
	assert.True(t, results[1].OK(), "city publish proceeds despite global failure")
}

func TestSendAlertWithoutCity(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	notifier := NewNotificationService(dispatcher)

	results, err := notifier.SendAlert(context.Background(),
		models.Alert{Title: "Storm", Message: "m", Severity: models.SeverityHigh}, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, fcm.GlobalTopic, results[0].Topic)
}

func TestSendAlertBypassesSeverityFilter(t *testing.T) {
	// The single-alert path is used by the test endpoint and sends
	// regardless of severity.
	dispatcher := &fakeDispatcher{}
	notifier := NewNotificationService(dispatcher)

	results, err := notifier.SendAlert(context.Background(),
		models.Alert{Title: "Test", Message: "m", Severity: models.SeverityMedium}, "")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSendToDevice(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	notifier := NewNotificationService(dispatcher)

	err := notifier.SendToDevice(context.Background(), "device-1",
		models.Alert{Title: "Test", Message: "m"})
	require.NoError(t, err)
	require.Len(t, dispatcher.deviceSends, 1)
	assert.Equal(t, "device-1", dispatcher.deviceSends[0].token)
	assert.Equal(t, fcm.PriorityHigh, dispatcher.deviceSends[0].payload.Priority)
}

func TestCheckAlerts(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	notifier := NewNotificationService(dispatcher)
	notifier.SetAlertSource(&fakeAlertSource{alerts: []models.Alert{
		{Title: "Heavy rain", Message: "m", Severity: models.SeverityHigh},
	}})

	outcomes, err := notifier.CheckAlerts(context.Background(), 33.68, 73.04, "Islamabad")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, []string{"all_alerts", "islamabad_alerts"}, dispatcher.topics())
}

func TestCheckAlertsSourceErrors(t *testing.T) {
	notifier := NewNotificationService(&fakeDispatcher{})

	_, err := notifier.CheckAlerts(context.Background(), 0, 0, "")
	assert.Error(t, err, "no source configured")

	notifier.SetAlertSource(&fakeAlertSource{err: errors.New("upstream down")})
	_, err = notifier.CheckAlerts(context.Background(), 0, 0, "")
	assert.Error(t, err)
}
