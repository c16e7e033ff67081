package fcm

import (
	"regexp"
	"strings"
	"time"

	"skypulse-backend/internal/models"
)

// GlobalTopic receives every published alert regardless of city.
const GlobalTopic = "all_alerts"

// ClickAction is the intent action the Flutter client listens for.
const ClickAction = "FLUTTER_NOTIFICATION_CLICK"

// cityGlobal is the data-map sentinel used when an alert has no city.
const cityGlobal = "global"

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeCity lower-cases a city name and collapses whitespace runs to
// single underscores. Topic subscription on the client derives names the
// same way; changing this silently loses audience.
func NormalizeCity(city string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(city)), "_")
}

// TopicForCity derives the city-specific topic name, e.g.
// "North Nazimabad" -> "north_nazimabad_alerts".
func TopicForCity(city string) string {
	return NormalizeCity(city) + "_alerts"
}

// Priority of a message as the provider understands it.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Payload is the provider-agnostic notification content. It is built fresh
// per dispatch and never reused across calls.
type Payload struct {
	Title       string
	Body        string
	Data        map[string]string
	Priority    Priority
	Sound       string
	ClickAction string
}

// NewPayload builds the notification payload for an alert. It is a pure
// function of (alert, city, now): the data map carries severity, city (or
// "global") and the send timestamp; delivery priority is elevated only for
// critical alerts.
func NewPayload(alert models.Alert, city string, now time.Time) Payload {
	alert = alert.Normalized()

	dataCity := cityGlobal
	if strings.TrimSpace(city) != "" {
		dataCity = city
	}

	priority := PriorityNormal
	if alert.Severity == models.SeverityCritical {
		priority = PriorityHigh
	}

	return Payload{
		Title: alert.Title,
		Body:  alert.Message,
		Data: map[string]string{
			"severity":  string(alert.Severity),
			"city":      dataCity,
			"timestamp": now.UTC().Format(time.RFC3339),
		},
		Priority:    priority,
		Sound:       "default",
		ClickAction: ClickAction,
	}
}

// NewDevicePayload builds the payload for a direct-to-device send. Device
// sends are always high priority regardless of severity.
func NewDevicePayload(alert models.Alert) Payload {
	alert = alert.Normalized()

	return Payload{
		Title: alert.Title,
		Body:  alert.Message,
		Data: map[string]string{
			"severity": string(alert.Severity),
		},
		Priority:    PriorityHigh,
		Sound:       "default",
		ClickAction: ClickAction,
	}
}
