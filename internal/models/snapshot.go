package models

import "time"

// WeatherSnapshot is the latest observed weather for a city. The mobile
// home-screen widget reads this over a simple key-value contract; it is
// written by the weather polling job after each refresh.
type WeatherSnapshot struct {
	City        string    `json:"city" validate:"required"`
	Temperature float64   `json:"temperature"`
	Condition   string    `json:"condition"`
	WeatherCode int       `json:"weatherCode"`
	IsDay       bool      `json:"isDay"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
