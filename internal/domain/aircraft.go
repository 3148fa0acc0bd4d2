package domain

import "time"

// Aircraft is a rentable airframe assigned to a base.
type Aircraft struct {
	AircraftID   string    `json:"id" dynamodbav:"aircraft_id"`
	Registration string    `json:"registration" dynamodbav:"registration"`
	Model        string    `json:"model" dynamodbav:"model"`
	BaseID       string    `json:"base_id" dynamodbav:"base_id"`
	HourlyRate   float64   `json:"hourly_rate" dynamodbav:"hourly_rate"`
	ImageKey     string    `json:"-" dynamodbav:"image_key"`
	HasImage     bool      `json:"has_image" dynamodbav:"-"`
	Enable       bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

type AircraftInput struct {
	Registration string  `json:"registration" validate:"required"`
	Model        string  `json:"model" validate:"required"`
	BaseID       string  `json:"base_id" validate:"required"`
	HourlyRate   float64 `json:"hourly_rate" validate:"gte=0"`
}
