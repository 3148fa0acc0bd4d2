package domain

import "time"

// Base is a flight-school location aircraft operate from.
type Base struct {
	BaseID    string    `json:"id" dynamodbav:"base_id"`
	Name      string    `json:"name" dynamodbav:"name"`
	ICAO      string    `json:"icao" dynamodbav:"icao"`
	City      string    `json:"city" dynamodbav:"city"`
	Enable    bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type BaseInput struct {
	Name string `json:"name" validate:"required"`
	ICAO string `json:"icao" validate:"required,len=4,alphanum"`
	City string `json:"city"`
}
