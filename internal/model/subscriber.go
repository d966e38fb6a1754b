package model

import "time"

// Subscriber is a waitlist signup. Email is stored lowercased and is unique.
type Subscriber struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultSubscriberListLimit is applied when a listing omits Limit.
const DefaultSubscriberListLimit = 100
