package model

import "time"

// ContactMessage represents a message submitted via the contact form.
type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultContactListLimit is applied when a listing omits Limit.
const DefaultContactListLimit = 50
