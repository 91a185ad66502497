package notifications

import "time"

// PushToken is one registered device token.
type PushToken struct {
	UserUID   string    `json:"userUid"`
	Token     string    `json:"token" binding:"required"`
	Platform  string    `json:"platform"`
	UpdatedAt time.Time `json:"updatedAt"`
}
