package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// MessageTypeSubscriptionsChanged marks a notification that a user's set changed.
const MessageTypeSubscriptionsChanged = "subscriptions.changed"

// SubscriptionsChangedMessage is a lightweight notification. It carries only
// the user id; consumers reload the full set from storage.
type SubscriptionsChangedMessage struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSubscriptionsChangedMessage(userID string) *SubscriptionsChangedMessage {
	return &SubscriptionsChangedMessage{
		Type:      MessageTypeSubscriptionsChanged,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *SubscriptionsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SubscriptionsChangedMessageFromJSON(data []byte) (*SubscriptionsChangedMessage, error) {
	var msg SubscriptionsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("message without user_id")
	}
	return &msg, nil
}
