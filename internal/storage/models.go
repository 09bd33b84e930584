package storage

import (
	"encoding/json"
	"errors"
	"time"
)

// Bucket names for bbolt database
const (
	UsersBucket             = "users"
	SubscriptionsBucket     = "subscriptions"
	SubscriptionOwnerBucket = "subscription_owner" // user ID -> subscription ID
	EmailEventsBucket       = "email_events"
	MetaBucket              = "meta"
)

// Meta keys
const (
	SchemaVersionKey = "schema"
)

// Current schema version
const CurrentSchemaVersion = 1

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// Subscription statuses reported by the billing provider
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
	StatusCanceled = "canceled"
	StatusPastDue  = "past_due"
	StatusRevoked  = "revoked"
)

// UserRecord is a signed-in user as reported by the identity provider
type UserRecord struct {
	ID      string    `json:"id"` // identity provider subject
	Name    string    `json:"name,omitempty"`
	Email   string    `json:"email,omitempty"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// SubscriptionRecord mirrors the billing provider's subscription object
type SubscriptionRecord struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	CustomerID         string     `json:"customer_id,omitempty"`
	ProductID          string     `json:"product_id,omitempty"`
	PriceID            string     `json:"price_id,omitempty"`
	Status             string     `json:"status"`
	Interval           string     `json:"interval,omitempty"`
	Amount             int64      `json:"amount,omitempty"` // minor units
	Currency           string     `json:"currency,omitempty"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	EndedAt            *time.Time `json:"ended_at,omitempty"`
	Updated            time.Time  `json:"updated"`
}

// IsActive reports whether the subscription grants dashboard access
func (s *SubscriptionRecord) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

// EmailEventRecord is one delivery event received from the email provider
type EmailEventRecord struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"` // email.sent, email.delivered, email.bounced, ...
	EmailID  string          `json:"email_id,omitempty"`
	To       []string        `json:"to,omitempty"`
	Subject  string          `json:"subject,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Received time.Time       `json:"received"`
}

// MarshalBinary implements encoding.BinaryMarshaler
func (u *UserRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(u)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (u *UserRecord) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, u)
}

// MarshalBinary implements encoding.BinaryMarshaler
func (s *SubscriptionRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (s *SubscriptionRecord) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

// MarshalBinary implements encoding.BinaryMarshaler
func (e *EmailEventRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (e *EmailEventRecord) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}
