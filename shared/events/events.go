package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the envelope version written by this build.
const SchemaVersion = 1

// Topics, one per entity kind.
const (
	UsersTopic         = "users"
	ProductsTopic      = "products"
	OrdersTopic        = "orders"
	InventoryTopic     = "inventory"
	PaymentsTopic      = "payments"
	NotificationsTopic = "notifications"
)

// Entity kinds.
const (
	KindUser              = "user"
	KindProduct           = "product"
	KindOrder             = "order"
	KindInventoryItem     = "inventory_item"
	KindPayment           = "payment"
	KindEmailNotification = "email_notification"
	KindSMSNotification   = "sms_notification"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// MutationEvent describes one entity change. Payload is one of the explicit
// payload types below; it is handed to the publisher by value.
type MutationEvent struct {
	EntityKind string
	Operation  Operation
	EntityID   string
	Payload    any
}

// Type returns the event type, e.g. "product.create".
func (e MutationEvent) Type() string {
	return e.EntityKind + "." + string(e.Operation)
}

// Envelope is the broker message body.
type Envelope struct {
	EventID       string          `json:"event_id"`
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EntityKind    string          `json:"entity_kind"`
	Operation     Operation       `json:"operation"`
	EntityID      string          `json:"entity_id"`
	Source        string          `json:"source"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// DecodePayload unmarshals the envelope payload into v.
func (e Envelope) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.EventType, err)
	}
	return nil
}

// Payloads. Each entity uses the same payload for create, update and delete.
// Secrets have no field here.

type UserPayload struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Address     string    `json:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type OrderPayload struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type InventoryItemPayload struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Location  string    `json:"location,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PaymentPayload struct {
	ID            string    `json:"id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	ProviderRef   string    `json:"provider_ref,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type EmailNotificationPayload struct {
	ID             string    `json:"id"`
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

type SMSNotificationPayload struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
