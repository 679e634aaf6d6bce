package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategorySecurity covers events relevant to security monitoring.
	// These feed into SIEM systems and alerting pipelines.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and
	// operational visibility. These can be sampled or aggregated.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Events
// carry policy metadata and violation kinds only; password material
// must never be placed in an event.
type Event struct {
	Category  EventCategory     `json:"category"`
	Timestamp time.Time         `json:"timestamp"`
	Subject   string            `json:"subject"` // caller or admin identity, never the password owner's secret
	Action    string            `json:"action"`
	Reason    string            `json:"reason,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type AuditEvent string

const (
	// Policy lifecycle events
	EventPolicyUpdated    AuditEvent = "policy_updated"
	EventPolicyLoaded     AuditEvent = "policy_loaded"
	EventPolicyLoadFailed AuditEvent = "policy_load_failed"

	// Validation events
	EventPasswordRejected    AuditEvent = "password_rejected"
	EventGoodStrengthWaived  AuditEvent = "good_strength_waived"
	EventExpiredPasswordSeen AuditEvent = "expired_password_seen"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventPolicyUpdated:    CategorySecurity,
	EventPolicyLoadFailed: CategorySecurity,

	EventPolicyLoaded:        CategoryOperations,
	EventPasswordRejected:    CategoryOperations,
	EventGoodStrengthWaived:  CategoryOperations,
	EventExpiredPasswordSeen: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events for later inspection.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink forwards audit events to an external system. Sinks are write
// only; durability guarantees are the sink's concern.
type Sink interface {
	Append(ctx context.Context, event Event) error
	Close() error
}
