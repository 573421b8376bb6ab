// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// ProductModeratedEvent is published when an admin approves or rejects a
// product. It carries enough information for downstream consumers to log
// or notify without querying the primary database.
type ProductModeratedEvent struct {
	ProductID    uint64    `json:"product_id"`
	Action       string    `json:"action"` // "approved" or "rejected"
	ModeratorUID string    `json:"moderator_uid"`
	Reason       string    `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
