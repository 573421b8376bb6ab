package model

import "time"

// Product status values. A product starts as StatusPending (or
// StatusAvailable depending on the configured creation policy) and moves
// through one-directional moderation transitions: pending -> available on
// approval, pending -> rejected on rejection. The only reversible
// transition is the quantity-driven toggle between available and
// unavailable applied during owner/admin updates.
const (
	StatusPending     = "pending"
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
	StatusRejected    = "rejected"
)

// Product represents a catalog entry as stored in the `products` table.
// CreatorUID is fixed at creation time and never reassigned; the
// moderation fields are written exclusively by the approve/reject
// endpoints and stay nil otherwise.
//
// Fields:
//  ID              – auto-incremented primary key assigned by the store.
//  Name            – product display name (required at creation).
//  Price           – non-negative price; malformed input is coerced to 0.
//  Quantity        – non-negative stock count; malformed input is coerced to 0.
//  ImageURL        – optional image reference.
//  Description     – optional free-text description.
//  CreatorUID      – uid of the owning identity, immutable.
//  AddedBy         – email of the creator at creation time.
//  Status          – one of the Status* constants above.
//  CreatedAt       – server-assigned creation timestamp, list ordering key.
//  ApprovedBy/At   – set only when an admin approves.
//  RejectedBy/At   – set only when an admin rejects.
//  RejectionReason – set only when a non-empty reason accompanies a rejection.
type Product struct {
	ID              uint64     `json:"id"`
	Name            string     `json:"name"`
	Price           float64    `json:"price"`
	Quantity        int        `json:"quantity"`
	ImageURL        string     `json:"image_url"`
	Description     string     `json:"description"`
	CreatorUID      string     `json:"creator_uid"`
	AddedBy         string     `json:"added_by"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      *string    `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}
