package model

import "time"

// UserRecord is the per-subject role record stored in the `users` table.
// Records are created and mutated only through the admin endpoints; a
// subject never edits its own record. The uid doubles as the JWT subject
// claim of tokens issued for this account.
//
// Fields:
//  UID          – opaque subject identifier, primary key.
//  Email        – unique email address.
//  PasswordHash – bcrypt hash of the provisioned password (never serialized).
//  Role         – one of admin, publisher, moderator, viewer.
//  Active       – whether the account may exercise its role.
//  CreatedBy    – uid of the admin who provisioned the account.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type UserRecord struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
