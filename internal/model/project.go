package model

import "time"

// Project is a user-owned workspace.  Every access check compares
// OwnerID against the requesting user before any read or mutation.
type Project struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	OwnerID     uint64    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
