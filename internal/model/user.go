package model

import "time"

// User is a registered account on the remote backend. The local embedded
// backend has no authentication concept and never touches this type.
//
// We generate our own string ID (uuid) rather than reusing the database's
// numbering so entry rows can reference users the same way under any store.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialized
	CreatedAt    time.Time `json:"createdAt"`
}
