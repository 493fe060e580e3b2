/*
Package user exposes the narrow view of the external user system the messaging
core depends on: existence checks and minimal display info. Profile CRUD lives
elsewhere; identities are referenced here, never owned.
*/
package user

import "context"

// Info is the minimal display info denormalized onto outbound messages.
type Info struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Directory is the external user directory contract.
type Directory interface {
	// Exists reports whether the identity resolves to a known user.
	Exists(ctx context.Context, id string) (bool, error)

	// DisplayInfo returns the user's display name and avatar reference.
	DisplayInfo(ctx context.Context, id string) (Info, error)
}
