/*
Package user contains the core data structure representing a chat participant.

It defines the basic representation of a user as exposed to clients, used for passing
user information both internally and in WebSocket events.
*/
package user

// User represents the identity of a chat participant as seen by clients.
// Fields use JSON tags for serialization in WebSocket events and HTTP responses.
type User struct {

	// ID is the unique identifier for the user.
	ID string `json:"id"`

	// FullName is the display name shown in the contact list.
	FullName string `json:"fullName"`

	// Avatar is the public URL for the user's avatar, empty when none is set.
	Avatar string `json:"avatar,omitempty"`
}
