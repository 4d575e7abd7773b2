// Package domain contains entity without logic, just meta-data
package domain

type UserID string

// User is the identity the auth collaborator attaches to a connection.
// The relay treats ID as opaque; Username is carried for logs only.
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}
