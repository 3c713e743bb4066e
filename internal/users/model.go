package users

import (
	"strings"
	"time"
)

// User is a signed-in account. Guests never get a row.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	PictureURL string    `json:"pictureUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Provider is the identity provider encoded in an owner id ("google:123"),
// or "" for ids without a prefix.
func Provider(ownerID string) string {
	provider, _, ok := strings.Cut(ownerID, ":")
	if !ok {
		return ""
	}
	return provider
}
