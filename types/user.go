package types

import "time"

// User represents an account in the system.
// It contains identity, role, profile, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// DisplayName is the user's public display name.
	DisplayName string `json:"display_name" db:"display_name"`

	// Role indicates the user's authorization level within the system.
	// It is always one of the values enumerated in the authz package
	// and is re-read from the database on every authorization decision.
	Role string `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// It is empty for accounts created through an OAuth provider.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// OAuthProvider names the provider for OAuth-linked accounts
	// (e.g., "github", "google").
	OAuthProvider string `json:"-" db:"oauth_provider"`

	// OAuthID is the user's identifier at the OAuth provider.
	OAuthID string `json:"-" db:"oauth_id"`

	// AboutMe is a free-text profile description.
	AboutMe string `json:"about_me" db:"about_me"`

	// Website is an optional profile link.
	Website string `json:"website" db:"website"`

	// Location is an optional free-text location.
	Location string `json:"location" db:"location"`

	// AvatarKey is the object-storage key of the user's avatar, if any.
	AvatarKey string `json:"-" db:"avatar_key"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
