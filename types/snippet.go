package types

import "time"

// Snippet is a code snippet shared by a user.
type Snippet struct {
	ID          int       `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Language    string    `json:"language" db:"language"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
	UserID      int       `json:"user_id" db:"user_id"`
	Author      string    `json:"author,omitempty" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// OwnerID reports the user that shared the snippet.
func (s Snippet) OwnerID() int { return s.UserID }
