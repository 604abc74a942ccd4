package types

import "time"

// News is an article published in the news section.
type News struct {
	ID        int       `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	UserID    int       `json:"user_id" db:"user_id"`
	Author    string    `json:"author,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OwnerID reports the user that published the article.
func (n News) OwnerID() int { return n.UserID }
