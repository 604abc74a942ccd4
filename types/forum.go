package types

import "time"

// Category is a top-level forum section. Categories are managed by forum
// admins and carry no owner of their own.
type Category struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Subcategory is a forum section within a category.
type Subcategory struct {
	ID         int       `json:"id" db:"id"`
	CategoryID int       `json:"category_id" db:"category_id"`
	Name       string    `json:"name" db:"name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Thread is a discussion started by a user within a subcategory.
type Thread struct {
	ID            int       `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	SubcategoryID int       `json:"subcategory_id" db:"subcategory_id"`
	UserID        int       `json:"user_id" db:"user_id"`
	Author        string    `json:"author,omitempty" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// OwnerID reports the user that created the thread.
func (t Thread) OwnerID() int { return t.UserID }

// Post is a single message within a thread.
type Post struct {
	ID        int       `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	ThreadID  int       `json:"thread_id" db:"thread_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Author    string    `json:"author,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OwnerID reports the user that wrote the post.
func (p Post) OwnerID() int { return p.UserID }
