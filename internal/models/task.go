package models

import "time"

// Task is a short piece of user-owned content. AuthorName is copied from the
// owner at creation time; users are never renamed.
type Task struct {
	ID         int64     `json:"id"          bson:"_id"`
	AuthorID   int64     `json:"author_id"   bson:"author_id"`
	AuthorName string    `json:"author_name" bson:"author_name"`
	Title      string    `json:"title"       bson:"title"`
	Body       string    `json:"body"        bson:"body"`
	CreatedAt  time.Time `json:"created_at"  bson:"created_at"`
}

// OwnedBy reports whether u created the task.
func (t *Task) OwnedBy(u *User) bool {
	return u != nil && t.AuthorID == u.ID
}
