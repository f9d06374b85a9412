package models

import "time"

// Post is a blog post document in the posts collection.
type Post struct {
	ID        string    `json:"id" firestore:"-"`
	Title     string    `json:"title" firestore:"title"`
	Content   string    `json:"content" firestore:"content"` // HTML
	UserID    string    `json:"userId" firestore:"userId"`
	Author    string    `json:"author" firestore:"author"` // Denormalised display name of the owner
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
