package models

import "time"

// User is the profile document stored in the users collection.
type User struct {
	ID             string    `json:"uid" firestore:"-"` // Identity provider UID, also the document ID
	DisplayName    string    `json:"displayName" firestore:"displayName"`
	Email          string    `json:"email" firestore:"email"`
	Membership     string    `json:"membership" firestore:"membership"`
	PostsThisMonth int       `json:"postsThisMonth" firestore:"postsThisMonth"`
	TotalPosts     int       `json:"totalPosts" firestore:"totalPosts"`
	CreatedAt      time.Time `json:"createdAt,omitempty" firestore:"createdAt,serverTimestamp"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,serverTimestamp"`
}

// Clone returns a copy safe to hand out of a lock.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
