package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"quillpost-backend-go/internal/models"
)

const postsCollection = "posts"

// firestorePostRepository implements the PostRepository interface using Firestore.
type firestorePostRepository struct {
	client *firestore.Client
	gate   *NetworkGate
}

// NewFirestorePostRepository creates a post repository whose calls pass through gate.
func NewFirestorePostRepository(client *firestore.Client, gate *NetworkGate) PostRepository {
	if client == nil {
		panic("Firestore client is not initialized for PostRepository")
	}
	return &firestorePostRepository{client: client, gate: gate}
}

// Create adds a post with an auto-generated ID. Timestamps are assigned by the server.
func (r *firestorePostRepository) Create(ctx context.Context, post *models.Post) (string, error) {
	if err := r.gate.Check(); err != nil {
		return "", err
	}
	docRef := r.client.Collection(postsCollection).NewDoc()
	if _, err := docRef.Create(ctx, post); err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}
	return docRef.ID, nil
}

// List returns posts newest first, optionally restricted to one author.
// The per-author query needs a composite index on (userId, createdAt desc).
func (r *firestorePostRepository) List(ctx context.Context, userID string) ([]*models.Post, error) {
	if err := r.gate.Check(); err != nil {
		return nil, err
	}

	query := r.client.Collection(postsCollection).Query
	if userID != "" {
		query = query.Where("userId", "==", userID)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	posts := make([]*models.Post, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate posts: %w", err)
		}

		var post models.Post
		if err := doc.DataTo(&post); err != nil {
			return nil, fmt.Errorf("failed to decode post %s: %w", doc.Ref.ID, err)
		}
		post.ID = doc.Ref.ID
		posts = append(posts, &post)
	}
	return posts, nil
}

// Delete removes a post document.
func (r *firestorePostRepository) Delete(ctx context.Context, postID string) error {
	if postID == "" {
		return errors.New("postID cannot be empty for Delete operation")
	}
	if err := r.gate.Check(); err != nil {
		return err
	}
	if _, err := r.client.Collection(postsCollection).Doc(postID).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("post with ID '%s' not found for deletion: %w", postID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete post with ID '%s': %w", postID, err)
	}
	return nil
}
