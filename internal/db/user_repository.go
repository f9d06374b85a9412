package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"quillpost-backend-go/internal/models"
)

const usersCollection = "users"

// maxBatchWrites is the number of writes Firestore accepts in one WriteBatch.
const maxBatchWrites = 500

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
	gate   *NetworkGate
	logger *zap.Logger
}

// NewFirestoreUserRepository creates a user repository whose calls pass through gate.
func NewFirestoreUserRepository(client *firestore.Client, gate *NetworkGate, logger *zap.Logger) UserRepository {
	if client == nil {
		panic("Firestore client is not initialized for UserRepository")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &firestoreUserRepository{client: client, gate: gate, logger: logger}
}

// Create writes the profile document keyed by the identity provider UID.
// Zero CreatedAt/UpdatedAt are filled by Firestore through the serverTimestamp tag.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	if err := r.gate.Check(); err != nil {
		return err
	}
	if _, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, user); err != nil {
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves a user document by its ID.
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	if err := r.gate.Check(); err != nil {
		return nil, err
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = docSnap.Ref.ID
	return &user, nil
}

// UpdateMembership sets the membership tier and bumps updatedAt.
func (r *firestoreUserRepository) UpdateMembership(ctx context.Context, userID, membership string) error {
	return r.update(ctx, userID, []firestore.Update{
		{Path: "membership", Value: membership},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
}

// UpdatePostCounts overwrites both counters with the supplied values.
func (r *firestoreUserRepository) UpdatePostCounts(ctx context.Context, userID string, postsThisMonth, totalPosts int) error {
	return r.update(ctx, userID, []firestore.Update{
		{Path: "postsThisMonth", Value: postsThisMonth},
		{Path: "totalPosts", Value: totalPosts},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
}

func (r *firestoreUserRepository) update(ctx context.Context, userID string, updates []firestore.Update) error {
	if userID == "" {
		return errors.New("userID cannot be empty for Update operation")
	}
	if err := r.gate.Check(); err != nil {
		return err
	}
	if _, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found for update: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update user with ID '%s': %w", userID, err)
	}
	return nil
}

// ResetMonthlyPostCounts lists every user and zeroes postsThisMonth in a single WriteBatch,
// so either all documents are reset or none are. A batch holds at most 500 writes.
func (r *firestoreUserRepository) ResetMonthlyPostCounts(ctx context.Context) (int, error) {
	if err := r.gate.Check(); err != nil {
		return 0, err
	}

	iter := r.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	batch := r.client.Batch()
	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to iterate users for monthly reset: %w", err)
		}
		batch.Update(doc.Ref, []firestore.Update{{Path: "postsThisMonth", Value: 0}})
		count++
	}

	if count == 0 {
		return 0, nil
	}
	warnIfBatchTooLarge(r.logger, count)
	if _, err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit monthly reset batch: %w", err)
	}
	return count, nil
}

// warnIfBatchTooLarge logs when a batch exceeds what Firestore will commit.
func warnIfBatchTooLarge(logger *zap.Logger, writes int) bool {
	if writes <= maxBatchWrites {
		return false
	}
	logger.Warn("Monthly reset batch exceeds the Firestore write limit and will be rejected",
		zap.Int("writes", writes), zap.Int("limit", maxBatchWrites))
	return true
}
