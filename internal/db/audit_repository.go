package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"quillpost-backend-go/internal/models"
)

const auditLogsCollection = "audit_logs"

type firestoreAuditRepository struct {
	client *firestore.Client
}

// NewFirestoreAuditRepository creates an audit repository. Audit writes are not gated;
// they happen on behalf of the server, not of a client session.
func NewFirestoreAuditRepository(client *firestore.Client) AuditRepository {
	if client == nil {
		panic("Firestore client is not initialized for AuditRepository")
	}
	return &firestoreAuditRepository{client: client}
}

func (r *firestoreAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	if _, _, err := r.client.Collection(auditLogsCollection).Add(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log %s: %w", logEntry.Action, err)
	}
	return nil
}
