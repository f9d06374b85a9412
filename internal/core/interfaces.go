package core

import (
	"context"

	"quillpost-backend-go/internal/models"
)

// AuditService records security-relevant actions.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}

// SessionSnapshot is the read-only view of the signed-in user that post operations check against.
type SessionSnapshot interface {
	User() *models.User
	PostsRemaining() int
}
