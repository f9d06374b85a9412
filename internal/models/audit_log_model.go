package models

import "time"

// Audit actions recorded by the core services.
const (
	AuditActionUserRegister     = "USER_REGISTER"
	AuditActionMembershipUpdate = "MEMBERSHIP_UPDATE"
	AuditActionPostCreate       = "POST_CREATE"
	AuditActionPostDelete       = "POST_DELETE"
)

// AuditLog represents an audit trail event.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID     string                 `json:"userId" firestore:"userId"`
	Action     string                 `json:"action" firestore:"action"`
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // "USER", "POST"
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
