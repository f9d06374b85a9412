package api

import (
	"quillpost-backend-go/internal/core"
	"quillpost-backend-go/internal/models"
	"quillpost-backend-go/internal/session"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SessionResponse is the client-visible state of a session.
type SessionResponse struct {
	User            *models.User          `json:"user"`
	IsAuthenticated bool                  `json:"isAuthenticated"`
	Membership      models.MembershipPlan `json:"membership"`
	PostsRemaining  *int                  `json:"postsRemaining"` // null for the unlimited tier
	IsOffline       bool                  `json:"isOffline"`
	Error           string                `json:"error,omitempty"`
	Warning         string                `json:"warning,omitempty"`
	IDToken         string                `json:"idToken,omitempty"`
}

// PostResponse wraps a created post together with an optional warning.
type PostResponse struct {
	Post    *models.Post `json:"post"`
	Warning string       `json:"warning,omitempty"`
}

// ContentResponse is returned by POST /content/generate.
type ContentResponse struct {
	Content string `json:"content"`
}

// TitlesResponse is returned by POST /content/titles.
type TitlesResponse struct {
	Titles []string `json:"titles"`
}

func newSessionResponse(b *session.Bundle) SessionResponse {
	resp := SessionResponse{
		User:            b.User.User(),
		IsAuthenticated: b.User.IsAuthenticated(),
		Membership:      b.User.CurrentMembership(),
		IsOffline:       b.User.IsOffline(),
		Error:           b.User.LastError(),
	}
	if !resp.Membership.Unlimited() {
		remaining := b.User.PostsRemaining()
		resp.PostsRemaining = &remaining
	}
	return resp
}

var _ core.SessionSnapshot = (*core.UserSession)(nil)
