package models

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email" form:"email" binding:"required,email"`
	Password    string `json:"password" form:"password" binding:"required,min=6"`
	DisplayName string `json:"displayName" form:"displayName" binding:"required"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// UpdateMembershipRequest is the body of PUT /users/me/membership.
type UpdateMembershipRequest struct {
	Membership string `json:"membership" binding:"required,oneof=free basic premium unlimited"`
}

// GenerateContentRequest is the body of POST /content/generate.
type GenerateContentRequest struct {
	Title             string   `json:"title" binding:"required"`
	PrimaryKeywords   []string `json:"primaryKeywords"`
	SecondaryKeywords []string `json:"secondaryKeywords"`
}

// TitleSuggestionsRequest is the body of POST /content/titles.
type TitleSuggestionsRequest struct {
	Keywords []string `json:"keywords"`
}
