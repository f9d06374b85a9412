package core

import "errors"

// Errors returned by the session and post services. Handlers map them to HTTP statuses.
var (
	ErrNotAuthenticated     = errors.New("user not authenticated")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrNetwork              = errors.New("network error")
	ErrOfflineOrUnavailable = errors.New("offline or store unavailable")
	ErrServiceUnavailable   = errors.New("authentication service unavailable")
	ErrAuth                 = errors.New("authentication failed")
	ErrEmailInUse           = errors.New("email already registered")
	ErrInvalidPlan          = errors.New("unknown membership plan")
	ErrProfileSetupFailed   = errors.New("account created but profile setup failed")
	ErrQuotaExceeded        = errors.New("monthly post limit reached")
	ErrNotOwner             = errors.New("you can only delete your own posts")
	ErrPostNotFound         = errors.New("post not found")
	ErrFetchFailed          = errors.New("failed to load posts")
)

// User-facing messages kept in LastError.
const (
	msgServiceUnavailable = "Unable to connect to authentication service. Please try again later."
	msgInvalidCredentials = "Invalid email or password."
	msgNetwork            = "Network error. Please check your internet connection and try again."
	msgEmailInUse         = "This email is already registered."
	msgProfileSetupFailed = "Account created but profile setup failed. Please try logging in."
	msgProfileCreate      = "Could not create user profile. Some features may be limited."
	msgOffline            = "You appear to be offline. Some features may be limited."
	msgOfflineRefresh     = "You appear to be offline. Please check your internet connection."
	msgLoadUser           = "Error loading user data. Please try again later."
	msgReconnectFailed    = "Could not connect to the server. Please try again."
	msgNotAuthenticated   = "User not authenticated"
)
