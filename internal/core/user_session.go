package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"quillpost-backend-go/internal/db"
	"quillpost-backend-go/internal/identity"
	"quillpost-backend-go/internal/models"
)

const defaultDisplayName = "User"

// UserSessionConfig holds the collaborators of a UserSession.
type UserSessionConfig struct {
	Users     db.UserRepository
	Identity  identity.Provider
	AuthState *identity.AuthState
	Gate      *db.NetworkGate
	Audit     AuditService
	Logger    *zap.Logger
}

// UserSession is the single source of truth for who is signed in on one client
// session and what they may do. Its state is guarded by mu, which is never held
// across store or identity provider calls.
type UserSession struct {
	users    db.UserRepository
	identity identity.Provider
	auth     *identity.AuthState
	gate     *db.NetworkGate
	audit    AuditService
	logger   *zap.Logger

	mu              sync.Mutex
	user            *models.User
	loading         int
	offline         bool
	lastErr         string
	unsubscribeAuth func()
}

// NewUserSession creates a signed-out session.
func NewUserSession(cfg UserSessionConfig) *UserSession {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	authState := cfg.AuthState
	if authState == nil {
		authState = identity.NewAuthState()
	}
	return &UserSession{
		users:    cfg.Users,
		identity: cfg.Identity,
		auth:     authState,
		gate:     cfg.Gate,
		audit:    cfg.Audit,
		logger:   logger,
	}
}

// Register creates an identity account, sets its display name and writes a free-tier
// profile document. When only the profile write fails the created user is returned
// together with ErrProfileSetupFailed; the account is not rolled back.
func (s *UserSession) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	s.begin()
	defer s.end()

	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}

	authUser, err := s.identity.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, s.authFailure("register", err, "Registration failed. Please try again.")
	}
	if err := s.identity.UpdateDisplayName(ctx, authUser.UID, displayName); err != nil {
		return nil, s.authFailure("set display name", err, "Registration failed. Please try again.")
	}
	authUser.DisplayName = displayName

	profile := &models.User{
		ID:          authUser.UID,
		DisplayName: displayName,
		Email:       email,
		Membership:  models.PlanFree,
	}
	profileErr := s.users.Create(ctx, profile)
	if profileErr != nil {
		s.logger.Error("Error creating user document", zap.String("userId", authUser.UID), zap.Error(profileErr))
	} else {
		recordAudit(ctx, s.audit, s.logger, models.AuditLog{
			UserID:     authUser.UID,
			Action:     models.AuditActionUserRegister,
			TargetType: "USER",
			TargetID:   authUser.UID,
		})
	}

	// Emitting after the write means the auth listener reads the new document.
	s.auth.Set(ctx, authUser)

	if profileErr != nil {
		s.setError(msgProfileSetupFailed)
		if loaded := s.User(); loaded != nil && loaded.ID == authUser.UID {
			profile = loaded
		}
		return profile, fmt.Errorf("%w: %v", ErrProfileSetupFailed, profileErr)
	}
	if loaded := s.User(); loaded != nil && loaded.ID == authUser.UID {
		return loaded, nil
	}
	return profile, nil
}

// Login signs in with email and password. A failed profile load does not fail the
// login; a minimal free-tier user built from the identity account is used instead.
func (s *UserSession) Login(ctx context.Context, email, password string) (*identity.AuthUser, error) {
	s.begin()
	defer s.end()

	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}

	authUser, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, s.authFailure("login", err, "Login failed. Please check your credentials.")
	}

	s.auth.Set(ctx, authUser)

	if loaded := s.User(); loaded == nil || loaded.ID != authUser.UID {
		if _, err := s.FetchUserData(ctx, authUser.UID); err != nil {
			s.logger.Warn("Could not fetch user data on login, but authentication succeeded",
				zap.String("userId", authUser.UID), zap.Error(err))
		}
		if loaded := s.User(); loaded == nil || loaded.ID != authUser.UID {
			s.setUser(minimalUser(authUser))
		}
	}
	return authUser, nil
}

// Logout revokes the identity session and clears the local user.
func (s *UserSession) Logout(ctx context.Context) error {
	s.begin()
	defer s.end()

	if current := s.auth.Current(); current != nil {
		if err := s.identity.SignOut(ctx, current.UID); err != nil {
			s.logger.Error("Logout error", zap.String("userId", current.UID), zap.Error(err))
			s.setError("Logout failed. Please try again.")
			if errors.Is(err, identity.ErrNetwork) {
				return fmt.Errorf("%w: %v", ErrNetwork, err)
			}
			return fmt.Errorf("logout failed: %w", err)
		}
	}
	s.setUser(nil)
	s.auth.Set(ctx, nil)
	return nil
}

// FetchUserData loads the profile for uid. A missing document is replaced by a persisted
// free-tier default. When the read fails a minimal user from the identity session is
// installed and the error is returned.
func (s *UserSession) FetchUserData(ctx context.Context, uid string) (*models.User, error) {
	s.begin()
	defer s.end()

	user, err := s.users.GetByID(ctx, uid)
	if err == nil {
		user.ID = uid
		s.setUser(user)
		return user.Clone(), nil
	}

	authUser := s.auth.Current()

	if errors.Is(err, db.ErrNotFound) {
		s.logger.Warn("User document not found, creating default profile", zap.String("userId", uid))
		profile := &models.User{
			ID:          uid,
			DisplayName: defaultDisplayName,
			Membership:  models.PlanFree,
		}
		if authUser != nil {
			profile.Email = authUser.Email
			if authUser.DisplayName != "" {
				profile.DisplayName = authUser.DisplayName
			}
		}
		if createErr := s.users.Create(ctx, profile); createErr != nil {
			s.logger.Error("Error creating default user profile", zap.String("userId", uid), zap.Error(createErr))
			s.setError(msgProfileCreate)
			fallback := &models.User{ID: uid, Membership: models.PlanFree}
			if authUser != nil {
				fallback.Email = authUser.Email
				fallback.DisplayName = authUser.DisplayName
			}
			s.setUser(fallback)
			return fallback.Clone(), nil
		}
		s.setUser(profile)
		return profile.Clone(), nil
	}

	s.logger.Error("Error fetching user data", zap.String("userId", uid), zap.Error(err))
	if authUser != nil {
		s.setUser(minimalUser(authUser))
	}
	if db.IsUnavailable(err) {
		s.setError(msgOffline)
		return nil, fmt.Errorf("%w: %v", ErrOfflineOrUnavailable, err)
	}
	s.setError(msgLoadUser)
	return nil, fmt.Errorf("failed to load user data for '%s': %w", uid, err)
}

// UpdateMembership writes a new tier to the profile and mirrors it locally.
func (s *UserSession) UpdateMembership(ctx context.Context, planID string) (*models.User, error) {
	current := s.User()
	if current == nil {
		s.setError(msgNotAuthenticated)
		return nil, ErrNotAuthenticated
	}
	if _, ok := LookupPlan(planID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, planID)
	}

	s.begin()
	defer s.end()

	if err := s.users.UpdateMembership(ctx, current.ID, planID); err != nil {
		s.logger.Error("Error updating membership", zap.String("userId", current.ID), zap.Error(err))
		s.setError("Failed to update membership. Please try again.")
		return nil, storeError("update membership", err)
	}

	previous := current.Membership
	updated := s.mutateUser(current, func(u *models.User) { u.Membership = planID })
	recordAudit(ctx, s.audit, s.logger, models.AuditLog{
		UserID:     current.ID,
		Action:     models.AuditActionMembershipUpdate,
		TargetType: "USER",
		TargetID:   current.ID,
		Details:    map[string]interface{}{"from": previous, "to": planID},
	})
	return updated, nil
}

// IncrementPostCount writes local+1 for both counters. It is a read-then-write,
// so concurrent sessions of the same user can lose an increment.
func (s *UserSession) IncrementPostCount(ctx context.Context) (*models.User, error) {
	current := s.User()
	if current == nil {
		s.setError(msgNotAuthenticated)
		return nil, ErrNotAuthenticated
	}

	s.begin()
	defer s.end()

	postsThisMonth := current.PostsThisMonth + 1
	totalPosts := current.TotalPosts + 1
	if err := s.users.UpdatePostCounts(ctx, current.ID, postsThisMonth, totalPosts); err != nil {
		s.logger.Error("Error incrementing post count", zap.String("userId", current.ID), zap.Error(err))
		s.setError("Failed to update post count. Please try again.")
		return nil, storeError("increment post count", err)
	}

	return s.mutateUser(current, func(u *models.User) {
		u.PostsThisMonth = postsThisMonth
		u.TotalPosts = totalPosts
	}), nil
}

// HandleOffline marks the session offline and disables store access for it.
func (s *UserSession) HandleOffline(ctx context.Context) {
	s.mu.Lock()
	s.offline = true
	s.mu.Unlock()

	if err := s.gate.Disable(ctx); err != nil {
		s.logger.Error("Error disabling network", zap.Error(err))
		return
	}
	s.logger.Debug("Store network disabled due to offline")
}

// HandleOnline marks the session online, re-enables store access and, on success,
// clears connectivity errors and refetches the signed-in user. Failures are only logged.
func (s *UserSession) HandleOnline(ctx context.Context) {
	s.mu.Lock()
	s.offline = false
	s.mu.Unlock()

	if err := s.gate.Enable(ctx); err != nil {
		s.logger.Warn("Error re-enabling network", zap.Error(err))
		return
	}
	s.clearConnectivityError()

	if authUser := s.auth.Current(); authUser != nil {
		if _, err := s.FetchUserData(ctx, authUser.UID); err != nil {
			s.logger.Warn("Error refreshing user data after network restored",
				zap.String("userId", authUser.UID), zap.Error(err))
		}
	}
}

// RefreshConnection forces a reachability check and retries the online path,
// reporting failures to the caller.
func (s *UserSession) RefreshConnection(ctx context.Context) error {
	if err := s.identity.Ready(ctx); err != nil {
		s.mu.Lock()
		s.offline = true
		s.lastErr = msgOfflineRefresh
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrOfflineOrUnavailable, err)
	}

	s.mu.Lock()
	s.offline = false
	s.mu.Unlock()

	s.begin()
	defer s.end()

	if err := s.gate.Enable(ctx); err != nil {
		s.logger.Error("Error manually enabling network", zap.Error(err))
		s.setError(msgReconnectFailed)
		return fmt.Errorf("%w: %v", ErrOfflineOrUnavailable, err)
	}

	if authUser := s.auth.Current(); authUser != nil {
		if _, err := s.FetchUserData(ctx, authUser.UID); err != nil {
			return err
		}
	}
	return nil
}

// InitAuth subscribes the session to its auth-state stream. Calling it twice is a no-op.
func (s *UserSession) InitAuth(ctx context.Context) {
	s.mu.Lock()
	if s.unsubscribeAuth != nil {
		s.mu.Unlock()
		return
	}
	s.unsubscribeAuth = func() {}
	s.mu.Unlock()

	if err := s.identity.Ready(ctx); err != nil {
		s.logger.Warn("Identity provider health check on init failed", zap.Error(err))
	}

	unsubscribe := s.auth.Subscribe(ctx, s.onAuthStateChanged)
	s.mu.Lock()
	s.unsubscribeAuth = unsubscribe
	s.mu.Unlock()
}

// Close detaches the auth-state listener.
func (s *UserSession) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribeAuth
	s.unsubscribeAuth = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *UserSession) onAuthStateChanged(ctx context.Context, authUser *identity.AuthUser) {
	if authUser == nil {
		s.setUser(nil)
		return
	}
	if _, err := s.FetchUserData(ctx, authUser.UID); err != nil {
		s.logger.Warn("Error in auth state change", zap.String("userId", authUser.UID), zap.Error(err))
	}
}

// AuthState exposes the session's auth-state stream.
func (s *UserSession) AuthState() *identity.AuthState {
	return s.auth
}

// User returns a copy of the loaded user, or nil.
func (s *UserSession) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

// IsAuthenticated reports whether a user is loaded.
func (s *UserSession) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// CurrentMembership returns the user's tier, or the free tier when unknown.
func (s *UserSession) CurrentMembership() models.MembershipPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return PlanOrDefault("")
	}
	return PlanOrDefault(s.user.Membership)
}

// PostsRemaining is the tier allowance minus this month's posts. It is math.MaxInt
// for the unlimited tier and zero without a user.
func (s *UserSession) PostsRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return 0
	}
	plan := PlanOrDefault(s.user.Membership)
	if plan.Unlimited() {
		return math.MaxInt
	}
	return plan.PostsPerMonth - s.user.PostsThisMonth
}

// Plans returns the tier catalog.
func (s *UserSession) Plans() []models.MembershipPlan {
	return MembershipPlans()
}

func (s *UserSession) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading > 0
}

func (s *UserSession) IsOffline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// LastError returns the human-readable message of the last failure, or "".
func (s *UserSession) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *UserSession) checkReady(ctx context.Context) error {
	if err := s.identity.Ready(ctx); err != nil {
		s.logger.Warn("Identity provider health check failed", zap.Error(err))
		s.setError(msgServiceUnavailable)
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return nil
}

func (s *UserSession) authFailure(op string, err error, fallbackMsg string) error {
	s.logger.Warn("Authentication error", zap.String("op", op), zap.Error(err))
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		s.setError(msgInvalidCredentials)
		return ErrInvalidCredentials
	case errors.Is(err, identity.ErrNetwork):
		s.setError(msgNetwork)
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	case errors.Is(err, identity.ErrEmailExists):
		s.setError(msgEmailInUse)
		return ErrEmailInUse
	default:
		s.setError(fallbackMsg)
		return fmt.Errorf("%w: %s: %v", ErrAuth, op, err)
	}
}

func (s *UserSession) begin() {
	s.mu.Lock()
	s.loading++
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *UserSession) end() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
}

func (s *UserSession) setError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

func (s *UserSession) setUser(user *models.User) {
	s.mu.Lock()
	s.user = user.Clone()
	s.mu.Unlock()
}

// mutateUser applies fn to the loaded user if it is still snapshot's user and returns
// a copy. If the session moved on, fn is applied to snapshot instead.
func (s *UserSession) mutateUser(snapshot *models.User, fn func(*models.User)) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.ID != snapshot.ID {
		fn(snapshot)
		return snapshot
	}
	fn(s.user)
	return s.user.Clone()
}

func (s *UserSession) clearConnectivityError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := strings.ToLower(s.lastErr)
	for _, word := range []string{"offline", "network", "connection"} {
		if strings.Contains(msg, word) {
			s.lastErr = ""
			return
		}
	}
}

func minimalUser(authUser *identity.AuthUser) *models.User {
	return &models.User{
		ID:          authUser.UID,
		Email:       authUser.Email,
		DisplayName: authUser.DisplayName,
		Membership:  models.PlanFree,
	}
}

// storeError tags connectivity failures so callers can tell them from rejected writes.
func storeError(op string, err error) error {
	if db.IsUnavailable(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrOfflineOrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
