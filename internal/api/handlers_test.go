package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"quillpost-backend-go/internal/connectivity"
	"quillpost-backend-go/internal/content"
	"quillpost-backend-go/internal/core"
	"quillpost-backend-go/internal/db"
	"quillpost-backend-go/internal/events"
	"quillpost-backend-go/internal/identity"
	"quillpost-backend-go/internal/middleware"
	"quillpost-backend-go/internal/models"
	"quillpost-backend-go/internal/session"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type apiFixture struct {
	router    *gin.Engine
	store     *db.MemoryStore
	provider  *identity.MemoryProvider
	publisher *recordingPublisher
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	store := db.NewMemoryStore()
	provider := identity.NewMemoryProvider()
	monitor := connectivity.NewMonitor(nil, time.Minute, logger)
	registry := session.NewRegistry(session.Config{
		Repositories: db.NewMemoryFactory(store),
		Identity:     provider,
		Monitor:      monitor,
		Audit:        core.NewAuditService(db.NewMemoryAuditRepository(store)),
		TTL:          time.Hour,
		Logger:       logger,
	})
	sealer := newTestSealer(t)
	publisher := &recordingPublisher{}

	router := gin.New()
	router.Use(middleware.SessionLoader(registry, sealer, middleware.CookieOptions{MaxAge: time.Hour}, logger))
	SetupRoutes(router, logger, content.NewGenerator(rand.New(rand.NewPCG(1, 2))), publisher, monitor)

	return &apiFixture{router: router, store: store, provider: provider, publisher: publisher}
}

// client carries one browser's cookie across requests.
type client struct {
	f      *apiFixture
	cookie *http.Cookie
	bearer string
}

func (f *apiFixture) newClient() *client {
	return &client{f: f}
}

func (cl *client) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cl.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+cl.bearer)
	} else if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}

	w := httptest.NewRecorder()
	cl.f.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			cl.cookie = c
		}
	}
	return w
}

func (cl *client) register(t *testing.T, email, name string) SessionResponse {
	t.Helper()
	w := cl.do(t, http.MethodPost, "/api/v1/auth/register", models.RegisterRequest{Email: email, Password: "secret1", DisplayName: name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[SessionResponse](t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRegister_StartsFreeTierSession(t *testing.T) {
	f := newAPIFixture(t)
	cl := f.newClient()

	resp := cl.register(t, "ann@example.com", "Ann")

	assert.True(t, resp.IsAuthenticated)
	require.NotNil(t, resp.User)
	assert.Equal(t, "Ann", resp.User.DisplayName)
	assert.Equal(t, models.PlanFree, resp.Membership.ID)
	require.NotNil(t, resp.PostsRemaining)
	assert.Equal(t, 3, *resp.PostsRemaining)

	me := decode[SessionResponse](t, cl.do(t, http.MethodGet, "/api/v1/users/me", nil))
	assert.True(t, me.IsAuthenticated)
	assert.Equal(t, "ann@example.com", me.User.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAPIFixture(t)
	f.newClient().register(t, "ann@example.com", "Ann")

	w := f.newClient().do(t, http.MethodPost, "/api/v1/auth/register",
		models.RegisterRequest{Email: "ann@example.com", Password: "secret1", DisplayName: "Other"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_InvalidPayload(t *testing.T) {
	f := newAPIFixture(t)

	w := f.newClient().do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request payload", decode[ErrorResponse](t, w).Error)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAPIFixture(t)
	f.newClient().register(t, "ann@example.com", "Ann")

	w := f.newClient().do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Email: "ann@example.com", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password.", decode[ErrorResponse](t, w).Details)
}

func TestLogin_BearerTokenSelectsUserSession(t *testing.T) {
	f := newAPIFixture(t)
	f.newClient().register(t, "ann@example.com", "Ann")

	w := f.newClient().do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[SessionResponse](t, w)
	require.NotEmpty(t, login.IDToken)

	api := &client{f: f, bearer: login.IDToken}
	me := decode[SessionResponse](t, api.do(t, http.MethodGet, "/api/v1/users/me", nil))
	assert.True(t, me.IsAuthenticated)
	assert.Equal(t, "Ann", me.User.DisplayName)
}

func TestLogout_BearerTokenStopsWorking(t *testing.T) {
	f := newAPIFixture(t)
	f.newClient().register(t, "ann@example.com", "Ann")
	login := decode[SessionResponse](t, f.newClient().do(t, http.MethodPost, "/api/v1/auth/login",
		models.LoginRequest{Email: "ann@example.com", Password: "secret1"}))
	require.NotEmpty(t, login.IDToken)

	api := &client{f: f, bearer: login.IDToken}
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/v1/auth/logout", nil).Code)

	w := api.do(t, http.MethodGet, "/api/v1/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/posts", models.CreatePostRequest{Title: "T", Content: "C"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	f := newAPIFixture(t)
	cl := f.newClient()
	cl.register(t, "ann@example.com", "Ann")

	w := cl.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	me := decode[SessionResponse](t, cl.do(t, http.MethodGet, "/api/v1/users/me", nil))
	assert.False(t, me.IsAuthenticated)
	assert.Nil(t, me.User)
}

func TestCreatePost_CountsAndPublishes(t *testing.T) {
	f := newAPIFixture(t)
	cl := f.newClient()
	cl.register(t, "ann@example.com", "Ann")

	w := cl.do(t, http.MethodPost, "/api/v1/posts", models.CreatePostRequest{Title: "Hello", Content: "<p>World</p>"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[PostResponse](t, w)
	assert.Equal(t, "Hello", created.Post.Title)
	assert.Equal(t, "Ann", created.Post.Author)
	assert.Empty(t, created.Warning)

	me := decode[SessionResponse](t, cl.do(t, http.MethodGet, "/api/v1/users/me", nil))
	assert.Equal(t, 1, me.User.PostsThisMonth)
	assert.Equal(t, 1, me.User.TotalPosts)
	assert.Equal(t, 2, *me.PostsRemaining)
	assert.Equal(t, []string{events.PostCreated}, f.publisher.types())
}

func TestCreatePost_QuotaExceeded(t *testing.T) {
	f := newAPIFixture(t)
	cl := f.newClient()
	cl.register(t, "ann@example.com", "Ann")

	for i := 0; i < 3; i++ {
		w := cl.do(t, http.MethodPost, "/api/v1/posts", models.CreatePostRequest{Title: "T", Content: "C"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := cl.do(t, http.MethodPost, "/api/v1/posts", models.CreatePostRequest{Title: "T", Content: "C"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	posts := decode[[]*models.Post](t, cl.do(t, http.MethodGet, "/api/v1/posts", nil))
	assert.Len(t, posts, 3)
}

func TestCreatePost_RequiresUser(t *testing.T) {
	f := newAPIFixture(t)

	w := f.newClient().do(t, http.MethodPost, "/api/v1/posts", models.CreatePostRequest{Title: "T", Content: "C"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListPosts_FiltersByUser(t *testing.T) {
	f := newAPIFixture(t)
	ann := f.newClient()
	annSession := ann.register(t, "ann@example.com", "Ann")
	bob := f.newClient()
	bob.register(t, "bob@example.com", "Bob")

	ann.do(t, http.MethodPost, "/api/v1/posts", models.CreatePostRequest{Title: "A", Content: "a"})
	bob.do(t, http.MethodPost, "/api/v1/posts", models.CreatePostRequest{Title: "B", Content: "b"})

	visitor := f.newClient()
	all := decode[[]*models.Post](t, visitor.do(t, http.MethodGet, "/api/v1/posts", nil))
	assert.Len(t, all, 2)

	mine := decode[[]*models.Post](t, visitor.do(t, http.MethodGet, "/api/v1/posts?userId="+annSession.User.ID, nil))
	require.Len(t, mine, 1)
	assert.Equal(t, "A", mine[0].Title)
}

func TestDeletePost(t *testing.T) {
	f := newAPIFixture(t)
	ann := f.newClient()
	ann.register(t, "ann@example.com", "Ann")
	created := decode[PostResponse](t, ann.do(t, http.MethodPost, "/api/v1/posts", models.CreatePostRequest{Title: "A", Content: "a"}))

	bob := f.newClient()
	bob.register(t, "bob@example.com", "Bob")
	bob.do(t, http.MethodGet, "/api/v1/posts", nil)

	w := bob.do(t, http.MethodDelete, "/api/v1/posts/"+created.Post.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ann.do(t, http.MethodDelete, "/api/v1/posts/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ann.do(t, http.MethodDelete, "/api/v1/posts/"+created.Post.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{events.PostCreated, events.PostDeleted}, f.publisher.types())

	remaining := decode[[]*models.Post](t, bob.do(t, http.MethodGet, "/api/v1/posts", nil))
	assert.Empty(t, remaining)
}

func TestUpdateMembership(t *testing.T) {
	f := newAPIFixture(t)
	cl := f.newClient()
	cl.register(t, "ann@example.com", "Ann")

	w := cl.do(t, http.MethodPut, "/api/v1/users/me/membership", models.UpdateMembershipRequest{Membership: "gold"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = cl.do(t, http.MethodPut, "/api/v1/users/me/membership", models.UpdateMembershipRequest{Membership: models.PlanUnlimited})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[SessionResponse](t, w)
	assert.Equal(t, models.PlanUnlimited, resp.Membership.ID)
	assert.Nil(t, resp.PostsRemaining)
	assert.Contains(t, w.Body.String(), `"postsRemaining":null`)
}

func TestListMemberships(t *testing.T) {
	f := newAPIFixture(t)

	plans := decode[[]models.MembershipPlan](t, f.newClient().do(t, http.MethodGet, "/api/v1/memberships", nil))

	require.Len(t, plans, 4)
	assert.Equal(t, models.PlanFree, plans[0].ID)
	assert.True(t, plans[3].Unlimited())
}

func TestContentEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	cl := f.newClient()

	w := cl.do(t, http.MethodPost, "/api/v1/content/generate", models.GenerateContentRequest{
		Title:           "Go Concurrency",
		PrimaryKeywords: []string{"goroutines"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	generated := decode[ContentResponse](t, w)
	assert.Contains(t, generated.Content, "Go Concurrency")
	assert.True(t, strings.Contains(generated.Content, "goroutines"))

	w = cl.do(t, http.MethodPost, "/api/v1/content/titles", models.TitleSuggestionsRequest{Keywords: []string{"channels"}})
	require.Equal(t, http.StatusOK, w.Code)
	titles := decode[TitlesResponse](t, w)
	assert.Len(t, titles.Titles, content.TitleSuggestionCount)
}

func TestConnectionSignals(t *testing.T) {
	f := newAPIFixture(t)
	cl := f.newClient()
	cl.register(t, "ann@example.com", "Ann")

	offline := decode[SessionResponse](t, cl.do(t, http.MethodPost, "/api/v1/connection/offline", nil))
	assert.True(t, offline.IsOffline)

	w := cl.do(t, http.MethodPost, "/api/v1/posts", models.CreatePostRequest{Title: "T", Content: "C"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	other := f.newClient()
	other.register(t, "bob@example.com", "Bob")
	w = other.do(t, http.MethodPost, "/api/v1/posts", models.CreatePostRequest{Title: "T", Content: "C"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = cl.do(t, http.MethodPost, "/api/v1/connection/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode[SessionResponse](t, w).IsOffline)
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	w := f.newClient().do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP","online":true}`, w.Body.String())
}
