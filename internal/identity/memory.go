package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memoryAccount struct {
	user         AuthUser
	passwordHash []byte
}

// MemoryProvider is an in-process Provider used by the memory store driver and tests.
type MemoryProvider struct {
	mu          sync.Mutex
	accounts    map[string]*memoryAccount // by UID
	byEmail     map[string]string
	tokens      map[string]string // ID token -> UID
	unreachable bool
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		accounts: make(map[string]*memoryAccount),
		byEmail:  make(map[string]string),
		tokens:   make(map[string]string),
	}
}

// SetReachable simulates a network outage when false.
func (p *MemoryProvider) SetReachable(reachable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unreachable = !reachable
}

func (p *MemoryProvider) Ready(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unreachable {
		return ErrNetwork
	}
	return nil
}

func (p *MemoryProvider) CreateAccount(ctx context.Context, email, password string) (*AuthUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unreachable {
		return nil, ErrNetwork
	}
	key := strings.ToLower(email)
	if _, ok := p.byEmail[key]; ok {
		return nil, ErrEmailExists
	}
	account := &memoryAccount{
		user:         AuthUser{UID: uuid.NewString(), Email: email},
		passwordHash: hash,
	}
	p.accounts[account.user.UID] = account
	p.byEmail[key] = account.user.UID
	user := account.user
	return &user, nil
}

func (p *MemoryProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unreachable {
		return ErrNetwork
	}
	account, ok := p.accounts[uid]
	if !ok {
		return ErrUserNotFound
	}
	account.user.DisplayName = displayName
	return nil
}

func (p *MemoryProvider) SignIn(ctx context.Context, email, password string) (*AuthUser, error) {
	p.mu.Lock()
	if p.unreachable {
		p.mu.Unlock()
		return nil, ErrNetwork
	}
	uid, ok := p.byEmail[strings.ToLower(email)]
	if !ok {
		p.mu.Unlock()
		return nil, ErrInvalidCredentials
	}
	account := p.accounts[uid]
	hash := account.passwordHash
	user := account.user
	p.mu.Unlock()

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.IDToken = uuid.NewString()
	p.mu.Lock()
	p.tokens[user.IDToken] = user.UID
	p.mu.Unlock()
	return &user, nil
}

// SignOut invalidates every token issued to uid.
func (p *MemoryProvider) SignOut(ctx context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unreachable {
		return ErrNetwork
	}
	for token, owner := range p.tokens {
		if owner == uid {
			delete(p.tokens, token)
		}
	}
	return nil
}

func (p *MemoryProvider) LookupUser(ctx context.Context, uid string) (*AuthUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unreachable {
		return nil, ErrNetwork
	}
	account, ok := p.accounts[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := account.user
	return &user, nil
}

func (p *MemoryProvider) VerifyIDToken(ctx context.Context, idToken string) (*AuthUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.tokens[idToken]
	if !ok {
		return nil, ErrInvalidToken
	}
	user := p.accounts[uid].user
	return &user, nil
}
