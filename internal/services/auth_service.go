package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/audit"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/auth"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/store"
)

// AuthService registers identities and exchanges credentials for tokens.
type AuthService struct {
	users   store.CredentialStore
	hasher  auth.PasswordHasher
	tokens  *auth.TokenIssuer
	limiter *LoginLimiter
	audit   *audit.Logger
	timeout time.Duration

	dummyOnce sync.Once
	dummyHash string
}

type AuthServiceConfig struct {
	// Limiter may be nil, which disables login throttling.
	Limiter      *LoginLimiter
	StoreTimeout time.Duration
	Audit        *audit.Logger
}

func NewAuthService(users store.CredentialStore, hasher auth.PasswordHasher, tokens *auth.TokenIssuer, cfg AuthServiceConfig) *AuthService {
	auditLogger := cfg.Audit
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &AuthService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		limiter: cfg.Limiter,
		audit:   auditLogger,
		timeout: cfg.StoreTimeout,
	}
}

func (s *AuthService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Register creates an Owner identity and returns a token for it.
func (s *AuthService) Register(ctx context.Context, username, password string) (string, error) {
	log.Printf("[AUTH] Registration request for username: %s", username)

	u, err := s.CreateUser(ctx, username, password, models.RoleOwner)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateIdentity) {
			s.audit.LogAuth("REGISTER", username, "DUPLICATE")
		}
		return "", err
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		log.Printf("[AUTH] Token issuance failed for user %s: %v", u.ID, err)
		return "", err
	}

	log.Printf("[AUTH] Registration successful for user %s", u.ID)
	s.audit.LogAuth("REGISTER", username, "SUCCESS")
	return token, nil
}

// CreateUser persists a new identity with the given role. Register always
// passes RoleOwner; administrators are provisioned out of band.
func (s *AuthService) CreateUser(ctx context.Context, username, password string, role models.Role) (models.User, error) {
	if !role.Valid() {
		return models.User{}, models.ErrInvalidRole
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		err = asStoreError("check username", err)
		log.Printf("[AUTH] Username lookup failed for %s: %v", username, err)
		return models.User{}, err
	}
	if exists {
		log.Printf("[AUTH] Registration rejected, username taken: %s", username)
		return models.User{}, models.ErrDuplicateIdentity
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for %s: %v", username, err)
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Insert(ctx, models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: digest,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateIdentity) {
			log.Printf("[AUTH] Registration lost race for username: %s", username)
			return models.User{}, err
		}
		err = asStoreError("insert user", err)
		log.Printf("[AUTH] User creation failed for %s: %v", username, err)
		return models.User{}, err
	}
	return u, nil
}

// Login verifies credentials and returns a token. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	log.Printf("[AUTH] Login request for username: %s", username)

	allowed, err := s.limiter.Allow(ctx, username)
	if err != nil {
		log.Printf("[AUTH] Login throttle check failed for %s: %v", username, err)
	}
	if !allowed {
		log.Printf("[AUTH] Login throttled for username: %s", username)
		s.audit.LogAuth("LOGIN", username, "THROTTLED")
		return "", models.ErrTooManyAttempts
	}

	sctx, cancel := s.storeContext(ctx)
	u, err := s.users.FindByUsername(sctx, username)
	cancel()
	if errors.Is(err, models.ErrNotFound) {
		// Burn a comparison so unknown names cost the same as bad passwords.
		s.hasher.Verify(password, s.dummyDigest())
		s.rejectLogin(ctx, username)
		return "", models.ErrInvalidCredentials
	}
	if err != nil {
		err = asStoreError("find user", err)
		log.Printf("[AUTH] User lookup failed for %s: %v", username, err)
		return "", err
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		s.rejectLogin(ctx, username)
		return "", models.ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, username); err != nil {
		log.Printf("[AUTH] Failed to clear login failures for %s: %v", username, err)
	}

	token, err := s.tokens.Issue(*u)
	if err != nil {
		log.Printf("[AUTH] Token issuance failed for user %s: %v", u.ID, err)
		return "", err
	}

	log.Printf("[AUTH] Login successful for user %s", u.ID)
	s.audit.LogAuth("LOGIN", username, "SUCCESS")
	return token, nil
}

func (s *AuthService) rejectLogin(ctx context.Context, username string) {
	log.Printf("[AUTH] Invalid credentials for username: %s", username)
	if err := s.limiter.RecordFailure(ctx, username); err != nil {
		log.Printf("[AUTH] Failed to record login failure for %s: %v", username, err)
	}
	s.audit.LogAuth("LOGIN", username, "FAILED")
}

func (s *AuthService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			log.Printf("[AUTH] Failed to prepare dummy digest: %v", err)
			return
		}
		s.dummyHash = digest
	})
	return s.dummyHash
}
