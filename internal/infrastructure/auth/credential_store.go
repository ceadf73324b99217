package auth

import (
	"context"
	"errors"
	"time"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// BcryptCredentialStore verifies the dashboard password against a bcrypt hash
// kept in a versioned document. Legacy reversible documents are rehashed on
// the first successful login; a missing document is created from the
// configured default password.
type BcryptCredentialStore struct {
	docs            shared.DocumentStore[identity.PasswordDocument]
	defaultPassword string
	cost            int
	logger          *zap.Logger
	now             func() time.Time
}

// NewBcryptCredentialStore creates a credential store over docs
func NewBcryptCredentialStore(docs shared.DocumentStore[identity.PasswordDocument], cfg config.AuthConfig, logger *zap.Logger) *BcryptCredentialStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BcryptCredentialStore{
		docs:            docs,
		defaultPassword: cfg.DefaultPassword,
		cost:            cfg.BcryptCost,
		logger:          logger,
		now:             time.Now,
	}
}

// Verify checks password against the stored credential
func (s *BcryptCredentialStore) Verify(ctx context.Context, password string) error {
	doc, err := s.current(ctx)
	if err != nil {
		return err
	}
	if password == "" || !doc.Value.Matches(password) {
		return identity.ErrInvalidCredentials
	}
	if doc.Value.IsLegacy() {
		s.rehash(ctx, doc, password)
	}
	return nil
}

// Change verifies current and stores a hash of next
func (s *BcryptCredentialStore) Change(ctx context.Context, current, next string) (time.Time, error) {
	if next == "" {
		return time.Time{}, identity.ErrEmptyPassword
	}
	doc, err := s.current(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if current == "" || !doc.Value.Matches(current) {
		return time.Time{}, identity.ErrInvalidCredentials
	}

	updated, err := identity.NewPasswordDocument(next, s.cost, s.now())
	if err != nil {
		return time.Time{}, err
	}
	if _, err := s.docs.CompareAndSwap(ctx, doc, updated); err != nil {
		return time.Time{}, err
	}
	s.logger.Info("Dashboard password changed")
	return *updated.UpdatedAt, nil
}

// current loads the credential, bootstrapping it when nothing is stored
func (s *BcryptCredentialStore) current(ctx context.Context) (*shared.Document[identity.PasswordDocument], error) {
	doc, err := s.docs.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !doc.Value.IsEmpty() {
		return doc, nil
	}
	if s.defaultPassword == "" {
		return nil, identity.ErrCredentialMissing
	}

	initial, err := identity.NewPasswordDocument(s.defaultPassword, s.cost, s.now())
	if err != nil {
		return nil, err
	}
	created, err := s.docs.CompareAndSwap(ctx, doc, initial)
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		// Another instance bootstrapped first
		return s.docs.Load(ctx)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Warn("Dashboard password initialised from the configured default; change it")
	return created, nil
}

func (s *BcryptCredentialStore) rehash(ctx context.Context, doc *shared.Document[identity.PasswordDocument], password string) {
	hashed, err := identity.NewPasswordDocument(password, s.cost, s.now())
	if err != nil {
		s.logger.Warn("Failed to hash legacy password", zap.Error(err))
		return
	}
	if _, err := s.docs.CompareAndSwap(ctx, doc, hashed); err != nil {
		s.logger.Warn("Failed to migrate legacy password document", zap.Error(err))
		return
	}
	s.logger.Info("Legacy password document migrated to bcrypt")
}

var _ identity.CredentialVerifier = (*BcryptCredentialStore)(nil)
