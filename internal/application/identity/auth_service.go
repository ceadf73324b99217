package identity

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AuthService handles the dashboard password gate and its sessions
type AuthService struct {
	credentials identity.CredentialVerifier
	jwtService  *auth.JWTService
	blacklist   auth.TokenBlacklist
	metrics     *telemetry.StoreMetrics
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	credentials identity.CredentialVerifier,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	metrics *telemetry.StoreMetrics,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		credentials: credentials,
		jwtService:  jwtService,
		blacklist:   blacklist,
		metrics:     metrics,
		logger:      logger,
	}
}

// Login checks the password and issues a session token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "login")
	defer span.End()

	if input.Password == "" {
		return nil, identity.ErrEmptyPassword
	}
	if err := s.credentials.Verify(ctx, input.Password); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			s.metrics.RecordLoginFailure(ctx)
			s.logger.Warn("Dashboard login failed", zap.String("ip", input.IP))
		} else {
			telemetry.RecordError(span, err)
			s.logger.Error("Dashboard login could not be checked", zap.Error(err))
		}
		return nil, err
	}

	session, err := s.jwtService.Issue(identity.AdminSubject)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to issue session token", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Dashboard login", zap.String("ip", input.IP), zap.String("session_id", session.ID))
	return &LoginResult{Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

// Authenticate validates a token and checks it has not been revoked, either
// individually by logout or wholesale by a password change
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.Validate(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Failed to check token blacklist", zap.Error(err))
		return nil, err
	}
	if revoked {
		return nil, auth.ErrTokenBlacklisted
	}

	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.Subject, claims.SessionStartedAt())
	if err != nil {
		s.logger.Error("Failed to check session invalidation", zap.Error(err))
		return nil, err
	}
	if invalidated {
		return nil, auth.ErrTokenBlacklisted
	}
	return claims, nil
}

// Logout revokes the session's token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke session", zap.String("session_id", claims.ID), zap.Error(err))
		return err
	}
	s.logger.Info("Dashboard logout", zap.String("session_id", claims.ID))
	return nil
}

// Session describes an authenticated session
func (s *AuthService) Session(claims *auth.Claims) SessionInfo {
	if claims == nil {
		return SessionInfo{}
	}
	return SessionInfo{
		Authenticated: true,
		Subject:       claims.Subject,
		ExpiresAt:     claims.GetExpiresAtTime(),
	}
}

// ChangePassword rotates the dashboard password, revokes every existing
// session and returns a fresh one for the caller
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) (*ChangePasswordResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "change_password")
	defer span.End()

	changedAt, err := s.credentials.Change(ctx, input.CurrentPassword, input.NewPassword)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			s.metrics.RecordLoginFailure(ctx)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.blacklist.AddUserTokensToBlacklist(ctx, identity.AdminSubject, s.jwtService.SessionTTL()); err != nil {
		// The password is already changed; old sessions live until they expire
		s.logger.Error("Failed to revoke sessions after password change", zap.Error(err))
		telemetry.RecordError(span, err)
	}

	session, err := s.jwtService.Issue(identity.AdminSubject)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Dashboard password changed")
	return &ChangePasswordResult{
		ChangedAt: changedAt,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
