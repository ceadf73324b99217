package identity

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/storefront/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// AdminSubject is the only principal: one shared dashboard password
const AdminSubject = "admin"

// Credential errors
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Incorrect password")
	ErrEmptyPassword      = shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	ErrCredentialMissing  = shared.NewDomainError("CREDENTIAL_MISSING", "Dashboard password is not configured")
)

// CredentialVerifier checks and rotates the dashboard password
type CredentialVerifier interface {
	// Verify returns nil when password is correct, ErrInvalidCredentials otherwise
	Verify(ctx context.Context, password string) error
	// Change replaces the password after verifying current and returns the change time
	Change(ctx context.Context, current, next string) (time.Time, error)
}

// PasswordDocument is the stored shape of dashboard-password.json.
// Hash is a bcrypt hash. Password (base64) and DashboardPassword (plaintext)
// are legacy fields that only appear in documents written before hashing.
type PasswordDocument struct {
	Hash              string     `json:"hash,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
	Password          string     `json:"password,omitempty"`
	DashboardPassword string     `json:"dashboardPassword,omitempty"`
}

// NewPasswordDocument hashes plain with the given bcrypt cost
func NewPasswordDocument(plain string, cost int, now time.Time) (PasswordDocument, error) {
	if plain == "" {
		return PasswordDocument{}, ErrEmptyPassword
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return PasswordDocument{}, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	updated := now.UTC()
	return PasswordDocument{Hash: string(hash), UpdatedAt: &updated}, nil
}

// IsLegacy reports whether the document still holds a reversible password
func (d PasswordDocument) IsLegacy() bool {
	return d.Hash == "" && (d.Password != "" || d.DashboardPassword != "")
}

// IsEmpty reports whether the document carries no password at all
func (d PasswordDocument) IsEmpty() bool {
	return d.Hash == "" && d.Password == "" && d.DashboardPassword == ""
}

// Matches checks password against the document
func (d PasswordDocument) Matches(password string) bool {
	if d.Hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(d.Hash), []byte(password)) == nil
	}
	stored := d.legacyPlaintext()
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

func (d PasswordDocument) legacyPlaintext() string {
	if d.Password != "" {
		return DecodeLegacyPassword(d.Password)
	}
	return d.DashboardPassword
}

// DecodeLegacyPassword reverses the old base64 "encryption". Values shorter
// than four characters, undecodable values and decodings that are not text
// are taken to be plaintext already.
func DecodeLegacyPassword(encoded string) string {
	if len(encoded) < 4 {
		return encoded
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil || len(decoded) == 0 || !utf8.Valid(decoded) {
		return encoded
	}
	return string(decoded)
}
