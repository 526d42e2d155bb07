package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Staff roles.
const (
	RolAdministrador = 1
	RolMedico        = 2
	RolAsistente     = 3
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Identity is the resolved acting user attached to requests after
// authentication.
type Identity struct {
	UsuarioID int64  `json:"id"`
	DNI       string `json:"dni"`
	RolID     int    `json:"rol_id"`
}

type claims struct {
	Type string   `json:"type"`
	Data Identity `json:"data"`
	jwt.RegisteredClaims
}

// Manager issues and validates the short-lived access and longer-lived
// refresh credentials.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (m *Manager) CreateAccessToken(id Identity) (string, error) {
	return m.create(TokenTypeAccess, id, m.accessTTL)
}

func (m *Manager) CreateRefreshToken(id Identity) (string, error) {
	return m.create(TokenTypeRefresh, id, m.refreshTTL)
}

func (m *Manager) create(tokenType string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Type: tokenType,
		Data: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode validates the signature and expiry and enforces the expected
// token type, so a refresh token can never pass as an access token.
func (m *Manager) Decode(tokenString, expectedType string) (*Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if c.Type != expectedType {
		return nil, ErrWrongTokenType
	}
	return &c.Data, nil
}

type identityKey struct{}

// WithIdentity attaches the authenticated user to the request context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the authenticated user, or nil on the
// public paths.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
