package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"estatedesk/internal/domain"
	"estatedesk/internal/repos"
)

const tokenIssuer = "estatedesk"

// Session is a successful login: the bearer token plus its identity.
type Session struct {
	Token string
	Auth  domain.AuthContext
}

// SessionManager issues signed tokens backed by a server-side session row,
// so logout and expiry take effect even for tokens still in circulation.
type SessionManager struct {
	Creds  *CredentialService
	Admins *repos.AdminRepo
	TTL    time.Duration
	secret []byte
	now    func() time.Time
}

func NewSessionManager(creds *CredentialService, admins *repos.AdminRepo, secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionManager{Creds: creds, Admins: admins, TTL: ttl, secret: []byte(secret), now: time.Now}
}

func (m *SessionManager) Login(ctx context.Context, email, password string) (Session, error) {
	a, err := m.Creds.Verify(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	now := m.now()
	exp := now.Add(m.TTL)
	row := domain.Session{
		ID:        uuid.NewString(),
		AdminID:   a.ID,
		CreatedAt: domain.Timestamp(now),
		ExpiresAt: domain.Timestamp(exp),
		LastSeen:  domain.Timestamp(now),
	}
	if err := m.Admins.CreateSession(ctx, &row); err != nil {
		return Session{}, domain.Storage("create session", err)
	}

	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   a.ID,
		ID:        row.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token: tok,
		Auth:  domain.AuthContext{AdminID: a.ID, Email: a.Email, SessionID: row.ID, ExpiresAt: exp},
	}, nil
}

func (m *SessionManager) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || claims.ID == "" || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// Authenticate resolves a token to its admin. Any failure is ErrUnauthorized
// except a storage failure, which is reported as such.
func (m *SessionManager) Authenticate(ctx context.Context, token string) (domain.AuthContext, error) {
	if token == "" {
		return domain.AuthContext{}, domain.ErrUnauthorized
	}
	claims, err := m.parse(token)
	if err != nil {
		return domain.AuthContext{}, err
	}
	now := domain.Timestamp(m.now())
	a, err := m.Admins.SessionAdmin(ctx, claims.ID, now)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.AuthContext{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.AuthContext{}, domain.Storage("authenticate", err)
	}
	if a.ID != claims.Subject {
		return domain.AuthContext{}, domain.ErrUnauthorized
	}
	_ = m.Admins.TouchSession(ctx, claims.ID, now)
	return domain.AuthContext{
		AdminID:   a.ID,
		Email:     a.Email,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout ends the session behind token. Unknown or expired tokens are ignored.
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	claims := &jwt.RegisteredClaims{}
	// Signature must still verify; expiry does not matter for ending a session.
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
		return nil
	}
	if claims.ID == "" {
		return nil
	}
	return domain.Storage("logout", m.Admins.DeleteSession(ctx, claims.ID))
}

// PurgeExpired removes session rows that expired at or before now.
func (m *SessionManager) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := m.Admins.PurgeSessions(ctx, domain.Timestamp(now))
	return n, domain.Storage("purge sessions", err)
}
