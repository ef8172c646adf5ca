package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"estatedesk/internal/domain"
	"estatedesk/internal/repos"
	"estatedesk/internal/validate"
)

// dummyHash is compared against when the email is unknown so both paths cost one bcrypt run.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("estatedesk-no-such-admin"), bcrypt.DefaultCost)

type CredentialService struct {
	Admins *repos.AdminRepo
	Cost   int
	now    func() time.Time
}

func NewCredentialService(admins *repos.AdminRepo, cost int) *CredentialService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialService{Admins: admins, Cost: cost, now: time.Now}
}

func (s *CredentialService) newAdmin(email, name, password string) (*domain.Admin, error) {
	ve := &domain.ValidationError{}
	clean, ok := validate.Email(email)
	if !ok {
		ve.Add("email", "must be a valid email address")
	}
	if !validate.Password(password) {
		ve.Add("password", "must be 8 to 72 characters")
	}
	if name = strings.TrimSpace(name); name == "" {
		name = clean
	} else if _, ok := validate.Name(name); !ok {
		ve.Add("name", "must be at most 120 characters")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return nil, err
	}
	return &domain.Admin{
		ID:        uuid.NewString(),
		Email:     clean,
		Name:      name,
		Hash:      string(hash),
		Active:    true,
		CreatedAt: domain.Timestamp(s.now()),
	}, nil
}

// Bootstrap creates the first admin when none exists. Once any admin exists
// it returns (false, nil) without looking at the configured credentials.
func (s *CredentialService) Bootstrap(ctx context.Context, email, password string) (bool, error) {
	n, err := s.Admins.Count(ctx)
	if err != nil {
		return false, domain.Storage("bootstrap admin", err)
	}
	if n > 0 {
		return false, nil
	}
	a, err := s.newAdmin(email, "", password)
	if err != nil {
		return false, err
	}
	created, err := s.Admins.CreateIfNone(ctx, a)
	return created, domain.Storage("bootstrap admin", err)
}

// Verify checks email and password. Unknown, inactive and mismatched all fail the same way.
func (s *CredentialService) Verify(ctx context.Context, email, password string) (*domain.Admin, error) {
	clean, _ := validate.Email(email)
	a, err := s.Admins.ByEmail(ctx, clean)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Storage("verify admin", err)
	}
	if a == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(password)) != nil || !a.Active {
		return nil, domain.ErrInvalidCredentials
	}
	return a, nil
}

// Create adds another admin account.
func (s *CredentialService) Create(ctx context.Context, auth domain.AuthContext, email, name, password string) (*domain.Admin, error) {
	if err := auth.Require(); err != nil {
		return nil, err
	}
	a, err := s.newAdmin(email, name, password)
	if err != nil {
		return nil, err
	}
	if _, err := s.Admins.ByEmail(ctx, a.Email); err == nil {
		return nil, domain.NewValidationError("email", "already registered")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Storage("create admin", err)
	}
	if err := s.Admins.Create(ctx, a); err != nil {
		return nil, domain.Storage("create admin", err)
	}
	return a, nil
}

func (s *CredentialService) List(ctx context.Context, auth domain.AuthContext) ([]domain.Admin, error) {
	if err := auth.Require(); err != nil {
		return nil, err
	}
	out, err := s.Admins.List(ctx)
	return out, domain.Storage("list admins", err)
}
