package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
)

// ErrInvalidCredentials covers unknown registrations, wrong passwords and
// inactive accounts alike.
var ErrInvalidCredentials = fmt.Errorf("invalid registration or password: %w", apierr.ErrUnauthenticated)

type Service struct {
	users   UserRepository
	groups  GroupRepository
	tokens  *auth.TokenIssuer
	revoked auth.RevocationStore
	tx      db.Transactor
	logger  zerolog.Logger
	cost    int
	now     func() time.Time
}

func NewService(users UserRepository, groups GroupRepository, tokens *auth.TokenIssuer,
	revoked auth.RevocationStore, tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{
		users:   users,
		groups:  groups,
		tokens:  tokens,
		revoked: revoked,
		tx:      tx,
		logger:  logger,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
	}
}

// -- Authentication --

// Login checks the password and issues an access token.
func (s *Service) Login(ctx context.Context, registration, password string) (*TokenResponse, error) {
	u, err := s.users.GetByRegistration(ctx, registration)
	if errors.Is(err, apierr.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil || !u.IsActive {
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.TouchLogin(ctx, u.ID, s.now().UTC()); err != nil {
		s.logger.Warn().Err(err).Str("matricula", u.Registration).Msg("last_login not updated")
	}
	return &TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Logout revokes the caller's current token until it expires.
func (s *Service) Logout(ctx context.Context, p *auth.Principal) error {
	if p == nil || p.TokenID == "" {
		return apierr.ErrUnauthenticated
	}
	return s.revoked.Revoke(ctx, p.TokenID, p.TokenExpiresAt)
}

// LoadPrincipal implements auth.PrincipalLoader.
func (s *Service) LoadPrincipal(ctx context.Context, userID uuid.UUID) (*auth.Principal, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apierr.ErrUnauthenticated
	}
	return u.Principal(), nil
}

// -- Users --

func (s *Service) attachGroups(ctx context.Context, users ...*User) error {
	ids := lo.Map(users, func(u *User, _ int) uuid.UUID { return u.ID })
	groups, err := s.groups.ForUsers(ctx, ids)
	if err != nil {
		return err
	}
	for _, u := range users {
		u.Groups = groups[u.ID]
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachGroups(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachGroups(ctx, users...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CreateUser hashes the password and stores the user with the named groups.
// Superusers are always staff.
func (s *Service) CreateUser(ctx context.Context, n *NewUser, groupNames ...string) (*User, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(n.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		Registration: n.Registration,
		CPF:          n.CPF,
		FullName:     n.FullName,
		Email:        n.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      n.Superuser,
		IsSuperuser:  n.Superuser,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		for _, name := range groupNames {
			if err := s.grant(ctx, u.ID, name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Service) lookupGroup(ctx context.Context, name string) (*Group, error) {
	g, err := s.groups.GetByName(ctx, name)
	if errors.Is(err, apierr.ErrNotFound) {
		return nil, apierr.NewValidationError("group", fmt.Sprintf("group %q does not exist", name))
	}
	return g, err
}

func (s *Service) grant(ctx context.Context, userID uuid.UUID, groupName string) error {
	g, err := s.lookupGroup(ctx, groupName)
	if err != nil {
		return err
	}
	return s.groups.AddMember(ctx, userID, g.ID)
}

// GrantGroup adds the user with the given registration to a group.
// Granting an existing membership is a no-op.
func (s *Service) GrantGroup(ctx context.Context, registration, groupName string) error {
	u, err := s.users.GetByRegistration(ctx, registration)
	if err != nil {
		return err
	}
	return s.grant(ctx, u.ID, groupName)
}

func (s *Service) RevokeGroup(ctx context.Context, registration, groupName string) error {
	u, err := s.users.GetByRegistration(ctx, registration)
	if err != nil {
		return err
	}
	g, err := s.lookupGroup(ctx, groupName)
	if err != nil {
		return err
	}
	return s.groups.RemoveMember(ctx, u.ID, g.ID)
}

func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.groups.List(ctx)
}
