package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller, resolved once per request.
type Principal struct {
	UserID       uuid.UUID
	Registration string
	FullName     string
	GroupIDs     []uuid.UUID
	GroupNames   []string
	IsSuperuser  bool
	IsManagement bool
	IsClinical   bool

	TokenID        string
	TokenExpiresAt time.Time
}

func NewPrincipal(userID uuid.UUID, registration, fullName string, superuser bool, groupIDs []uuid.UUID, groupNames []string) *Principal {
	management, clinical := DeriveRoles(superuser, groupNames)
	return &Principal{
		UserID:       userID,
		Registration: registration,
		FullName:     fullName,
		GroupIDs:     groupIDs,
		GroupNames:   groupNames,
		IsSuperuser:  superuser,
		IsManagement: management,
		IsClinical:   clinical,
	}
}

// HasRole reports whether the caller holds at least one of the two roles.
func (p *Principal) HasRole() bool {
	return p != nil && (p.IsManagement || p.IsClinical)
}

func (p *Principal) InGroup(id uuid.UUID) bool {
	return p != nil && lo.Contains(p.GroupIDs, id)
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller, or nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
