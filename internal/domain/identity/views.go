package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
)

type GroupRead struct {
	Name string `json:"name"`
}

// UserRead is the user listing shape. Password data never leaves the
// service.
type UserRead struct {
	ID           uuid.UUID   `json:"id"`
	Registration string      `json:"matricula"`
	FullName     string      `json:"nome_completo"`
	Email        string      `json:"email"`
	Groups       []GroupRead `json:"groups"`
	AccessLevel  string      `json:"nivel_acesso"`
}

func ToUserRead(u *User) *UserRead {
	management, clinical := u.Roles()
	return &UserRead{
		ID:           u.ID,
		Registration: u.Registration,
		FullName:     u.FullName,
		Email:        u.Email,
		Groups:       lo.Map(u.Groups, func(g Group, _ int) GroupRead { return GroupRead{Name: g.Name} }),
		AccessLevel:  auth.AccessLevel(management, clinical),
	}
}

// MeRead describes the caller, including both role flags.
type MeRead struct {
	UserRead
	IsManagement bool `json:"is_gerencial"`
	IsClinical   bool `json:"is_assistencial"`
	IsSuperuser  bool `json:"is_superuser"`
}

func ToMeRead(u *User) *MeRead {
	management, clinical := u.Roles()
	return &MeRead{
		UserRead:     *ToUserRead(u),
		IsManagement: management,
		IsClinical:   clinical,
		IsSuperuser:  u.IsSuperuser,
	}
}

type TokenRequest struct {
	Registration string `json:"matricula"`
	Password     string `json:"password"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
