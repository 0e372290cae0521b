package identity

import (
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
)

type Group struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// User is a staff member. The registration number (matricula) is the login.
type User struct {
	ID           uuid.UUID
	Registration string
	CPF          *string
	FullName     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	DateJoined   time.Time
	LastLogin    *time.Time

	Groups []Group
}

func (u *User) GroupNames() []string {
	return lo.Map(u.Groups, func(g Group, _ int) string { return g.Name })
}

func (u *User) Roles() (management, clinical bool) {
	return auth.DeriveRoles(u.IsSuperuser, u.GroupNames())
}

func (u *User) Principal() *auth.Principal {
	ids := lo.Map(u.Groups, func(g Group, _ int) uuid.UUID { return g.ID })
	return auth.NewPrincipal(u.ID, u.Registration, u.FullName, u.IsSuperuser, ids, u.GroupNames())
}

// NewUser is the input of user creation.
type NewUser struct {
	Registration string
	CPF          *string
	FullName     string
	Email        string
	Password     string
	Superuser    bool
}

const minPasswordLen = 8

func (n *NewUser) Validate() error {
	v := &apierr.ValidationError{}
	switch {
	case strings.TrimSpace(n.Registration) == "":
		v.Add("matricula", "this field is required")
	case utf8.RuneCountInString(n.Registration) > 6:
		v.Add("matricula", "ensure this field has no more than 6 characters")
	}
	if n.CPF != nil {
		if len(*n.CPF) != 11 || strings.IndexFunc(*n.CPF, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
			v.Add("cpf", "must be 11 digits")
		}
	}
	switch {
	case strings.TrimSpace(n.FullName) == "":
		v.Add("nome_completo", "this field is required")
	case utf8.RuneCountInString(n.FullName) > 255:
		v.Add("nome_completo", "ensure this field has no more than 255 characters")
	}
	if _, err := mail.ParseAddress(n.Email); err != nil || len(n.Email) > 254 {
		v.Add("email", "enter a valid email address")
	}
	if utf8.RuneCountInString(n.Password) < minPasswordLen {
		v.Add("password", "ensure this field has at least 8 characters")
	}
	return v.Err()
}
