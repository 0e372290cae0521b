package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/db/dbtest"
	"github.com/gelson35/GestaoSaude-backend/pkg/pagination"
)

// -- Mock Repositories --

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func (m *mockUserRepo) Snapshot() func() {
	saved := lo.Assign(m.users)
	return func() { m.users = saved }
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, other := range m.users {
		if other.Registration == u.Registration {
			return &apierr.ConflictError{Fields: []string{"matricula"}}
		}
		if other.Email == u.Email {
			return &apierr.ConflictError{Fields: []string{"email"}}
		}
	}
	u.ID = uuid.New()
	u.DateJoined = time.Now()
	cp := *u
	cp.Groups = nil
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apierr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByRegistration(_ context.Context, registration string) (*User, error) {
	for _, u := range m.users {
		if u.Registration == registration {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apierr.ErrNotFound
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	items := lo.Map(lo.Values(m.users), func(u *User, _ int) *User { cp := *u; return &cp })
	return pagination.Page(items, limit, offset), len(items), nil
}

func (m *mockUserRepo) TouchLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

type membership struct{ user, group uuid.UUID }

type mockGroupRepo struct {
	groups  []Group
	members map[membership]bool
}

func newMockGroupRepo() *mockGroupRepo {
	names := []string{auth.GroupAdministration, auth.GroupDoctor, auth.GroupNurse, auth.GroupNursingTech, auth.GroupDriver}
	return &mockGroupRepo{
		groups:  lo.Map(names, func(n string, _ int) Group { return Group{ID: uuid.New(), Name: n} }),
		members: map[membership]bool{},
	}
}

func (m *mockGroupRepo) Snapshot() func() {
	saved := lo.Assign(m.members)
	return func() { m.members = saved }
}

func (m *mockGroupRepo) List(context.Context) ([]Group, error) {
	return append([]Group(nil), m.groups...), nil
}

func (m *mockGroupRepo) GetByName(_ context.Context, name string) (*Group, error) {
	g, ok := lo.Find(m.groups, func(g Group) bool { return g.Name == name })
	if !ok {
		return nil, apierr.ErrNotFound
	}
	return &g, nil
}

func (m *mockGroupRepo) AddMember(_ context.Context, userID, groupID uuid.UUID) error {
	m.members[membership{userID, groupID}] = true
	return nil
}

func (m *mockGroupRepo) RemoveMember(_ context.Context, userID, groupID uuid.UUID) error {
	delete(m.members, membership{userID, groupID})
	return nil
}

func (m *mockGroupRepo) ForUsers(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]Group, error) {
	out := map[uuid.UUID][]Group{}
	for _, id := range userIDs {
		for _, g := range m.groups {
			if m.members[membership{id, g.ID}] {
				out[id] = append(out[id], g)
			}
		}
	}
	return out, nil
}

type testEnv struct {
	svc     *Service
	users   *mockUserRepo
	groups  *mockGroupRepo
	tokens  *auth.TokenIssuer
	revoked *auth.MemoryRevocationStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:   &mockUserRepo{users: map[uuid.UUID]*User{}},
		groups:  newMockGroupRepo(),
		tokens:  auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), "gestao-saude-test", time.Hour),
		revoked: auth.NewMemoryRevocationStore(),
	}
	t.Cleanup(env.revoked.Close)
	env.svc = NewService(env.users, env.groups, env.tokens, env.revoked,
		dbtest.NewTransactor(env.users, env.groups), zerolog.Nop())
	env.svc.cost = bcrypt.MinCost
	return env
}

func newUser(registration string) *NewUser {
	return &NewUser{
		Registration: registration,
		FullName:     "Usuário " + registration,
		Email:        registration + "@samu.example.org",
		Password:     "plantao-seguro",
	}
}

// -- Validation Tests --

func TestNewUser_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(n *NewUser)
		field  string
	}{
		{"registration too long", func(n *NewUser) { n.Registration = "1234567" }, "matricula"},
		{"missing registration", func(n *NewUser) { n.Registration = " " }, "matricula"},
		{"cpf with letters", func(n *NewUser) { n.CPF = lo.ToPtr("1234567890a") }, "cpf"},
		{"short cpf", func(n *NewUser) { n.CPF = lo.ToPtr("123") }, "cpf"},
		{"bad email", func(n *NewUser) { n.Email = "not-an-email" }, "email"},
		{"short password", func(n *NewUser) { n.Password = "abc" }, "password"},
		{"missing name", func(n *NewUser) { n.FullName = "" }, "nome_completo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newUser("000001")
			tt.mutate(n)
			err := n.Validate()
			var v *apierr.ValidationError
			require.ErrorAs(t, err, &v)
			assert.Contains(t, v.Fields, tt.field)
		})
	}
	assert.NoError(t, newUser("000001").Validate())
}

// -- User Tests --

func TestService_CreateUser_HashesAndGroups(t *testing.T) {
	env := newTestEnv(t)
	u, err := env.svc.CreateUser(context.Background(), newUser("000010"), auth.GroupDoctor)
	require.NoError(t, err)

	stored := env.users.users[u.ID]
	assert.NotEqual(t, "plantao-seguro", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("plantao-seguro")))
	assert.True(t, stored.IsActive)
	assert.False(t, stored.IsStaff)
	assert.Equal(t, []string{auth.GroupDoctor}, u.GroupNames())
}

func TestService_CreateUser_SuperuserIsStaff(t *testing.T) {
	env := newTestEnv(t)
	n := newUser("000001")
	n.Superuser = true
	u, err := env.svc.CreateUser(context.Background(), n)
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
	management, clinical := u.Roles()
	assert.True(t, management)
	assert.False(t, clinical)
}

func TestService_CreateUser_UnknownGroupRollsBack(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CreateUser(context.Background(), newUser("000010"), auth.GroupNurse, "Farmacêutico")
	var v *apierr.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "group")
	assert.Empty(t, env.users.users)
	assert.Empty(t, env.groups.members)
}

func TestService_CreateUser_DuplicateRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.CreateUser(ctx, newUser("000010"))
	require.NoError(t, err)
	dup := newUser("000010")
	dup.Email = "outro@samu.example.org"
	_, err = env.svc.CreateUser(ctx, dup)
	var conflict *apierr.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"matricula"}, conflict.Fields)
}

func TestService_GrantRevokeGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u, err := env.svc.CreateUser(ctx, newUser("000020"))
	require.NoError(t, err)

	p, err := env.svc.LoadPrincipal(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, p.HasRole())

	require.NoError(t, env.svc.GrantGroup(ctx, "000020", auth.GroupDriver))
	require.NoError(t, env.svc.GrantGroup(ctx, "000020", auth.GroupDriver))
	require.NoError(t, env.svc.GrantGroup(ctx, "000020", auth.GroupAdministration))
	p, err = env.svc.LoadPrincipal(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, p.IsClinical)
	assert.True(t, p.IsManagement)
	assert.Len(t, p.GroupIDs, 2)

	require.NoError(t, env.svc.RevokeGroup(ctx, "000020", auth.GroupAdministration))
	p, err = env.svc.LoadPrincipal(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, p.IsManagement)

	assert.ErrorIs(t, env.svc.GrantGroup(ctx, "999999", auth.GroupDriver), apierr.ErrNotFound)
}

func TestService_LoadPrincipal_Inactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u, err := env.svc.CreateUser(ctx, newUser("000030"), auth.GroupNurse)
	require.NoError(t, err)
	env.users.users[u.ID].IsActive = false

	_, err = env.svc.LoadPrincipal(ctx, u.ID)
	assert.ErrorIs(t, err, apierr.ErrUnauthenticated)
	_, err = env.svc.LoadPrincipal(ctx, uuid.New())
	assert.ErrorIs(t, err, apierr.ErrNotFound)
}

func TestToUserRead_AccessLevel(t *testing.T) {
	tests := []struct {
		name      string
		superuser bool
		groups    []string
		want      string
	}{
		{"superuser", true, nil, auth.AccessManagement},
		{"administration", false, []string{auth.GroupAdministration}, auth.AccessManagement},
		{"both roles", false, []string{auth.GroupAdministration, auth.GroupNurse}, auth.AccessManagement},
		{"clinical", false, []string{auth.GroupNursingTech}, auth.AccessClinical},
		{"none", false, nil, auth.AccessNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{
				IsSuperuser: tt.superuser,
				Groups:      lo.Map(tt.groups, func(n string, _ int) Group { return Group{ID: uuid.New(), Name: n} }),
			}
			r := ToUserRead(u)
			assert.Equal(t, tt.want, r.AccessLevel)
			assert.NotNil(t, r.Groups)
		})
	}
}

// -- Authentication Tests --

func TestService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u, err := env.svc.CreateUser(ctx, newUser("000040"), auth.GroupDoctor)
	require.NoError(t, err)

	resp, err := env.svc.Login(ctx, "000040", "plantao-seguro")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	claims, err := env.tokens.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.Subject)
	assert.NotNil(t, env.users.users[u.ID].LastLogin)

	_, err = env.svc.Login(ctx, "000040", "senha-errada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.svc.Login(ctx, "999999", "plantao-seguro")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	env.users.users[u.ID].IsActive = false
	_, err = env.svc.Login(ctx, "000040", "plantao-seguro")
	assert.ErrorIs(t, err, apierr.ErrUnauthenticated)
}

func TestService_Logout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := &auth.Principal{UserID: uuid.New(), TokenID: uuid.NewString(), TokenExpiresAt: time.Now().Add(time.Hour)}

	require.NoError(t, env.svc.Logout(ctx, p))
	revoked, err := env.revoked.IsRevoked(ctx, p.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, env.svc.Logout(ctx, nil), apierr.ErrUnauthenticated)
}
