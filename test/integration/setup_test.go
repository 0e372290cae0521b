package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gelson35/GestaoSaude-backend/internal/domain/identity"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/shift"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
	"github.com/gelson35/GestaoSaude-backend/migrations"
	"github.com/gelson35/GestaoSaude-backend/pkg/civil"
)

// globalDB is the migrated database shared by every test, initialized once in
// TestMain.
var globalDB *pgxpool.Pool

func TestMain(m *testing.M) {
	if _, err := exec.LookPath("docker"); err != nil {
		fmt.Fprintln(os.Stderr, "docker not found, skipping integration tests")
		os.Exit(0)
	}
	ctx := context.Background()

	connStr, cleanup, err := startPostgresContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup postgres container: %v\n", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, connStr, 10, 1)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "create pool: %v\n", err)
		os.Exit(1)
	}
	if _, err := db.NewMigrator(pool, migrations.FS).Up(ctx); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	globalDB = pool
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// uniqueRegistration returns a fresh six-character matricula.
func uniqueRegistration() string {
	return uuid.New().String()[:6]
}

func identityService() *identity.Service {
	tokens := auth.NewTokenIssuer([]byte("integration-signing-key-0123456789"), "integration", time.Hour)
	return identity.NewService(identity.NewUserRepoPG(globalDB), identity.NewGroupRepoPG(globalDB),
		tokens, auth.NewMemoryRevocationStore(), db.NewTransactor(globalDB), zerolog.Nop())
}

func shiftService() *shift.Service {
	return shift.NewService(shift.NewTeamRepoPG(globalDB), shift.NewItemRepoPG(globalDB),
		shift.NewChecklistRepoPG(globalDB), db.NewTransactor(globalDB))
}

// createTestUser creates an active user in the given groups.
func createTestUser(t *testing.T, ctx context.Context, name string, groups ...string) *identity.User {
	t.Helper()
	reg := uniqueRegistration()
	u, err := identityService().CreateUser(ctx, &identity.NewUser{
		Registration: reg,
		FullName:     name,
		Email:        reg + "@samu.test",
		Password:     "plantao-2024",
	}, groups...)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}

// createTestTeam creates a shift team on a unique vehicle tag.
func createTestTeam(t *testing.T, ctx context.Context, day civil.Date) *shift.ShiftTeam {
	t.Helper()
	driver := createTestUser(t, ctx, "Condutor Teste", auth.GroupDriver)
	tech := createTestUser(t, ctx, "Técnico Teste", auth.GroupNursingTech)
	team := &shift.ShiftTeam{
		VehicleTag:   "USA-" + uuid.New().String()[:6],
		ShiftDate:    day,
		DriverID:     driver.ID,
		TechnicianID: tech.ID,
	}
	if err := shiftService().CreateTeam(ctx, team); err != nil {
		t.Fatalf("create test team: %v", err)
	}
	return team
}

func ptrStr(s string) *string { return &s }

func ptrInt(i int) *int { return &i }

func ptrBool(b bool) *bool { return &b }

func ptrTime(t time.Time) *time.Time { return &t }

func ptrUUID(u uuid.UUID) *uuid.UUID { return &u }
