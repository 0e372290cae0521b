package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gelson35/GestaoSaude-backend/internal/config"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/identity"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/db"
	"github.com/gelson35/GestaoSaude-backend/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gestao-server",
		Short: "EMS shift, incident and patient records API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// openDB loads the configuration and connects to Postgres.
func openDB(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

// migrationFiles returns the embedded schema unless MIGRATIONS_DIR points
// elsewhere.
func migrationFiles(cfg *config.Config) fs.FS {
	if cfg.MigrationsDir != "" {
		return os.DirFS(cfg.MigrationsDir)
	}
	return migrations.FS
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrationFiles(cfg)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationFiles(cfg)).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

// identityService builds the identity service for CLI use. Tokens are not
// issued from the CLI, so no revocation store is needed.
func identityService(cfg *config.Config, pool *pgxpool.Pool) *identity.Service {
	return identity.NewService(
		identity.NewUserRepoPG(pool),
		identity.NewGroupRepoPG(pool),
		auth.NewTokenIssuer([]byte(cfg.AuthSigningKey), cfg.AuthIssuer, cfg.AuthTokenTTL),
		nil,
		db.NewTransactor(pool),
		newLogger(cfg),
	)
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			registration, _ := flags.GetString("matricula")
			name, _ := flags.GetString("nome")
			email, _ := flags.GetString("email")
			password, _ := flags.GetString("password")
			cpf, _ := flags.GetString("cpf")
			superuser, _ := flags.GetBool("superuser")
			groups, _ := flags.GetStringSlice("group")
			if password == "" {
				password = os.Getenv("GESTAO_USER_PASSWORD")
			}

			ctx := cmd.Context()
			cfg, pool, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			n := &identity.NewUser{
				Registration: registration,
				FullName:     name,
				Email:        email,
				Password:     password,
				Superuser:    superuser,
			}
			if cpf != "" {
				n.CPF = &cpf
			}
			u, err := identityService(cfg, pool).CreateUser(ctx, n, groups...)
			if err != nil {
				return err
			}
			fmt.Printf("Created user %s (%s) groups=[%s]\n", u.Registration, u.ID, strings.Join(u.GroupNames(), ", "))
			return nil
		},
	}
	createCmd.Flags().String("matricula", "", "Registration number (login, up to 6 characters)")
	createCmd.Flags().String("nome", "", "Full name")
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("password", "", "Password (or GESTAO_USER_PASSWORD)")
	createCmd.Flags().String("cpf", "", "CPF, 11 digits")
	createCmd.Flags().Bool("superuser", false, "Grant superuser (implies staff)")
	createCmd.Flags().StringSlice("group", nil, "Group name; may be repeated")
	_ = createCmd.MarkFlagRequired("matricula")
	_ = createCmd.MarkFlagRequired("nome")
	_ = createCmd.MarkFlagRequired("email")
	cmd.AddCommand(createCmd)

	membership := func(use, short string, apply func(s *identity.Service, ctx context.Context, registration, group string) error) *cobra.Command {
		c := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				registration, _ := cmd.Flags().GetString("matricula")
				group, _ := cmd.Flags().GetString("group")

				ctx := cmd.Context()
				cfg, pool, err := openDB(ctx)
				if err != nil {
					return err
				}
				defer pool.Close()

				if err := apply(identityService(cfg, pool), ctx, registration, group); err != nil {
					return err
				}
				fmt.Printf("%s: %s %s\n", use, registration, group)
				return nil
			},
		}
		c.Flags().String("matricula", "", "Registration number")
		c.Flags().String("group", "", fmt.Sprintf("Group name, e.g. %q", auth.GroupAdministration))
		_ = c.MarkFlagRequired("matricula")
		_ = c.MarkFlagRequired("group")
		return c
	}
	cmd.AddCommand(membership("grant", "Add a user to a group", (*identity.Service).GrantGroup))
	cmd.AddCommand(membership("revoke", "Remove a user from a group", (*identity.Service).RevokeGroup))

	return cmd
}
