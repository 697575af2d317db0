// wiresafectl is the operations CLI: schema migration and environment
// seeding for local and staging databases.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexp-buildit/WireSafe-Portal/internal/config"
	"github.com/alexp-buildit/WireSafe-Portal/internal/secure"
)

func main() {
	root := &cobra.Command{
		Use:           "wiresafectl",
		Short:         "Operations CLI for the WireSafe portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var envFile string
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "optional env file to load before reading configuration")

	root.AddCommand(migrateCommand(&envFile))
	root.AddCommand(seedCommand(&envFile))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openDatabase(envFile string) (*sql.DB, *config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, cfg, nil
}

func migrateCommand(envFile *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDatabase(*envFile)
			if err != nil {
				return err
			}
			defer db.Close()
			return runMigrations(cmd.Context(), db, dir, cmd)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "directory containing .sql migration files")
	return cmd
}

func runMigrations(ctx context.Context, db *sql.DB, dir string, cmd *cobra.Command) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var applied bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name = $1)`, name,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", name, err)
		}
		if applied {
			cmd.Printf("skip %s (already applied)\n", name)
			continue
		}

		script, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(script)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (name) VALUES ($1)`, name,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", name, err)
		}
		cmd.Printf("applied %s\n", name)
	}
	return nil
}

// seedFile is the YAML shape consumed by the seed command.
type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Username    string   `yaml:"username"`
	Email       string   `yaml:"email"`
	Password    string   `yaml:"password"`
	FirstName   string   `yaml:"firstName"`
	LastName    string   `yaml:"lastName"`
	PhoneNumber string   `yaml:"phoneNumber"`
	CompanyName string   `yaml:"companyName"`
	Roles       []string `yaml:"roles"`
}

func seedCommand(envFile *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create users from a YAML seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}
			var seed seedFile
			if err := yaml.Unmarshal(raw, &seed); err != nil {
				return fmt.Errorf("failed to parse seed file: %w", err)
			}

			db, _, err := openDatabase(*envFile)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			return seedUsers(ctx, db, seed.Users, cmd)
		},
	}
	cmd.Flags().StringVar(&file, "file", "seed.yaml", "YAML file describing users to create")
	return cmd
}

func seedUsers(ctx context.Context, db *sql.DB, users []seedUser, cmd *cobra.Command) error {
	for _, u := range users {
		if u.Username == "" || u.Email == "" || u.Password == "" {
			return fmt.Errorf("seed user missing username, email or password")
		}
		hash, err := secure.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", u.Username, err)
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO users (id, username, email, password_hash, first_name, last_name, phone_number, company_name, roles)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
			ON CONFLICT (username) DO NOTHING
		`,
			uuid.New().String(), u.Username, u.Email, hash,
			u.FirstName, u.LastName, u.PhoneNumber, u.CompanyName,
			pq.Array(u.Roles),
		)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
		cmd.Printf("seeded %s\n", u.Username)
	}
	return nil
}
