package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/migrations"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

// migrationsDir is where new migrations are written; applied ones are embedded
const migrationsDir = "./migrations"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the MiniFörvaltaren PostgreSQL schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		gooseCmd("up", "Apply all pending migrations", func(db *sql.DB) error {
			if err := goose.Up(db, "."); err != nil {
				return fmt.Errorf("failed to run up migrations: %w", err)
			}
			fmt.Println("Migrations applied successfully")
			return nil
		}),
		gooseCmd("down", "Roll back the latest migration", func(db *sql.DB) error {
			if err := goose.Down(db, "."); err != nil {
				return fmt.Errorf("failed to run down migration: %w", err)
			}
			fmt.Println("Migration rolled back successfully")
			return nil
		}),
		gooseCmd("status", "Show applied and pending migrations", func(db *sql.DB) error {
			if err := goose.Status(db, "."); err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			return nil
		}),
		gooseCmd("version", "Print the current schema version", func(db *sql.DB) error {
			if err := goose.Version(db, "."); err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			return nil
		}),
		createCmd(),
	)

	return root
}

// gooseCmd wraps a goose operation that runs against the configured database
// using the embedded migration files.
func gooseCmd(use, short string, fn func(db *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			goose.SetBaseFS(migrations.FS)
			if err := goose.SetDialect("postgres"); err != nil {
				return fmt.Errorf("failed to set dialect: %w", err)
			}
			return fn(db)
		},
	}
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new SQL migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Creation writes to disk, not to the embedded FS
			goose.SetBaseFS(nil)
			if err := goose.Create(nil, migrationsDir, args[0], "sql"); err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}
			fmt.Printf("Migration created: %s\n", args[0])
			return nil
		},
	}
}

func openDB() (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
