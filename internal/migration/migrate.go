package migration

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/wired-social/auth-service/internal/config"
)

// Migrator applies the goose SQL migrations under migrations/ to the
// auth database.
type Migrator struct {
	db            *sql.DB
	migrationsDir string
}

func NewMigrator(config *config.DatabaseConfig) (*Migrator, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		config.Host,
		config.User,
		config.Password,
		config.Name,
		config.Port,
		config.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}

	dir, err := getMigrationsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate migrations directory: %w", err)
	}

	return &Migrator{
		db:            db,
		migrationsDir: dir,
	}, nil
}

func (m *Migrator) Up() error {
	if err := goose.Up(m.db, m.migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Down() error {
	if err := goose.Down(m.db, m.migrationsDir); err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Status() error {
	if err := goose.Status(m.db, m.migrationsDir); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

// Version returns the version currently recorded in the database.
func (m *Migrator) Version() (int64, error) {
	return goose.GetDBVersion(m.db)
}

// LatestVersion returns the newest version available on disk.
func (m *Migrator) LatestVersion() (int64, error) {
	migrations, err := goose.CollectMigrations(m.migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return 0, err
	}
	if len(migrations) == 0 {
		return 0, nil
	}
	return migrations[len(migrations)-1].Version, nil
}

// Reset rolls every migration back and reapplies them from scratch.
func (m *Migrator) Reset() error {
	if err := goose.Reset(m.db, m.migrationsDir); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return m.Up()
}

func (m *Migrator) Close() error {
	return m.db.Close()
}
