package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const seedSuffix = "_seed.sql"

// Migration is one versioned schema file. Version is the file name.
type Migration struct {
	Version string
	SQL     string
	Objects []string
}

var createStmt = regexp.MustCompile(`(?i)\bCREATE\s+(?:UNIQUE\s+)?(TABLE|INDEX)\s+(?:IF\s+NOT\s+EXISTS\s+)?([A-Za-z_][A-Za-z0-9_.]*)`)

// LoadMigrations reads every *.sql file at the root of fsys in name order.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		contents, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, Migration{
			Version: name,
			SQL:     string(contents),
			Objects: schemaObjects(string(contents)),
		})
	}
	return migrations, nil
}

// schemaObjects lists the tables and indexes a migration creates, in order,
// as "table videos" or "index videos_published_at_idx".
func schemaObjects(sql string) []string {
	var objects []string
	for _, match := range createStmt.FindAllStringSubmatch(sql, -1) {
		objects = append(objects, strings.ToLower(match[1])+" "+match[2])
	}
	return objects
}

// SeedNames lists the seeds in fsys by short name: dev_seed.sql is "dev".
func SeedNames(fsys fs.FS) ([]string, error) {
	files, err := fs.Glob(fsys, "*"+seedSuffix)
	if err != nil {
		return nil, fmt.Errorf("list seeds: %w", err)
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, strings.TrimSuffix(file, seedSuffix))
	}
	return names, nil
}

// LoadSeed returns the SQL of the named seed. Both "dev" and "dev_seed.sql"
// name the same file.
func LoadSeed(fsys fs.FS, name string) (string, error) {
	file := path.Base(name)
	if !strings.HasSuffix(file, ".sql") {
		file += seedSuffix
	}
	contents, err := fs.ReadFile(fsys, file)
	if errors.Is(err, fs.ErrNotExist) {
		available, _ := SeedNames(fsys)
		return "", fmt.Errorf("unknown seed %q (available: %s)", name, strings.Join(available, ", "))
	}
	if err != nil {
		return "", fmt.Errorf("read seed %s: %w", file, err)
	}
	return string(contents), nil
}

// Migrator records applied versions in schema_migrations and applies new
// ones in serializable transactions, retrying transient conflicts.
type Migrator struct {
	Pool     Pool
	Attempts uint64
	Backoff  time.Duration
}

// NewMigrator constructs a Migrator that tries each migration three times.
func NewMigrator(pool Pool) *Migrator {
	return &Migrator{Pool: pool, Attempts: 3, Backoff: 100 * time.Millisecond}
}

// Applied returns when each recorded version was applied.
func (m *Migrator) Applied(ctx context.Context) (map[string]time.Time, error) {
	conn, err := m.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var version string
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

// Apply runs migration and records its version in one transaction.
func (m *Migrator) Apply(ctx context.Context, migration Migration) error {
	return m.inTx(ctx, "apply migration "+migration.Version, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, migration.SQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, migration.Version)
		return err
	})
}

// Seed runs seed SQL in one transaction.
func (m *Migrator) Seed(ctx context.Context, name, sql string) error {
	return m.inTx(ctx, "apply seed "+name, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, sql)
		return err
	})
}

func (m *Migrator) inTx(ctx context.Context, what string, fn func(pgx.Tx) error) error {
	conn, err := m.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	operation := func() error {
		err := pgx.BeginTxFunc(ctx, conn, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
		if err != nil && !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(operation, m.policy(ctx)); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func (m *Migrator) policy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	if m.Backoff > 0 {
		policy.InitialInterval = m.Backoff
	}
	policy.MaxInterval = 3 * time.Second
	policy.MaxElapsedTime = 0

	attempts := m.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(policy, attempts-1), ctx)
}

var retryableCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// Retryable reports whether err is a transient conflict worth another attempt.
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryableCodes[pgErr.Code]
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed)
}
