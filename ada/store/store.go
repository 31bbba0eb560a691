package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrStorage wraps every failure reported by the database.
var ErrStorage = errors.New("storage error")

// Saver persists completed reservations.
type Saver interface {
	Save(ctx context.Context, rec Record) (int64, error)
	Ping(ctx context.Context) error
}

var _ Saver = (*Store)(nil)

type Config struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Name     string `yaml:"name" mapstructure:"name"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
	// create the schema on start
	Migrate bool `yaml:"migrate" mapstructure:"migrate"`
}

func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		sslMode,
	)
}

type Store struct {
	db *sqlx.DB
}

// New wrap an existing connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connect to postgres and verify the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", ErrStorage, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrStorage, err)
	}

	slog.Info("database connected", "host", cfg.Host, "name", cfg.Name)
	return New(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrStorage, err)
	}
	return nil
}

// Migrate create the reservations table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: migrate: %w", ErrStorage, err)
	}
	return nil
}

// Save insert rec in its own transaction and return the assigned id.
// The transaction is always released: committed on success, rolled back otherwise.
func (s *Store) Save(ctx context.Context, rec Record) (id int64, err error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", ErrStorage, err)
	}
	// no-op once committed
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("rollback failed", "error", rbErr, "cause", err)
		}
	}()

	query, args, err := tx.BindNamed(insertReservation, rec)
	if err != nil {
		return 0, fmt.Errorf("bind reservation: %w", err)
	}

	if err = tx.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%w: insert: %w", ErrStorage, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", ErrStorage, err)
	}

	return id, nil
}

// Recent return the latest reservations, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	out := []Record{}
	if err := s.db.SelectContext(ctx, &out, selectRecent, limit); err != nil {
		return nil, fmt.Errorf("%w: select: %w", ErrStorage, err)
	}
	return out, nil
}
