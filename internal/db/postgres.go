// Package db provides the PostgreSQL client for the balance_api surface:
// allocating new article IDs and executing generated statements.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/finreport-labs/balproc/internal/emit"
)

// Config holds PostgreSQL connection parameters.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// Client wraps one database connection. It implements ident.Allocator.
type Client struct {
	db     *sql.DB
	logger *slog.Logger
}

// Connect opens and pings a PostgreSQL connection.
// If logger is nil, a discard logger is used.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dsn := buildDSN(cfg)
	logger.Debug("connecting to postgres",
		slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Client{db: db, logger: logger}, nil
}

// buildDSN constructs a key=value PostgreSQL connection string.
func buildDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, cfg.Database, sslmode)
	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// NextID allocates one new article ID through the balance_api function.
func (c *Client) NextID(ctx context.Context) (int, error) {
	if c.db == nil {
		return 0, fmt.Errorf("database connection not established")
	}
	var id int
	if err := c.db.QueryRowContext(ctx, "SELECT balance_api.fn_get_new_obj_ids(1)").Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate article ID: %w", err)
	}
	return id, nil
}

// Execute runs all statements in one transaction, rolling back on the
// first failure. Comment-only lines are skipped. Returns the number of
// statements executed.
func (c *Client) Execute(ctx context.Context, statements []emit.Statement) (int, error) {
	if c.db == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	executed := 0
	for i, stmt := range statements {
		text := strings.TrimSpace(stmt.Text)
		if text == "" || strings.HasPrefix(text, "--") {
			continue
		}
		c.logger.Info("executing statement",
			slog.Int("n", i+1), slog.Int("total", len(statements)),
			slog.String("category", stmt.Category.String()))
		if _, err := tx.ExecContext(ctx, text); err != nil {
			return executed, fmt.Errorf("statement %d failed: %w", i+1, err)
		}
		executed++
	}

	if err := tx.Commit(); err != nil {
		return executed, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return executed, nil
}
