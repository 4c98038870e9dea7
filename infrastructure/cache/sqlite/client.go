// ABOUTME: SQLite-based cache implementation for persistent favicon caching
// ABOUTME: Provides a file-based cache that survives restarts, using only parameterized queries

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultCleanupInterval is how often expired rows are purged
const DefaultCleanupInterval = 5 * time.Minute

// ErrKeyNotFound is returned for missing or expired keys
var ErrKeyNotFound = errors.New("key not found or expired")

// Options configures a SQLite cache
type Options struct {
	// Path is the database file. ":memory:" keeps the cache in process.
	Path string
	// Table holds the entries, DefaultTable when empty
	Table string
	// CleanupInterval is how often expired rows are purged
	CleanupInterval time.Duration
	// Logger receives cleanup failures and odd keys. Optional.
	Logger Logger
}

// Client implements the Cache interface using SQLite
type Client struct {
	db       *sql.DB
	filePath string
	logger   Logger
	stmts    *statements

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSQLiteCache creates a new SQLite cache client
func NewSQLiteCache(filePath string) (*Client, error) {
	return New(Options{Path: filePath})
}

// NewSQLiteCacheWithLogger creates a cache that reports odd keys to logger
func NewSQLiteCacheWithLogger(filePath string, logger Logger) (*Client, error) {
	return New(Options{Path: filePath, Logger: logger})
}

// New opens (or creates) the cache database described by opts
func New(opts Options) (*Client, error) {
	if opts.Path == "" {
		opts.Path = "favicons.db"
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}

	stmts, err := newStatements(opts.Table)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	if _, err := db.Exec(stmts.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	client := &Client{
		db:       db,
		filePath: opts.Path,
		logger:   opts.Logger,
		stmts:    stmts,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go client.cleanupRoutine(opts.CleanupInterval)

	return client, nil
}

// Get retrieves a value from the cache
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key, c.logger); err != nil {
		return nil, err
	}

	var value []byte
	err := c.db.QueryRowContext(ctx, c.stmts.get, key, time.Now().Unix()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %w", err)
	}

	return value, nil
}

// Set stores a value in the cache with TTL. A non-positive TTL never expires.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := validateKey(key, c.logger); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}

	expiry := int64(math.MaxInt64)
	if ttl > 0 {
		expiry = time.Now().Add(ttl).Unix()
	}

	if _, err := c.db.ExecContext(ctx, c.stmts.set, key, value, expiry); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}

	return nil
}

// Delete removes a value from the cache
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := validateKey(key, c.logger); err != nil {
		return err
	}

	if _, err := c.db.ExecContext(ctx, c.stmts.delete, key); err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}

	return nil
}

// Clear removes all values from the cache
func (c *Client) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, c.stmts.clear); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (c *Client) cleanupRoutine(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if _, err := c.cleanup(); err != nil && c.logger != nil {
				c.logger.Warn("SQLite cache cleanup failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

// cleanup removes expired entries and reports how many were dropped
func (c *Client) cleanup() (int64, error) {
	result, err := c.db.Exec(c.stmts.cleanup, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close stops the cleanup routine and closes the database connection
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		<-c.done
		err = c.db.Close()
	})
	return err
}

// Stats returns cache statistics
func (c *Client) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var count int
	if err := c.db.QueryRow(c.stmts.count).Scan(&count); err != nil {
		return nil, err
	}
	stats["total_entries"] = count

	var expired int
	if err := c.db.QueryRow(c.stmts.countExpired, time.Now().Unix()).Scan(&expired); err != nil {
		return nil, err
	}
	stats["expired_entries"] = expired

	var pageCount, pageSize int
	if err := c.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := c.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err == nil {
			stats["db_size_bytes"] = pageCount * pageSize
		}
	}

	stats["file_path"] = c.filePath

	return stats, nil
}
