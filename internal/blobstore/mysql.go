package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const stateSchema = `
CREATE TABLE IF NOT EXISTS app_state (
    name VARCHAR(64) PRIMARY KEY,
    data MEDIUMBLOB NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
);
`

// MySQLStore keeps the snapshot in a one-row key-value table. The
// database is a blob host here, not a relational model of the state.
type MySQLStore struct {
	db   *sql.DB
	name string
}

func NewMySQLStore(dsn, name string) (*MySQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql dsn is required")
	}
	if name == "" {
		name = "shanto-ai-state"
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetConnMaxLifetime(time.Minute * 5)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	if _, err := db.ExecContext(ctx, stateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply state schema: %w", err)
	}
	return &MySQLStore{db: db, name: name}, nil
}

func (s *MySQLStore) Load(ctx context.Context) ([]byte, error) {
	const query = `SELECT data FROM app_state WHERE name = ?`
	var data []byte
	if err := s.db.QueryRowContext(ctx, query, s.name).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select state row: %w", err)
	}
	return data, nil
}

func (s *MySQLStore) Save(ctx context.Context, data []byte) error {
	const query = `
INSERT INTO app_state (name, data) VALUES (?, ?)
ON DUPLICATE KEY UPDATE data = VALUES(data)`
	if _, err := s.db.ExecContext(ctx, query, s.name, data); err != nil {
		return fmt.Errorf("upsert state row: %w", err)
	}
	return nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
