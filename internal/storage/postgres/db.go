// Package postgres implements the storage interfaces on PostgreSQL via
// database/sql and lib/pq.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id            TEXT PRIMARY KEY,
//	    username      TEXT NOT NULL,
//	    email         TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE accounts (
//	    id         TEXT PRIMARY KEY,
//	    user_id    TEXT NOT NULL REFERENCES users(id),
//	    balance    NUMERIC NOT NULL CHECK (balance >= 0),
//	    currency   TEXT NOT NULL,
//	    version    BIGINT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE transactions (
//	    id              TEXT PRIMARY KEY,
//	    sequence        BIGSERIAL,
//	    from_account_id TEXT NOT NULL,
//	    to_account_id   TEXT NOT NULL,
//	    amount          NUMERIC NOT NULL,
//	    currency        TEXT NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL
//	);
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // postgres driver
)

// Open connects to PostgreSQL and verifies the connection with a ping.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}
