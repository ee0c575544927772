// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	dbDriver   = "mysql"
	dbPoolSize = 4
	dbConnLife = 30 * time.Minute
	dbTimeout  = 5
)

var ErrBadHostname = fmt.Errorf("hostname is required")

// SQLClient wraps a MySQL/MariaDB connection used by the SQL-backed table
// accessor.
type SQLClient struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLClient opens a connection to hostname (host or host:port) and
// verifies it with a ping. timeout is in seconds; values < 1 use the default.
func NewSQLClient(hostname, user, pwd string, timeout int, dbName string) (*SQLClient, error) {
	if hostname == "" {
		return nil, ErrBadHostname
	}

	dsn := fmt.Sprintf("tcp(%s)/%s?parseTime=true", hostname, dbName)
	if user != "" {
		if pwd != "" {
			user += ":" + pwd
		}
		dsn = user + "@" + dsn
	}

	db, err := sql.Open(dbDriver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(dbConnLife)
	db.SetMaxOpenConns(dbPoolSize)
	db.SetMaxIdleConns(dbPoolSize)

	if timeout < 1 {
		timeout = dbTimeout
	}

	sc := &SQLClient{
		db:      db,
		timeout: time.Duration(timeout) * time.Second,
	}

	if err = sc.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sc, nil
}

// NewSQLClientFromDB wraps an existing connection (used by tests).
func NewSQLClientFromDB(db *sql.DB, timeout int) *SQLClient {
	if timeout < 1 {
		timeout = dbTimeout
	}
	return &SQLClient{
		db:      db,
		timeout: time.Duration(timeout) * time.Second,
	}
}

func (sc *SQLClient) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), sc.timeout)
}

func (sc *SQLClient) GetDB() *sql.DB {
	return sc.db
}

func (sc *SQLClient) Ping() error {
	ctx, cancel := sc.Context()
	defer cancel()
	return sc.db.PingContext(ctx)
}

func (sc *SQLClient) Close() error {
	if sc.db != nil {
		err := sc.db.Close()
		sc.db = nil
		return err
	}
	return nil
}
