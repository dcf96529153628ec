// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

// Package store implements the server-side persistence layer of the
// onboarding system over database/sql. Two drivers are supported, selected
// by configuration: pgx (PostgreSQL) for production deployments and
// mattn/go-sqlite3 for single-binary installations and local development.
//
// The schema deliberately keeps three overlapping progress representations
// (legacy flags on the record row, the per-step status table, and the step
// data itself); the repositories write them through separate paths, exactly
// as the evolved production system does, and the consistency auditor
// cross-checks them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"github.com/staylio/villa-onboard/internal/config"
	"github.com/staylio/villa-onboard/internal/logger"
)

// DB wraps the database/sql connection together with the placeholder-aware
// statement builder for the selected dialect.
type DB struct {
	*sql.DB
	builder sq.StatementBuilderType
	driver  string
	logger  *logger.Logger
}

// NewConnect opens a connection to the database selected by cfg.Driver and
// verifies it with a ping. The returned DB carries a squirrel statement
// builder configured with the dialect's placeholder format ($1 for
// PostgreSQL, ? for SQLite).
func NewConnect(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "pgx"
	}

	var placeholder sq.PlaceholderFormat = sq.Dollar
	if driver == "sqlite3" {
		placeholder = sq.Question
	}

	conn, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnect").Str("driver", driver).Msg("error occured during database connection")
		return nil, fmt.Errorf("error occured during database connection: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(4)

	if err := conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnect").Str("driver", driver).Msg("error connecting database (ping)")
		return nil, err
	}
	log.Info().Str("func", "NewConnect").Str("driver", driver).Msg("connected to database successfully")

	return &DB{
		DB:      conn,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		driver:  driver,
		logger:  log,
	}, nil
}

// isUniqueViolation reports whether err is a primary-key or unique-constraint
// violation from either supported driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
