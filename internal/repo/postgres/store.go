// Package postgres implements repo.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/kanban-api/internal/repo"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// View runs fn in a read-only REPEATABLE READ transaction so every query it
// issues sees the same committed state.
func (s *Store) View(ctx context.Context, fn func(r repo.Reader) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(&queries{db: tx})
	})
	return mapError(err)
}

// InTx runs fn in a READ COMMITTED transaction. Callers serialize on a
// board with Tx.LockBoard; the deferred unique constraints on positions are
// checked when the transaction commits.
func (s *Store) InTx(ctx context.Context, fn func(t repo.Tx) error) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&queries{db: tx})
	})
	return mapError(err)
}

// dbtx is the subset of pgx.Tx the queries need.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbtx
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrorNotFound) || errors.Is(err, repo.ErrorConflict) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return errors.Join(repo.ErrorConflict, err)
		case codeForeignKeyViolation, codeInvalidText:
			return errors.Join(repo.ErrorNotFound, err)
		}
	}
	return err
}
