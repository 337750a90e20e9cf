package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"unimarket-backend/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository can run
// standalone or inside a Store transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements repository.Store on PostgreSQL.
type Store struct {
	db       *sql.DB // nil when this view is bound to an open transaction
	accounts repository.AccountRepository
	listings repository.ListingRepository
	orders   repository.OrderRepository
	ledger   repository.LedgerRepository
	reviews  repository.ReviewRepository
}

func NewStore(db *sql.DB) *Store {
	return newStore(db, db)
}

func newStore(db *sql.DB, q DBTX) *Store {
	return &Store{
		db:       db,
		accounts: NewAccountRepository(q),
		listings: NewListingRepository(q),
		orders:   NewOrderRepository(q),
		ledger:   NewLedgerRepository(q),
		reviews:  NewReviewRepository(q),
	}
}

func (s *Store) Accounts() repository.AccountRepository { return s.accounts }
func (s *Store) Listings() repository.ListingRepository { return s.listings }
func (s *Store) Orders() repository.OrderRepository     { return s.orders }
func (s *Store) Ledger() repository.LedgerRepository    { return s.ledger }
func (s *Store) Reviews() repository.ReviewRepository   { return s.reviews }

// ExecTx runs fn inside a database transaction. A Store view already bound
// to a transaction reuses it, so services can compose helpers freely.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := newStore(nil, tx)
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w, rollback err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
