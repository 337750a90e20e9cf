package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/repository"
)

type ledgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Credit(ctx context.Context, accountID, amount int64, kind domain.TransactionKind, description string, orderID *int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance_minor = balance_minor + $1 WHERE id = $2`, amount, accountID)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, domain.ErrNotFound
	}

	return r.append(ctx, accountID, amount, kind, description, orderID)
}

func (r *ledgerRepository) Debit(ctx context.Context, accountID, amount int64, kind domain.TransactionKind, description string, orderID *int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	// Guarded decrement: the WHERE clause is the insufficient-funds check, so
	// the balance can never go negative even under concurrent debits.
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance_minor = balance_minor - $1 WHERE id = $2 AND balance_minor >= $1`,
		amount, accountID)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if _, err := r.GetBalance(ctx, accountID); errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrInsufficientFunds
	}

	return r.append(ctx, accountID, -amount, kind, description, orderID)
}

func (r *ledgerRepository) Annotate(ctx context.Context, accountID int64, kind domain.TransactionKind, description string, orderID *int64) (*domain.Transaction, error) {
	return r.append(ctx, accountID, 0, kind, description, orderID)
}

func (r *ledgerRepository) append(ctx context.Context, accountID, amount int64, kind domain.TransactionKind, description string, orderID *int64) (*domain.Transaction, error) {
	tx := &domain.Transaction{
		Reference:   uuid.NewString(),
		AccountID:   accountID,
		Kind:        kind,
		AmountMinor: amount,
		Description: description,
		OrderID:     orderID,
	}
	query := `INSERT INTO transactions (reference, account_id, kind, amount_minor, description, order_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		tx.Reference, tx.AccountID, tx.Kind, tx.AmountMinor, tx.Description, tx.OrderID,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *ledgerRepository) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx, `SELECT balance_minor FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	return balance, err
}

func (r *ledgerRepository) ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	query := `SELECT id, reference, account_id, kind, amount_minor, COALESCE(description, ''), order_id, created_at
	          FROM transactions WHERE account_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.Reference, &tx.AccountID, &tx.Kind, &tx.AmountMinor, &tx.Description, &tx.OrderID, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *ledgerRepository) SumByAccount(ctx context.Context, accountID int64) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_minor), 0) FROM transactions WHERE account_id = $1`, accountID).Scan(&sum)
	return sum, err
}
