package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"unimarket-backend/internal/domain"
)

type ledgerRepo struct {
	s *Store
}

func (r *ledgerRepo) Credit(ctx context.Context, accountID, amount int64, kind domain.TransactionKind, description string, orderID *int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	defer r.s.wlock()()
	a, ok := r.s.st.accounts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a.BalanceMinor += amount
	return r.append(accountID, amount, kind, description, orderID), nil
}

func (r *ledgerRepo) Debit(ctx context.Context, accountID, amount int64, kind domain.TransactionKind, description string, orderID *int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	defer r.s.wlock()()
	a, ok := r.s.st.accounts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if a.BalanceMinor < amount {
		return nil, domain.ErrInsufficientFunds
	}
	a.BalanceMinor -= amount
	return r.append(accountID, -amount, kind, description, orderID), nil
}

func (r *ledgerRepo) Annotate(ctx context.Context, accountID int64, kind domain.TransactionKind, description string, orderID *int64) (*domain.Transaction, error) {
	defer r.s.wlock()()
	if _, ok := r.s.st.accounts[accountID]; !ok {
		return nil, domain.ErrNotFound
	}
	return r.append(accountID, 0, kind, description, orderID), nil
}

// append assumes the write lock is held.
func (r *ledgerRepo) append(accountID, amount int64, kind domain.TransactionKind, description string, orderID *int64) *domain.Transaction {
	st := r.s.st
	st.nextTxID++
	tx := domain.Transaction{
		ID:          st.nextTxID,
		Reference:   uuid.NewString(),
		AccountID:   accountID,
		Kind:        kind,
		AmountMinor: amount,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if orderID != nil {
		id := *orderID
		tx.OrderID = &id
	}
	st.transactions = append(st.transactions, tx)
	out := copyTransaction(&tx)
	return &out
}

func (r *ledgerRepo) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	defer r.s.rlock()()
	a, ok := r.s.st.accounts[accountID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return a.BalanceMinor, nil
}

func (r *ledgerRepo) ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	defer r.s.rlock()()
	var out []domain.Transaction
	// Newest first.
	for i := len(r.s.st.transactions) - 1; i >= 0; i-- {
		tx := r.s.st.transactions[i]
		if tx.AccountID == accountID {
			out = append(out, copyTransaction(&tx))
		}
	}
	return out, nil
}

func (r *ledgerRepo) SumByAccount(ctx context.Context, accountID int64) (int64, error) {
	defer r.s.rlock()()
	var sum int64
	for _, tx := range r.s.st.transactions {
		if tx.AccountID == accountID {
			sum += tx.AmountMinor
		}
	}
	return sum, nil
}
