package service

import (
	"context"
	"fmt"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/logger"
	"unimarket-backend/internal/repository"
	"unimarket-backend/internal/security"
)

type walletService struct {
	store    repository.Store
	limiter  *security.RateLimiter
	audit    *security.AuditLog
	maxMinor int64
}

func NewWalletService(store repository.Store, limiter *security.RateLimiter, audit *security.AuditLog, maxTransactionMinor int64) WalletService {
	return &walletService{
		store:    store,
		limiter:  limiter,
		audit:    audit,
		maxMinor: maxTransactionMinor,
	}
}

func (s *walletService) validateAmount(amountMinor int64) error {
	if amountMinor <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	if amountMinor > s.maxMinor {
		return fmt.Errorf("%w: amount exceeds the per-transaction limit", domain.ErrInvalidAmount)
	}
	return nil
}

func (s *walletService) TopUp(ctx context.Context, accountID, amountMinor int64) (*domain.Transaction, error) {
	if err := s.limiter.Allow(fmt.Sprintf("wallet:%d", accountID)); err != nil {
		return nil, err
	}
	if err := s.validateAmount(amountMinor); err != nil {
		return nil, err
	}

	account, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.IsBanned() {
		return nil, domain.ErrAccountSuspended
	}
	if account.Role != domain.RoleBuyer {
		s.audit.Record(security.SeverityHigh, fmt.Sprintf("non-buyer account %d attempted a wallet top up", accountID))
		return nil, fmt.Errorf("%w: only buyers can top up", domain.ErrRoleNotAllowed)
	}

	var tx *domain.Transaction
	err = s.store.ExecTx(ctx, func(st repository.Store) error {
		var txErr error
		tx, txErr = st.Ledger().Credit(ctx, accountID, amountMinor, domain.TransactionKindDeposit, "Wallet top up", nil)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	logger.Info("wallet topped up", "account_id", accountID, "amount_minor", amountMinor)
	return tx, nil
}

func (s *walletService) Withdraw(ctx context.Context, accountID, amountMinor int64) (*domain.Transaction, error) {
	if err := s.limiter.Allow(fmt.Sprintf("wallet:%d", accountID)); err != nil {
		return nil, err
	}
	if err := s.validateAmount(amountMinor); err != nil {
		return nil, err
	}

	account, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.IsBanned() {
		return nil, domain.ErrAccountSuspended
	}
	if account.Role != domain.RoleSeller {
		s.audit.Record(security.SeverityHigh, fmt.Sprintf("non-seller account %d attempted a withdrawal", accountID))
		return nil, fmt.Errorf("%w: only sellers can withdraw", domain.ErrRoleNotAllowed)
	}

	var tx *domain.Transaction
	err = s.store.ExecTx(ctx, func(st repository.Store) error {
		var txErr error
		tx, txErr = st.Ledger().Debit(ctx, accountID, amountMinor, domain.TransactionKindWithdrawal, "Withdrawal to bank account", nil)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	logger.Info("withdrawal processed", "account_id", accountID, "amount_minor", amountMinor)
	return tx, nil
}

func (s *walletService) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	return s.store.Ledger().GetBalance(ctx, accountID)
}

func (s *walletService) ListTransactions(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	return s.store.Ledger().ListByAccount(ctx, accountID)
}
