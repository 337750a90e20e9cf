package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/repository"
)

type accountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) repository.AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, name, email, phone_number, password_hash, role, balance_minor,
	referral_code, referrals_count, referred_by, ban_type, ban_reason, banned_at,
	scheduled_deletion_at, created_at, last_active_at`

func (r *accountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (name, email, phone_number, password_hash, role, referral_code, referred_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		a.Name, a.Email, a.PhoneNumber, a.PasswordHash, a.Role, a.ReferralCode, a.ReferredBy,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getBy(ctx, "email = $1", email)
}

func (r *accountRepository) GetByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	return r.getBy(ctx, "referral_code = $1", code)
}

func (r *accountRepository) getBy(ctx context.Context, where string, arg any) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where, arg)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// Update writes profile, referral and ban fields. balance_minor is absent on
// purpose: only the ledger moves balances.
func (r *accountRepository) Update(ctx context.Context, a *domain.Account) error {
	var banType, banReason *string
	var bannedAt, scheduledDeletionAt *time.Time
	if a.Ban != nil {
		t := string(a.Ban.Type)
		banType = &t
		banReason = &a.Ban.Reason
		bannedAt = &a.Ban.BannedAt
		scheduledDeletionAt = a.Ban.ScheduledDeletionAt
	}

	query := `UPDATE accounts SET name = $1, email = $2, phone_number = $3, password_hash = $4,
	          ban_type = $5, ban_reason = $6, banned_at = $7, scheduled_deletion_at = $8,
	          last_active_at = $9 WHERE id = $10`
	res, err := r.db.ExecContext(ctx, query,
		a.Name, a.Email, a.PhoneNumber, a.PasswordHash,
		banType, banReason, bannedAt, scheduledDeletionAt,
		a.LastActiveAt, a.ID,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepository) IncrementReferrals(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET referrals_count = referrals_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (r *accountRepository) ListExpiredPermanentBans(ctx context.Context, now time.Time) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
	          WHERE ban_type = 'permanent' AND scheduled_deletion_at IS NOT NULL AND scheduled_deletion_at <= $1`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (r *accountRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	var banType, banReason sql.NullString
	var bannedAt, scheduledDeletionAt, lastActiveAt sql.NullTime

	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PhoneNumber, &a.PasswordHash, &a.Role, &a.BalanceMinor,
		&a.ReferralCode, &a.ReferralsCount, &a.ReferredBy, &banType, &banReason, &bannedAt,
		&scheduledDeletionAt, &a.CreatedAt, &lastActiveAt,
	)
	if err != nil {
		return nil, err
	}

	if banType.Valid {
		ban := &domain.BanDetails{
			Type:     domain.BanType(banType.String),
			Reason:   banReason.String,
			BannedAt: bannedAt.Time,
		}
		if scheduledDeletionAt.Valid {
			t := scheduledDeletionAt.Time
			ban.ScheduledDeletionAt = &t
		}
		a.Ban = ban
	}
	if lastActiveAt.Valid {
		t := lastActiveAt.Time
		a.LastActiveAt = &t
	}
	return &a, nil
}

func scanAccounts(rows *sql.Rows) ([]domain.Account, error) {
	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}
