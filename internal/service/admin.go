package service

import (
	"context"
	"fmt"
	"time"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/logger"
	"unimarket-backend/internal/observability"
	"unimarket-backend/internal/repository"
	"unimarket-backend/internal/security"
)

type adminService struct {
	store             repository.Store
	audit             *security.AuditLog
	email             EmailService
	deletionDelayDays int
}

func NewAdminService(store repository.Store, audit *security.AuditLog, email EmailService, banDeletionDelayDays int) AdminService {
	return &adminService{
		store:             store,
		audit:             audit,
		email:             email,
		deletionDelayDays: banDeletionDelayDays,
	}
}

func (s *adminService) requireAdmin(ctx context.Context, adminID int64) (*domain.Account, error) {
	admin, err := s.store.Accounts().GetByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin.Role != domain.RoleAdmin {
		s.audit.Record(security.SeverityHigh, fmt.Sprintf("account %d attempted an admin operation", adminID))
		return nil, domain.ErrUnauthorized
	}
	return admin, nil
}

func (s *adminService) BanAccount(ctx context.Context, adminID, targetID int64, banType domain.BanType, reason string) error {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if banType != domain.BanTypeTemporary && banType != domain.BanTypePermanent {
		return fmt.Errorf("%w: unknown ban type %q", domain.ErrInvalidAmount, banType)
	}

	target, err := s.store.Accounts().GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleAdmin {
		return fmt.Errorf("%w: admin accounts cannot be banned", domain.ErrUnauthorized)
	}

	now := time.Now()
	ban := &domain.BanDetails{
		Type:     banType,
		Reason:   reason,
		BannedAt: now,
	}
	if banType == domain.BanTypePermanent {
		deleteAt := now.AddDate(0, 0, s.deletionDelayDays)
		ban.ScheduledDeletionAt = &deleteAt
	}
	target.Ban = ban

	if err := s.store.Accounts().Update(ctx, target); err != nil {
		return err
	}

	s.audit.Record(security.SeverityHigh, fmt.Sprintf("account %d banned (%s) by admin %d: %s", targetID, banType, adminID, reason))
	logger.Warn("account banned", "account_id", targetID, "type", banType, "admin_id", adminID)

	if err := s.email.SendAccountStatusNotice(ctx, target.Email, target.Name, "suspended", reason); err != nil {
		logger.Warn("failed to send ban notice", "error", err)
	}
	return nil
}

func (s *adminService) UnbanAccount(ctx context.Context, adminID, targetID int64) error {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	target, err := s.store.Accounts().GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if !target.IsBanned() {
		return nil
	}
	target.Ban = nil

	if err := s.store.Accounts().Update(ctx, target); err != nil {
		return err
	}

	s.audit.Record(security.SeverityMedium, fmt.Sprintf("account %d unbanned by admin %d", targetID, adminID))
	logger.Info("account unbanned", "account_id", targetID, "admin_id", adminID)

	if err := s.email.SendAccountStatusNotice(ctx, target.Email, target.Name, "active", "suspension lifted"); err != nil {
		logger.Warn("failed to send unban notice", "error", err)
	}
	return nil
}

func (s *adminService) DeleteAccount(ctx context.Context, adminID, targetID int64) error {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if adminID == targetID {
		return fmt.Errorf("%w: admins cannot delete their own account", domain.ErrUnauthorized)
	}

	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		removed, err := tx.Listings().DeleteBySeller(ctx, targetID)
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Info("cascade removed listings", "account_id", targetID, "count", removed)
		}
		return tx.Accounts().Delete(ctx, targetID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(security.SeverityHigh, fmt.Sprintf("account %d deleted by admin %d", targetID, adminID))
	logger.Warn("account deleted", "account_id", targetID, "admin_id", adminID)
	return nil
}

func (s *adminService) ListAccounts(ctx context.Context, adminID int64) ([]domain.Account, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.store.Accounts().List(ctx)
}

func (s *adminService) SecurityLog(ctx context.Context, adminID int64) ([]security.AuditEntry, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.audit.Entries(), nil
}

func (s *adminService) ClearSecurityLog(ctx context.Context, adminID int64) error {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	s.audit.Clear()
	s.audit.Record(security.SeverityLow, fmt.Sprintf("security log cleared by admin %d", adminID))
	return nil
}

// RunMaintenanceSweep deletes each expired account in its own transaction so
// one failure never blocks the rest of the batch. Re-running is harmless: a
// swept account no longer matches the expiry query.
func (s *adminService) RunMaintenanceSweep(ctx context.Context) (int, error) {
	expired, err := s.store.Accounts().ListExpiredPermanentBans(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired bans: %w", err)
	}
	if len(expired) == 0 {
		logger.Debug("maintenance sweep found nothing to delete")
		return 0, nil
	}

	swept := 0
	for _, account := range expired {
		err := s.store.ExecTx(ctx, func(tx repository.Store) error {
			if _, err := tx.Listings().DeleteBySeller(ctx, account.ID); err != nil {
				return err
			}
			return tx.Accounts().Delete(ctx, account.ID)
		})
		if err != nil {
			logger.Error("maintenance sweep failed for account", "account_id", account.ID, "error", err)
			continue
		}
		swept++
		logger.Info("maintenance sweep deleted account", "account_id", account.ID, "email", account.Email)
	}

	observability.AccountsSwept.Add(float64(swept))
	s.audit.Record(security.SeverityMedium, fmt.Sprintf("maintenance sweep deleted %d account(s)", swept))
	return swept, nil
}
