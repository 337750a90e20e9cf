package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/logger"
	"unimarket-backend/internal/repository"
	"unimarket-backend/internal/security"
)

type authService struct {
	store      repository.Store
	tokens     security.TokenManager
	sanitizer  *security.Sanitizer
	limiter    *security.RateLimiter
	audit      *security.AuditLog
	verifier   RealnessVerifier
	email      EmailService
	bonusMinor int64
}

func NewAuthService(
	store repository.Store,
	tokens security.TokenManager,
	sanitizer *security.Sanitizer,
	limiter *security.RateLimiter,
	audit *security.AuditLog,
	verifier RealnessVerifier,
	email EmailService,
	referralBonusMinor int64,
) AuthService {
	return &authService{
		store:      store,
		tokens:     tokens,
		sanitizer:  sanitizer,
		limiter:    limiter,
		audit:      audit,
		verifier:   verifier,
		email:      email,
		bonusMinor: referralBonusMinor,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*domain.Account, error) {
	if err := s.limiter.Allow("registration"); err != nil {
		return nil, err
	}

	clean, err := s.sanitizer.SanitizeAll(req.Name, req.Email, req.PhoneNumber, req.ReferralCode)
	if err != nil {
		return nil, err
	}
	name, email, phone, refCode := clean[0], clean[1], clean[2], strings.ToUpper(strings.TrimSpace(clean[3]))
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if len(email) < 5 || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrInvalidInput)
	}
	if req.Role != domain.RoleBuyer && req.Role != domain.RoleSeller {
		return nil, fmt.Errorf("%w: only buyer and seller accounts can self-register", domain.ErrRoleNotAllowed)
	}

	if req.ProfileImage != "" {
		real, err := s.verifier.VerifyImageRealness(ctx, req.ProfileImage)
		if err != nil {
			return nil, fmt.Errorf("image verification error: %w", err)
		}
		if !real {
			s.audit.Record(security.SeverityMedium, fmt.Sprintf("profile image rejected during registration: %s", email))
			return nil, domain.ErrVerificationFailed
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.Account{
		Name:         name,
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: string(hash),
		Role:         req.Role,
		ReferralCode: generateReferralCode(name),
	}

	var referrer *domain.Account
	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		if refCode != "" {
			ref, err := tx.Accounts().GetByReferralCode(ctx, refCode)
			switch {
			case err == nil && !ref.IsBanned():
				referrer = ref
				account.ReferredBy = &ref.ID
			case err != nil && !errors.Is(err, domain.ErrNotFound):
				return err
			}
		}

		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}

		if referrer != nil {
			desc := fmt.Sprintf("Referral bonus: %s joined with your code", name)
			if _, err := tx.Ledger().Credit(ctx, referrer.ID, s.bonusMinor, domain.TransactionKindReferralBonus, desc, nil); err != nil {
				return err
			}
			if err := tx.Accounts().IncrementReferrals(ctx, referrer.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(security.SeverityLow, fmt.Sprintf("account registered: %s (%s)", email, req.Role))
	logger.Info("account registered", "account_id", account.ID, "role", account.Role)

	// Notifications are best effort; registration already committed.
	if err := s.email.SendWelcome(ctx, account.Email, account.Name); err != nil {
		logger.Warn("failed to send welcome email", "error", err)
	}
	if referrer != nil {
		if err := s.email.SendReferralBonusNotice(ctx, referrer.Email, referrer.Name, s.bonusMinor); err != nil {
			logger.Warn("failed to send referral bonus email", "error", err)
		}
	}

	return account, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.Account, string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.limiter.Allow("login:" + email); err != nil {
		return nil, "", "", err
	}

	account, err := s.store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.audit.Record(security.SeverityLow, fmt.Sprintf("failed login for unknown email: %s", email))
			return nil, "", "", domain.ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.audit.Record(security.SeverityLow, fmt.Sprintf("failed login: %s", email))
		return nil, "", "", domain.ErrInvalidCredentials
	}

	if account.IsBanned() {
		s.audit.Record(security.SeverityMedium, fmt.Sprintf("banned account attempted login: %s", email))
		return nil, "", "", fmt.Errorf("%w: %s", domain.ErrAccountSuspended, banMessage(account.Ban))
	}

	now := time.Now()
	account.LastActiveAt = &now
	if err := s.store.Accounts().Update(ctx, account); err != nil {
		logger.Warn("failed to stamp last active time", "account_id", account.ID, "error", err)
	}

	access, err := s.tokens.GenerateAccessToken(account.ID, account.Email, string(account.Role))
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(account.ID, account.Email)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	logger.Info("account logged in", "account_id", account.ID)
	return account, access, refresh, nil
}

func (s *authService) RefreshToken(ctx context.Context, refresh string) (string, string, error) {
	claims, err := s.tokens.ValidateToken(refresh)
	if err != nil {
		return "", "", domain.ErrUnauthorized
	}
	if claims.Type != security.TokenTypeRefresh {
		return "", "", domain.ErrUnauthorized
	}

	account, err := s.store.Accounts().GetByID(ctx, claims.AccountID)
	if err != nil {
		return "", "", domain.ErrUnauthorized
	}
	if account.IsBanned() {
		return "", "", fmt.Errorf("%w: %s", domain.ErrAccountSuspended, banMessage(account.Ban))
	}

	access, err := s.tokens.GenerateAccessToken(account.ID, account.Email, string(account.Role))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}
	newRefresh, err := s.tokens.GenerateRefreshToken(account.ID, account.Email)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return access, newRefresh, nil
}

// banMessage renders the suspension notice shown on login. Permanent bans
// include how long the account has before the maintenance sweep deletes it.
func banMessage(ban *domain.BanDetails) string {
	if ban.Type == domain.BanTypePermanent && ban.ScheduledDeletionAt != nil {
		days := int(time.Until(*ban.ScheduledDeletionAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		return fmt.Sprintf("permanently banned (%s); account data will be deleted in %d day(s)", ban.Reason, days)
	}
	return fmt.Sprintf("temporarily suspended (%s); contact support to appeal", ban.Reason)
}

const referralDigits = "0123456789"

// generateReferralCode builds codes like "ADA4821" from the account name.
// Uniqueness is not enforced; a collision just makes two accounts share a
// code, and the first match wins on lookup.
func generateReferralCode(name string) string {
	var prefix strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' {
			prefix.WriteRune(r)
			if prefix.Len() == 3 {
				break
			}
		}
	}
	for prefix.Len() < 3 {
		prefix.WriteByte('X')
	}

	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = referralDigits[rand.Intn(len(referralDigits))]
	}
	return prefix.String() + string(suffix)
}
