package domain

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

type BanType string

const (
	BanTypeTemporary BanType = "temporary"
	BanTypePermanent BanType = "permanent"
)

// BanDetails is present only while an account is banned. Permanent bans carry
// the moment the maintenance sweep is allowed to delete the account.
type BanDetails struct {
	Type                BanType    `json:"type"`
	Reason              string     `json:"reason"`
	BannedAt            time.Time  `json:"banned_at"`
	ScheduledDeletionAt *time.Time `json:"scheduled_deletion_at,omitempty"`
}

// Account holds the wallet balance in minor currency units (kobo). The
// balance is mutated only through ledger credits and debits; it must equal
// the sum of the account's transaction amounts at all times.
type Account struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	PhoneNumber    string      `json:"phone_number"`
	PasswordHash   string      `json:"-"`
	Role           Role        `json:"role"`
	BalanceMinor   int64       `json:"balance_minor"`
	ReferralCode   string      `json:"referral_code"`
	ReferralsCount int32       `json:"referrals_count"`
	ReferredBy     *int64      `json:"referred_by,omitempty"`
	Ban            *BanDetails `json:"ban,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	LastActiveAt   *time.Time  `json:"last_active_at,omitempty"`
}

func (a *Account) IsBanned() bool {
	return a.Ban != nil
}
