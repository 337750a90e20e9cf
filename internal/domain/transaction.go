package domain

import "time"

type TransactionKind string

const (
	TransactionKindDeposit       TransactionKind = "DEPOSIT"
	TransactionKindWithdrawal    TransactionKind = "WITHDRAWAL"
	TransactionKindEscrowHold    TransactionKind = "ESCROW_HOLD"
	TransactionKindEscrowRelease TransactionKind = "ESCROW_RELEASE"
	TransactionKindRefund        TransactionKind = "REFUND"
	TransactionKindPayment       TransactionKind = "PAYMENT"
	TransactionKindReferralBonus TransactionKind = "REFERRAL_BONUS"
)

// Transaction is an immutable ledger entry: positive amounts credit the
// account, negative amounts debit it. The log is append-only and is the
// audit trail behind every balance.
//
// ESCROW_HOLD is the one informational kind: it is recorded on the seller's
// ledger with a zero amount when escrow activates, so it never disturbs the
// balance-equals-sum-of-amounts invariant and never double-debits the buyer.
type Transaction struct {
	ID          int64           `json:"id"`
	Reference   string          `json:"reference"`
	AccountID   int64           `json:"account_id"`
	Kind        TransactionKind `json:"kind"`
	AmountMinor int64           `json:"amount_minor"`
	Description string          `json:"description"`
	OrderID     *int64          `json:"order_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
