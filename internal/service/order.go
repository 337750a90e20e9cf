package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/logger"
	"unimarket-backend/internal/observability"
	"unimarket-backend/internal/repository"
	"unimarket-backend/internal/security"
)

type orderService struct {
	store          repository.Store
	limiter        *security.RateLimiter
	audit          *security.AuditLog
	email          EmailService
	toleranceMinor int64
	pendingTimeout time.Duration
}

func NewOrderService(
	store repository.Store,
	limiter *security.RateLimiter,
	audit *security.AuditLog,
	email EmailService,
	priceToleranceMinor int64,
	orderTimeout time.Duration,
) OrderService {
	return &orderService{
		store:          store,
		limiter:        limiter,
		audit:          audit,
		email:          email,
		toleranceMinor: priceToleranceMinor,
		pendingTimeout: orderTimeout,
	}
}

// sellerCart groups cart lines by seller while preserving the order sellers
// first appear in the cart, so order creation is deterministic.
type sellerCart struct {
	sellerID int64
	items    []domain.OrderItem
}

func (s *orderService) CreateOrder(ctx context.Context, buyerID int64, items []CartItem, clientTotalMinor int64) ([]domain.Order, error) {
	if err := s.limiter.Allow(fmt.Sprintf("orders:%d", buyerID)); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidAmount)
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidAmount)
		}
	}

	buyer, err := s.store.Accounts().GetByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if buyer.IsBanned() {
		return nil, domain.ErrAccountSuspended
	}
	if buyer.Role != domain.RoleBuyer {
		s.audit.Record(security.SeverityHigh, fmt.Sprintf("non-buyer account %d attempted to place an order", buyerID))
		return nil, fmt.Errorf("%w: only buyers can place orders", domain.ErrRoleNotAllowed)
	}

	var orders []domain.Order
	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		carts, serverTotal, err := s.buildCarts(ctx, tx, items)
		if err != nil {
			return err
		}

		// The client total is advisory only. A drift beyond the rounding
		// tolerance means the cart was tampered with in transit.
		if diff := clientTotalMinor - serverTotal; diff > s.toleranceMinor || diff < -s.toleranceMinor {
			s.audit.Record(security.SeverityCritical, fmt.Sprintf(
				"price tampering attempt by account %d: client total %d, server total %d", buyerID, clientTotalMinor, serverTotal))
			logger.Critical("price tampering attempt blocked", "buyer_id", buyerID,
				"client_total", clientTotalMinor, "server_total", serverTotal)
			observability.SecurityViolations.Inc()
			return domain.ErrPriceMismatch
		}

		for _, cart := range carts {
			order := domain.Order{
				Reference: newOrderReference(),
				BuyerID:   buyerID,
				SellerID:  cart.sellerID,
				Items:     cart.items,
				Status:    domain.OrderStatusPendingPayment,
			}
			order.TotalMinor = order.ItemsTotal()

			if err := tx.Orders().Create(ctx, &order); err != nil {
				return err
			}

			desc := fmt.Sprintf("Payment for order %s", order.Reference)
			if _, err := tx.Ledger().Debit(ctx, buyerID, order.TotalMinor, domain.TransactionKindPayment, desc, &order.ID); err != nil {
				return err
			}
			if err := tx.Orders().UpdateStatus(ctx, order.ID, domain.OrderStatusPendingPayment, domain.OrderStatusPaidEscrow); err != nil {
				return err
			}
			order.Status = domain.OrderStatusPaidEscrow

			holdDesc := fmt.Sprintf("Escrow hold for order %s", order.Reference)
			if _, err := tx.Ledger().Annotate(ctx, cart.sellerID, domain.TransactionKindEscrowHold, holdDesc, &order.ID); err != nil {
				return err
			}

			orders = append(orders, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.OrdersCreated.Add(float64(len(orders)))
	s.audit.Record(security.SeverityLow, fmt.Sprintf("account %d placed %d order(s)", buyerID, len(orders)))
	logger.Info("orders placed", "buyer_id", buyerID, "count", len(orders))
	return orders, nil
}

// buildCarts resolves cart lines against current listings, snapshots prices
// and splits the cart per seller. It must run inside the order transaction so
// the snapshot and the debit see the same listings.
func (s *orderService) buildCarts(ctx context.Context, tx repository.Store, items []CartItem) ([]sellerCart, int64, error) {
	var (
		carts []sellerCart
		index = map[int64]int{}
		total int64
	)
	for _, it := range items {
		listing, err := tx.Listings().GetByID(ctx, it.ListingID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, 0, fmt.Errorf("listing %d: %w", it.ListingID, domain.ErrNotFound)
			}
			return nil, 0, err
		}
		if !listing.InStock {
			return nil, 0, fmt.Errorf("%s: %w", listing.Name, domain.ErrOutOfStock)
		}

		line := domain.OrderItem{
			ListingID:      listing.ID,
			Name:           listing.Name,
			Quantity:       it.Quantity,
			UnitPriceMinor: listing.PriceMinor,
		}
		total += line.UnitPriceMinor * int64(line.Quantity)

		pos, ok := index[listing.SellerID]
		if !ok {
			pos = len(carts)
			index[listing.SellerID] = pos
			carts = append(carts, sellerCart{sellerID: listing.SellerID})
		}
		carts[pos].items = append(carts[pos].items, line)
	}
	return carts, total, nil
}

func (s *orderService) ConfirmSent(ctx context.Context, orderID, sellerID int64) (*domain.Order, error) {
	var confirmed *domain.Order
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.SellerID != sellerID {
			s.audit.Record(security.SeverityHigh, fmt.Sprintf(
				"account %d attempted to confirm shipment of order %d it does not own", sellerID, orderID))
			return domain.ErrUnauthorized
		}

		if err := tx.Orders().UpdateStatus(ctx, orderID, domain.OrderStatusPaidEscrow, domain.OrderStatusSellerConfirmed); err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Orders().StampSellerConfirmed(ctx, orderID, now); err != nil {
			return err
		}

		order.Status = domain.OrderStatusSellerConfirmed
		order.SellerConfirmedAt = &now
		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("seller confirmed shipment", "order_id", orderID, "seller_id", sellerID)
	return confirmed, nil
}

func (s *orderService) ConfirmReceived(ctx context.Context, orderID, buyerID int64) (*domain.Order, error) {
	var (
		completed *domain.Order
		seller    *domain.Account
	)
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID {
			s.audit.Record(security.SeverityHigh, fmt.Sprintf(
				"account %d attempted to confirm delivery of order %d it did not place", buyerID, orderID))
			return domain.ErrUnauthorized
		}

		// The guarded transition is what makes release exactly-once: a second
		// confirmation finds the order already COMPLETED and fails here
		// before any credit is appended.
		if err := tx.Orders().UpdateStatus(ctx, orderID, domain.OrderStatusSellerConfirmed, domain.OrderStatusCompleted); err != nil {
			return err
		}

		desc := fmt.Sprintf("Escrow release for order %s", order.Reference)
		if _, err := tx.Ledger().Credit(ctx, order.SellerID, order.TotalMinor, domain.TransactionKindEscrowRelease, desc, &order.ID); err != nil {
			return err
		}

		seller, err = tx.Accounts().GetByID(ctx, order.SellerID)
		if err != nil {
			return err
		}

		order.Status = domain.OrderStatusCompleted
		completed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.EscrowReleased.Inc()
	logger.Info("escrow released", "order_id", orderID, "seller_id", completed.SellerID, "amount_minor", completed.TotalMinor)

	if err := s.email.SendEscrowReleaseNotice(ctx, seller.Email, seller.Name, completed.Reference, completed.TotalMinor); err != nil {
		logger.Warn("failed to send escrow release email", "error", err)
	}
	return completed, nil
}

func (s *orderService) Refund(ctx context.Context, orderID, callerID int64, reason string) (*domain.Order, error) {
	var refunded *domain.Order
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}

		if order.BuyerID != callerID {
			caller, err := tx.Accounts().GetByID(ctx, callerID)
			if err != nil {
				return err
			}
			if caller.Role != domain.RoleAdmin {
				s.audit.Record(security.SeverityHigh, fmt.Sprintf(
					"account %d attempted to refund order %d it did not place", callerID, orderID))
				return domain.ErrUnauthorized
			}
		}

		if order.Status.IsTerminal() {
			return fmt.Errorf("%w: order %s is already %s", domain.ErrInvalidState, order.Reference, order.Status)
		}

		// Refunds apply only while funds sit in escrow. A shipped order
		// (SELLER_CONFIRMED) fails the guarded transition below.
		if err := tx.Orders().UpdateStatus(ctx, orderID, domain.OrderStatusPaidEscrow, domain.OrderStatusRefunded); err != nil {
			return err
		}

		desc := fmt.Sprintf("Refund for order %s", order.Reference)
		if reason != "" {
			desc = fmt.Sprintf("%s (%s)", desc, reason)
		}
		if _, err := tx.Ledger().Credit(ctx, order.BuyerID, order.TotalMinor, domain.TransactionKindRefund, desc, &order.ID); err != nil {
			return err
		}

		order.Status = domain.OrderStatusRefunded
		refunded = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.OrdersRefunded.Inc()
	s.audit.Record(security.SeverityMedium, fmt.Sprintf("order %d refunded by account %d", orderID, callerID))
	logger.Info("order refunded", "order_id", orderID, "amount_minor", refunded.TotalMinor)
	return refunded, nil
}

func (s *orderService) ListOrders(ctx context.Context, accountID int64) ([]domain.Order, error) {
	return s.store.Orders().ListByAccount(ctx, accountID)
}

func (s *orderService) CancelStaleOrders(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.pendingTimeout)
	stale, err := s.store.Orders().ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, order := range stale {
		err := s.store.ExecTx(ctx, func(tx repository.Store) error {
			// No funds moved while PENDING_PAYMENT, so cancellation is a
			// pure status write.
			return tx.Orders().UpdateStatus(ctx, order.ID, domain.OrderStatusPendingPayment, domain.OrderStatusCancelled)
		})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				continue // paid between listing and cancelling
			}
			return cancelled, err
		}
		cancelled++
		logger.Info("stale order cancelled", "order_id", order.ID, "reference", order.Reference)
	}
	return cancelled, nil
}

func newOrderReference() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
