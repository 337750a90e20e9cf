package domain

import "time"

type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaidEscrow      OrderStatus = "PAID_ESCROW"
	OrderStatusSellerConfirmed OrderStatus = "SELLER_CONFIRMED"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRefunded        OrderStatus = "REFUNDED"
)

// ValidStatusTransitions is the whole order lifecycle. Anything not listed
// here is rejected; COMPLETED, CANCELLED and REFUNDED are terminal.
var ValidStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment:  {OrderStatusPaidEscrow, OrderStatusCancelled},
	OrderStatusPaidEscrow:      {OrderStatusSellerConfirmed, OrderStatusRefunded, OrderStatusCancelled},
	OrderStatusSellerConfirmed: {OrderStatusCompleted},
}

func CanTransitionTo(current, target OrderStatus) bool {
	allowed, exists := ValidStatusTransitions[current]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	_, exists := ValidStatusTransitions[s]
	return !exists
}

// OrderItem snapshots the listing price at order creation. Later listing
// price edits never change an open order.
type OrderItem struct {
	ListingID      int64  `json:"listing_id"`
	Name           string `json:"name"`
	Quantity       int32  `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
}

// Order references exactly one seller. A multi-seller cart is split into one
// order per seller before any funds move.
type Order struct {
	ID                int64       `json:"id"`
	Reference         string      `json:"reference"`
	BuyerID           int64       `json:"buyer_id"`
	SellerID          int64       `json:"seller_id"`
	Items             []OrderItem `json:"items"`
	TotalMinor        int64       `json:"total_minor"`
	Status            OrderStatus `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	SellerConfirmedAt *time.Time  `json:"seller_confirmed_at,omitempty"`
}

// ItemsTotal recomputes the order total from the snapshotted line items.
func (o *Order) ItemsTotal() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.UnitPriceMinor * int64(it.Quantity)
	}
	return sum
}
