package memory

import (
	"context"
	"sort"
	"time"

	"unimarket-backend/internal/domain"
)

type orderRepo struct {
	s *Store
}

func (r *orderRepo) Create(ctx context.Context, o *domain.Order) error {
	defer r.s.wlock()()
	st := r.s.st

	st.nextOrderID++
	o.ID = st.nextOrderID
	o.CreatedAt = time.Now()
	st.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	defer r.s.rlock()()
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	if !domain.CanTransitionTo(from, to) {
		return domain.ErrInvalidTransition
	}

	defer r.s.wlock()()
	o, ok := r.s.st.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Status != from {
		return domain.ErrInvalidTransition
	}
	o.Status = to
	return nil
}

func (r *orderRepo) StampSellerConfirmed(ctx context.Context, id int64, at time.Time) error {
	defer r.s.wlock()()
	o, ok := r.s.st.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	t := at
	o.SellerConfirmedAt = &t
	return nil
}

func (r *orderRepo) ListByAccount(ctx context.Context, accountID int64) ([]domain.Order, error) {
	defer r.s.rlock()()
	var out []domain.Order
	for _, o := range r.s.st.orders {
		if o.BuyerID == accountID || o.SellerID == accountID {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *orderRepo) ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	defer r.s.rlock()()
	var out []domain.Order
	for _, o := range r.s.st.orders {
		if o.Status == domain.OrderStatusPendingPayment && o.CreatedAt.Before(olderThan) {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *orderRepo) HasCompletedPurchase(ctx context.Context, buyerID, listingID int64) (bool, error) {
	defer r.s.rlock()()
	for _, o := range r.s.st.orders {
		if o.BuyerID != buyerID || o.Status != domain.OrderStatusCompleted {
			continue
		}
		for _, it := range o.Items {
			if it.ListingID == listingID {
				return true, nil
			}
		}
	}
	return false, nil
}
