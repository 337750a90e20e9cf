package memory

import (
	"context"
	"sort"
	"time"

	"unimarket-backend/internal/domain"
)

type listingRepo struct {
	s *Store
}

func (r *listingRepo) Create(ctx context.Context, l *domain.Listing) error {
	defer r.s.wlock()()
	st := r.s.st

	st.nextListingID++
	l.ID = st.nextListingID
	l.CreatedAt = time.Now()
	cp := *l
	st.listings[l.ID] = &cp
	return nil
}

func (r *listingRepo) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	defer r.s.rlock()()
	l, ok := r.s.st.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *listingRepo) Update(ctx context.Context, l *domain.Listing) error {
	defer r.s.wlock()()
	current, ok := r.s.st.listings[l.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *l
	cp.SellerID = current.SellerID
	cp.CreatedAt = current.CreatedAt
	r.s.st.listings[l.ID] = &cp
	return nil
}

func (r *listingRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.wlock()()
	if _, ok := r.s.st.listings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.listings, id)
	return nil
}

func (r *listingRepo) ListVisible(ctx context.Context) ([]domain.Listing, error) {
	defer r.s.rlock()()
	var out []domain.Listing
	for _, l := range r.s.st.listings {
		seller, ok := r.s.st.accounts[l.SellerID]
		if !ok || seller.IsBanned() {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *listingRepo) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Listing, error) {
	defer r.s.rlock()()
	var out []domain.Listing
	for _, l := range r.s.st.listings {
		if l.SellerID == sellerID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *listingRepo) DeleteBySeller(ctx context.Context, sellerID int64) (int64, error) {
	defer r.s.wlock()()
	var deleted int64
	for id, l := range r.s.st.listings {
		if l.SellerID == sellerID {
			delete(r.s.st.listings, id)
			deleted++
		}
	}
	return deleted, nil
}
