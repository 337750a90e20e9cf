// Package memory implements repository.Store on plain maps behind one lock.
// It backs the service test suites and the zero-dependency demo mode; the
// production store is the postgres package.
package memory

import (
	"context"
	"sync"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/repository"
)

type state struct {
	accounts     map[int64]*domain.Account
	listings     map[int64]*domain.Listing
	orders       map[int64]*domain.Order
	transactions []domain.Transaction
	reviews      []domain.Review

	nextAccountID int64
	nextListingID int64
	nextOrderID   int64
	nextTxID      int64
	nextReviewID  int64
}

func newState() *state {
	return &state{
		accounts: make(map[int64]*domain.Account),
		listings: make(map[int64]*domain.Listing),
		orders:   make(map[int64]*domain.Order),
	}
}

// clone deep-copies the state so a failed transaction can be discarded
// without leaving partial mutations behind.
func (st *state) clone() *state {
	c := &state{
		accounts:      make(map[int64]*domain.Account, len(st.accounts)),
		listings:      make(map[int64]*domain.Listing, len(st.listings)),
		orders:        make(map[int64]*domain.Order, len(st.orders)),
		transactions:  make([]domain.Transaction, len(st.transactions)),
		reviews:       make([]domain.Review, len(st.reviews)),
		nextAccountID: st.nextAccountID,
		nextListingID: st.nextListingID,
		nextOrderID:   st.nextOrderID,
		nextTxID:      st.nextTxID,
		nextReviewID:  st.nextReviewID,
	}
	for id, a := range st.accounts {
		c.accounts[id] = copyAccount(a)
	}
	for id, l := range st.listings {
		cp := *l
		c.listings[id] = &cp
	}
	for id, o := range st.orders {
		c.orders[id] = copyOrder(o)
	}
	for i, tx := range st.transactions {
		c.transactions[i] = copyTransaction(&tx)
	}
	copy(c.reviews, st.reviews)
	return c
}

// Store is safe for concurrent use: reads take the read lock, every mutation
// and every ExecTx closure runs under the write lock, which serializes
// mutating operations exactly as the request/response model demands.
type Store struct {
	mu   sync.RWMutex
	st   *state
	inTx bool
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) Accounts() repository.AccountRepository { return &accountRepo{s} }
func (s *Store) Listings() repository.ListingRepository { return &listingRepo{s} }
func (s *Store) Orders() repository.OrderRepository     { return &orderRepo{s} }
func (s *Store) Ledger() repository.LedgerRepository    { return &ledgerRepo{s} }
func (s *Store) Reviews() repository.ReviewRepository   { return &reviewRepo{s} }

// ExecTx holds the write lock for the whole closure and restores a snapshot
// if fn fails, so status writes and ledger appends commit together or not at
// all.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	view := &Store{st: s.st, inTx: true}
	if err := fn(view); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) rlock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) wlock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func copyAccount(a *domain.Account) *domain.Account {
	cp := *a
	if a.Ban != nil {
		ban := *a.Ban
		if a.Ban.ScheduledDeletionAt != nil {
			t := *a.Ban.ScheduledDeletionAt
			ban.ScheduledDeletionAt = &t
		}
		cp.Ban = &ban
	}
	if a.ReferredBy != nil {
		id := *a.ReferredBy
		cp.ReferredBy = &id
	}
	if a.LastActiveAt != nil {
		t := *a.LastActiveAt
		cp.LastActiveAt = &t
	}
	return &cp
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = make([]domain.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	if o.SellerConfirmedAt != nil {
		t := *o.SellerConfirmedAt
		cp.SellerConfirmedAt = &t
	}
	return &cp
}

func copyTransaction(tx *domain.Transaction) domain.Transaction {
	cp := *tx
	if tx.OrderID != nil {
		id := *tx.OrderID
		cp.OrderID = &id
	}
	return cp
}
