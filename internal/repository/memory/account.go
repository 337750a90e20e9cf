package memory

import (
	"context"
	"sort"
	"time"

	"unimarket-backend/internal/domain"
)

type accountRepo struct {
	s *Store
}

func (r *accountRepo) Create(ctx context.Context, a *domain.Account) error {
	defer r.s.wlock()()
	st := r.s.st

	for _, existing := range st.accounts {
		if existing.Email == a.Email {
			return domain.ErrDuplicateEmail
		}
	}

	st.nextAccountID++
	a.ID = st.nextAccountID
	a.CreatedAt = time.Now()
	st.accounts[a.ID] = copyAccount(a)
	return nil
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	defer r.s.rlock()()
	a, ok := r.s.st.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAccount(a), nil
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	defer r.s.rlock()()
	for _, a := range r.s.st.accounts {
		if a.Email == email {
			return copyAccount(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *accountRepo) GetByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	defer r.s.rlock()()
	for _, a := range r.s.st.accounts {
		if a.ReferralCode == code {
			return copyAccount(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *accountRepo) Update(ctx context.Context, a *domain.Account) error {
	defer r.s.wlock()()
	current, ok := r.s.st.accounts[a.ID]
	if !ok {
		return domain.ErrNotFound
	}

	// Balance and referral counter are owned by the ledger and
	// IncrementReferrals respectively.
	updated := copyAccount(a)
	updated.BalanceMinor = current.BalanceMinor
	updated.ReferralsCount = current.ReferralsCount
	updated.CreatedAt = current.CreatedAt
	r.s.st.accounts[a.ID] = updated
	return nil
}

func (r *accountRepo) IncrementReferrals(ctx context.Context, id int64) error {
	defer r.s.wlock()()
	a, ok := r.s.st.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.ReferralsCount++
	return nil
}

func (r *accountRepo) List(ctx context.Context) ([]domain.Account, error) {
	defer r.s.rlock()()
	out := make([]domain.Account, 0, len(r.s.st.accounts))
	for _, a := range r.s.st.accounts {
		out = append(out, *copyAccount(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *accountRepo) ListExpiredPermanentBans(ctx context.Context, now time.Time) ([]domain.Account, error) {
	defer r.s.rlock()()
	var out []domain.Account
	for _, a := range r.s.st.accounts {
		if a.Ban != nil && a.Ban.Type == domain.BanTypePermanent &&
			a.Ban.ScheduledDeletionAt != nil && !a.Ban.ScheduledDeletionAt.After(now) {
			out = append(out, *copyAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *accountRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.wlock()()
	if _, ok := r.s.st.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.accounts, id)
	return nil
}
