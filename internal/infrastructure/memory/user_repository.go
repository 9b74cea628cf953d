package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

var (
	_ repository.UserRepository     = (*UserRepo)(nil)
	_ repository.SettingsRepository = (*SettingsRepo)(nil)
)

// UserRepo usuarios en memoria.
type UserRepo struct {
	s *Store
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	defer r.s.writeLock(false)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.users {
		if strings.EqualFold(other.Username, u.Username) ||
			(u.Email != "" && strings.EqualFold(other.Email, u.Email)) {
			return domain.ErrDuplicate
		}
	}
	r.s.seq.user++
	u.ID = r.s.seq.user
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.now()
		u.UpdatedAt = u.CreatedAt
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *UserRepo) FindByLogin(_ context.Context, login string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == login || strings.EqualFold(u.Email, login) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) ListByRole(_ context.Context, role string) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if role == "" || u.Role == role {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SettingsRepo preferencias de managers en memoria.
type SettingsRepo struct {
	s *Store
}

func (r *SettingsRepo) GetByUserID(_ context.Context, userID int64) (*entity.ManagerSettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.settings[userID]
	if !ok {
		return nil, nil
	}
	c := *st
	return &c, nil
}

func (r *SettingsRepo) Upsert(_ context.Context, st *entity.ManagerSettings) error {
	defer r.s.writeLock(false)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if cur, ok := r.s.settings[st.UserID]; ok {
		st.ID = cur.ID
		st.CreatedAt = cur.CreatedAt
	} else {
		r.s.seq.settings++
		st.ID = r.s.seq.settings
	}
	c := *st
	r.s.settings[st.UserID] = &c
	return nil
}

func (r *SettingsRepo) List(_ context.Context) ([]*entity.ManagerSettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.ManagerSettings, 0, len(r.s.settings))
	for _, st := range r.s.settings {
		c := *st
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
