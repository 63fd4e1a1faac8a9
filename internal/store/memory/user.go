package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/internal/store"
	"github.com/shaan-hospital/apiserver/types"
)

// UserRepository stores users in memory.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entry[types.User]
	seq   int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entry[types.User])}
}

func cloneUser(u types.User) types.User {
	u.DocAvatar = cloneImage(u.DocAvatar)
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}

func (r *UserRepository) GetByID(_ context.Context, id string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return cloneUser(e.value), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.users {
		if e.value.Email == email {
			return cloneUser(e.value), nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) List(_ context.Context, role *types.Role) ([]types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := newestFirst(r.users, func(u types.User) bool {
		return role == nil || u.Role == *role
	})
	for i := range users {
		users[i] = cloneUser(users[i])
	}
	return users, nil
}

func (r *UserRepository) FindDoctors(_ context.Context, firstName, lastName, department string) ([]types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doctors := newestFirst(r.users, func(u types.User) bool {
		return u.Role == types.RoleDoctor &&
			u.FirstName == firstName &&
			u.LastName == lastName &&
			u.DoctorDepartment == department
	})
	for i := range doctors {
		doctors[i] = cloneUser(doctors[i])
	}
	return doctors, nil
}

func (r *UserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email, "") {
		return types.User{}, &store.DuplicateKeyError{Field: "email"}
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.seq++
	r.users[user.ID] = &entry[types.User]{value: cloneUser(user), seq: r.seq}
	return user, nil
}

func (r *UserRepository) Update(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return types.User{}, &store.DuplicateKeyError{Field: "email"}
	}

	user.CreatedAt = e.value.CreatedAt
	user.LastLogin = e.value.LastLogin
	user.UpdatedAt = time.Now().UTC()
	e.value = cloneUser(user)
	return cloneUser(user), nil
}

func (r *UserRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	e.value.LastLogin = &at
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	delete(r.users, id)
	return e.value, nil
}

func (r *UserRepository) Stats(_ context.Context, newSince, loginSince time.Time) (types.UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats types.UserStats
	for _, e := range r.users {
		u := e.value
		stats.TotalUsers++
		switch u.Role {
		case types.RolePatient:
			stats.TotalPatients++
			if !u.CreatedAt.Before(newSince) {
				stats.RecentPatients++
			}
			if u.LastLogin != nil && !u.LastLogin.Before(loginSince) {
				stats.RecentLogins++
			}
		case types.RoleDoctor:
			stats.TotalDoctors++
		case types.RoleAdmin:
			stats.TotalAdmins++
		}
	}
	return stats, nil
}

func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, e := range r.users {
		if id != exceptID && e.value.Email == email {
			return true
		}
	}
	return false
}
