// Package memory holds map-backed repositories used when STORE_DRIVER=memory
// and by service tests that need real query semantics.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bike-resale-api/internal/domain"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: map[string]domain.User{}}
}

func (r *UserRepo) Put(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.UserID] = *u
	return nil
}

func (r *UserRepo) Get(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email: %w", domain.ErrNotFound)
}

// Update applies attribute-name keyed updates, mirroring the DynamoDB repo.
func (r *UserRepo) Update(_ context.Context, userID string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	for k, v := range updates {
		if err := setUserField(&u, k, v); err != nil {
			return err
		}
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[userID] = u
	return nil
}

func setUserField(u *domain.User, attr string, v interface{}) error {
	switch attr {
	case "full_name":
		return assign(&u.FullName, attr, v)
	case "email":
		return assign(&u.Email, attr, v)
	case "address":
		return assign(&u.Address, attr, v)
	case "password_hash":
		return assign(&u.PasswordHash, attr, v)
	case "is_verified":
		return assign(&u.IsVerified, attr, v)
	case "register_otp":
		return assignPtr(&u.RegisterOTP, attr, v)
	case "reset_otp":
		return assignPtr(&u.ResetOTP, attr, v)
	case "avatar":
		return assignPtr(&u.Avatar, attr, v)
	case "access_token":
		return assignPtr(&u.AccessToken, attr, v)
	case "updated_at":
		return nil
	}
	return fmt.Errorf("unknown user attribute %q", attr)
}
