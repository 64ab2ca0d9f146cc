package auth

import (
	"sync"
	"time"
)

type mockRepository struct {
	accounts map[uint]*Account
	history  []*LoginHistory
	nextID   uint
	mu       sync.RWMutex
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		accounts: make(map[uint]*Account),
		nextID:   1,
	}
}

func (r *mockRepository) CreateAccount(account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Username == account.Username || a.Email == account.Email {
			return ErrEmailAlreadyExists
		}
	}

	account.ID = r.nextID
	r.nextID++
	account.CreatedAt = time.Now()

	stored := *account
	r.accounts[account.ID] = &stored
	return nil
}

func (r *mockRepository) GetByIdentifier(identifier string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.Email == identifier || a.Username == identifier {
			clone := *a
			return &clone, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (r *mockRepository) GetByEmail(email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (r *mockRepository) GetByID(id uint) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.accounts[id]
	if !exists {
		return nil, ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *mockRepository) MutateLoginState(id uint, mutate func(*Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.accounts[id]
	if !exists {
		return ErrAccountNotFound
	}
	mutate(a)
	return nil
}

func (r *mockRepository) SetResetCode(id uint, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.accounts[id]
	if !exists {
		return ErrAccountNotFound
	}
	a.ResetCode = &code
	expiry := expiresAt
	a.ResetCodeExpiresAt = &expiry
	return nil
}

func (r *mockRepository) UpdatePassword(id uint, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.accounts[id]
	if !exists {
		return ErrAccountNotFound
	}
	a.PasswordHash = passwordHash
	a.ResetCode = nil
	a.ResetCodeExpiresAt = nil
	return nil
}

func (r *mockRepository) RecordLoginAttempt(entry *LoginHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *entry
	stored.ID = uint(len(r.history) + 1)
	stored.CreatedAt = time.Now()
	r.history = append(r.history, &stored)
	return nil
}

// historyFor returns audit rows recorded under the given identifier.
func (r *mockRepository) historyFor(identifier string) []*LoginHistory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []*LoginHistory
	for _, h := range r.history {
		if h.Identifier == identifier {
			rows = append(rows, h)
		}
	}
	return rows
}

// setLoginState overwrites counter and lockout fields for test setup.
func (r *mockRepository) setLoginState(id uint, attempts int, lockoutEnd *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, exists := r.accounts[id]; exists {
		a.FailedLoginCount = attempts
		a.LockoutEndTime = lockoutEnd
	}
}

// setResetState overwrites reset-code fields for test setup.
func (r *mockRepository) setResetState(id uint, code *string, expiresAt *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, exists := r.accounts[id]; exists {
		a.ResetCode = code
		a.ResetCodeExpiresAt = expiresAt
	}
}
