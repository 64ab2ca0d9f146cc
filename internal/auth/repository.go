package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

type Repository interface {
	CreateAccount(account *Account) error
	// GetByIdentifier resolves an account by email or username.
	GetByIdentifier(identifier string) (*Account, error)
	GetByEmail(email string) (*Account, error)
	GetByID(id uint) (*Account, error)
	// MutateLoginState loads the account under a row-level lock, applies
	// mutate, and persists the failure counter and lockout fields in the
	// same transaction. Concurrent attempts against one account serialize
	// here instead of racing on read-modify-write.
	MutateLoginState(id uint, mutate func(*Account)) error
	SetResetCode(id uint, code string, expiresAt time.Time) error
	// UpdatePassword stores a new digest and clears both reset-code fields
	// in a single UPDATE.
	UpdatePassword(id uint, passwordHash string) error
	RecordLoginAttempt(entry *LoginHistory) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateAccount(account *Account) error {
	if err := r.db.Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

func (r *repository) GetByIdentifier(identifier string) (*Account, error) {
	var account Account
	err := r.db.Where("email = ? OR username = ?", identifier, identifier).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) GetByEmail(email string) (*Account, error) {
	var account Account
	if err := r.db.Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) GetByID(id uint) (*Account, error) {
	var account Account
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) MutateLoginState(id uint, mutate func(*Account)) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var account Account
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		mutate(&account)

		return tx.Model(&Account{}).Where("id = ?", id).Updates(map[string]interface{}{
			"failed_login_count": account.FailedLoginCount,
			"lockout_end_time":   account.LockoutEndTime,
		}).Error
	})
}

func (r *repository) SetResetCode(id uint, code string, expiresAt time.Time) error {
	return r.db.Model(&Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"reset_code":            code,
		"reset_code_expires_at": expiresAt,
	}).Error
}

func (r *repository) UpdatePassword(id uint, passwordHash string) error {
	return r.db.Model(&Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash":         passwordHash,
		"reset_code":            nil,
		"reset_code_expires_at": nil,
	}).Error
}

func (r *repository) RecordLoginAttempt(entry *LoginHistory) error {
	return r.db.Create(entry).Error
}
