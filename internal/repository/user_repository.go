package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"grow-sync/internal/domain"
)

type UserRepository interface {
	Create(user *domain.User) error
	FindByID(id string) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	EmailExists(email string) (bool, error)
	UsernameExists(username string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *domain.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByID(id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) EmailExists(email string) (bool, error) {
	var count int64
	if err := r.db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) UsernameExists(username string) (bool, error) {
	var count int64
	if err := r.db.Model(&domain.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// SyncStateRepository persists a device's sync watermarks across restarts.
type SyncStateRepository interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

type syncStateRepository struct {
	db *gorm.DB
}

func NewSyncStateRepository(db *gorm.DB) SyncStateRepository {
	return &syncStateRepository{db: db}
}

// Get returns the stored value, or "" when the key has never been written.
func (r *syncStateRepository) Get(key string) (string, error) {
	var row domain.SyncState
	err := r.db.Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read sync state %q: %w", key, err)
	}
	return row.Value, nil
}

func (r *syncStateRepository) Set(key, value string) error {
	res := r.db.Model(&domain.SyncState{}).Where("key = ?", key).Update("value", value)
	if res.Error != nil {
		return fmt.Errorf("failed to write sync state %q: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		if err := r.db.Create(&domain.SyncState{Key: key, Value: value}).Error; err != nil {
			return fmt.Errorf("failed to write sync state %q: %w", key, err)
		}
	}
	return nil
}
