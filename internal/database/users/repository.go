// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByID(id)
package users

import (
	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAllUsers returns all users with pagination, for the back-office.
func (r *Repository) GetAllUsers(limit, offset int) ([]entities.User, int64, error) {
	var users []entities.User
	var total int64

	if err := r.db.Model(&entities.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&users).Error
	return users, total, err
}

// UpdateLevel changes a user's reading level after boundary validation.
func (r *Repository) UpdateLevel(userID uint, level entities.Level) error {
	return r.db.Model(&entities.User{}).Where("id = ?", userID).
		Update("level", level).Error
}

// UpdateRole changes a user's role.
func (r *Repository) UpdateRole(userID uint, role entities.UserRole) error {
	return r.db.Model(&entities.User{}).Where("id = ?", userID).
		Update("role", role).Error
}

// DeleteUser soft-deletes a user account.
func (r *Repository) DeleteUser(id uint) error {
	return r.db.Delete(&entities.User{}, id).Error
}
