package repositories

import (
	"context"
	"errors"
	"fmt"

	"ferreteria/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMStaffRepository is a GORM implementation of StaffRepository.
type GORMStaffRepository struct {
	db *gorm.DB
}

// NewGORMStaffRepository creates a new instance of GORMStaffRepository.
func NewGORMStaffRepository(db *gorm.DB) *GORMStaffRepository {
	return &GORMStaffRepository{
		db: db,
	}
}

// Create stores a new staff account.
func (r *GORMStaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(staff).Error; err != nil {
		return fmt.Errorf("failed to create staff account: %w", err)
	}
	return nil
}

// GetByUsername retrieves an account by its username.
func (r *GORMStaffRepository) GetByUsername(ctx context.Context, username string) (*models.Staff, error) {
	return r.first(ctx, "username = ?", username)
}

// GetByEmail retrieves an account by its email.
func (r *GORMStaffRepository) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *GORMStaffRepository) first(ctx context.Context, query string, arg string) (*models.Staff, error) {
	var staff models.Staff
	if err := r.db.WithContext(ctx).First(&staff, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("staff %s: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get staff %s: %w", arg, err)
	}
	return &staff, nil
}
