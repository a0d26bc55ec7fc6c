package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ferreteria/internal/models"

	"github.com/google/uuid"
)

// MemoryStaffRepository keeps staff accounts in memory.
type MemoryStaffRepository struct {
	mu    sync.RWMutex
	staff map[string]models.Staff
}

// NewMemoryStaffRepository creates an empty account store.
func NewMemoryStaffRepository() *MemoryStaffRepository {
	return &MemoryStaffRepository{staff: make(map[string]models.Staff)}
}

// Create stores a new staff account.
func (r *MemoryStaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.staff {
		if existing.Username == staff.Username || existing.Email == staff.Email {
			return fmt.Errorf("staff account %s already exists", staff.Username)
		}
	}
	if staff.ID == "" {
		staff.ID = uuid.New().String()
	}
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt
	r.staff[staff.ID] = *staff
	return nil
}

// GetByUsername retrieves an account by its username.
func (r *MemoryStaffRepository) GetByUsername(ctx context.Context, username string) (*models.Staff, error) {
	return r.find(func(s models.Staff) bool { return s.Username == username }, username)
}

// GetByEmail retrieves an account by its email.
func (r *MemoryStaffRepository) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	return r.find(func(s models.Staff) bool { return s.Email == email }, email)
}

func (r *MemoryStaffRepository) find(match func(models.Staff) bool, key string) (*models.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.staff {
		if match(s) {
			found := s
			return &found, nil
		}
	}
	return nil, fmt.Errorf("staff %s: %w", key, ErrNotFound)
}
