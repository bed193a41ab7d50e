package restaurants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/pkg/db/models"
)

// Repository manages restaurant persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the restaurant.
func (r *Repository) Create(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error) {
	if err := r.db.WithContext(ctx).Create(restaurant).Error; err != nil {
		return nil, err
	}
	return restaurant, nil
}

// FindByID loads a restaurant by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// FindBySlug loads a restaurant by its public slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// ListActive returns restaurants visible to diners, newest first.
func (r *Repository) ListActive(ctx context.Context) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&restaurants).Error; err != nil {
		return nil, err
	}
	return restaurants, nil
}

// ListAll returns every restaurant for the admin surface.
func (r *Repository) ListAll(ctx context.Context) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&restaurants).Error; err != nil {
		return nil, err
	}
	return restaurants, nil
}

// Update saves the full restaurant record.
func (r *Repository) Update(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error) {
	if err := r.db.WithContext(ctx).Save(restaurant).Error; err != nil {
		return nil, err
	}
	return restaurant, nil
}

// SetActive flips the visibility flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("id = ?", id).
		Update("active", active).Error
}

// Delete removes the restaurant.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Restaurant{}, "id = ?", id).Error
}
