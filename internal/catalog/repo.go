package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/pkg/db/models"
)

// Repository manages menu product persistence.
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

// Create inserts the product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads several products at once for order validation.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListAvailable returns the public menu of a restaurant grouped by category
// order then name.
func (r *Repository) ListAvailable(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND available = ?", restaurantID, true).
		Order("category ASC, name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListByRestaurant returns every product of a restaurant for the owner view.
func (r *Repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("category ASC, name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Update saves the full product record.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes the product.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}
