package promos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/pkg/db/models"
)

// Repository manages promo code persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error)
	FindByCode(ctx context.Context, restaurantID uuid.UUID, code string) (*models.PromoCode, error)
	FindByID(ctx context.Context, restaurantID, promoID uuid.UUID) (*models.PromoCode, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.PromoCode, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the promo code.
func (r *repository) Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// FindByCode loads a restaurant's promo by its normalized code.
func (r *repository) FindByCode(ctx context.Context, restaurantID uuid.UUID, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.db.WithContext(ctx).
		First(&promo, "restaurant_id = ? AND code = ?", restaurantID, code).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// FindByID loads a promo scoped to its restaurant.
func (r *repository) FindByID(ctx context.Context, restaurantID, promoID uuid.UUID) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.db.WithContext(ctx).
		First(&promo, "restaurant_id = ? AND id = ?", restaurantID, promoID).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// ListByRestaurant returns a restaurant's promo codes, newest first.
func (r *repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.PromoCode, error) {
	var promos []models.PromoCode
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

// IncrementUsage bumps used_count, guarded by the usage limit. It reports
// whether a row was updated.
func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete removes the promo code.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PromoCode{}, "id = ?", id).Error
}
