package partners

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/pkg/db/models"
	"github.com/karibu-app/karibu-backend/pkg/enums"
)

// Repository defines persistence for partner applications and the records
// provisioned when one is approved.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.PartnerRequest) (*models.PartnerRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PartnerRequest, error)
	ListByStatus(ctx context.Context, status enums.PartnerRequestStatus) ([]models.PartnerRequest, error)
	Update(ctx context.Context, request *models.PartnerRequest) (*models.PartnerRequest, error)
	CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.PartnerRequest) (*models.PartnerRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PartnerRequest, error) {
	var request models.PartnerRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.PartnerRequestStatus) ([]models.PartnerRequest, error) {
	var requests []models.PartnerRequest
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) Update(ctx context.Context, request *models.PartnerRequest) (*models.PartnerRequest, error) {
	if err := r.db.WithContext(ctx).Save(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error) {
	if err := r.db.WithContext(ctx).Create(restaurant).Error; err != nil {
		return nil, err
	}
	return restaurant, nil
}

func (r *repository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
