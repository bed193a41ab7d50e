package restaurants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/pkg/db"
	"github.com/karibu-app/karibu-backend/pkg/db/models"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/types"
)

// Service exposes restaurant management operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Restaurant, error)
	ListActive(ctx context.Context) ([]models.Restaurant, error)
	ListAll(ctx context.Context) ([]models.Restaurant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Restaurant, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Restaurant, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateInput holds the validated payload to register a restaurant.
type CreateInput struct {
	Name          string
	OwnerName     string
	WhatsappPhone string
	ImageURL      string
	DeliveryZones types.DeliveryZones
	Active        bool
}

// UpdateInput holds optional mutation values for a restaurant.
type UpdateInput struct {
	Name          *string
	OwnerName     *string
	WhatsappPhone *string
	ImageURL      *string
	DeliveryZones *types.DeliveryZones
}

type restaurantStore interface {
	Create(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	FindBySlug(ctx context.Context, slug string) (*models.Restaurant, error)
	ListActive(ctx context.Context) ([]models.Restaurant, error)
	ListAll(ctx context.Context) ([]models.Restaurant, error)
	Update(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo restaurantStore
}

// NewService constructs a restaurant service.
func NewService(repo restaurantStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("restaurant repository required")
	}
	return &service{repo: repo}, nil
}

// Create registers a restaurant with a slug derived from its name.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Restaurant, error) {
	slug := Slugify(input.Name)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant name yields an empty slug")
	}

	restaurant := &models.Restaurant{
		Slug:          slug,
		Name:          strings.TrimSpace(input.Name),
		OwnerName:     strings.TrimSpace(input.OwnerName),
		WhatsappPhone: strings.TrimSpace(input.WhatsappPhone),
		ImageURL:      input.ImageURL,
		DeliveryZones: input.DeliveryZones,
		Active:        input.Active,
	}

	created, err := s.repo.Create(ctx, restaurant)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("slug %q already in use", slug))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating restaurant")
	}
	return created, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Restaurant, error) {
	restaurants, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing restaurants")
	}
	return restaurants, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Restaurant, error) {
	restaurants, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing restaurants")
	}
	return restaurants, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "restaurant")
	}
	return restaurant, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	restaurant, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundOrInternal(err, "restaurant")
	}
	return restaurant, nil
}

// Update applies the provided fields. The slug is immutable once created so
// shared menu links never break.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Restaurant, error) {
	restaurant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "restaurant")
	}

	if input.Name != nil {
		restaurant.Name = strings.TrimSpace(*input.Name)
	}
	if input.OwnerName != nil {
		restaurant.OwnerName = strings.TrimSpace(*input.OwnerName)
	}
	if input.WhatsappPhone != nil {
		restaurant.WhatsappPhone = strings.TrimSpace(*input.WhatsappPhone)
	}
	if input.ImageURL != nil {
		restaurant.ImageURL = *input.ImageURL
	}
	if input.DeliveryZones != nil {
		restaurant.DeliveryZones = *input.DeliveryZones
	}

	updated, err := s.repo.Update(ctx, restaurant)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating restaurant")
	}
	return updated, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFoundOrInternal(err, "restaurant")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggling restaurant")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFoundOrInternal(err, "restaurant")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting restaurant")
	}
	return nil
}

// ZoneFee resolves the delivery fee for a named zone. Pickup callers should
// not consult zones at all.
func ZoneFee(restaurant *models.Restaurant, zone string) (decimal.Decimal, bool) {
	for _, z := range restaurant.DeliveryZones {
		if strings.EqualFold(z.Name, zone) {
			return z.Fee, true
		}
	}
	return decimal.Zero, false
}

func notFoundOrInternal(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading "+what)
}
