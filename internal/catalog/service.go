package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/internal/cart"
	"github.com/karibu-app/karibu-backend/pkg/db/models"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
)

// Service exposes menu management and lookup operations. Writes are scoped
// to the owner's restaurant.
type Service interface {
	Menu(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error)
	ListOwn(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, restaurantID uuid.UUID, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, restaurantID, productID uuid.UUID, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, restaurantID, productID uuid.UUID) error
}

// CreateInput holds the validated payload to create a menu product.
type CreateInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	ImageURL    string
	Available   bool
}

// UpdateInput holds optional mutation values for a product.
type UpdateInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	ImageURL    *string
	Available   *bool
}

type productStore interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListAvailable(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo productStore
}

// NewService constructs a catalog service.
func NewService(repo productStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Menu(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error) {
	products, err := s.repo.ListAvailable(ctx, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing menu")
	}
	return products, nil
}

func (s *service) ListOwn(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error) {
	products, err := s.repo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err)
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, restaurantID uuid.UUID, input CreateInput) (*models.Product, error) {
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}

	product := &models.Product{
		RestaurantID: restaurantID,
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		Category:     strings.TrimSpace(input.Category),
		Price:        input.Price,
		ImageURL:     input.ImageURL,
		Available:    input.Available,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, restaurantID, productID uuid.UUID, input UpdateInput) (*models.Product, error) {
	product, err := s.ownedProduct(ctx, restaurantID, productID)
	if err != nil {
		return nil, err
	}

	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		product.Price = *input.Price
	}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.Available != nil {
		product.Available = *input.Available
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, restaurantID, productID uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, restaurantID, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

// ownedProduct loads the product and verifies the caller's restaurant owns
// it. Another restaurant's product reads as not found, never as forbidden,
// so product ids are not probeable.
func (s *service) ownedProduct(ctx context.Context, restaurantID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundOrInternal(err)
	}
	if product.RestaurantID != restaurantID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return nil
}

// ToCartProduct converts a menu product into the cart's consumable shape.
func ToCartProduct(p models.Product) cart.Product {
	return cart.Product{
		ID:           p.ID.String(),
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Category:     p.Category,
		ImageURL:     p.ImageURL,
		RestaurantID: p.RestaurantID.String(),
	}
}

func notFoundOrInternal(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
}
