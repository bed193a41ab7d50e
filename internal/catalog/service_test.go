package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/pkg/db/models"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
)

type fakeProductStore struct {
	byID map[uuid.UUID]*models.Product
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{byID: map[uuid.UUID]*models.Product{}}
}

func (f *fakeProductStore) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.ID = uuid.New()
	f.byID[product.ID] = product
	return product, nil
}

func (f *fakeProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeProductStore) ListAvailable(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, product := range f.byID {
		if product.RestaurantID == restaurantID && product.Available {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (f *fakeProductStore) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, product := range f.byID {
		if product.RestaurantID == restaurantID {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (f *fakeProductStore) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	f.byID[product.ID] = product
	return product, nil
}

func (f *fakeProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(newFakeProductStore())
	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Name:  "Burger",
		Price: decimal.NewFromInt(-1),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMenuOnlyListsAvailable(t *testing.T) {
	t.Parallel()

	store := newFakeProductStore()
	svc, _ := NewService(store)
	ctx := context.Background()
	restaurantID := uuid.New()

	if _, err := svc.Create(ctx, restaurantID, CreateInput{Name: "Burger", Price: decimal.NewFromInt(8), Available: true}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(ctx, restaurantID, CreateInput{Name: "Rupture", Price: decimal.NewFromInt(5), Available: false}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	menu, err := svc.Menu(ctx, restaurantID)
	if err != nil {
		t.Fatalf("menu failed: %v", err)
	}
	if len(menu) != 1 || menu[0].Name != "Burger" {
		t.Fatalf("unexpected menu: %+v", menu)
	}

	own, err := svc.ListOwn(ctx, restaurantID)
	if err != nil {
		t.Fatalf("list own failed: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("owner view should include unavailable items, got %d", len(own))
	}
}

func TestUpdateScopedToOwnRestaurant(t *testing.T) {
	t.Parallel()

	store := newFakeProductStore()
	svc, _ := NewService(store)
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, CreateInput{Name: "Burger", Price: decimal.NewFromInt(8), Available: true})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Update(ctx, uuid.New(), created.ID, UpdateInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("foreign restaurant should read as not found, got %v", err)
	}

	price := decimal.NewFromFloat(9.5)
	updated, err := svc.Update(ctx, owner, created.ID, UpdateInput{Price: &price})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.Price.Equal(price) {
		t.Fatalf("price not applied: %s", updated.Price)
	}
}

func TestDeleteScopedToOwnRestaurant(t *testing.T) {
	t.Parallel()

	store := newFakeProductStore()
	svc, _ := NewService(store)
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, CreateInput{Name: "Burger", Price: decimal.NewFromInt(8), Available: true})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Delete(ctx, uuid.New(), created.ID); err == nil {
		t.Fatal("foreign restaurant delete should fail")
	}
	if err := svc.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); err == nil {
		t.Fatal("product should be gone")
	}
}

func TestToCartProduct(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	restaurantID := uuid.New()
	converted := ToCartProduct(models.Product{
		ID:           id,
		RestaurantID: restaurantID,
		Name:         "Burger",
		Price:        decimal.NewFromFloat(8.5),
		Category:     "BURGERS",
	})
	if converted.ID != id.String() || converted.RestaurantID != restaurantID.String() {
		t.Fatalf("ids not mapped: %+v", converted)
	}
	if !converted.Price.Equal(decimal.NewFromFloat(8.5)) {
		t.Fatalf("price not mapped: %s", converted.Price)
	}
}
