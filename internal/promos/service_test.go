package promos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/pkg/db/models"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
)

type fakePromoStore struct {
	byID    map[uuid.UUID]*models.PromoCode
	boundTx []*gorm.DB
}

func newFakePromoStore() *fakePromoStore {
	return &fakePromoStore{byID: map[uuid.UUID]*models.PromoCode{}}
}

func (f *fakePromoStore) WithTx(tx *gorm.DB) Repository {
	if tx != nil {
		f.boundTx = append(f.boundTx, tx)
	}
	return f
}

func (f *fakePromoStore) Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	for _, existing := range f.byID {
		if existing.RestaurantID == promo.RestaurantID && existing.Code == promo.Code {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	promo.ID = uuid.New()
	f.byID[promo.ID] = promo
	return promo, nil
}

func (f *fakePromoStore) FindByCode(ctx context.Context, restaurantID uuid.UUID, code string) (*models.PromoCode, error) {
	for _, promo := range f.byID {
		if promo.RestaurantID == restaurantID && promo.Code == code {
			return promo, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePromoStore) FindByID(ctx context.Context, restaurantID, promoID uuid.UUID) (*models.PromoCode, error) {
	promo, ok := f.byID[promoID]
	if !ok || promo.RestaurantID != restaurantID {
		return nil, gorm.ErrRecordNotFound
	}
	return promo, nil
}

func (f *fakePromoStore) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.PromoCode, error) {
	var out []models.PromoCode
	for _, promo := range f.byID {
		if promo.RestaurantID == restaurantID {
			out = append(out, *promo)
		}
	}
	return out, nil
}

func (f *fakePromoStore) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	promo, ok := f.byID[id]
	if !ok {
		return false, nil
	}
	if promo.UsageLimit > 0 && promo.UsedCount >= promo.UsageLimit {
		return false, nil
	}
	promo.UsedCount++
	return true, nil
}

func (f *fakePromoStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func newTestService(store *fakePromoStore, now time.Time) *service {
	return &service{repo: store, now: func() time.Time { return now }}
}

func seedPromo(t *testing.T, store *fakePromoStore, promo models.PromoCode) *models.PromoCode {
	t.Helper()
	created, err := store.Create(context.Background(), &promo)
	if err != nil {
		t.Fatalf("seeding promo: %v", err)
	}
	return created
}

func TestVerifyPercentageDiscount(t *testing.T) {
	t.Parallel()

	store := newFakePromoStore()
	restaurantID := uuid.New()
	seedPromo(t, store, models.PromoCode{
		RestaurantID: restaurantID,
		Code:         "PROMO10",
		Kind:         enums.PromoKindPercentage,
		Value:        decimal.NewFromInt(10),
		Active:       true,
	})
	svc := newTestService(store, time.Now())

	result, err := svc.Verify(context.Background(), restaurantID, "promo10", decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result: %+v", result)
	}
	if !result.DiscountAmount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected 10%% of 50 = 5, got %s", result.DiscountAmount)
	}
}

func TestVerifyFixedDiscountCappedAtSubtotal(t *testing.T) {
	t.Parallel()

	store := newFakePromoStore()
	restaurantID := uuid.New()
	seedPromo(t, store, models.PromoCode{
		RestaurantID: restaurantID,
		Code:         "FIXED20",
		Kind:         enums.PromoKindFixed,
		Value:        decimal.NewFromInt(20),
		Active:       true,
	})
	svc := newTestService(store, time.Now())

	result, err := svc.Verify(context.Background(), restaurantID, "FIXED20", decimal.NewFromInt(12))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !result.Valid || !result.DiscountAmount.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("fixed discount should cap at subtotal, got %+v", result)
	}
}

func TestVerifyRejections(t *testing.T) {
	t.Parallel()

	now := time.Now()
	expired := now.Add(-time.Hour)
	restaurantID := uuid.New()

	store := newFakePromoStore()
	seedPromo(t, store, models.PromoCode{
		RestaurantID: restaurantID, Code: "INACTIVE", Kind: enums.PromoKindFixed,
		Value: decimal.NewFromInt(5), Active: false,
	})
	seedPromo(t, store, models.PromoCode{
		RestaurantID: restaurantID, Code: "EXPIRED", Kind: enums.PromoKindFixed,
		Value: decimal.NewFromInt(5), Active: true, ExpiresAt: &expired,
	})
	seedPromo(t, store, models.PromoCode{
		RestaurantID: restaurantID, Code: "USEDUP", Kind: enums.PromoKindFixed,
		Value: decimal.NewFromInt(5), Active: true, UsageLimit: 1, UsedCount: 1,
	})
	seedPromo(t, store, models.PromoCode{
		RestaurantID: restaurantID, Code: "MIN50", Kind: enums.PromoKindFixed,
		Value: decimal.NewFromInt(5), Active: true, MinSubtotal: decimal.NewFromInt(50),
	})
	svc := newTestService(store, now)
	ctx := context.Background()
	subtotal := decimal.NewFromInt(20)

	for _, code := range []string{"UNKNOWN", "INACTIVE", "EXPIRED", "USEDUP", "MIN50", ""} {
		result, err := svc.Verify(ctx, restaurantID, code, subtotal)
		if err != nil {
			t.Fatalf("verify %q errored: %v", code, err)
		}
		if result.Valid {
			t.Fatalf("code %q should be invalid", code)
		}
		if result.Message == "" {
			t.Fatalf("code %q should carry a message", code)
		}
		if !result.DiscountAmount.IsZero() {
			t.Fatalf("invalid code %q carries a discount", code)
		}
	}
}

func TestVerifyScopedToRestaurant(t *testing.T) {
	t.Parallel()

	store := newFakePromoStore()
	seedPromo(t, store, models.PromoCode{
		RestaurantID: uuid.New(), Code: "PROMO", Kind: enums.PromoKindFixed,
		Value: decimal.NewFromInt(5), Active: true,
	})
	svc := newTestService(store, time.Now())

	result, err := svc.Verify(context.Background(), uuid.New(), "PROMO", decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.Valid {
		t.Fatal("another restaurant's code should not verify")
	}
}

func TestRedeemRespectsUsageLimit(t *testing.T) {
	t.Parallel()

	store := newFakePromoStore()
	restaurantID := uuid.New()
	seedPromo(t, store, models.PromoCode{
		RestaurantID: restaurantID, Code: "ONCE", Kind: enums.PromoKindFixed,
		Value: decimal.NewFromInt(5), Active: true, UsageLimit: 1,
	})
	svc := newTestService(store, time.Now())
	ctx := context.Background()

	if err := svc.Redeem(ctx, nil, restaurantID, "ONCE"); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	err := svc.Redeem(ctx, nil, restaurantID, "ONCE")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on exhausted code, got %v", err)
	}
}

func TestRedeemBindsToCallerTransaction(t *testing.T) {
	t.Parallel()

	store := newFakePromoStore()
	restaurantID := uuid.New()
	seedPromo(t, store, models.PromoCode{
		RestaurantID: restaurantID, Code: "PROMO", Kind: enums.PromoKindFixed,
		Value: decimal.NewFromInt(5), Active: true,
	})
	svc := newTestService(store, time.Now())
	tx := &gorm.DB{}

	if err := svc.Redeem(context.Background(), tx, restaurantID, "PROMO"); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if len(store.boundTx) != 1 || store.boundTx[0] != tx {
		t.Fatal("redeem must route through the caller's transaction")
	}
}

func TestDeleteScopedToRestaurant(t *testing.T) {
	t.Parallel()

	store := newFakePromoStore()
	restaurantID := uuid.New()
	promo := seedPromo(t, store, models.PromoCode{
		RestaurantID: restaurantID, Code: "PROMO", Kind: enums.PromoKindFixed,
		Value: decimal.NewFromInt(5), Active: true,
	})
	svc := newTestService(store, time.Now())
	ctx := context.Background()

	err := svc.Delete(ctx, uuid.New(), promo.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("another restaurant must not delete the code, got %v", err)
	}
	if _, ok := store.byID[promo.ID]; !ok {
		t.Fatal("promo deleted by the wrong restaurant")
	}

	if err := svc.Delete(ctx, restaurantID, promo.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, ok := store.byID[promo.ID]; ok {
		t.Fatal("promo not deleted")
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	store := newFakePromoStore()
	svc := newTestService(store, time.Now())
	ctx := context.Background()
	restaurantID := uuid.New()

	cases := []CreateInput{
		{Code: "", Kind: enums.PromoKindFixed, Value: decimal.NewFromInt(5)},
		{Code: "X", Kind: enums.PromoKind("bogus"), Value: decimal.NewFromInt(5)},
		{Code: "X", Kind: enums.PromoKindFixed, Value: decimal.Zero},
		{Code: "X", Kind: enums.PromoKindPercentage, Value: decimal.NewFromInt(150)},
		{Code: "X", Kind: enums.PromoKindFixed, Value: decimal.NewFromInt(5), UsageLimit: -1},
	}
	for i, input := range cases {
		_, err := svc.Create(ctx, restaurantID, input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}

	created, err := svc.Create(ctx, restaurantID, CreateInput{
		Code: " promo10 ", Kind: enums.PromoKindPercentage, Value: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Code != "PROMO10" {
		t.Fatalf("code not normalized: %q", created.Code)
	}

	_, err = svc.Create(ctx, restaurantID, CreateInput{
		Code: "PROMO10", Kind: enums.PromoKindFixed, Value: decimal.NewFromInt(3),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on duplicate code, got %v", err)
	}
}
