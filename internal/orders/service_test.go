package orders

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/internal/promos"
	"github.com/karibu-app/karibu-backend/pkg/config"
	"github.com/karibu-app/karibu-backend/pkg/db/models"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/types"
)

type stubOrderRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.CustomerID != nil && *order.CustomerID == customerID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubOrderRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.RestaurantID == restaurantID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

type stubTxRunner struct {
	tx *gorm.DB
}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(s.tx)
}

type fakeRestaurantLoader struct {
	restaurants map[uuid.UUID]*models.Restaurant
}

func (f *fakeRestaurantLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, ok := f.restaurants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return restaurant, nil
}

type fakeProductLoader struct {
	products []models.Product
}

func (f *fakeProductLoader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, product := range f.products {
		for _, id := range ids {
			if product.ID == id {
				out = append(out, product)
			}
		}
	}
	return out, nil
}

type fakePromoService struct {
	result    promos.VerificationResult
	redeemed  []string
	redeemTxs []*gorm.DB
}

func (f *fakePromoService) Verify(ctx context.Context, restaurantID uuid.UUID, code string, subtotal decimal.Decimal) (promos.VerificationResult, error) {
	return f.result, nil
}

func (f *fakePromoService) Redeem(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, code string) error {
	f.redeemed = append(f.redeemed, code)
	f.redeemTxs = append(f.redeemTxs, tx)
	return nil
}

type fakeStatusPublisher struct {
	events []enums.OrderStatus
}

func (f *fakeStatusPublisher) Publish(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	f.events = append(f.events, status)
	return nil
}

type fixture struct {
	svc          Service
	repo         *stubOrderRepo
	promos       *fakePromoService
	publisher    *fakeStatusPublisher
	restaurantID uuid.UUID
	pizza        models.Product
	salad        models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	restaurantID := uuid.New()
	pizza := models.Product{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Name:         "Pizza Margherita",
		Price:        decimal.NewFromFloat(8.50),
		Available:    true,
	}
	salad := models.Product{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Name:         "Salade César",
		Price:        decimal.NewFromFloat(5.00),
		Available:    true,
	}

	repo := newStubOrderRepo()
	promoService := &fakePromoService{result: promos.VerificationResult{Valid: true}}
	publisher := &fakeStatusPublisher{}
	loader := &fakeRestaurantLoader{restaurants: map[uuid.UUID]*models.Restaurant{
		restaurantID: {
			ID:            restaurantID,
			Name:          "Chez Mario",
			WhatsappPhone: "+243 990 111 222",
			Active:        true,
			DeliveryZones: types.DeliveryZones{
				{Name: "Gombe", Fee: decimal.NewFromFloat(3.00)},
			},
		},
	}}

	svc, err := NewService(
		repo,
		stubTxRunner{},
		loader,
		&fakeProductLoader{products: []models.Product{pizza, salad}},
		promoService,
		publisher,
		nil,
		nil,
		config.OrdersConfig{FallbackWhatsAppPhone: "+10000000000"},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{
		svc:          svc,
		repo:         repo,
		promos:       promoService,
		publisher:    publisher,
		restaurantID: restaurantID,
		pizza:        pizza,
		salad:        salad,
	}
}

func (f *fixture) pickupInput() SubmitInput {
	return SubmitInput{
		RestaurantID:   f.restaurantID,
		CustomerName:   "Alice",
		CustomerPhone:  "+243811222333",
		DeliveryOption: enums.DeliveryOptionPickup,
		Items: []SubmitItem{
			{ProductID: f.pizza.ID, Quantity: 2},
			{ProductID: f.salad.ID, Quantity: 1},
		},
		Total: decimal.NewFromFloat(22.00),
	}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestSubmitPersistsOrderAndBuildsLink(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	result, err := f.svc.Submit(context.Background(), f.pickupInput())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	order := result.Order
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.Number != strings.ToUpper(order.ID.String())[:5] {
		t.Fatalf("order number %q is not the display prefix of id %s", order.Number, order.ID)
	}
	if !order.Subtotal.Equal(decimal.NewFromFloat(22.00)) {
		t.Fatalf("unexpected subtotal %s", order.Subtotal)
	}
	if !order.Total.Equal(decimal.NewFromFloat(22.00)) {
		t.Fatalf("unexpected total %s", order.Total)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(order.Items))
	}
	if !order.Items[0].UnitPrice.Equal(f.pizza.Price) {
		t.Fatal("line items must carry catalog prices")
	}

	if _, ok := f.repo.orders[order.ID]; !ok {
		t.Fatal("order not persisted")
	}
	if !strings.HasPrefix(result.WhatsAppLink, "https://wa.me/243990111222?text=") {
		t.Fatalf("unexpected link %q", result.WhatsAppLink)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0] != enums.OrderStatusPending {
		t.Fatalf("expected one pending event, got %v", f.publisher.events)
	}
}

func TestSubmitRejectsInactiveRestaurant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := f.pickupInput()
	closedID := uuid.New()
	loader := &fakeRestaurantLoader{restaurants: map[uuid.UUID]*models.Restaurant{
		closedID: {ID: closedID, Name: "Fermé", Active: false},
	}}
	svc, err := NewService(f.repo, stubTxRunner{}, loader,
		&fakeProductLoader{products: []models.Product{f.pizza, f.salad}},
		f.promos, nil, nil, nil, config.OrdersConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	input.RestaurantID = closedID

	_, err = svc.Submit(context.Background(), input)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSubmitRejectsProductsOffTheMenu(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := f.pickupInput()
	input.Items = append(input.Items, SubmitItem{ProductID: uuid.New(), Quantity: 1})

	_, err := f.svc.Submit(context.Background(), input)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestSubmitRejectsUnavailableProduct(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	soldOut := f.pizza
	soldOut.ID = uuid.New()
	soldOut.Available = false

	svc, err := NewService(f.repo, stubTxRunner{},
		&fakeRestaurantLoader{restaurants: map[uuid.UUID]*models.Restaurant{
			f.restaurantID: {ID: f.restaurantID, Active: true},
		}},
		&fakeProductLoader{products: []models.Product{soldOut}},
		f.promos, nil, nil, nil, config.OrdersConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	input := f.pickupInput()
	input.Items = []SubmitItem{{ProductID: soldOut.ID, Quantity: 1}}
	input.Total = soldOut.Price

	_, err = svc.Submit(context.Background(), input)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestSubmitRejectsTotalMismatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := f.pickupInput()
	input.Total = decimal.NewFromFloat(19.99)

	_, err := f.svc.Submit(context.Background(), input)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestSubmitDeliveryRequiresAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := f.pickupInput()
	input.DeliveryOption = enums.DeliveryOptionDelivery

	_, err := f.svc.Submit(context.Background(), input)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestSubmitDeliveryZoneSetsFee(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := f.pickupInput()
	input.DeliveryOption = enums.DeliveryOptionDelivery
	input.DeliveryAddress = "12 avenue des Palmiers"
	input.DeliveryZone = "gombe"
	input.DeliveryFee = decimal.NewFromFloat(0.50)
	input.Total = decimal.NewFromFloat(25.00)

	result, err := f.svc.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.Order.DeliveryFee.Equal(decimal.NewFromFloat(3.00)) {
		t.Fatalf("zone fee not applied, got %s", result.Order.DeliveryFee)
	}
}

func TestSubmitUnknownDeliveryZone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := f.pickupInput()
	input.DeliveryOption = enums.DeliveryOptionDelivery
	input.DeliveryAddress = "12 avenue des Palmiers"
	input.DeliveryZone = "Limete"

	_, err := f.svc.Submit(context.Background(), input)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestSubmitRedeemsPromoCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.promos.result = promos.VerificationResult{
		Valid:          true,
		DiscountAmount: decimal.NewFromFloat(2.00),
	}

	input := f.pickupInput()
	input.PromoCode = "bienvenue"
	input.Total = decimal.NewFromFloat(20.00)

	result, err := f.svc.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Order.DiscountCode != "BIENVENUE" {
		t.Fatalf("unexpected discount code %q", result.Order.DiscountCode)
	}
	if !result.Order.DiscountAmount.Equal(decimal.NewFromFloat(2.00)) {
		t.Fatalf("unexpected discount %s", result.Order.DiscountAmount)
	}
	if len(f.promos.redeemed) != 1 || f.promos.redeemed[0] != "BIENVENUE" {
		t.Fatalf("promo not redeemed: %v", f.promos.redeemed)
	}
}

func TestSubmitRedeemsPromoOnSubmissionTx(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sentinel := &gorm.DB{}
	promoService := &fakePromoService{result: promos.VerificationResult{
		Valid:          true,
		DiscountAmount: decimal.NewFromFloat(2.00),
	}}
	svc, err := NewService(f.repo, stubTxRunner{tx: sentinel},
		&fakeRestaurantLoader{restaurants: map[uuid.UUID]*models.Restaurant{
			f.restaurantID: {ID: f.restaurantID, Name: "Chez Mario", Active: true},
		}},
		&fakeProductLoader{products: []models.Product{f.pizza, f.salad}},
		promoService, nil, nil, nil, config.OrdersConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	input := f.pickupInput()
	input.PromoCode = "BIENVENUE"
	input.Total = decimal.NewFromFloat(20.00)

	if _, err := svc.Submit(context.Background(), input); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(promoService.redeemTxs) != 1 || promoService.redeemTxs[0] != sentinel {
		t.Fatal("redemption must run on the submission transaction")
	}
}

func TestSubmitRejectsInvalidPromo(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.promos.result = promos.VerificationResult{Valid: false, Message: "Code promo expiré"}

	input := f.pickupInput()
	input.PromoCode = "VIEUX"

	_, err := f.svc.Submit(context.Background(), input)
	expectCode(t, err, pkgerrors.CodeValidation)
	if len(f.promos.redeemed) != 0 {
		t.Fatal("invalid promo must not be redeemed")
	}
}

func TestSubmitFallsBackToPlatformNumber(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	noPhoneID := uuid.New()
	loader := &fakeRestaurantLoader{restaurants: map[uuid.UUID]*models.Restaurant{
		noPhoneID: {ID: noPhoneID, Name: "Sans Numéro", Active: true},
	}}
	pizza := f.pizza
	pizza.RestaurantID = noPhoneID
	svc, err := NewService(f.repo, stubTxRunner{}, loader,
		&fakeProductLoader{products: []models.Product{pizza}},
		f.promos, nil, nil, nil,
		config.OrdersConfig{FallbackWhatsAppPhone: "+1 (000) 000-0000"})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	input := f.pickupInput()
	input.RestaurantID = noPhoneID
	input.Items = []SubmitItem{{ProductID: pizza.ID, Quantity: 1}}
	input.Total = pizza.Price

	result, err := svc.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !strings.HasPrefix(result.WhatsAppLink, "https://wa.me/10000000000?text=") {
		t.Fatalf("fallback number not used: %q", result.WhatsAppLink)
	}
}

func TestUpdateStatusFollowsFulfilmentFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	result, err := f.svc.Submit(context.Background(), f.pickupInput())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	ctx := context.Background()
	orderID := result.Order.ID

	updated, err := f.svc.UpdateStatus(ctx, f.restaurantID, orderID, enums.OrderStatusAccepted)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if updated.Status != enums.OrderStatusAccepted {
		t.Fatalf("expected accepted, got %s", updated.Status)
	}

	_, err = f.svc.UpdateStatus(ctx, f.restaurantID, orderID, enums.OrderStatusDelivered)
	expectCode(t, err, pkgerrors.CodeStateConflict)

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), orderID, enums.OrderStatusPreparing)
	expectCode(t, err, pkgerrors.CodeNotFound)

	if len(f.publisher.events) != 2 {
		t.Fatalf("expected pending and accepted events, got %v", f.publisher.events)
	}
}

func TestCancelOnlyWhilePending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	customerID := uuid.New()
	input := f.pickupInput()
	input.CustomerID = &customerID

	result, err := f.svc.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	ctx := context.Background()
	orderID := result.Order.ID

	_, err = f.svc.Cancel(ctx, uuid.New(), orderID)
	expectCode(t, err, pkgerrors.CodeNotFound)

	cancelled, err := f.svc.Cancel(ctx, customerID, orderID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	_, err = f.svc.Cancel(ctx, customerID, orderID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestGuestOrdersCannotBeCancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	result, err := f.svc.Submit(context.Background(), f.pickupInput())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err = f.svc.Cancel(context.Background(), uuid.New(), result.Order.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)
}
