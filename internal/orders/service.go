// Package orders turns submitted carts into persisted orders and relays them
// to the restaurant over WhatsApp click-to-chat links.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/internal/promos"
	"github.com/karibu-app/karibu-backend/internal/restaurants"
	"github.com/karibu-app/karibu-backend/pkg/config"
	"github.com/karibu-app/karibu-backend/pkg/db/models"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/logger"
	"github.com/karibu-app/karibu-backend/pkg/metrics"
	"github.com/karibu-app/karibu-backend/pkg/whatsapp"
)

// orderNumberLength is how many characters of the order id form the short
// reference shown to diners and owners. It is a display prefix of the id,
// not a key; the id stays the only unique handle.
const orderNumberLength = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type restaurantLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type promoRedeemer interface {
	Verify(ctx context.Context, restaurantID uuid.UUID, code string, subtotal decimal.Decimal) (promos.VerificationResult, error)
	Redeem(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, code string) error
}

type statusPublisher interface {
	Publish(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}

// Service exposes order submission, listing, and the fulfilment status flow.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	ListForRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, restaurantID, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error)
}

// SubmitItem references one product of the submitted cart. Prices are never
// taken from the client; they are reloaded from the catalog.
type SubmitItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// SubmitInput holds the validated payload of an order submission. Total is
// the amount the storefront displayed to the diner and must match the
// server-side recomputation.
type SubmitInput struct {
	RestaurantID    uuid.UUID
	CustomerID      *uuid.UUID
	CustomerName    string
	CustomerPhone   string
	DeliveryOption  enums.DeliveryOption
	DeliveryAddress string
	DeliveryZone    string
	DeliveryFee     decimal.Decimal
	Note            string
	PromoCode       string
	Items           []SubmitItem
	Total           decimal.Decimal
}

// SubmitResult is the persisted order plus the wa.me link the storefront
// opens to hand the order to the restaurant.
type SubmitResult struct {
	Order        *models.Order
	WhatsAppLink string
}

type service struct {
	repo        Repository
	tx          txRunner
	restaurants restaurantLoader
	products    productLoader
	promos      promoRedeemer
	publisher   statusPublisher
	metrics     *metrics.OrderMetrics
	logg        *logger.Logger
	cfg         config.OrdersConfig
	now         func() time.Time
}

// NewService builds the order service. The publisher and metrics may be nil
// when tracking or instrumentation is not wired.
func NewService(
	repo Repository,
	tx txRunner,
	restaurantRepo restaurantLoader,
	productRepo productLoader,
	promoService promoRedeemer,
	publisher statusPublisher,
	orderMetrics *metrics.OrderMetrics,
	logg *logger.Logger,
	cfg config.OrdersConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if restaurantRepo == nil {
		return nil, fmt.Errorf("restaurant repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if promoService == nil {
		return nil, fmt.Errorf("promo service required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		restaurants: restaurantRepo,
		products:    productRepo,
		promos:      promoService,
		publisher:   publisher,
		metrics:     orderMetrics,
		logg:        logg,
		cfg:         cfg,
		now:         time.Now,
	}, nil
}

// Submit validates the payload against the catalog, recomputes the amounts
// server-side, persists the order with its line items, burns the promo code
// when one applies, and returns the WhatsApp relay link.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	started := s.now()

	if err := validateSubmitInput(input); err != nil {
		return nil, err
	}

	restaurant, err := s.restaurants.FindByID(ctx, input.RestaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restaurant")
	}
	if !restaurant.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "restaurant is not accepting orders")
	}

	lineItems, subtotal, err := s.buildLineItems(ctx, input)
	if err != nil {
		return nil, err
	}

	deliveryFee, err := resolveDeliveryFee(restaurant, input)
	if err != nil {
		return nil, err
	}

	discountCode := ""
	discountAmount := decimal.Zero
	if strings.TrimSpace(input.PromoCode) != "" {
		result, err := s.promos.Verify(ctx, input.RestaurantID, input.PromoCode, subtotal)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, result.Message)
		}
		discountCode = promos.NormalizeCode(input.PromoCode)
		discountAmount = result.DiscountAmount
	}

	total := subtotal.Add(deliveryFee).Sub(discountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	if !total.Equal(input.Total) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("total mismatch: expected %s, got %s", total.StringFixed(2), input.Total.StringFixed(2)))
	}

	orderID := uuid.New()
	order := &models.Order{
		ID:              orderID,
		Number:          orderNumber(orderID),
		RestaurantID:    input.RestaurantID,
		CustomerID:      input.CustomerID,
		GuestName:       strings.TrimSpace(input.CustomerName),
		GuestPhone:      strings.TrimSpace(input.CustomerPhone),
		DeliveryOption:  input.DeliveryOption,
		DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
		Note:            strings.TrimSpace(input.Note),
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		DiscountCode:    discountCode,
		DiscountAmount:  discountAmount,
		Total:           total,
		Status:          enums.OrderStatusPending,
		Items:           lineItems,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
		}
		if discountCode != "" {
			if err := s.promos.Redeem(ctx, tx, input.RestaurantID, discountCode); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCreated(string(order.DeliveryOption))
	s.metrics.ObserveSubmitDuration(string(order.DeliveryOption), s.now().Sub(started))
	s.publishStatus(ctx, order.ID, order.Status)

	return &SubmitResult{
		Order:        order,
		WhatsAppLink: s.relayLink(restaurant, order),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	orders, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing customer orders")
	}
	return orders, nil
}

func (s *service) ListForRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error) {
	orders, err := s.repo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing restaurant orders")
	}
	return orders, nil
}

// UpdateStatus advances an order through the fulfilment flow on behalf of
// the restaurant. Transitions outside the allowed flow are rejected.
func (s *service) UpdateStatus(ctx context.Context, restaurantID, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", next))
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RestaurantID != restaurantID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	order.Status = next

	s.metrics.IncStatusChange(string(next))
	s.publishStatus(ctx, order.ID, next)
	return order, nil
}

// Cancel lets the diner withdraw their own order while it is still pending.
func (s *service) Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID == nil || *order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is already %s", order.Status))
	}

	if err := s.repo.UpdateStatus(ctx, orderID, enums.OrderStatusCancelled); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
	}
	order.Status = enums.OrderStatusCancelled

	s.metrics.IncStatusChange(string(enums.OrderStatusCancelled))
	s.publishStatus(ctx, order.ID, order.Status)
	return order, nil
}

func (s *service) buildLineItems(ctx context.Context, input SubmitInput) ([]models.OrderLineItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}

	loaded, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	byID := make(map[uuid.UUID]models.Product, len(loaded))
	for _, product := range loaded {
		byID[product.ID] = product
	}

	lineItems := make([]models.OrderLineItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, item := range input.Items {
		product, ok := byID[item.ProductID]
		if !ok || product.RestaurantID != input.RestaurantID {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is not on this menu", item.ProductID))
		}
		if !product.Available {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s is currently unavailable", product.Name))
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lineItems = append(lineItems, models.OrderLineItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return lineItems, subtotal, nil
}

func (s *service) publishStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, orderID, status); err != nil && s.logg != nil {
		s.logg.Error(ctx, "publishing order status event", err)
	}
}

// relayLink renders the French relay message and wraps it in a wa.me link.
// Restaurants without a WhatsApp number fall back to the platform number.
func (s *service) relayLink(restaurant *models.Restaurant, order *models.Order) string {
	phone := restaurant.WhatsappPhone
	if whatsapp.NormalizePhone(phone) == "" {
		phone = s.cfg.FallbackWhatsAppPhone
	}

	items := make([]whatsapp.ItemSummary, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, whatsapp.ItemSummary{
			Name:      item.Name,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	message := whatsapp.FormatOrderMessage(whatsapp.OrderSummary{
		Number:         order.Number,
		CustomerName:   order.GuestName,
		CustomerPhone:  order.GuestPhone,
		Address:        order.DeliveryAddress,
		DeliveryOption: order.DeliveryOption,
		Items:          items,
		Note:           order.Note,
		Total:          order.Total,
		RestaurantName: restaurant.Name,
	})
	return whatsapp.Link(phone, message)
}

func validateSubmitInput(input SubmitInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantities must be positive")
		}
	}
	if !input.DeliveryOption.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery option %q", input.DeliveryOption))
	}
	if input.DeliveryOption == enums.DeliveryOptionDelivery && strings.TrimSpace(input.DeliveryAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery orders need an address")
	}
	if strings.TrimSpace(input.CustomerName) == "" || strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name and phone are required")
	}
	return nil
}

// resolveDeliveryFee picks the fee the order is charged. Pickup is always
// free. A named zone overrides the client-sent fee with the restaurant's
// configured one.
func resolveDeliveryFee(restaurant *models.Restaurant, input SubmitInput) (decimal.Decimal, error) {
	if input.DeliveryOption != enums.DeliveryOptionDelivery {
		return decimal.Zero, nil
	}
	if zone := strings.TrimSpace(input.DeliveryZone); zone != "" {
		fee, ok := restaurants.ZoneFee(restaurant, zone)
		if !ok {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown delivery zone %q", zone))
		}
		return fee, nil
	}
	if input.DeliveryFee.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee cannot be negative")
	}
	return input.DeliveryFee, nil
}

func orderNumber(id uuid.UUID) string {
	raw := strings.ToUpper(id.String())
	return raw[:orderNumberLength]
}
