package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karibu-app/karibu-backend/api/middleware"
	"github.com/karibu-app/karibu-backend/api/responses"
	"github.com/karibu-app/karibu-backend/api/validators"
	cartsvc "github.com/karibu-app/karibu-backend/internal/cart"
	ordersvc "github.com/karibu-app/karibu-backend/internal/orders"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/logger"
)

type submitOrderRequest struct {
	RestaurantID    string             `json:"restaurant_id" validate:"required,uuid4"`
	CustomerName    string             `json:"customer_name" validate:"required"`
	CustomerPhone   string             `json:"customer_phone" validate:"required"`
	DeliveryOption  string             `json:"delivery_option" validate:"required"`
	DeliveryAddress string             `json:"delivery_address,omitempty"`
	DeliveryZone    string             `json:"delivery_zone,omitempty"`
	DeliveryFee     decimal.Decimal    `json:"delivery_fee"`
	Note            string             `json:"note,omitempty"`
	PromoCode       string             `json:"promo_code,omitempty"`
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Total           decimal.Decimal    `json:"total"`
}

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SubmitOrder turns the cart into a persisted order and hands back the
// WhatsApp relay link. The submitter's cart is cleared on success.
func SubmitOrder(svc ordersvc.Service, carts *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload submitOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toSubmitInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context"))
				return
			}
			input.CustomerID = &userID
		}

		result, err := svc.Submit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if carts != nil {
			if owner := middleware.CartOwnerFromContext(r.Context()); owner != "" {
				engine := carts.Engine(r.Context(), owner)
				if err := engine.Clear(r.Context()); err != nil && logg != nil {
					logg.Error(r.Context(), "clearing cart after order", err)
				}
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order":         result.Order,
			"whatsapp_link": result.WhatsAppLink,
		})
	}
}

// ListMyOrders returns the authenticated diner's order history.
func ListMyOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.ListForCustomer(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// GetOrder returns one order the caller may see: their own, or any order of
// the restaurant they administer.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := urlUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		ownsOrder := order.CustomerID != nil && order.CustomerID.String() == middleware.UserIDFromContext(ctx)
		runsRestaurant := order.RestaurantID.String() == middleware.RestaurantIDFromContext(ctx)
		if !ownsOrder && !runsRestaurant {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder lets a diner withdraw their pending order.
func CancelOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := urlUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OwnerListOrders returns the restaurant's order backlog.
func OwnerListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := callerRestaurantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := svc.ListForRestaurant(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// OwnerUpdateOrderStatus moves an order through the fulfilment flow.
func OwnerUpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := callerRestaurantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := urlUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), restaurantID, orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func (p submitOrderRequest) toSubmitInput() (ordersvc.SubmitInput, error) {
	restaurantID, err := uuid.Parse(p.RestaurantID)
	if err != nil {
		return ordersvc.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id")
	}
	option, err := enums.ParseDeliveryOption(strings.TrimSpace(p.DeliveryOption))
	if err != nil {
		return ordersvc.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery option")
	}

	items := make([]ordersvc.SubmitItem, 0, len(p.Items))
	for _, item := range p.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return ordersvc.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		items = append(items, ordersvc.SubmitItem{ProductID: productID, Quantity: item.Quantity})
	}

	return ordersvc.SubmitInput{
		RestaurantID:    restaurantID,
		CustomerName:    p.CustomerName,
		CustomerPhone:   p.CustomerPhone,
		DeliveryOption:  option,
		DeliveryAddress: p.DeliveryAddress,
		DeliveryZone:    p.DeliveryZone,
		DeliveryFee:     p.DeliveryFee,
		Note:            p.Note,
		PromoCode:       p.PromoCode,
		Items:           items,
		Total:           p.Total,
	}, nil
}
