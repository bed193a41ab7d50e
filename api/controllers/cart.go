package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karibu-app/karibu-backend/api/middleware"
	"github.com/karibu-app/karibu-backend/api/responses"
	"github.com/karibu-app/karibu-backend/api/validators"
	cartsvc "github.com/karibu-app/karibu-backend/internal/cart"
	catalogsvc "github.com/karibu-app/karibu-backend/internal/catalog"
	promosvc "github.com/karibu-app/karibu-backend/internal/promos"
	restaurantsvc "github.com/karibu-app/karibu-backend/internal/restaurants"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/logger"
)

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type setDeliveryRequest struct {
	Option string `json:"option" validate:"required"`
	Zone   string `json:"zone,omitempty"`
}

type applyPromoRequest struct {
	Code string `json:"code" validate:"required"`
}

type cartLineResponse struct {
	Product   cartsvc.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartResponse struct {
	RestaurantID   string             `json:"restaurant_id,omitempty"`
	Items          []cartLineResponse `json:"items"`
	ItemCount      int                `json:"item_count"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DeliveryFee    decimal.Decimal    `json:"delivery_fee"`
	DiscountCode   string             `json:"discount_code,omitempty"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	Total          decimal.Decimal    `json:"total"`
}

// CartFetch returns the owner's current cart.
func CartFetch(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine := manager.Engine(r.Context(), middleware.CartOwnerFromContext(r.Context()))
		responses.WriteSuccess(w, toCartResponse(engine.Snapshot()))
	}
}

// CartAddItem puts a product in the cart, or bumps its quantity when it is
// already there. Products from a second restaurant are refused while the
// cart holds anything.
func CartAddItem(manager *cartsvc.Manager, catalog catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		product, err := catalog.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !product.Available {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, product.Name+" is currently unavailable"))
			return
		}

		engine := manager.Engine(r.Context(), middleware.CartOwnerFromContext(r.Context()))
		ok, err := engine.AddItem(r.Context(), catalogsvc.ToCartProduct(*product), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart"))
			return
		}
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeStateConflict, "cart already holds items from another restaurant"))
			return
		}
		responses.WriteSuccess(w, toCartResponse(engine.Snapshot()))
	}
}

// CartSetQuantity sets a line's quantity. Zero or less removes the line.
func CartSetQuantity(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine := manager.Engine(r.Context(), middleware.CartOwnerFromContext(r.Context()))
		if err := engine.SetQuantity(r.Context(), chi.URLParam(r, "productId"), payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart"))
			return
		}
		responses.WriteSuccess(w, toCartResponse(engine.Snapshot()))
	}
}

// CartRemoveItem drops a line from the cart. Removing an absent line is a
// no-op.
func CartRemoveItem(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine := manager.Engine(r.Context(), middleware.CartOwnerFromContext(r.Context()))
		if err := engine.RemoveItem(r.Context(), chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart"))
			return
		}
		responses.WriteSuccess(w, toCartResponse(engine.Snapshot()))
	}
}

// CartSetDelivery records the delivery choice. Pickup clears the fee;
// delivery resolves the fee from the restaurant's configured zones.
func CartSetDelivery(manager *cartsvc.Manager, restaurants restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		option, err := enums.ParseDeliveryOption(strings.TrimSpace(payload.Option))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery option"))
			return
		}

		engine := manager.Engine(r.Context(), middleware.CartOwnerFromContext(r.Context()))

		fee := decimal.Zero
		if option == enums.DeliveryOptionDelivery {
			snapshot := engine.Snapshot()
			if snapshot.IsEmpty() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
				return
			}
			restaurantID, err := uuid.Parse(snapshot.RestaurantID())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving cart restaurant"))
				return
			}
			restaurant, err := restaurants.GetByID(r.Context(), restaurantID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			zoneFee, ok := restaurantsvc.ZoneFee(restaurant, payload.Zone)
			if !ok {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery zone"))
				return
			}
			fee = zoneFee
		}

		if err := engine.SetDeliveryFee(r.Context(), fee); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart"))
			return
		}
		responses.WriteSuccess(w, toCartResponse(engine.Snapshot()))
	}
}

// CartApplyPromo verifies a promo code against the cart's subtotal and, when
// it applies, records the discount. A refused code is a normal response with
// the refusal message, not an error.
func CartApplyPromo(manager *cartsvc.Manager, promos promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload applyPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine := manager.Engine(r.Context(), middleware.CartOwnerFromContext(r.Context()))
		snapshot := engine.Snapshot()
		if snapshot.IsEmpty() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}
		restaurantID, err := uuid.Parse(snapshot.RestaurantID())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving cart restaurant"))
			return
		}

		result, err := promos.Verify(r.Context(), restaurantID, payload.Code, snapshot.Subtotal())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.Valid {
			code := promosvc.NormalizeCode(payload.Code)
			if err := engine.ApplyDiscount(r.Context(), code, result.DiscountAmount); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{
			"result": result,
			"cart":   toCartResponse(engine.Snapshot()),
		})
	}
}

// CartClearPromo removes any applied discount.
func CartClearPromo(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine := manager.Engine(r.Context(), middleware.CartOwnerFromContext(r.Context()))
		if err := engine.ClearDiscount(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart"))
			return
		}
		responses.WriteSuccess(w, toCartResponse(engine.Snapshot()))
	}
}

// CartClear empties the cart entirely.
func CartClear(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine := manager.Engine(r.Context(), middleware.CartOwnerFromContext(r.Context()))
		if err := engine.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart"))
			return
		}
		responses.WriteSuccess(w, toCartResponse(engine.Snapshot()))
	}
}

func toCartResponse(state cartsvc.State) cartResponse {
	items := make([]cartLineResponse, 0, len(state.Lines))
	for _, line := range state.Lines {
		items = append(items, cartLineResponse{
			Product:   line.Product,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal(),
		})
	}
	resp := cartResponse{
		RestaurantID:   state.RestaurantID(),
		Items:          items,
		ItemCount:      state.ItemCount(),
		Subtotal:       state.Subtotal(),
		DeliveryFee:    state.DeliveryFee,
		DiscountAmount: state.DiscountAmount(),
		Total:          state.Total(),
	}
	if state.Discount != nil {
		resp.DiscountCode = state.Discount.Code
	}
	return resp
}
