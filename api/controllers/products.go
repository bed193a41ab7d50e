package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/karibu-app/karibu-backend/api/responses"
	"github.com/karibu-app/karibu-backend/api/validators"
	catalogsvc "github.com/karibu-app/karibu-backend/internal/catalog"
	restaurantsvc "github.com/karibu-app/karibu-backend/internal/restaurants"
	"github.com/karibu-app/karibu-backend/pkg/logger"
)

type createProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	ImageURL    string          `json:"image_url,omitempty"`
	Available   *bool           `json:"available,omitempty"`
}

type updateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	Available   *bool            `json:"available,omitempty"`
}

// Menu serves a restaurant's public menu of available products, addressed
// by the shop page slug.
func Menu(restaurants restaurantsvc.Service, catalog catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurant, err := restaurants.GetBySlug(r.Context(), urlSlug(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := catalog.Menu(r.Context(), restaurant.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"restaurant": restaurant,
			"products":   products,
		})
	}
}

// OwnerListProducts lists the owner's full catalog, unavailable items
// included.
func OwnerListProducts(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := callerRestaurantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.ListOwn(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// OwnerCreateProduct adds a product to the owner's menu.
func OwnerCreateProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := callerRestaurantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		available := true
		if payload.Available != nil {
			available = *payload.Available
		}
		product, err := svc.Create(r.Context(), restaurantID, catalogsvc.CreateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Category:    payload.Category,
			Price:       payload.Price,
			ImageURL:    payload.ImageURL,
			Available:   available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// OwnerUpdateProduct edits one of the owner's products.
func OwnerUpdateProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := callerRestaurantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := urlUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), restaurantID, productID, catalogsvc.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Category:    payload.Category,
			Price:       payload.Price,
			ImageURL:    payload.ImageURL,
			Available:   payload.Available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// OwnerDeleteProduct removes one of the owner's products.
func OwnerDeleteProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := callerRestaurantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := urlUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), restaurantID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
