package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/karibu-app/karibu-backend/api/responses"
	"github.com/karibu-app/karibu-backend/api/validators"
	restaurantsvc "github.com/karibu-app/karibu-backend/internal/restaurants"
	"github.com/karibu-app/karibu-backend/pkg/logger"
	"github.com/karibu-app/karibu-backend/pkg/types"
)

type deliveryZoneRequest struct {
	Name string          `json:"name" validate:"required"`
	Fee  decimal.Decimal `json:"fee"`
}

type createRestaurantRequest struct {
	Name          string                `json:"name" validate:"required"`
	OwnerName     string                `json:"owner_name" validate:"required"`
	WhatsappPhone string                `json:"whatsapp_phone" validate:"required"`
	ImageURL      string                `json:"image_url,omitempty"`
	DeliveryZones []deliveryZoneRequest `json:"delivery_zones,omitempty" validate:"omitempty,dive"`
	Active        *bool                 `json:"active,omitempty"`
}

type updateRestaurantRequest struct {
	Name          *string                `json:"name,omitempty"`
	OwnerName     *string                `json:"owner_name,omitempty"`
	WhatsappPhone *string                `json:"whatsapp_phone,omitempty"`
	ImageURL      *string                `json:"image_url,omitempty"`
	DeliveryZones *[]deliveryZoneRequest `json:"delivery_zones,omitempty" validate:"omitempty,dive"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ListRestaurants serves the public storefront directory of active
// restaurants.
func ListRestaurants(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurants, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restaurants)
	}
}

// GetRestaurantBySlug serves one restaurant's public shop page data.
func GetRestaurantBySlug(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurant, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restaurant)
	}
}

// AdminListRestaurants lists every restaurant, active or not.
func AdminListRestaurants(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurants, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restaurants)
	}
}

// AdminCreateRestaurant registers a restaurant directly, bypassing the
// partner application flow.
func AdminCreateRestaurant(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createRestaurantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if payload.Active != nil {
			active = *payload.Active
		}
		restaurant, err := svc.Create(r.Context(), restaurantsvc.CreateInput{
			Name:          payload.Name,
			OwnerName:     payload.OwnerName,
			WhatsappPhone: payload.WhatsappPhone,
			ImageURL:      payload.ImageURL,
			DeliveryZones: toDeliveryZones(payload.DeliveryZones),
			Active:        active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, restaurant)
	}
}

// AdminUpdateRestaurant edits a restaurant's profile. The slug never
// changes so shared menu links keep working.
func AdminUpdateRestaurant(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlUUID(r, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRestaurantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := restaurantsvc.UpdateInput{
			Name:          payload.Name,
			OwnerName:     payload.OwnerName,
			WhatsappPhone: payload.WhatsappPhone,
			ImageURL:      payload.ImageURL,
		}
		if payload.DeliveryZones != nil {
			zones := toDeliveryZones(*payload.DeliveryZones)
			input.DeliveryZones = &zones
		}

		restaurant, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restaurant)
	}
}

// AdminSetRestaurantActive toggles a restaurant's storefront visibility.
func AdminSetRestaurantActive(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlUUID(r, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetActive(r.Context(), id, *payload.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": *payload.Active})
	}
}

// AdminDeleteRestaurant removes a restaurant.
func AdminDeleteRestaurant(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlUUID(r, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func toDeliveryZones(zones []deliveryZoneRequest) types.DeliveryZones {
	if len(zones) == 0 {
		return nil
	}
	out := make(types.DeliveryZones, 0, len(zones))
	for _, zone := range zones {
		out = append(out, types.DeliveryZone{Name: zone.Name, Fee: zone.Fee})
	}
	return out
}
