package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/karibu-app/karibu-backend/api/responses"
	"github.com/karibu-app/karibu-backend/api/validators"
	promosvc "github.com/karibu-app/karibu-backend/internal/promos"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/logger"
)

type createPromoRequest struct {
	Code        string          `json:"code" validate:"required"`
	Kind        string          `json:"kind" validate:"required"`
	Value       decimal.Decimal `json:"value" validate:"required"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	UsageLimit  int             `json:"usage_limit"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// OwnerCreatePromo adds a promo code to the owner's restaurant.
func OwnerCreatePromo(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := callerRestaurantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParsePromoKind(strings.TrimSpace(payload.Kind))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promo kind"))
			return
		}

		promo, err := svc.Create(r.Context(), restaurantID, promosvc.CreateInput{
			Code:        payload.Code,
			Kind:        kind,
			Value:       payload.Value,
			MinSubtotal: payload.MinSubtotal,
			UsageLimit:  payload.UsageLimit,
			ExpiresAt:   payload.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

// OwnerListPromos lists the owner's promo codes.
func OwnerListPromos(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := callerRestaurantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		promos, err := svc.List(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promos)
	}
}

// OwnerDeletePromo removes one of the owner's promo codes.
func OwnerDeletePromo(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := callerRestaurantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		promoID, err := urlUUID(r, "promoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), restaurantID, promoID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
