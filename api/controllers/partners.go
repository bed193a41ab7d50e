package controllers

import (
	"net/http"

	"github.com/karibu-app/karibu-backend/api/responses"
	"github.com/karibu-app/karibu-backend/api/validators"
	partnersvc "github.com/karibu-app/karibu-backend/internal/partners"
	"github.com/karibu-app/karibu-backend/pkg/logger"
)

type partnerApplyRequest struct {
	OwnerName      string `json:"owner_name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	RestaurantName string `json:"restaurant_name" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	Description    string `json:"description,omitempty"`
	Address        string `json:"address,omitempty"`
}

// PartnerApply files a public partner application.
func PartnerApply(svc partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload partnerApplyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Apply(r.Context(), partnersvc.ApplyInput{
			OwnerName:      payload.OwnerName,
			Email:          payload.Email,
			RestaurantName: payload.RestaurantName,
			Phone:          payload.Phone,
			Description:    payload.Description,
			Address:        payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// AdminListPartnerRequests lists applications awaiting a decision.
func AdminListPartnerRequests(svc partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requests)
	}
}

// AdminApprovePartnerRequest provisions the restaurant and owner account
// for an application. The temporary password is returned once for
// out-of-band delivery.
func AdminApprovePartnerRequest(svc partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Approve(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"request":       result.Request,
			"restaurant":    result.Restaurant,
			"owner":         toAccountResponse(result.Owner),
			"temp_password": result.TempPassword,
		})
	}
}

// AdminRejectPartnerRequest declines an application.
func AdminRejectPartnerRequest(svc partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Reject(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}
