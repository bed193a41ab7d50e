package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karibu-app/karibu-backend/api/middleware"
	"github.com/karibu-app/karibu-backend/pkg/db/models"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
)

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

func toAccountResponse(user *models.User) accountResponse {
	resp := accountResponse{
		ID:    user.ID.String(),
		Email: user.Email,
		Role:  string(user.Role),
	}
	if user.RestaurantID != nil {
		id := user.RestaurantID.String()
		resp.RestaurantID = &id
	}
	return resp
}

func urlSlug(r *http.Request) string {
	return chi.URLParam(r, "slug")
}

// urlUUID parses a uuid path parameter.
func urlUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

// callerUserID resolves the authenticated user id seeded by the auth
// middleware.
func callerUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}

// callerRestaurantID resolves the owner's restaurant seeded by the auth
// middleware. Owner accounts without a restaurant binding cannot manage
// anything.
func callerRestaurantID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.RestaurantIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "restaurant context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid restaurant context")
	}
	return id, nil
}
