package controllers

import (
	"net/http"

	"github.com/karibu-app/karibu-backend/api/responses"
	"github.com/karibu-app/karibu-backend/api/validators"
	authsvc "github.com/karibu-app/karibu-backend/internal/auth"
	pkgAuth "github.com/karibu-app/karibu-backend/pkg/auth"
	"github.com/karibu-app/karibu-backend/pkg/config"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/logger"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type accountResponse struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	RestaurantID *string `json:"restaurant_id,omitempty"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  accountResponse `json:"user"`
}

// AuthRegister handles the public diner signup.
func AuthRegister(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), authsvc.RegisterInput{
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toAccountResponse(user))
	}
}

// AuthLogin exchanges credentials for an access token.
func AuthLogin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loginResponse{
			Token: result.Token,
			User:  toAccountResponse(result.User),
		})
	}
}

// AuthLogout revokes the session behind the presented token.
func AuthLogout(svc authsvc.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := pkgAuth.ParseAccessToken(cfg, bearerToken(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}

		if err := svc.Logout(r.Context(), claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
