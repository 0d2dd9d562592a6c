package controllers

import (
	"net/http"

	"github.com/sitheefoods/storefront-backend/api/responses"
	"github.com/sitheefoods/storefront-backend/api/validators"
	"github.com/sitheefoods/storefront-backend/internal/checkout"
	"github.com/sitheefoods/storefront-backend/internal/session"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionView struct {
	Authenticated bool          `json:"authenticated"`
	User          *session.User `json:"user,omitempty"`
}

// AuthLogin signs the shopper in and binds the session to their shopper key.
func AuthLogin(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := shopper.Session.Login(r.Context(), session.Credentials{
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionView{Authenticated: true, User: user})
	}
}

// AuthSignup creates an account and signs the shopper in.
func AuthSignup(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload signupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := shopper.Session.Signup(r.Context(), session.SignupRequest{
			Name:     payload.Name,
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionView{Authenticated: true, User: user})
	}
}

// AuthLogout drops the session. The cart is left alone.
func AuthLogout(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := shopper.Session.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionView{Authenticated: false})
	}
}

// AuthMe reports the current session, refreshing the profile upstream when a
// token is held. Guests get an unauthenticated view, not an error.
func AuthMe(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !shopper.Session.IsAuthenticated() {
			responses.WriteSuccess(w, sessionView{Authenticated: false})
			return
		}

		user, err := shopper.Session.CurrentUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionView{Authenticated: true, User: user})
	}
}
