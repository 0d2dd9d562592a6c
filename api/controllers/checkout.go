package controllers

import (
	"net/http"

	"github.com/sitheefoods/storefront-backend/api/responses"
	"github.com/sitheefoods/storefront-backend/api/validators"
	"github.com/sitheefoods/storefront-backend/internal/checkout"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
)

type deliveryRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	Zip      *string `json:"zip"`
}

type paymentMethodRequest struct {
	Method string `json:"method" validate:"required"`
}

// CheckoutState returns the workflow's current step, details, and totals.
func CheckoutState(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shopper.Workflow.State())
	}
}

// CheckoutUpdateDelivery merges edited delivery fields into the form. Only
// fields present in the body are touched, so a single-field edit clears just
// that field's error.
func CheckoutUpdateDelivery(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload deliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updates := map[checkout.Field]string{}
		setIfPresent(updates, checkout.FieldFullName, payload.FullName)
		setIfPresent(updates, checkout.FieldEmail, payload.Email)
		setIfPresent(updates, checkout.FieldPhone, payload.Phone)
		setIfPresent(updates, checkout.FieldAddress, payload.Address)
		setIfPresent(updates, checkout.FieldCity, payload.City)
		setIfPresent(updates, checkout.FieldState, payload.State)
		setIfPresent(updates, checkout.FieldZip, payload.Zip)

		responses.WriteSuccess(w, shopper.Workflow.UpdateDelivery(updates))
	}
}

// CheckoutSetPaymentMethod selects the payment method.
func CheckoutSetPaymentMethod(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := shopper.Workflow.SetPaymentMethod(payload.Method); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shopper.Workflow.State())
	}
}

// CheckoutNext advances the workflow one step.
func CheckoutNext(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := shopper.Workflow.Next()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutBack moves the workflow one step toward delivery.
func CheckoutBack(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := shopper.Workflow.Back()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutSubmit runs the order submission protocol.
func CheckoutSubmit(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := shopper.Workflow.Submit(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutReset starts a fresh checkout after a completed order. Refused
// while an order submission is in flight.
func CheckoutReset(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := shopper.Workflow.Reset()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

func setIfPresent(updates map[checkout.Field]string, field checkout.Field, value *string) {
	if value != nil {
		updates[field] = *value
	}
}
