package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitheefoods/storefront-backend/api/responses"
	"github.com/sitheefoods/storefront-backend/internal/checkout"
	"github.com/sitheefoods/storefront-backend/internal/orders"
	pkgerrors "github.com/sitheefoods/storefront-backend/pkg/errors"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
)

// OrderAPI is the slice of the order service client these handlers use.
type OrderAPI interface {
	ListUserOrders(ctx context.Context, token string) ([]orders.Order, error)
	GetOrder(ctx context.Context, orderID, token string) (*orders.Order, error)
	Cancel(ctx context.Context, orderID, token string) (*orders.Order, error)
}

// OrderList returns the signed-in shopper's order history.
func OrderList(mgr *checkout.Manager, client OrderAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := client.ListUserOrders(r.Context(), shopper.Session.Token())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": list})
	}
}

// OrderDetail returns one order. Works for guests too, so the confirmation
// page can show locally unknown orders the service does know about.
func OrderDetail(mgr *checkout.Manager, client OrderAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID := chi.URLParam(r, "orderId")
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		order, err := client.GetOrder(r.Context(), orderID, shopper.Session.Token())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderCancel asks the order service to cancel the shopper's order.
func OrderCancel(mgr *checkout.Manager, client OrderAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID := chi.URLParam(r, "orderId")
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		order, err := client.Cancel(r.Context(), orderID, shopper.Session.Token())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
