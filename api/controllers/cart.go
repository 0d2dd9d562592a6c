package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitheefoods/storefront-backend/api/middleware"
	"github.com/sitheefoods/storefront-backend/api/responses"
	"github.com/sitheefoods/storefront-backend/api/validators"
	"github.com/sitheefoods/storefront-backend/internal/cart"
	"github.com/sitheefoods/storefront-backend/internal/checkout"
	pkgerrors "github.com/sitheefoods/storefront-backend/pkg/errors"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
)

type addItemRequest struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name"`
	Price    int64  `json:"price" validate:"min=0"`
	Stock    int    `json:"stock" validate:"min=0"`
	Image    string `json:"image"`
	Weight   string `json:"weight"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Direction string `json:"direction" validate:"required,oneof=increase decrease set"`
	Amount    int    `json:"amount"`
}

type cartView struct {
	Items     []cart.Line `json:"items"`
	ItemCount int         `json:"itemCount"`
	Subtotal  int64       `json:"subtotal"`
}

func newCartView(lines []cart.Line) cartView {
	return cartView{
		Items:     lines,
		ItemCount: cart.ItemCount(lines),
		Subtotal:  cart.Subtotal(lines),
	}
}

// CartFetch returns the shopper's current cart.
func CartFetch(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(shopper.Cart.Lines()))
	}
}

// CartAddItem merges a product line into the cart.
func CartAddItem(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := shopper.Cart.Add(r.Context(), cart.Line{
			ID:       payload.ID,
			Name:     payload.Name,
			Price:    payload.Price,
			Stock:    payload.Stock,
			Image:    payload.Image,
			Weight:   payload.Weight,
			Category: payload.Category,
		}, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(lines))
	}
}

// CartUpdateItem adjusts one line's quantity. Decreasing a line already at
// quantity one removes it instead; the reducer itself never drops below one.
func CartUpdateItem(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID := chi.URLParam(r, "productId")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		direction := cart.Direction(payload.Direction)
		if direction == cart.DirectionDecrease && lineQuantity(shopper.Cart.Lines(), productID) == 1 {
			lines, err := shopper.Cart.Remove(r.Context(), productID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, newCartView(lines))
			return
		}

		lines, err := shopper.Cart.UpdateQuantity(r.Context(), productID, direction, payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(lines))
	}
}

// CartRemoveItem drops one line from the cart.
func CartRemoveItem(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID := chi.URLParam(r, "productId")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		lines, err := shopper.Cart.Remove(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(lines))
	}
}

// CartClear empties the cart.
func CartClear(mgr *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopper, err := shopperFromRequest(r, mgr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := shopper.Cart.Clear(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(lines))
	}
}

func lineQuantity(lines []cart.Line, productID string) int {
	for _, line := range lines {
		if line.ID == productID {
			return line.Quantity
		}
	}
	return 0
}

func shopperFromRequest(r *http.Request, mgr *checkout.Manager) (*checkout.Shopper, error) {
	if mgr == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout manager unavailable")
	}
	key := middleware.ShopperKeyFromContext(r.Context())
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "shopper key missing from request context")
	}
	return mgr.Shopper(r.Context(), key)
}
