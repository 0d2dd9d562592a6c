package controllers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sitheefoods/storefront-backend/api/middleware"
	"github.com/sitheefoods/storefront-backend/internal/checkout"
	"github.com/sitheefoods/storefront-backend/pkg/storage"
)

func newCheckoutRouter(t *testing.T) http.Handler {
	t.Helper()

	manager, err := checkout.NewManager(storage.NewMemory(), stubAuth{}, stubCreator{}, checkout.Policy{ShippingFee: 50}, nil, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.ShopperKey(nil))
	r.Post("/cart/items", CartAddItem(manager, nil))
	r.Get("/checkout", CheckoutState(manager, nil))
	r.Put("/checkout/delivery", CheckoutUpdateDelivery(manager, nil))
	r.Put("/checkout/payment-method", CheckoutSetPaymentMethod(manager, nil))
	r.Post("/checkout/next", CheckoutNext(manager, nil))
	r.Post("/checkout/back", CheckoutBack(manager, nil))
	r.Post("/checkout/submit", CheckoutSubmit(manager, nil))
	r.Post("/checkout/reset", CheckoutReset(manager, nil))
	return r
}

const validDelivery = `{
	"fullName": "Priya Raman",
	"email": "priya@example.com",
	"phone": "9876543210",
	"address": "12 Gandhi Street, Old Town",
	"city": "Madurai",
	"state": "Tamil Nadu",
	"zip": "625001"
}`

func TestCheckoutHappyPath(t *testing.T) {
	t.Parallel()
	router := newCheckoutRouter(t)

	if rec, _ := doJSON(t, router, http.MethodPost, "/cart/items", `{"id":"A","price":120,"stock":5,"quantity":2}`); rec.Code != http.StatusOK {
		t.Fatalf("add returned %d", rec.Code)
	}

	rec, envelope := doJSON(t, router, http.MethodPut, "/checkout/delivery", validDelivery)
	if rec.Code != http.StatusOK {
		t.Fatalf("delivery returned %d: %s", rec.Code, rec.Body.String())
	}

	rec, envelope = doJSON(t, router, http.MethodPost, "/checkout/next", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("next returned %d: %s", rec.Code, rec.Body.String())
	}
	if step := cartData(t, envelope)["step"]; step != "payment" {
		t.Fatalf("expected payment step, got %v", step)
	}

	rec, _ = doJSON(t, router, http.MethodPut, "/checkout/payment-method", `{"method":"upi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("payment-method returned %d", rec.Code)
	}

	rec, envelope = doJSON(t, router, http.MethodPost, "/checkout/next", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("next returned %d", rec.Code)
	}
	data := cartData(t, envelope)
	if data["step"] != "review" {
		t.Fatalf("expected review step, got %v", data["step"])
	}
	totals := data["totals"].(map[string]any)
	if totals["subtotal"].(float64) != 240 || totals["shipping"].(float64) != 50 || totals["total"].(float64) != 290 {
		t.Fatalf("unexpected totals: %v", totals)
	}

	rec, envelope = doJSON(t, router, http.MethodPost, "/checkout/submit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("submit returned %d: %s", rec.Code, rec.Body.String())
	}
	data = cartData(t, envelope)
	if data["step"] != "complete" || data["orderId"] != "ORD-111111" {
		t.Fatalf("unexpected completion state: %v", data)
	}
}

func TestCheckoutNextRejectsInvalidDelivery(t *testing.T) {
	t.Parallel()
	router := newCheckoutRouter(t)

	doJSON(t, router, http.MethodPut, "/checkout/delivery", `{"phone":"12345"}`)

	rec, envelope := doJSON(t, router, http.MethodPost, "/checkout/next", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	errBody := envelope["error"].(map[string]any)
	details := errBody["details"].(map[string]any)
	if details["phone"] != "Please enter a valid Indian phone number" {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestCheckoutDeliveryEditClearsFieldError(t *testing.T) {
	t.Parallel()
	router := newCheckoutRouter(t)

	doJSON(t, router, http.MethodPost, "/checkout/next", "")

	rec, envelope := doJSON(t, router, http.MethodPut, "/checkout/delivery", `{"email":"priya@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("delivery returned %d", rec.Code)
	}
	fieldErrors := cartData(t, envelope)["fieldErrors"].(map[string]any)
	if _, present := fieldErrors["email"]; present {
		t.Fatal("editing email must clear its error")
	}
	if _, present := fieldErrors["phone"]; !present {
		t.Fatal("untouched errors must remain")
	}
}

func TestCheckoutSubmitRequiresReviewStep(t *testing.T) {
	t.Parallel()
	router := newCheckoutRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/checkout/submit", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCheckoutBackFromDelivery(t *testing.T) {
	t.Parallel()
	router := newCheckoutRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/checkout/back", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCheckoutResetStartsOver(t *testing.T) {
	t.Parallel()
	router := newCheckoutRouter(t)

	doJSON(t, router, http.MethodPost, "/cart/items", `{"id":"A","price":120,"stock":5,"quantity":1}`)
	doJSON(t, router, http.MethodPut, "/checkout/delivery", validDelivery)
	doJSON(t, router, http.MethodPost, "/checkout/next", "")
	doJSON(t, router, http.MethodPost, "/checkout/next", "")
	doJSON(t, router, http.MethodPost, "/checkout/submit", "")

	rec, envelope := doJSON(t, router, http.MethodPost, "/checkout/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset returned %d", rec.Code)
	}
	data := cartData(t, envelope)
	if data["step"] != "delivery" {
		t.Fatalf("expected delivery step after reset, got %v", data["step"])
	}
	details := data["details"].(map[string]any)
	if details["fullName"] != "Priya Raman" {
		t.Fatal("reset must keep entered details")
	}
}
