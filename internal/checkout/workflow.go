package checkout

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sitheefoods/storefront-backend/internal/cart"
	"github.com/sitheefoods/storefront-backend/internal/orders"
	pkgerrors "github.com/sitheefoods/storefront-backend/pkg/errors"
	"github.com/sitheefoods/storefront-backend/pkg/logger"
	"github.com/sitheefoods/storefront-backend/pkg/metrics"
)

// Step is the checkout progression. Forward movement is guarded; backward
// movement is always allowed and never loses entered data.
type Step string

const (
	StepDelivery Step = "delivery"
	StepPayment  Step = "payment"
	StepReview   Step = "review"
	StepComplete Step = "complete"
)

// Payment methods the storefront accepts. Collection happens on delivery;
// no payment provider is contacted during checkout.
const (
	PaymentCOD  = "cod"
	PaymentUPI  = "upi"
	PaymentCard = "card"
)

// Policy carries the submission knobs operators tune per deployment.
type Policy struct {
	// ShippingFee is the flat delivery charge, in the smallest currency unit.
	ShippingFee int64
	// LocalFallback completes the order locally with a synthesized id when
	// the order service is unreachable. Off, the failure is surfaced instead.
	LocalFallback bool
	// FallbackDelay is waited before a local fallback completes, so the
	// shopper sees the submission attempt rather than an instant confirmation.
	FallbackDelay time.Duration
	// RedirectDelay tells the client how long to show the confirmation before
	// redirecting home. Advisory; the server does not wait on it.
	RedirectDelay time.Duration
}

// tokenSource is the slice of the session holder the workflow needs.
type tokenSource interface {
	Token() string
}

// orderCreator is the slice of the order service client the workflow needs.
type orderCreator interface {
	Create(ctx context.Context, draft orders.Draft, token string) (*orders.CreateResult, error)
}

// Totals is the priced summary shown on the review step.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// State is a point-in-time view of the workflow for rendering.
type State struct {
	Step            Step             `json:"step"`
	Details         DeliveryDetails  `json:"details"`
	PaymentMethod   string           `json:"paymentMethod"`
	FieldErrors     map[Field]string `json:"fieldErrors,omitempty"`
	Submitting      bool             `json:"submitting"`
	OrderID         string           `json:"orderId,omitempty"`
	Totals          Totals           `json:"totals"`
	RedirectDelayMS int64            `json:"redirectDelayMs,omitempty"`
}

// Workflow drives one shopper's checkout from delivery details through order
// submission. It owns the step pointer, the entered form data, and the
// submission protocol; the cart itself stays in the cart store.
type Workflow struct {
	mu            sync.Mutex
	step          Step
	details       DeliveryDetails
	paymentMethod string
	fieldErrors   map[Field]string
	submitting    bool
	orderID       string

	cart    *cart.Store
	session tokenSource
	orders  orderCreator
	policy  Policy
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics

	now   func() time.Time
	sleep func(time.Duration)
}

// NewWorkflow builds a workflow positioned at the delivery step.
func NewWorkflow(cartStore *cart.Store, session tokenSource, orderAPI orderCreator, policy Policy, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Workflow, error) {
	if cartStore == nil {
		return nil, fmt.Errorf("checkout: cart store required")
	}
	if orderAPI == nil {
		return nil, fmt.Errorf("checkout: order client required")
	}
	return &Workflow{
		step:          StepDelivery,
		paymentMethod: PaymentCOD,
		fieldErrors:   map[Field]string{},
		cart:          cartStore,
		session:       session,
		orders:        orderAPI,
		policy:        policy,
		logg:          logg,
		metrics:       m,
		now:           time.Now,
		sleep:         time.Sleep,
	}, nil
}

// State returns the current rendering view.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Workflow) stateLocked() State {
	errs := make(map[Field]string, len(w.fieldErrors))
	for k, v := range w.fieldErrors {
		errs[k] = v
	}
	state := State{
		Step:          w.step,
		Details:       w.details,
		PaymentMethod: w.paymentMethod,
		FieldErrors:   errs,
		Submitting:    w.submitting,
		OrderID:       w.orderID,
		Totals:        w.totals(),
	}
	if w.step == StepComplete {
		state.RedirectDelayMS = w.policy.RedirectDelay.Milliseconds()
	}
	return state
}

// totals prices the current cart under the policy's flat shipping fee. An
// empty cart has nothing to ship.
func (w *Workflow) totals() Totals {
	subtotal := w.cart.Subtotal()
	var shipping int64
	if subtotal > 0 {
		shipping = w.policy.ShippingFee
	}
	return Totals{Subtotal: subtotal, Shipping: shipping, Total: subtotal + shipping}
}

// Totals returns the priced summary without the rest of the state.
func (w *Workflow) Totals() Totals {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totals()
}

// UpdateDelivery merges the given fields into the form. A field's stored
// error clears as soon as the shopper edits that field; untouched errors stay
// until the next validation pass.
func (w *Workflow) UpdateDelivery(updates map[Field]string) State {
	w.mu.Lock()
	defer w.mu.Unlock()

	for field, value := range updates {
		switch field {
		case FieldFullName:
			w.details.FullName = value
		case FieldEmail:
			w.details.Email = value
		case FieldPhone:
			w.details.Phone = value
		case FieldAddress:
			w.details.Address = value
		case FieldCity:
			w.details.City = value
		case FieldState:
			w.details.State = value
		case FieldZip:
			w.details.Zip = value
		default:
			continue
		}
		delete(w.fieldErrors, field)
	}
	return w.stateLocked()
}

// SetPaymentMethod selects how the shopper will pay on delivery.
func (w *Workflow) SetPaymentMethod(method string) error {
	switch method {
	case PaymentCOD, PaymentUPI, PaymentCard:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string]string{"method": method})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.paymentMethod = method
	return nil
}

// Next advances one step. Leaving Delivery requires every field rule to pass;
// the failures are recorded per field and the step does not move. Payment to
// Review is unguarded. Review advances only through Submit.
func (w *Workflow) Next() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepDelivery:
		failures := ValidateDelivery(w.details)
		if len(failures) > 0 {
			w.fieldErrors = failures
			return w.stateLocked(), pkgerrors.New(pkgerrors.CodeValidation, "delivery details incomplete").
				WithDetails(failures)
		}
		w.fieldErrors = map[Field]string{}
		w.step = StepPayment
	case StepPayment:
		w.step = StepReview
	case StepReview:
		return w.stateLocked(), pkgerrors.New(pkgerrors.CodeStateConflict, "review completes by submitting the order")
	case StepComplete:
		return w.stateLocked(), pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already complete")
	}
	return w.stateLocked(), nil
}

// Back moves one step toward Delivery. Entered data and the selected payment
// method survive the move.
func (w *Workflow) Back() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepPayment:
		w.step = StepDelivery
	case StepReview:
		w.step = StepPayment
	case StepDelivery:
		return w.stateLocked(), pkgerrors.New(pkgerrors.CodeStateConflict, "already at the first step")
	case StepComplete:
		return w.stateLocked(), pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already complete")
	}
	return w.stateLocked(), nil
}

// Reset returns the workflow to the delivery step for a fresh order. The
// entered details are kept so a repeat shopper does not retype them. A reset
// is refused while a submission is in flight; clearing the submitting flag
// mid-flight would let a second submission start before the first resolves.
func (w *Workflow) Reset() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitting {
		return w.stateLocked(), pkgerrors.New(pkgerrors.CodeConflict, "submission in progress")
	}

	w.step = StepDelivery
	w.fieldErrors = map[Field]string{}
	w.orderID = ""
	return w.stateLocked(), nil
}

// Submit runs the order submission protocol from the Review step:
//
//  1. An authenticated create is tried first when a token is held.
//  2. A 401 on the authenticated path retries once as a guest order.
//  3. A business rejection surfaces the server's message and keeps the
//     shopper on Review with the cart intact.
//  4. Any other failure either completes locally with a synthesized order id
//     (when the fallback policy is on, after the configured delay) or is
//     surfaced as a dependency failure.
//
// On success the cart is cleared and the step moves to Complete.
func (w *Workflow) Submit(ctx context.Context) (State, error) {
	w.mu.Lock()
	if w.step != StepReview {
		defer w.mu.Unlock()
		return w.stateLocked(), pkgerrors.New(pkgerrors.CodeStateConflict, "submission is only allowed from the review step")
	}
	if w.submitting {
		defer w.mu.Unlock()
		return w.stateLocked(), pkgerrors.New(pkgerrors.CodeConflict, "submission already in progress")
	}
	if failures := ValidateDelivery(w.details); len(failures) > 0 {
		w.fieldErrors = failures
		defer w.mu.Unlock()
		return w.stateLocked(), pkgerrors.New(pkgerrors.CodeValidation, "delivery details incomplete").
			WithDetails(failures)
	}

	lines := w.cart.Lines()
	if len(lines) == 0 {
		defer w.mu.Unlock()
		return w.stateLocked(), pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	draft := w.composeDraft(lines)
	w.submitting = true
	w.mu.Unlock()

	// Network calls run outside the lock; only this goroutine can be in the
	// submission path thanks to the submitting flag.
	result, submitErr := w.create(ctx, draft)

	fallback := submitErr != nil &&
		!pkgerrors.Is(submitErr, pkgerrors.CodeValidation) &&
		w.policy.LocalFallback
	if fallback && w.policy.FallbackDelay > 0 {
		// The fallback delay also runs unlocked, keeping state polls
		// responsive; the submitting flag still holds off a second submission.
		w.sleep(w.policy.FallbackDelay)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if submitErr != nil {
		switch {
		case pkgerrors.Is(submitErr, pkgerrors.CodeValidation):
			w.metrics.IncSubmission(metrics.OutcomeRejected)
			w.warn(ctx, "order submission rejected upstream")
			return w.stateLocked(), submitErr
		case fallback:
			w.metrics.IncSubmission(metrics.OutcomeFallback)
			w.warn(ctx, "order service unreachable, completing order locally")
			return w.finishLocked(ctx, synthesizeOrderID())
		default:
			w.metrics.IncSubmission(metrics.OutcomeFailed)
			w.error(ctx, "order submission failed", submitErr)
			return w.stateLocked(), submitErr
		}
	}

	orderID := result.OrderID
	if orderID == "" {
		// Service accepted the order but reported no id; synthesize one so
		// the confirmation page always has a reference.
		orderID = synthesizeOrderID()
	}
	if result.Guest {
		w.metrics.IncSubmission(metrics.OutcomeGuest)
	} else {
		w.metrics.IncSubmission(metrics.OutcomeServer)
	}
	return w.finishLocked(ctx, orderID)
}

// create submits the draft, falling back from the authenticated endpoint to
// the guest endpoint exactly once when the token is rejected.
func (w *Workflow) create(ctx context.Context, draft orders.Draft) (*orders.CreateResult, error) {
	token := ""
	if w.session != nil {
		token = w.session.Token()
	}

	result, err := w.orders.Create(ctx, draft, token)
	if err == nil {
		return result, nil
	}
	if token != "" && pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		w.warn(ctx, "authenticated submission rejected, retrying as guest")
		return w.orders.Create(ctx, draft, "")
	}
	return nil, err
}

// finishLocked adopts the order id, clears the cart, and moves to Complete.
// Called with the lock held.
func (w *Workflow) finishLocked(ctx context.Context, orderID string) (State, error) {
	if _, err := w.cart.Clear(ctx); err != nil {
		// The order went through; a persistence hiccup on the clear must not
		// un-complete it.
		w.error(ctx, "clearing cart after order completion failed", err)
	}
	w.orderID = orderID
	w.step = StepComplete
	w.info(ctx, "order complete")
	return w.stateLocked(), nil
}

func (w *Workflow) composeDraft(lines []cart.Line) orders.Draft {
	items := make([]orders.DraftItem, 0, len(lines))
	var subtotal int64
	for _, line := range lines {
		items = append(items, orders.DraftItem{
			ProductID: line.ID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Image:     line.Image,
		})
		subtotal += cart.LineSubtotal(line)
	}

	return orders.Draft{
		CustomerInfo: orders.CustomerInfo{
			FullName: w.details.FullName,
			Email:    w.details.Email,
			Phone:    w.details.Phone,
			Address:  w.details.Address,
			City:     w.details.City,
			State:    w.details.State,
			ZipCode:  w.details.Zip,
		},
		Items:         items,
		Subtotal:      subtotal,
		Shipping:      w.policy.ShippingFee,
		Total:         subtotal + w.policy.ShippingFee,
		PaymentMethod: w.paymentMethod,
		Status:        orders.StatusPending,
		CreatedAt:     w.now().UTC(),
	}
}

// synthesizeOrderID produces the locally generated reference shown when the
// order service did not assign one: "ORD-" plus six digits.
func synthesizeOrderID() string {
	return fmt.Sprintf("ORD-%d", 100000+rand.Intn(900000))
}

func (w *Workflow) info(ctx context.Context, msg string) {
	if w.logg != nil {
		w.logg.Info(ctx, msg)
	}
}

func (w *Workflow) warn(ctx context.Context, msg string) {
	if w.logg != nil {
		w.logg.Warn(ctx, msg)
	}
}

func (w *Workflow) error(ctx context.Context, msg string, err error) {
	if w.logg != nil {
		w.logg.Error(ctx, msg, err)
	}
}
