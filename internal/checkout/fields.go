package checkout

import (
	"regexp"
	"strings"
)

// Field names the delivery-form inputs validated before the Delivery step can
// advance. One canonical rule per field, independent of any rendering layer.
type Field string

const (
	FieldFullName Field = "fullName"
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldAddress  Field = "address"
	FieldCity     Field = "city"
	FieldState    Field = "state"
	FieldZip      Field = "zip"
)

// DeliveryDetails carries the shopper-entered delivery form. Never persisted
// beyond the checkout session.
type DeliveryDetails struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

var (
	lettersAndSpaces = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Indian mobile: optional +91/91 country code, then 6-9 and nine digits.
	phonePattern = regexp.MustCompile(`^(\+91|91)?[6-9][0-9]{9}$`)
	// Indian PIN code: six digits, first 1-9.
	zipPattern        = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ValidateField returns an empty string when the value satisfies the field's
// rule, or the user-facing error message otherwise.
func ValidateField(field Field, value string) string {
	trimmed := strings.TrimSpace(value)

	switch field {
	case FieldFullName:
		if trimmed == "" {
			return "Full name is required"
		}
		if !lettersAndSpaces.MatchString(value) {
			return "Full name should only contain letters and spaces"
		}
	case FieldEmail:
		if trimmed == "" {
			return "Email is required"
		}
		if !emailPattern.MatchString(trimmed) {
			return "Please enter a valid email address"
		}
	case FieldPhone:
		if trimmed == "" {
			return "Phone number is required"
		}
		if !phonePattern.MatchString(whitespacePattern.ReplaceAllString(value, "")) {
			return "Please enter a valid Indian phone number"
		}
	case FieldAddress:
		if trimmed == "" {
			return "Address is required"
		}
		if len(trimmed) < 10 {
			return "Please provide a complete address"
		}
	case FieldCity:
		if trimmed == "" {
			return "City is required"
		}
		if !lettersAndSpaces.MatchString(value) || len(trimmed) < 2 {
			return "Please enter a valid city name"
		}
	case FieldState:
		if trimmed == "" {
			return "State is required"
		}
		if len(trimmed) < 3 {
			return "Please enter a valid state name"
		}
	case FieldZip:
		if trimmed == "" {
			return "PIN code is required"
		}
		if !zipPattern.MatchString(trimmed) {
			return "Please enter a valid 6-digit PIN code"
		}
	}
	return ""
}

// ValidateDelivery runs every field rule and reports all failures at once.
func ValidateDelivery(details DeliveryDetails) map[Field]string {
	failures := map[Field]string{}
	for field, value := range map[Field]string{
		FieldFullName: details.FullName,
		FieldEmail:    details.Email,
		FieldPhone:    details.Phone,
		FieldAddress:  details.Address,
		FieldCity:     details.City,
		FieldState:    details.State,
		FieldZip:      details.Zip,
	} {
		if msg := ValidateField(field, value); msg != "" {
			failures[field] = msg
		}
	}
	return failures
}
