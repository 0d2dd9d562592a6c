package checkout

import "testing"

func validDetails() DeliveryDetails {
	return DeliveryDetails{
		FullName: "Priya Raman",
		Email:    "priya@example.com",
		Phone:    "+91 98765 43210",
		Address:  "12 Gandhi Street, Old Town",
		City:     "Madurai",
		State:    "Tamil Nadu",
		Zip:      "625001",
	}
}

func TestValidateDeliveryAccepts(t *testing.T) {
	t.Parallel()

	if failures := ValidateDelivery(validDetails()); len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
}

func TestValidateField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		field   Field
		value   string
		wantErr bool
	}{
		{"name empty", FieldFullName, "  ", true},
		{"name with digits", FieldFullName, "Priya2", true},
		{"name ok", FieldFullName, "Priya Raman", false},
		{"email empty", FieldEmail, "", true},
		{"email no domain", FieldEmail, "priya@", true},
		{"email ok", FieldEmail, "a@b.co", false},
		{"phone too short", FieldPhone, "12345", true},
		{"phone wrong leading digit", FieldPhone, "5876543210", true},
		{"phone bare ten digits", FieldPhone, "9876543210", false},
		{"phone with country code", FieldPhone, "+919876543210", false},
		{"phone 91 prefix", FieldPhone, "919876543210", false},
		{"phone internal spaces", FieldPhone, "98765 43210", false},
		{"address short", FieldAddress, "12 Street", true},
		{"address ok", FieldAddress, "12 Gandhi Street, Old Town", false},
		{"city one letter", FieldCity, "M", true},
		{"city with digits", FieldCity, "Madurai 1", true},
		{"city ok", FieldCity, "Madurai", false},
		{"state short", FieldState, "TN", true},
		{"state ok", FieldState, "Tamil Nadu", false},
		{"zip five digits", FieldZip, "62500", true},
		{"zip leading zero", FieldZip, "025001", true},
		{"zip letters", FieldZip, "62500a", true},
		{"zip ok", FieldZip, "625001", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg := ValidateField(tc.field, tc.value)
			if tc.wantErr && msg == "" {
				t.Fatalf("expected failure for %q", tc.value)
			}
			if !tc.wantErr && msg != "" {
				t.Fatalf("expected %q to pass, got %q", tc.value, msg)
			}
		})
	}
}

func TestValidateDeliveryReportsAllFailures(t *testing.T) {
	t.Parallel()

	failures := ValidateDelivery(DeliveryDetails{Phone: "12345", City: "M"})
	if len(failures) != 7 {
		t.Fatalf("expected every field to fail, got %v", failures)
	}
	if failures[FieldPhone] != "Please enter a valid Indian phone number" {
		t.Fatalf("unexpected phone message: %q", failures[FieldPhone])
	}
}
