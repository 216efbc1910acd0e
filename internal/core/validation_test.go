package core

import (
	"testing"

	"github.com/shopspring/decimal"

	"crmcore/internal/domain"
	"crmcore/internal/store"
)

// ============================================================================
// Required Field Tests
// ============================================================================

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"plain value", "Ada", false},
		{"whitespace counts as a value", "   ", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired("name", tt.value, msgNameRequired)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRequired(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if got := domain.KindOf(err); got != domain.KindMissingField {
				t.Errorf("kind = %q, want %q", got, domain.KindMissingField)
			}
			if got := err.Error(); got != msgNameRequired {
				t.Errorf("message = %q, want %q", got, msgNameRequired)
			}
		})
	}
}

// ============================================================================
// Email Format Tests
// ============================================================================

func TestValidateEmailFormat(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"simple address", "ada@example.com", false},
		{"dotted local part", "ada.lovelace@example.com", false},
		{"plus tag", "ada+crm@example.com", false},
		{"multi level domain", "ada@mail.example.co.uk", false},
		{"missing at sign", "ada.example.com", true},
		{"missing domain dot", "ada@localhost", true},
		{"display name form", "Ada <ada@example.com>", true},
		{"embedded space", "ada lovelace@example.com", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmailFormat(tt.email)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEmailFormat(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if got := domain.KindOf(err); got != domain.KindFormat {
				t.Errorf("kind = %q, want %q", got, domain.KindFormat)
			}
			if got := err.Error(); got != msgEmailFormat {
				t.Errorf("message = %q, want %q", got, msgEmailFormat)
			}
		})
	}
}

// ============================================================================
// Phone Format Tests
// ============================================================================

func TestValidatePhoneFormat(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{"empty is allowed", "", false},
		{"nine digits", "123456789", false},
		{"nine digits with plus", "+123456789", false},
		{"fifteen digits", "123456789012345", false},
		{"fifteen digits with plus", "+123456789012345", false},
		{"too short", "12345", true},
		{"sixteen digits", "1234567890123456", true},
		{"letters", "phone-number", true},
		{"embedded space", "+12 345 6789", true},
		{"plus in the middle", "123+456789", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhoneFormat(tt.phone)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePhoneFormat(%q) error = %v, wantErr %v", tt.phone, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if got := domain.KindOf(err); got != domain.KindFormat {
				t.Errorf("kind = %q, want %q", got, domain.KindFormat)
			}
			if got := err.Error(); got != msgPhoneFormat {
				t.Errorf("message = %q, want %q", got, msgPhoneFormat)
			}
		})
	}
}

// ============================================================================
// Price and Stock Tests
// ============================================================================

func TestValidatePrice(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		wantErr string // empty means valid
	}{
		{"typical price", "25.25", ""},
		{"smallest valid price", "0.01", ""},
		{"largest valid price", "99999999.99", ""},
		{"integer price", "100", ""},
		{"zero", "0", store.MsgPricePositive},
		{"negative", "-1", store.MsgPricePositive},
		{"three decimal places", "0.001", "Price cannot have more than 2 decimal places."},
		{"too large", "100000000", "Price cannot exceed 99999999.99."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrice(decimal.RequireFromString(tt.price))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidatePrice(%s) = %v, want nil", tt.price, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidatePrice(%s) = nil, want error %q", tt.price, tt.wantErr)
			}
			if got := domain.KindOf(err); got != domain.KindRange {
				t.Errorf("kind = %q, want %q", got, domain.KindRange)
			}
			if got := err.Error(); got != tt.wantErr {
				t.Errorf("message = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestValidateStock(t *testing.T) {
	if err := ValidateStock(0); err != nil {
		t.Errorf("ValidateStock(0) = %v, want nil", err)
	}
	if err := ValidateStock(50); err != nil {
		t.Errorf("ValidateStock(50) = %v, want nil", err)
	}

	err := ValidateStock(-1)
	if err == nil {
		t.Fatal("ValidateStock(-1) = nil, want error")
	}
	if got := domain.KindOf(err); got != domain.KindRange {
		t.Errorf("kind = %q, want %q", got, domain.KindRange)
	}
	if got := err.Error(); got != store.MsgStockNegative {
		t.Errorf("message = %q, want %q", got, store.MsgStockNegative)
	}
}

// ============================================================================
// Length Cap Tests
// ============================================================================

func TestValidateNameLength(t *testing.T) {
	if err := ValidateNameLength(repeatRune('a', domain.NameMaxLen)); err != nil {
		t.Errorf("name at the cap = %v, want nil", err)
	}
	// Multibyte runes count as one character each.
	if err := ValidateNameLength(repeatRune('é', domain.NameMaxLen)); err != nil {
		t.Errorf("multibyte name at the cap = %v, want nil", err)
	}

	err := ValidateNameLength(repeatRune('a', domain.NameMaxLen+1))
	if err == nil {
		t.Fatal("name over the cap accepted")
	}
	if got := domain.KindOf(err); got != domain.KindFormat {
		t.Errorf("kind = %q, want %q", got, domain.KindFormat)
	}
}

func TestValidateEmailLength(t *testing.T) {
	if err := ValidateEmailLength(repeatRune('a', domain.EmailMaxLen)); err != nil {
		t.Errorf("email at the cap = %v, want nil", err)
	}

	err := ValidateEmailLength(repeatRune('a', domain.EmailMaxLen+1))
	if err == nil {
		t.Fatal("email over the cap accepted")
	}
	if got := domain.KindOf(err); got != domain.KindFormat {
		t.Errorf("kind = %q, want %q", got, domain.KindFormat)
	}
}

func repeatRune(r rune, n int) string {
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = r
	}
	return string(runes)
}
