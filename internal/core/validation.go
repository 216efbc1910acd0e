package core

// validation.go holds the pure input validators. Each returns nil or a typed
// *domain.Error; callers branch on the error kind. Uniqueness checks are not
// here: they need a transaction's view and live with the mutations.

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"crmcore/internal/domain"
	"crmcore/internal/store"
)

const (
	msgNameRequired      = "Name is required."
	msgEmailRequired     = "Email is required."
	msgEmailFormat       = "Invalid email address format."
	msgPhoneFormat       = "Invalid phone number format. Must be +999999999 up to 15 digits."
	msgOrderNeedsProduct = "An order must contain at least one product."
)

// phonePattern accepts an optional leading + followed by 9 to 15 digits.
var phonePattern = regexp.MustCompile(`^\+?\d{9,15}$`)

// maxPrice is the largest value a NUMERIC(10,2) column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

// ValidateRequired rejects empty values. Whitespace counts as a value.
func ValidateRequired(field, value, message string) error {
	if value == "" {
		return domain.MissingFieldError(field, message)
	}
	return nil
}

// ValidateEmailFormat checks standard address syntax and requires a dot in
// the domain part. The address must stand alone, without a display name.
func ValidateEmailFormat(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.FormatError("email", msgEmailFormat)
	}
	at := strings.LastIndex(email, "@")
	if !strings.Contains(email[at+1:], ".") {
		return domain.FormatError("email", msgEmailFormat)
	}
	return nil
}

// ValidatePhoneFormat checks the phone pattern. Empty is valid; the field is
// optional.
func ValidatePhoneFormat(phone string) error {
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return domain.FormatError("phone", msgPhoneFormat)
	}
	return nil
}

// ValidatePrice requires a strictly positive amount with at most two decimal
// places that fits NUMERIC(10,2).
func ValidatePrice(price decimal.Decimal) error {
	if price.Sign() <= 0 {
		return domain.RangeError("price", store.MsgPricePositive)
	}
	if price.Exponent() < -2 {
		return domain.RangeError("price", "Price cannot have more than 2 decimal places.")
	}
	if price.GreaterThan(maxPrice) {
		return domain.RangeError("price", fmt.Sprintf("Price cannot exceed %s.", maxPrice))
	}
	return nil
}

// ValidateStock rejects negative stock counts.
func ValidateStock(stock int) error {
	if stock < 0 {
		return domain.RangeError("stock", store.MsgStockNegative)
	}
	return nil
}

// ValidateNameLength enforces the name size cap.
func ValidateNameLength(name string) error {
	if utf8.RuneCountInString(name) > domain.NameMaxLen {
		return domain.FormatError("name",
			fmt.Sprintf("Name cannot be longer than %d characters.", domain.NameMaxLen))
	}
	return nil
}

// ValidateEmailLength enforces the email size cap.
func ValidateEmailLength(email string) error {
	if utf8.RuneCountInString(email) > domain.EmailMaxLen {
		return domain.FormatError("email",
			fmt.Sprintf("Email cannot be longer than %d characters.", domain.EmailMaxLen))
	}
	return nil
}
