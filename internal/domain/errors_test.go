package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		wantKind Kind
	}{
		{"missing field", MissingFieldError("name", "Name is required."), KindMissingField},
		{"format", FormatError("email", "Invalid email address format."), KindFormat},
		{"conflict", ConflictError("email", "Email already exists."), KindConflict},
		{"range", RangeError("price", "Price must be a positive number."), KindRange},
		{"not found", NotFoundError("customer_id", "Customer with the given ID does not exist."), KindNotFound},
		{"empty input", EmptyInputError("product_ids", "An order must contain at least one product."), KindEmptyInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", tt.err.Kind, tt.wantKind)
			}
			if tt.err.Field == "" {
				t.Error("Field is empty")
			}
			if got := tt.err.Error(); got != tt.err.Message {
				t.Errorf("Error() = %q, want the message %q", got, tt.err.Message)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	conflict := ConflictError("email", "Email already exists.")

	if got := KindOf(conflict); got != KindConflict {
		t.Errorf("KindOf(direct) = %q, want %q", got, KindConflict)
	}

	wrapped := fmt.Errorf("insert customer: %w", conflict)
	if got := KindOf(wrapped); got != KindConflict {
		t.Errorf("KindOf(wrapped) = %q, want %q", got, KindConflict)
	}

	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
}

func TestIsKind(t *testing.T) {
	err := NotFoundError("order_id", "Order with the given ID does not exist.")

	if !IsKind(err, KindNotFound) {
		t.Error("IsKind(not found, KindNotFound) = false")
	}
	if IsKind(err, KindConflict) {
		t.Error("IsKind(not found, KindConflict) = true")
	}
	if IsKind(nil, KindNotFound) {
		t.Error("IsKind(nil, KindNotFound) = true")
	}
}

func TestBatchErrorString(t *testing.T) {
	be := BatchError{
		Index:   2,
		Email:   "dup@example.com",
		Kind:    KindConflict,
		Message: "Email 'dup@example.com' already exists.",
	}
	want := "Validation error for dup@example.com: Email 'dup@example.com' already exists."
	if got := be.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
