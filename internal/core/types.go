package core

// types.go defines the caller-facing input and result types for the mutation
// engine and the CSV importer. The web layer shapes these into its own JSON
// representations.

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crmcore/internal/domain"
)

// CustomerInput is the caller-supplied data for creating one customer.
// Phone is optional.
type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

// ProductInput is the caller-supplied data for creating one product.
// A nil Stock means unspecified and defaults to zero.
type ProductInput struct {
	Name  string
	Price decimal.Decimal
	Stock *int
}

// OrderInput is the caller-supplied data for creating one order. The total
// is never part of the input; it is derived from current product prices
// inside the transaction.
type OrderInput struct {
	CustomerID uuid.UUID
	ProductIDs []uuid.UUID
}

// FailedLine attributes one rejected CSV row to its position in the
// document. LineNumber is 1-based and counts the header row and any
// preamble above it.
type FailedLine struct {
	LineNumber int
	Email      string
	Kind       domain.Kind
	Reason     string
}

// ImportResult summarizes one CSV import.
type ImportResult struct {
	TotalRows   int
	Imported    int
	Failed      int
	Created     []domain.Customer
	FailedLines []FailedLine
	Duration    time.Duration
}
