// Package store defines the persistence boundary for the commerce entities.
// Implementations live in the memory, sqlite, and postgres subpackages and
// share the same constraint semantics: unique customer emails, positive
// prices, non-negative stock, and cascading deletes.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"crmcore/internal/domain"
)

// ErrTxDone is returned when a transaction handle is used after Commit or
// Rollback.
var ErrTxDone = errors.New("store: transaction has already been committed or rolled back")

// Driver names accepted by configuration and the open factory in cmd/server.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Constraint-violation messages shared by every backend so failures read
// identically regardless of driver.
const (
	MsgCustomerNotFound = "Customer with the given ID does not exist."
	MsgProductNotFound  = "Product with the given ID does not exist."
	MsgOrderNotFound    = "Order with the given ID does not exist."
	MsgEmailExists      = "Email already exists."
	MsgPricePositive    = "Price must be a positive number."
	MsgStockNegative    = "Stock cannot be a negative number."
)

// Store opens transactions against one backend.
type Store interface {
	// Begin starts a transaction. All data operations go through a Tx so
	// reads and writes observe a consistent view.
	Begin(ctx context.Context) (Tx, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Tx is a single transaction. Mutating calls that hit a constraint return a
// typed *domain.Error and leave the transaction usable, so batch callers can
// skip the failing item and continue. Commit applies everything at once;
// Rollback discards everything and is safe to defer (after Commit it is a
// no-op).
type Tx interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (domain.Customer, error)
	GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error)
	GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error)

	// CustomerEmailExists reports whether any customer holds email, including
	// rows inserted earlier in this same transaction.
	CustomerEmailExists(ctx context.Context, email string) (bool, error)

	InsertCustomer(ctx context.Context, c domain.Customer) error
	InsertProduct(ctx context.Context, p domain.Product) error
	InsertOrder(ctx context.Context, o domain.Order) error

	// Deletes cascade: removing a customer removes its orders, removing a
	// product or an order removes the association rows.
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	ListCustomers(ctx context.Context, filter CustomerFilter, page PageRequest) (CustomerPage, error)
	ListProducts(ctx context.Context, filter ProductFilter, page PageRequest) (ProductPage, error)
	ListOrders(ctx context.Context, filter OrderFilter, page PageRequest) (OrderPage, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
