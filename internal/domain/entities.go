// Package domain defines the commerce entities and the typed errors
// returned by validation and store operations. It has no store or
// transport dependencies and can be imported from anywhere.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field length limits enforced before any write reaches a store.
const (
	NameMaxLen  = 200
	EmailMaxLen = 254
)

// Customer is a unique-by-email contact record.
type Customer struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
}

func (c Customer) String() string {
	return fmt.Sprintf("%s <%s>", c.Name, c.Email)
}

// Product is a sellable item. Price is exact decimal; binary floating
// point never touches money anywhere in this module.
type Product struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

func (p Product) String() string {
	return fmt.Sprintf("%s ($%s)", p.Name, p.Price.StringFixed(2))
}

// Order references one customer and at least one product. TotalAmount is
// derived from the associated product prices at creation time and is never
// caller-supplied. ProductIDs is a set: duplicates collapse on creation.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	ProductIDs  []uuid.UUID     `json:"product_ids"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
}

func (o Order) String() string {
	return fmt.Sprintf("Order %s by customer %s", o.ID, o.CustomerID)
}
