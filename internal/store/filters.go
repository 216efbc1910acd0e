package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crmcore/internal/domain"
)

// CustomerFilter narrows customer listings. Zero values mean "no filter";
// all conditions combine with AND.
type CustomerFilter struct {
	Name        string // case-insensitive substring
	Email       string // case-insensitive substring
	PhonePrefix string // prefix match
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Name     string // case-insensitive substring
	PriceGTE *decimal.Decimal
	PriceLTE *decimal.Decimal
	StockGTE *int
	StockLTE *int
}

// OrderFilter narrows order listings. CustomerName and ProductName match
// against the related rows, not columns on the order itself.
type OrderFilter struct {
	CustomerName string // case-insensitive substring on the owning customer
	ProductName  string // case-insensitive substring on any associated product
	TotalGTE     *decimal.Decimal
	TotalLTE     *decimal.Decimal
	ProductID    uuid.UUID // orders containing this product; uuid.Nil means off
}

// OrderBy is a validated sort selection. The zero value keeps the entity's
// default order (name for customers and products, newest first for orders).
type OrderBy struct {
	Field string
	Desc  bool
}

// Sortable fields per entity, in the caller-facing spelling.
var (
	ProductOrderFields = []string{"name", "price", "stock"}
	OrderOrderFields   = []string{"order_date", "total_amount"}
)

// ParseOrderBy validates a caller-supplied ordering against the allowed
// fields. A leading '-' selects descending order. Empty input keeps the
// default order.
func ParseOrderBy(raw string, allowed []string) (OrderBy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return OrderBy{}, nil
	}
	ob := OrderBy{Field: raw}
	if strings.HasPrefix(raw, "-") {
		ob.Desc = true
		ob.Field = raw[1:]
	}
	for _, f := range allowed {
		if ob.Field == f {
			return ob, nil
		}
	}
	return OrderBy{}, domain.FormatError("order_by",
		fmt.Sprintf("Cannot order by %q. Allowed fields: %s.", ob.Field, strings.Join(allowed, ", ")))
}
