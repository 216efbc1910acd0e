package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crmcore/internal/domain"
	"crmcore/internal/store"
)

// ComputeTotal derives an order total from product ids using the
// transaction's view of current prices. Duplicate ids collapse first, so
// each distinct product counts exactly once; the returned products are the
// de-duplicated set in first-seen order. If any id does not resolve, the
// whole computation fails with a NotFoundError naming that id and no partial
// total is returned.
func ComputeTotal(ctx context.Context, tx store.Tx, productIDs []uuid.UUID) (decimal.Decimal, []domain.Product, error) {
	seen := make(map[uuid.UUID]bool, len(productIDs))
	products := make([]domain.Product, 0, len(productIDs))
	total := decimal.Zero

	for _, id := range productIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			if domain.IsKind(err, domain.KindNotFound) {
				return decimal.Zero, nil, domain.NotFoundError("product_ids",
					fmt.Sprintf("Product with ID %s does not exist.", id))
			}
			return decimal.Zero, nil, fmt.Errorf("load product %s: %w", id, err)
		}
		products = append(products, p)
		total = total.Add(p.Price)
	}
	return total, products, nil
}
