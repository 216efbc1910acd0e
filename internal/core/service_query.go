package core

// service_query.go hosts the read side: single-entity lookups and the
// filtered, ordered, paginated list operations. Reads run inside a
// transaction too so each call sees one consistent snapshot.

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crmcore/internal/domain"
	"crmcore/internal/store"
)

// GetCustomer looks up one customer by ID.
func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (c domain.Customer, err error) {
	defer s.observe("get_customer", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	return tx.GetCustomer(ctx, id)
}

// GetProduct looks up one product by ID.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (p domain.Product, err error) {
	defer s.observe("get_product", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Product{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	return tx.GetProduct(ctx, id)
}

// GetOrder looks up one order by ID, including its product associations.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (o domain.Order, err error) {
	defer s.observe("get_order", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	return tx.GetOrder(ctx, id)
}

// ListCustomers returns a page of customers matching the filter, ordered by
// name.
func (s *Service) ListCustomers(ctx context.Context, filter store.CustomerFilter, page store.PageRequest) (res store.CustomerPage, err error) {
	defer s.observe("list_customers", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return store.CustomerPage{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	return tx.ListCustomers(ctx, filter, s.clampPage(page))
}

// ListProducts returns a page of products matching the filter.
func (s *Service) ListProducts(ctx context.Context, filter store.ProductFilter, page store.PageRequest) (res store.ProductPage, err error) {
	defer s.observe("list_products", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return store.ProductPage{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	return tx.ListProducts(ctx, filter, s.clampPage(page))
}

// ListOrders returns a page of orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, filter store.OrderFilter, page store.PageRequest) (res store.OrderPage, err error) {
	defer s.observe("list_orders", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return store.OrderPage{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	return tx.ListOrders(ctx, filter, s.clampPage(page))
}
