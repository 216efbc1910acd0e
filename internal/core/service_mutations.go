package core

// service_mutations.go hosts the write side: single-entity creates, the
// batch customer create, and deletes. Every operation is
// Begin -> defer Rollback -> work -> Commit, so no exit path leaves a
// transaction open or a partial write behind.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crmcore/internal/domain"
	"crmcore/internal/store"
)

// CreateCustomer validates and stores one customer. Any failure aborts with
// no write.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (c domain.Customer, err error) {
	defer s.observe("create_customer", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err = s.createCustomerInTx(ctx, tx, in, store.MsgEmailExists)
	if err != nil {
		return domain.Customer{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return domain.Customer{}, fmt.Errorf("commit transaction: %w", err)
	}

	s.log.InfoContext(ctx, "customer created", "customer_id", c.ID)
	return c, nil
}

// BulkCreateCustomers creates many customers in one transaction. Each input
// is validated independently against the transaction's view, so an email
// inserted earlier in the batch already counts as taken (first input wins).
// Failing inputs become BatchError records and are skipped; the single final
// commit applies all successful inserts together. An infrastructure failure
// aborts the whole batch and rolls back every insert.
func (s *Service) BulkCreateCustomers(ctx context.Context, inputs []CustomerInput) (created []domain.Customer, batchErrs []domain.BatchError, err error) {
	defer s.observe("bulk_create_customers", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	created = make([]domain.Customer, 0, len(inputs))
	for i, in := range inputs {
		conflictMsg := fmt.Sprintf("Email '%s' already exists.", in.Email)
		c, cerr := s.createCustomerInTx(ctx, tx, in, conflictMsg)
		if cerr != nil {
			var domErr *domain.Error
			if !errors.As(cerr, &domErr) {
				return nil, nil, cerr
			}
			batchErrs = append(batchErrs, domain.BatchError{
				Index:   i,
				Email:   in.Email,
				Kind:    domErr.Kind,
				Message: domErr.Message,
			})
			continue
		}
		created = append(created, c)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.log.InfoContext(ctx, "bulk customer create finished",
		"submitted", len(inputs), "created", len(created), "failed", len(batchErrs))
	return created, batchErrs, nil
}

// createCustomerInTx runs the full per-customer chain against one
// transaction: required fields, size caps, email syntax, uniqueness under
// the transaction's view, phone format, insert. conflictMsg lets the batch
// path use the email-bearing duplicate message.
func (s *Service) createCustomerInTx(ctx context.Context, tx store.Tx, in CustomerInput, conflictMsg string) (domain.Customer, error) {
	if err := ValidateRequired("name", in.Name, msgNameRequired); err != nil {
		return domain.Customer{}, err
	}
	if err := ValidateRequired("email", in.Email, msgEmailRequired); err != nil {
		return domain.Customer{}, err
	}
	if err := ValidateNameLength(in.Name); err != nil {
		return domain.Customer{}, err
	}
	if err := ValidateEmailLength(in.Email); err != nil {
		return domain.Customer{}, err
	}
	if err := ValidateEmailFormat(in.Email); err != nil {
		return domain.Customer{}, err
	}

	exists, err := tx.CustomerEmailExists(ctx, in.Email)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("check email uniqueness: %w", err)
	}
	if exists {
		return domain.Customer{}, domain.ConflictError("email", conflictMsg)
	}

	if err := ValidatePhoneFormat(in.Phone); err != nil {
		return domain.Customer{}, err
	}

	c := domain.Customer{
		ID:    uuid.New(),
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
	}
	if err := tx.InsertCustomer(ctx, c); err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

// CreateProduct validates and stores one product. All-or-nothing.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (p domain.Product, err error) {
	defer s.observe("create_product", time.Now(), &err)

	if err = ValidateRequired("name", in.Name, msgNameRequired); err != nil {
		return domain.Product{}, err
	}
	if err = ValidateNameLength(in.Name); err != nil {
		return domain.Product{}, err
	}
	if err = ValidatePrice(in.Price); err != nil {
		return domain.Product{}, err
	}
	stock := 0
	if in.Stock != nil {
		stock = *in.Stock
	}
	if err = ValidateStock(stock); err != nil {
		return domain.Product{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Product{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p = domain.Product{
		ID:    uuid.New(),
		Name:  in.Name,
		Price: in.Price,
		Stock: stock,
	}
	if err = tx.InsertProduct(ctx, p); err != nil {
		return domain.Product{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return domain.Product{}, fmt.Errorf("commit transaction: %w", err)
	}

	s.log.InfoContext(ctx, "product created", "product_id", p.ID)
	return p, nil
}

// CreateOrder stores one order with its derived total. The order row, its
// product associations, and the total appear together or not at all.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (o domain.Order, err error) {
	defer s.observe("create_order", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The customer must exist before the product list is judged, so an
	// unknown customer reports not_found even when no products were sent.
	if _, err = tx.GetCustomer(ctx, in.CustomerID); err != nil {
		return domain.Order{}, err
	}
	if len(in.ProductIDs) == 0 {
		return domain.Order{}, domain.EmptyInputError("product_ids", msgOrderNeedsProduct)
	}

	total, products, err := ComputeTotal(ctx, tx, in.ProductIDs)
	if err != nil {
		return domain.Order{}, err
	}
	productIDs := make([]uuid.UUID, len(products))
	for i, p := range products {
		productIDs[i] = p.ID
	}

	o = domain.Order{
		ID:          uuid.New(),
		CustomerID:  in.CustomerID,
		ProductIDs:  productIDs,
		TotalAmount: total,
		OrderDate:   time.Now().UTC(),
	}
	if err = tx.InsertOrder(ctx, o); err != nil {
		return domain.Order{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return domain.Order{}, fmt.Errorf("commit transaction: %w", err)
	}

	s.log.InfoContext(ctx, "order created",
		"order_id", o.ID, "customer_id", o.CustomerID, "total", o.TotalAmount)
	return o, nil
}

// DeleteCustomer removes a customer and cascades to its orders.
func (s *Service) DeleteCustomer(ctx context.Context, id uuid.UUID) (err error) {
	defer s.observe("delete_customer", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err = tx.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.log.InfoContext(ctx, "customer deleted", "customer_id", id)
	return nil
}

// DeleteProduct removes a product and cascades its order associations.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) (err error) {
	defer s.observe("delete_product", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err = tx.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.log.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

// DeleteOrder removes one order.
func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) (err error) {
	defer s.observe("delete_order", time.Now(), &err)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err = tx.DeleteOrder(ctx, id); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.log.InfoContext(ctx, "order deleted", "order_id", id)
	return nil
}
