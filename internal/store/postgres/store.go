// Package postgres implements the store interfaces on PostgreSQL via pgx.
// The schema's constraints are the authoritative enforcement of email
// uniqueness, price and stock ranges, and referential integrity; inserts run
// inside per-statement savepoints so a violation surfaces as a typed error
// while the surrounding transaction stays usable for the next item.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"crmcore/internal/domain"
	"crmcore/internal/store"
)

// Store is the PostgreSQL backend. It owns the pool passed to Open and
// closes it on Close.
type Store struct {
	pool *pgxpool.Pool
}

// Open applies the schema and returns the backend.
func Open(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &tx{tx: pgtx}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type tx struct {
	tx pgx.Tx
	sp int // savepoint counter
}

func (t *tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return store.ErrTxDone
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return fmt.Errorf("rollback transaction: %w", err)
}

// withSavepoint runs fn inside a savepoint. On error only the savepoint is
// rolled back, keeping the enclosing transaction usable.
func (t *tx) withSavepoint(ctx context.Context, fn func() error) error {
	t.sp++
	name := fmt.Sprintf("sp_%d", t.sp)
	if _, err := t.tx.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}
	if err := fn(); err != nil {
		if _, rbErr := t.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rollback to savepoint: %v (after: %w)", rbErr, err)
		}
		return err
	}
	if _, err := t.tx.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

func (t *tx) GetCustomer(ctx context.Context, id uuid.UUID) (domain.Customer, error) {
	var (
		c     domain.Customer
		cid   pgtype.UUID
		phone pgtype.Text
	)
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, email, phone FROM customers WHERE id = $1`,
		toPgUUID(id),
	).Scan(&cid, &c.Name, &c.Email, &phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Customer{}, domain.NotFoundError("customer_id", store.MsgCustomerNotFound)
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	c.ID = fromPgUUID(cid)
	c.Phone = fromPgText(phone)
	return c, nil
}

func (t *tx) GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	var (
		p     domain.Product
		pid   pgtype.UUID
		price pgtype.Numeric
	)
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, price, stock FROM products WHERE id = $1`,
		toPgUUID(id),
	).Scan(&pid, &p.Name, &price, &p.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.NotFoundError("product_id", store.MsgProductNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	p.ID = fromPgUUID(pid)
	if p.Price, err = fromPgNumeric(price); err != nil {
		return domain.Product{}, fmt.Errorf("get product price: %w", err)
	}
	return p, nil
}

func (t *tx) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	var (
		o     domain.Order
		oid   pgtype.UUID
		cid   pgtype.UUID
		total pgtype.Numeric
	)
	err := t.tx.QueryRow(ctx,
		`SELECT id, customer_id, total_amount, order_date FROM orders WHERE id = $1`,
		toPgUUID(id),
	).Scan(&oid, &cid, &total, &o.OrderDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.NotFoundError("order_id", store.MsgOrderNotFound)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	o.ID = fromPgUUID(oid)
	o.CustomerID = fromPgUUID(cid)
	if o.TotalAmount, err = fromPgNumeric(total); err != nil {
		return domain.Order{}, fmt.Errorf("get order total: %w", err)
	}
	assoc, err := t.orderProducts(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.ProductIDs = assoc[o.ID]
	return o, nil
}

func (t *tx) CustomerEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (t *tx) InsertCustomer(ctx context.Context, c domain.Customer) error {
	return t.withSavepoint(ctx, func() error {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO customers (id, name, email, phone) VALUES ($1, $2, $3, $4)`,
			toPgUUID(c.ID), c.Name, c.Email, toPgText(c.Phone),
		)
		return mapConstraintError(err)
	})
}

func (t *tx) InsertProduct(ctx context.Context, p domain.Product) error {
	return t.withSavepoint(ctx, func() error {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO products (id, name, price, stock) VALUES ($1, $2, $3, $4)`,
			toPgUUID(p.ID), p.Name, toPgNumeric(p.Price), p.Stock,
		)
		return mapConstraintError(err)
	})
}

// InsertOrder writes the order row and its product associations inside one
// savepoint, so a failed association rolls back the order row with it.
func (t *tx) InsertOrder(ctx context.Context, o domain.Order) error {
	return t.withSavepoint(ctx, func() error {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO orders (id, customer_id, total_amount, order_date) VALUES ($1, $2, $3, $4)`,
			toPgUUID(o.ID), toPgUUID(o.CustomerID), toPgNumeric(o.TotalAmount), o.OrderDate,
		)
		if err != nil {
			return mapConstraintError(err)
		}
		for _, pid := range o.ProductIDs {
			_, err := t.tx.Exec(ctx,
				`INSERT INTO order_products (order_id, product_id) VALUES ($1, $2)`,
				toPgUUID(o.ID), toPgUUID(pid),
			)
			if err != nil {
				return mapConstraintError(err)
			}
		}
		return nil
	})
}

func (t *tx) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM customers WHERE id = $1`, toPgUUID(id))
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("customer_id", store.MsgCustomerNotFound)
	}
	return nil
}

func (t *tx) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, toPgUUID(id))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("product_id", store.MsgProductNotFound)
	}
	return nil
}

func (t *tx) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, toPgUUID(id))
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("order_id", store.MsgOrderNotFound)
	}
	return nil
}

func (t *tx) ListCustomers(ctx context.Context, f store.CustomerFilter, page store.PageRequest) (store.CustomerPage, error) {
	wb := NewWhereBuilder()
	wb.AddContains("name", f.Name)
	wb.AddContains("email", f.Email)
	wb.AddPrefix("phone", f.PhonePrefix)
	whereClause, args := wb.Build()

	var totalRows int64
	if err := t.tx.QueryRow(ctx, "SELECT COUNT(*) FROM customers"+whereClause, args...).Scan(&totalRows); err != nil {
		return store.CustomerPage{}, fmt.Errorf("count customers: %w", err)
	}
	pg, offset := page.Clamp(totalRows)

	query := fmt.Sprintf(
		`SELECT id, name, email, phone FROM customers%s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		whereClause, wb.NextArgIndex(), wb.NextArgIndex()+1,
	)
	rows, err := t.tx.Query(ctx, query, append(args, pg.PageSize, offset)...)
	if err != nil {
		return store.CustomerPage{}, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, pg.PageSize)
	for rows.Next() {
		var (
			c     domain.Customer
			cid   pgtype.UUID
			phone pgtype.Text
		)
		if err := rows.Scan(&cid, &c.Name, &c.Email, &phone); err != nil {
			return store.CustomerPage{}, fmt.Errorf("scan customer: %w", err)
		}
		c.ID = fromPgUUID(cid)
		c.Phone = fromPgText(phone)
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return store.CustomerPage{}, fmt.Errorf("list customers: %w", err)
	}
	return store.CustomerPage{Customers: customers, Pagination: pg}, nil
}

func (t *tx) ListProducts(ctx context.Context, f store.ProductFilter, page store.PageRequest) (store.ProductPage, error) {
	wb := NewWhereBuilder()
	wb.AddContains("name", f.Name)
	if f.PriceGTE != nil {
		wb.AddCmp("price", ">=", toPgNumeric(*f.PriceGTE))
	}
	if f.PriceLTE != nil {
		wb.AddCmp("price", "<=", toPgNumeric(*f.PriceLTE))
	}
	if f.StockGTE != nil {
		wb.AddCmp("stock", ">=", *f.StockGTE)
	}
	if f.StockLTE != nil {
		wb.AddCmp("stock", "<=", *f.StockLTE)
	}
	whereClause, args := wb.Build()

	var totalRows int64
	if err := t.tx.QueryRow(ctx, "SELECT COUNT(*) FROM products"+whereClause, args...).Scan(&totalRows); err != nil {
		return store.ProductPage{}, fmt.Errorf("count products: %w", err)
	}
	pg, offset := page.Clamp(totalRows)

	query := fmt.Sprintf(
		`SELECT id, name, price, stock FROM products%s%s LIMIT $%d OFFSET $%d`,
		whereClause, orderByClause(page.OrderBy, store.OrderBy{Field: "name"}),
		wb.NextArgIndex(), wb.NextArgIndex()+1,
	)
	rows, err := t.tx.Query(ctx, query, append(args, pg.PageSize, offset)...)
	if err != nil {
		return store.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, pg.PageSize)
	for rows.Next() {
		var (
			p     domain.Product
			pid   pgtype.UUID
			price pgtype.Numeric
		)
		if err := rows.Scan(&pid, &p.Name, &price, &p.Stock); err != nil {
			return store.ProductPage{}, fmt.Errorf("scan product: %w", err)
		}
		p.ID = fromPgUUID(pid)
		if p.Price, err = fromPgNumeric(price); err != nil {
			return store.ProductPage{}, fmt.Errorf("scan product price: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return store.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	return store.ProductPage{Products: products, Pagination: pg}, nil
}

func (t *tx) ListOrders(ctx context.Context, f store.OrderFilter, page store.PageRequest) (store.OrderPage, error) {
	wb := NewWhereBuilder()
	if f.CustomerName != "" {
		wb.AddCondition(
			fmt.Sprintf(`EXISTS (SELECT 1 FROM customers c WHERE c.id = orders.customer_id AND c.name ILIKE $%d)`, wb.NextArgIndex()),
			"%"+f.CustomerName+"%",
		)
	}
	if f.ProductName != "" {
		wb.AddCondition(
			fmt.Sprintf(`EXISTS (SELECT 1 FROM order_products op JOIN products p ON p.id = op.product_id WHERE op.order_id = orders.id AND p.name ILIKE $%d)`, wb.NextArgIndex()),
			"%"+f.ProductName+"%",
		)
	}
	if f.TotalGTE != nil {
		wb.AddCmp("total_amount", ">=", toPgNumeric(*f.TotalGTE))
	}
	if f.TotalLTE != nil {
		wb.AddCmp("total_amount", "<=", toPgNumeric(*f.TotalLTE))
	}
	if f.ProductID != uuid.Nil {
		wb.AddCondition(
			fmt.Sprintf(`EXISTS (SELECT 1 FROM order_products op WHERE op.order_id = orders.id AND op.product_id = $%d)`, wb.NextArgIndex()),
			toPgUUID(f.ProductID),
		)
	}
	whereClause, args := wb.Build()

	var totalRows int64
	if err := t.tx.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+whereClause, args...).Scan(&totalRows); err != nil {
		return store.OrderPage{}, fmt.Errorf("count orders: %w", err)
	}
	pg, offset := page.Clamp(totalRows)

	query := fmt.Sprintf(
		`SELECT id, customer_id, total_amount, order_date FROM orders%s%s LIMIT $%d OFFSET $%d`,
		whereClause, orderByClause(page.OrderBy, store.OrderBy{Field: "order_date", Desc: true}),
		wb.NextArgIndex(), wb.NextArgIndex()+1,
	)
	rows, err := t.tx.Query(ctx, query, append(args, pg.PageSize, offset)...)
	if err != nil {
		return store.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, pg.PageSize)
	ids := make([]uuid.UUID, 0, pg.PageSize)
	for rows.Next() {
		var (
			o     domain.Order
			oid   pgtype.UUID
			cid   pgtype.UUID
			total pgtype.Numeric
		)
		if err := rows.Scan(&oid, &cid, &total, &o.OrderDate); err != nil {
			return store.OrderPage{}, fmt.Errorf("scan order: %w", err)
		}
		o.ID = fromPgUUID(oid)
		o.CustomerID = fromPgUUID(cid)
		if o.TotalAmount, err = fromPgNumeric(total); err != nil {
			return store.OrderPage{}, fmt.Errorf("scan order total: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return store.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}

	assoc, err := t.orderProducts(ctx, ids)
	if err != nil {
		return store.OrderPage{}, err
	}
	for i := range orders {
		orders[i].ProductIDs = assoc[orders[i].ID]
	}
	return store.OrderPage{Orders: orders, Pagination: pg}, nil
}

// orderProducts loads the product associations for a set of orders in one
// query.
func (t *tx) orderProducts(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	assoc := make(map[uuid.UUID][]uuid.UUID, len(orderIDs))
	if len(orderIDs) == 0 {
		return assoc, nil
	}
	ids := make([]pgtype.UUID, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = toPgUUID(id)
	}
	rows, err := t.tx.Query(ctx,
		`SELECT order_id, product_id FROM order_products WHERE order_id = ANY($1) ORDER BY order_id, product_id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var oid, pid pgtype.UUID
		if err := rows.Scan(&oid, &pid); err != nil {
			return nil, fmt.Errorf("scan order product: %w", err)
		}
		assoc[fromPgUUID(oid)] = append(assoc[fromPgUUID(oid)], fromPgUUID(pid))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}
	return assoc, nil
}

// orderByClause renders a validated sort with an id tiebreak so pagination
// stays stable. Fields reach here already whitelisted; quoting guards the
// identifier position anyway.
func orderByClause(ob, def store.OrderBy) string {
	if ob.Field == "" {
		ob = def
	}
	dir := " ASC"
	if ob.Desc {
		dir = " DESC"
	}
	return fmt.Sprintf(" ORDER BY %s%s, id", quoteIdentifier(ob.Field), dir)
}

// mapConstraintError converts SQLSTATE constraint violations into the shared
// typed errors. Anything else passes through for the caller to wrap.
func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		if pgErr.ConstraintName == "customers_email_key" {
			return domain.ConflictError("email", store.MsgEmailExists)
		}
		return domain.ConflictError("id", "Record with this ID already exists.")
	case "23503": // foreign_key_violation
		switch pgErr.ConstraintName {
		case "orders_customer_id_fkey":
			return domain.NotFoundError("customer_id", store.MsgCustomerNotFound)
		case "order_products_product_id_fkey":
			return domain.NotFoundError("product_id", store.MsgProductNotFound)
		case "order_products_order_id_fkey":
			return domain.NotFoundError("order_id", store.MsgOrderNotFound)
		}
		return domain.NotFoundError("", "Referenced record does not exist.")
	case "23514": // check_violation
		switch pgErr.ConstraintName {
		case "products_price_check":
			return domain.RangeError("price", store.MsgPricePositive)
		case "products_stock_check":
			return domain.RangeError("stock", store.MsgStockNegative)
		}
		return domain.RangeError("", "Value is out of range.")
	}
	return err
}
