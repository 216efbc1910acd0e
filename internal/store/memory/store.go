// Package memory implements the store interfaces with an in-memory engine.
// Transactions clone the current state, mutate the clone, and swap it in on
// commit, so readers never observe partial writes and rollback is a plain
// discard. A buffered channel serializes transactions; Begin honors context
// cancellation while waiting its turn.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"crmcore/internal/domain"
	"crmcore/internal/store"
)

type state struct {
	customers map[uuid.UUID]domain.Customer
	products  map[uuid.UUID]domain.Product
	orders    map[uuid.UUID]domain.Order
	emails    map[string]uuid.UUID // exact email -> customer id
}

func newState() *state {
	return &state{
		customers: make(map[uuid.UUID]domain.Customer),
		products:  make(map[uuid.UUID]domain.Product),
		orders:    make(map[uuid.UUID]domain.Order),
		emails:    make(map[string]uuid.UUID),
	}
}

func (s *state) clone() *state {
	cloned := newState()
	for k, v := range s.customers {
		cloned.customers[k] = v
	}
	for k, v := range s.products {
		cloned.products[k] = v
	}
	for k, v := range s.orders {
		cloned.orders[k] = cloneOrder(v)
	}
	for k, v := range s.emails {
		cloned.emails[k] = v
	}
	return cloned
}

func cloneOrder(o domain.Order) domain.Order {
	cp := o
	cp.ProductIDs = append([]uuid.UUID(nil), o.ProductIDs...)
	return cp
}

// Store is the in-memory backend.
type Store struct {
	sema  chan struct{}
	state *state
}

func New() *Store {
	return &Store{
		sema:  make(chan struct{}, 1),
		state: newState(),
	}
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	select {
	case s.sema <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &tx{store: s, state: s.state.clone()}, nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Snapshot is the serializable form of the store contents, used by the
// sqlite backend to persist state between runs.
type Snapshot struct {
	Customers []domain.Customer `json:"customers"`
	Products  []domain.Product  `json:"products"`
	Orders    []domain.Order    `json:"orders"`
}

// ExportState returns a stable copy of everything in the store, sorted by
// id so serialized snapshots are deterministic.
func (s *Store) ExportState() Snapshot {
	s.sema <- struct{}{}
	defer func() { <-s.sema }()
	return snapshotOf(s.state)
}

func snapshotOf(st *state) Snapshot {
	snap := Snapshot{
		Customers: make([]domain.Customer, 0, len(st.customers)),
		Products:  make([]domain.Product, 0, len(st.products)),
		Orders:    make([]domain.Order, 0, len(st.orders)),
	}
	for _, c := range st.customers {
		snap.Customers = append(snap.Customers, c)
	}
	for _, p := range st.products {
		snap.Products = append(snap.Products, p)
	}
	for _, o := range st.orders {
		snap.Orders = append(snap.Orders, cloneOrder(o))
	}
	sort.Slice(snap.Customers, func(i, j int) bool { return lessID(snap.Customers[i].ID, snap.Customers[j].ID) })
	sort.Slice(snap.Products, func(i, j int) bool { return lessID(snap.Products[i].ID, snap.Products[j].ID) })
	sort.Slice(snap.Orders, func(i, j int) bool { return lessID(snap.Orders[i].ID, snap.Orders[j].ID) })
	return snap
}

// Snapshotter is implemented by transactions that can report the state
// they would install on commit. The sqlite backend writes that snapshot
// to disk before letting the commit go through.
type Snapshotter interface {
	Pending() (Snapshot, error)
}

// ImportState replaces the store contents with the snapshot.
func (s *Store) ImportState(snap Snapshot) error {
	s.sema <- struct{}{}
	defer func() { <-s.sema }()

	st := newState()
	for _, c := range snap.Customers {
		if _, ok := st.emails[c.Email]; ok {
			return fmt.Errorf("memory: snapshot holds duplicate email %q", c.Email)
		}
		st.customers[c.ID] = c
		st.emails[c.Email] = c.ID
	}
	for _, p := range snap.Products {
		st.products[p.ID] = p
	}
	for _, o := range snap.Orders {
		st.orders[o.ID] = cloneOrder(o)
	}
	s.state = st
	return nil
}

type tx struct {
	store *Store
	state *state
	done  bool
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return store.ErrTxDone
	}
	t.store.state = t.state
	t.done = true
	<-t.store.sema
	return nil
}

// Pending returns the state this transaction would install on commit.
func (t *tx) Pending() (Snapshot, error) {
	if t.done {
		return Snapshot{}, store.ErrTxDone
	}
	return snapshotOf(t.state), nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	<-t.store.sema
	return nil
}

func (t *tx) GetCustomer(ctx context.Context, id uuid.UUID) (domain.Customer, error) {
	if t.done {
		return domain.Customer{}, store.ErrTxDone
	}
	c, ok := t.state.customers[id]
	if !ok {
		return domain.Customer{}, domain.NotFoundError("customer_id", store.MsgCustomerNotFound)
	}
	return c, nil
}

func (t *tx) GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	if t.done {
		return domain.Product{}, store.ErrTxDone
	}
	p, ok := t.state.products[id]
	if !ok {
		return domain.Product{}, domain.NotFoundError("product_id", store.MsgProductNotFound)
	}
	return p, nil
}

func (t *tx) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	if t.done {
		return domain.Order{}, store.ErrTxDone
	}
	o, ok := t.state.orders[id]
	if !ok {
		return domain.Order{}, domain.NotFoundError("order_id", store.MsgOrderNotFound)
	}
	return cloneOrder(o), nil
}

func (t *tx) CustomerEmailExists(ctx context.Context, email string) (bool, error) {
	if t.done {
		return false, store.ErrTxDone
	}
	_, ok := t.state.emails[email]
	return ok, nil
}

func (t *tx) InsertCustomer(ctx context.Context, c domain.Customer) error {
	if t.done {
		return store.ErrTxDone
	}
	if _, exists := t.state.customers[c.ID]; exists {
		return domain.ConflictError("id", "Customer ID already exists.")
	}
	if _, exists := t.state.emails[c.Email]; exists {
		return domain.ConflictError("email", store.MsgEmailExists)
	}
	t.state.customers[c.ID] = c
	t.state.emails[c.Email] = c.ID
	return nil
}

func (t *tx) InsertProduct(ctx context.Context, p domain.Product) error {
	if t.done {
		return store.ErrTxDone
	}
	if _, exists := t.state.products[p.ID]; exists {
		return domain.ConflictError("id", "Product ID already exists.")
	}
	if p.Price.Sign() <= 0 {
		return domain.RangeError("price", store.MsgPricePositive)
	}
	if p.Stock < 0 {
		return domain.RangeError("stock", store.MsgStockNegative)
	}
	t.state.products[p.ID] = p
	return nil
}

func (t *tx) InsertOrder(ctx context.Context, o domain.Order) error {
	if t.done {
		return store.ErrTxDone
	}
	if _, exists := t.state.orders[o.ID]; exists {
		return domain.ConflictError("id", "Order ID already exists.")
	}
	if _, ok := t.state.customers[o.CustomerID]; !ok {
		return domain.NotFoundError("customer_id", store.MsgCustomerNotFound)
	}
	for _, pid := range o.ProductIDs {
		if _, ok := t.state.products[pid]; !ok {
			return domain.NotFoundError("product_id", store.MsgProductNotFound)
		}
	}
	t.state.orders[o.ID] = cloneOrder(o)
	return nil
}

func (t *tx) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if t.done {
		return store.ErrTxDone
	}
	c, ok := t.state.customers[id]
	if !ok {
		return domain.NotFoundError("customer_id", store.MsgCustomerNotFound)
	}
	delete(t.state.customers, id)
	delete(t.state.emails, c.Email)
	for oid, o := range t.state.orders {
		if o.CustomerID == id {
			delete(t.state.orders, oid)
		}
	}
	return nil
}

func (t *tx) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if t.done {
		return store.ErrTxDone
	}
	if _, ok := t.state.products[id]; !ok {
		return domain.NotFoundError("product_id", store.MsgProductNotFound)
	}
	delete(t.state.products, id)
	for oid, o := range t.state.orders {
		kept := make([]uuid.UUID, 0, len(o.ProductIDs))
		for _, pid := range o.ProductIDs {
			if pid != id {
				kept = append(kept, pid)
			}
		}
		if len(kept) != len(o.ProductIDs) {
			o.ProductIDs = kept
			t.state.orders[oid] = o
		}
	}
	return nil
}

func (t *tx) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if t.done {
		return store.ErrTxDone
	}
	if _, ok := t.state.orders[id]; !ok {
		return domain.NotFoundError("order_id", store.MsgOrderNotFound)
	}
	delete(t.state.orders, id)
	return nil
}

func (t *tx) ListCustomers(ctx context.Context, f store.CustomerFilter, page store.PageRequest) (store.CustomerPage, error) {
	if t.done {
		return store.CustomerPage{}, store.ErrTxDone
	}
	matched := make([]domain.Customer, 0, len(t.state.customers))
	for _, c := range t.state.customers {
		if matchCustomer(c, f) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return lessID(a.ID, b.ID)
	})
	pg, offset := page.Clamp(int64(len(matched)))
	lo, hi := window(len(matched), offset, pg.PageSize)
	return store.CustomerPage{Customers: matched[lo:hi], Pagination: pg}, nil
}

func (t *tx) ListProducts(ctx context.Context, f store.ProductFilter, page store.PageRequest) (store.ProductPage, error) {
	if t.done {
		return store.ProductPage{}, store.ErrTxDone
	}
	matched := make([]domain.Product, 0, len(t.state.products))
	for _, p := range t.state.products {
		if matchProduct(p, f) {
			matched = append(matched, p)
		}
	}
	sortProducts(matched, page.OrderBy)
	pg, offset := page.Clamp(int64(len(matched)))
	lo, hi := window(len(matched), offset, pg.PageSize)
	return store.ProductPage{Products: matched[lo:hi], Pagination: pg}, nil
}

func (t *tx) ListOrders(ctx context.Context, f store.OrderFilter, page store.PageRequest) (store.OrderPage, error) {
	if t.done {
		return store.OrderPage{}, store.ErrTxDone
	}
	matched := make([]domain.Order, 0, len(t.state.orders))
	for _, o := range t.state.orders {
		if t.matchOrder(o, f) {
			matched = append(matched, cloneOrder(o))
		}
	}
	sortOrders(matched, page.OrderBy)
	pg, offset := page.Clamp(int64(len(matched)))
	lo, hi := window(len(matched), offset, pg.PageSize)
	return store.OrderPage{Orders: matched[lo:hi], Pagination: pg}, nil
}

func matchCustomer(c domain.Customer, f store.CustomerFilter) bool {
	if f.Name != "" && !containsFold(c.Name, f.Name) {
		return false
	}
	if f.Email != "" && !containsFold(c.Email, f.Email) {
		return false
	}
	if f.PhonePrefix != "" && !strings.HasPrefix(c.Phone, f.PhonePrefix) {
		return false
	}
	return true
}

func matchProduct(p domain.Product, f store.ProductFilter) bool {
	if f.Name != "" && !containsFold(p.Name, f.Name) {
		return false
	}
	if f.PriceGTE != nil && p.Price.Cmp(*f.PriceGTE) < 0 {
		return false
	}
	if f.PriceLTE != nil && p.Price.Cmp(*f.PriceLTE) > 0 {
		return false
	}
	if f.StockGTE != nil && p.Stock < *f.StockGTE {
		return false
	}
	if f.StockLTE != nil && p.Stock > *f.StockLTE {
		return false
	}
	return true
}

func (t *tx) matchOrder(o domain.Order, f store.OrderFilter) bool {
	if f.CustomerName != "" {
		c, ok := t.state.customers[o.CustomerID]
		if !ok || !containsFold(c.Name, f.CustomerName) {
			return false
		}
	}
	if f.ProductName != "" {
		found := false
		for _, pid := range o.ProductIDs {
			if p, ok := t.state.products[pid]; ok && containsFold(p.Name, f.ProductName) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.TotalGTE != nil && o.TotalAmount.Cmp(*f.TotalGTE) < 0 {
		return false
	}
	if f.TotalLTE != nil && o.TotalAmount.Cmp(*f.TotalLTE) > 0 {
		return false
	}
	if f.ProductID != uuid.Nil {
		found := false
		for _, pid := range o.ProductIDs {
			if pid == f.ProductID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortProducts(list []domain.Product, ob store.OrderBy) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		var cmp int
		switch ob.Field {
		case "price":
			cmp = a.Price.Cmp(b.Price)
		case "stock":
			cmp = compareInt(a.Stock, b.Stock)
		default:
			cmp = strings.Compare(a.Name, b.Name)
		}
		if ob.Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		// id tiebreak keeps pagination stable across backends
		return lessID(a.ID, b.ID)
	})
}

func sortOrders(list []domain.Order, ob store.OrderBy) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		var cmp int
		switch ob.Field {
		case "total_amount":
			cmp = a.TotalAmount.Cmp(b.TotalAmount)
			if ob.Desc {
				cmp = -cmp
			}
		case "order_date":
			cmp = compareTime(a, b)
			if ob.Desc {
				cmp = -cmp
			}
		default:
			// newest first
			cmp = -compareTime(a, b)
		}
		if cmp != 0 {
			return cmp < 0
		}
		return lessID(a.ID, b.ID)
	})
}

func compareTime(a, b domain.Order) int {
	switch {
	case a.OrderDate.Before(b.OrderDate):
		return -1
	case a.OrderDate.After(b.OrderDate):
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func window(total, offset, size int) (int, int) {
	if offset > total {
		offset = total
	}
	end := offset + size
	if end > total {
		end = total
	}
	return offset, end
}
