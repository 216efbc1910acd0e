package web

// handlers_queries.go hosts the read side: single-entity lookups and the
// filtered, ordered, paginated listings.

import (
	"net/http"

	"github.com/google/uuid"

	"crmcore/internal/store"
)

// handleGetCustomer returns one customer by id.
func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "customerID")
	if !ok {
		respondBadRequest(w, "invalid customer id")
		return
	}
	c, err := s.service.GetCustomer(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleGetProduct returns one product by id.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "productID")
	if !ok {
		respondBadRequest(w, "invalid product id")
		return
	}
	p, err := s.service.GetProduct(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleGetOrder returns one order by id, including its associations.
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "orderID")
	if !ok {
		respondBadRequest(w, "invalid order id")
		return
	}
	o, err := s.service.GetOrder(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// handleListCustomers lists customers filtered by name, email, and phone
// query parameters, ordered by name.
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.CustomerFilter{
		Name:        q.Get("name"),
		Email:       q.Get("email"),
		PhonePrefix: q.Get("phone"),
	}

	page, err := s.service.ListCustomers(r.Context(), filter, parsePage(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleListProducts lists products filtered by name and price/stock ranges,
// with optional caller-specified ordering.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter := store.ProductFilter{Name: r.URL.Query().Get("name")}

	var ok bool
	if filter.PriceGTE, ok = parseDecimalParam(r, "price_gte"); !ok {
		respondBadRequest(w, "invalid price_gte")
		return
	}
	if filter.PriceLTE, ok = parseDecimalParam(r, "price_lte"); !ok {
		respondBadRequest(w, "invalid price_lte")
		return
	}
	if filter.StockGTE, ok = parseIntPtrParam(r, "stock_gte"); !ok {
		respondBadRequest(w, "invalid stock_gte")
		return
	}
	if filter.StockLTE, ok = parseIntPtrParam(r, "stock_lte"); !ok {
		respondBadRequest(w, "invalid stock_lte")
		return
	}

	pageReq := parsePage(r)
	orderBy, err := store.ParseOrderBy(r.URL.Query().Get("order_by"), store.ProductOrderFields)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	pageReq.OrderBy = orderBy

	page, err := s.service.ListProducts(r.Context(), filter, pageReq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleListOrders lists orders filtered by related-entity names, total
// range, and contained product, with optional caller-specified ordering.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.OrderFilter{
		CustomerName: q.Get("customer_name"),
		ProductName:  q.Get("product_name"),
	}

	var ok bool
	if filter.TotalGTE, ok = parseDecimalParam(r, "total_gte"); !ok {
		respondBadRequest(w, "invalid total_gte")
		return
	}
	if filter.TotalLTE, ok = parseDecimalParam(r, "total_lte"); !ok {
		respondBadRequest(w, "invalid total_lte")
		return
	}
	if raw := q.Get("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondBadRequest(w, "invalid product_id")
			return
		}
		filter.ProductID = id
	}

	pageReq := parsePage(r)
	orderBy, err := store.ParseOrderBy(q.Get("order_by"), store.OrderOrderFields)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	pageReq.OrderBy = orderBy

	page, err := s.service.ListOrders(r.Context(), filter, pageReq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
