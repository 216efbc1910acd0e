package web

// handlers_mutations.go hosts the write-side handlers: single-entity
// creates, the bulk customer create, and deletes.

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crmcore/internal/core"
	"crmcore/internal/domain"
)

// handleCreateCustomer creates one customer. All-or-nothing.
func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	c, err := s.service.CreateCustomer(r.Context(), core.CustomerInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// BulkCreateResponse reports a finished batch: the customers that were
// persisted and one structured record per rejected input.
type BulkCreateResponse struct {
	Submitted int                 `json:"submitted"`
	Created   []domain.Customer   `json:"created"`
	Errors    []domain.BatchError `json:"errors"`
}

// handleBulkCreateCustomers creates many customers in one transaction.
// Inputs failing validation are reported per item; the rest commit together.
func (s *Server) handleBulkCreateCustomers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Customers []struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Phone string `json:"phone"`
		} `json:"customers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if len(req.Customers) == 0 {
		respondBadRequest(w, "no customers provided")
		return
	}

	inputs := make([]core.CustomerInput, len(req.Customers))
	for i, c := range req.Customers {
		inputs[i] = core.CustomerInput{Name: c.Name, Email: c.Email, Phone: c.Phone}
	}

	created, batchErrs, err := s.service.BulkCreateCustomers(r.Context(), inputs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Empty slices render as [] rather than null.
	if batchErrs == nil {
		batchErrs = []domain.BatchError{}
	}
	writeJSON(w, http.StatusOK, BulkCreateResponse{
		Submitted: len(inputs),
		Created:   created,
		Errors:    batchErrs,
	})
}

// handleCreateProduct creates one product. All-or-nothing.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
		Stock *int            `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	p, err := s.service.CreateProduct(r.Context(), core.ProductInput{
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleCreateOrder creates one order with its derived total.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID uuid.UUID   `json:"customer_id"`
		ProductIDs []uuid.UUID `json:"product_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	o, err := s.service.CreateOrder(r.Context(), core.OrderInput{
		CustomerID: req.CustomerID,
		ProductIDs: req.ProductIDs,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// handleDeleteCustomer removes a customer; its orders cascade.
func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "customerID")
	if !ok {
		respondBadRequest(w, "invalid customer id")
		return
	}
	if err := s.service.DeleteCustomer(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteProduct removes a product; its order associations cascade.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "productID")
	if !ok {
		respondBadRequest(w, "invalid product id")
		return
	}
	if err := s.service.DeleteProduct(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteOrder removes one order.
func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "orderID")
	if !ok {
		respondBadRequest(w, "invalid order id")
		return
	}
	if err := s.service.DeleteOrder(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
