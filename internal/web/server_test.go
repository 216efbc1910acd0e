package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crmcore/internal/config"
	"crmcore/internal/core"
	"crmcore/internal/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Import.MaxFileSize = 1 << 20

	svc := core.NewService(memory.New(), core.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return NewServer(svc, nil, cfg)
}

// do executes one request against the router and returns the recorder.
func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
}

// ============================================================================
// Mutation Endpoint Tests
// ============================================================================

func TestCreateCustomerEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/customers",
		`{"name":"Ada Lovelace","email":"ada@example.com","phone":"+441234567890"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %q)", w.Code, http.StatusCreated, w.Body.String())
	}

	var created struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	decodeBody(t, w, &created)
	if created.ID == "" {
		t.Error("no id assigned")
	}
	if created.Email != "ada@example.com" {
		t.Errorf("email = %q, want %q", created.Email, "ada@example.com")
	}

	// Same email again conflicts.
	w = do(t, s, http.MethodPost, "/api/customers",
		`{"name":"Other","email":"ada@example.com"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", w.Code, http.StatusConflict)
	}
	var envelope ErrorResponse
	decodeBody(t, w, &envelope)
	if envelope.Code != "DUP001" {
		t.Errorf("error code = %q, want %q", envelope.Code, "DUP001")
	}
}

func TestCreateCustomerEndpoint_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing email", `{"name":"Ada"}`, http.StatusBadRequest},
		{"bad email syntax", `{"name":"Ada","email":"nope"}`, http.StatusBadRequest},
		{"short phone", `{"name":"Ada","email":"a@example.com","phone":"12345"}`, http.StatusBadRequest},
		{"malformed json", `{"name":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := do(t, s, http.MethodPost, "/api/customers", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestBulkCreateCustomersEndpoint(t *testing.T) {
	s := newTestServer(t)

	// Seed the email the third input collides with.
	w := do(t, s, http.MethodPost, "/api/customers",
		`{"name":"Taken","email":"taken@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("seed status = %d (body %q)", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/api/customers/bulk", `{"customers":[
		{"name":"One","email":"one@example.com"},
		{"name":"Two","email":"two@example.com"},
		{"name":"Three","email":"taken@example.com"}
	]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", w.Code, http.StatusOK, w.Body.String())
	}

	var resp BulkCreateResponse
	decodeBody(t, w, &resp)
	if resp.Submitted != 3 {
		t.Errorf("submitted = %d, want 3", resp.Submitted)
	}
	if len(resp.Created) != 2 {
		t.Errorf("created = %d, want 2", len(resp.Created))
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(resp.Errors))
	}
	if resp.Errors[0].Index != 2 {
		t.Errorf("error index = %d, want 2", resp.Errors[0].Index)
	}
	if resp.Errors[0].Email != "taken@example.com" {
		t.Errorf("error email = %q, want %q", resp.Errors[0].Email, "taken@example.com")
	}
}

func TestBulkCreateCustomersEndpoint_Empty(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/customers/bulk", `{"customers":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateProductEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"name":"Widget","price":"9.99","stock":3}`, http.StatusCreated},
		{"numeric price", `{"name":"Widget","price":9.99}`, http.StatusCreated},
		{"zero price", `{"name":"Widget","price":"0"}`, http.StatusBadRequest},
		{"negative stock", `{"name":"Widget","price":"1.00","stock":-1}`, http.StatusBadRequest},
		{"missing name", `{"price":"1.00"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := do(t, s, http.MethodPost, "/api/products", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestCreateOrderEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/customers",
		`{"name":"Buyer","email":"buyer@example.com"}`)
	var customer struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &customer)

	w = do(t, s, http.MethodPost, "/api/products", `{"name":"A","price":"10.00"}`)
	var pa struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &pa)

	w = do(t, s, http.MethodPost, "/api/products", `{"name":"B","price":"15.25"}`)
	var pb struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &pb)

	body := fmt.Sprintf(`{"customer_id":%q,"product_ids":[%q,%q]}`, customer.ID, pa.ID, pb.ID)
	w = do(t, s, http.MethodPost, "/api/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %q)", w.Code, http.StatusCreated, w.Body.String())
	}

	var order struct {
		TotalAmount string `json:"total_amount"`
	}
	decodeBody(t, w, &order)
	if order.TotalAmount != "25.25" {
		t.Errorf("total_amount = %q, want %q", order.TotalAmount, "25.25")
	}
}

func TestCreateOrderEndpoint_Errors(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/customers",
		`{"name":"Buyer","email":"buyer@example.com"}`)
	var customer struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &customer)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			"unknown customer",
			`{"customer_id":"00000000-0000-0000-0000-000000000001","product_ids":["00000000-0000-0000-0000-000000000002"]}`,
			http.StatusNotFound,
		},
		{
			"no products",
			fmt.Sprintf(`{"customer_id":%q,"product_ids":[]}`, customer.ID),
			http.StatusBadRequest,
		},
		{
			"unknown product",
			fmt.Sprintf(`{"customer_id":%q,"product_ids":["00000000-0000-0000-0000-000000000002"]}`, customer.ID),
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/orders", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestDeleteEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/customers",
		`{"name":"Gone","email":"gone@example.com"}`)
	var customer struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &customer)

	w = do(t, s, http.MethodDelete, "/api/customers/"+customer.ID, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	// A second delete finds nothing.
	w = do(t, s, http.MethodDelete, "/api/customers/"+customer.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = do(t, s, http.MethodDelete, "/api/customers/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ============================================================================
// Query Endpoint Tests
// ============================================================================

func TestGetCustomerEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/customers",
		`{"name":"Found","email":"found@example.com"}`)
	var customer struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &customer)

	w = do(t, s, http.MethodGet, "/api/customers/"+customer.ID, "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	w = do(t, s, http.MethodGet, "/api/customers/00000000-0000-0000-0000-0000000000aa", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestListProductsEndpoint(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"name":"Cheap","price":"1.00"}`,
		`{"name":"Costly","price":"100.00"}`,
	} {
		if w := do(t, s, http.MethodPost, "/api/products", body); w.Code != http.StatusCreated {
			t.Fatalf("seed status = %d (body %q)", w.Code, w.Body.String())
		}
	}

	w := do(t, s, http.MethodGet, "/api/products?price_gte=50&order_by=-price", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", w.Code, http.StatusOK, w.Body.String())
	}
	var page struct {
		Products []struct {
			Name string `json:"name"`
		} `json:"products"`
		Pagination struct {
			TotalRows int64 `json:"total_rows"`
		} `json:"pagination"`
	}
	decodeBody(t, w, &page)
	if page.Pagination.TotalRows != 1 {
		t.Errorf("total_rows = %d, want 1", page.Pagination.TotalRows)
	}
	if len(page.Products) != 1 || page.Products[0].Name != "Costly" {
		t.Errorf("products = %+v, want just Costly", page.Products)
	}
}

func TestListEndpoint_BadParams(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"unknown order field", "/api/products?order_by=height"},
		{"malformed price filter", "/api/products?price_gte=abc"},
		{"malformed order product id", "/api/orders?product_id=nope"},
		{"order by on wrong entity", "/api/orders?order_by=price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := do(t, s, http.MethodGet, tt.path, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d (body %q)", w.Code, http.StatusBadRequest, w.Body.String())
			}
		})
	}
}

// ============================================================================
// Import and Health Endpoint Tests
// ============================================================================

func TestImportCustomersEndpoint(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "customers.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(fw, "name,email,phone\nAda,ada@example.com,+441234567890\nBad,not-an-email,\n")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/customers/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", w.Code, http.StatusOK, w.Body.String())
	}

	var resp ImportResponse
	decodeBody(t, w, &resp)
	if resp.TotalRows != 2 || resp.Imported != 1 || resp.Failed != 1 {
		t.Errorf("result = %d/%d/%d, want 2/1/1", resp.TotalRows, resp.Imported, resp.Failed)
	}
	if len(resp.FailedLines) != 1 || resp.FailedLines[0].LineNumber != 3 {
		t.Errorf("failed lines = %+v, want one entry at line 3", resp.FailedLines)
	}
}

func TestImportCustomersEndpoint_NoFile(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/customers/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Status string `json:"status"`
	}
	decodeBody(t, w, &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
}
