package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"crmcore/internal/domain"
	"crmcore/internal/store"
)

// ============================================================================
// TESTS: WhereBuilder
// ============================================================================

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder()
	clause, args := wb.Build()
	if clause != "" {
		t.Errorf("Build() clause = %q, want empty string", clause)
	}
	if args != nil {
		t.Errorf("Build() args = %v, want nil", args)
	}
	if got := wb.NextArgIndex(); got != 1 {
		t.Errorf("NextArgIndex() = %d, want 1", got)
	}
}

func TestWhereBuilder_AddContains(t *testing.T) {
	tests := []struct {
		name       string
		column     string
		value      string
		wantClause string
		wantArgs   []interface{}
	}{
		{
			name:       "adds ILIKE condition with wrapped value",
			column:     "name",
			value:      "alice",
			wantClause: ` WHERE "name" ILIKE $1`,
			wantArgs:   []interface{}{"%alice%"},
		},
		{
			name:       "skips empty value",
			column:     "name",
			value:      "",
			wantClause: "",
			wantArgs:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddContains(tt.column, tt.value)
			clause, args := wb.Build()
			if clause != tt.wantClause {
				t.Errorf("Build() clause = %q, want %q", clause, tt.wantClause)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("Build() returned %d args, want %d", len(args), len(tt.wantArgs))
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %v, want %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestWhereBuilder_AddPrefix(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddPrefix("phone", "+45")
	clause, args := wb.Build()

	wantClause := ` WHERE "phone" LIKE $1`
	if clause != wantClause {
		t.Errorf("Build() clause = %q, want %q", clause, wantClause)
	}
	if len(args) != 1 || args[0] != "+45%" {
		t.Errorf("Build() args = %v, want [+45%%]", args)
	}
}

func TestWhereBuilder_AddCmp(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddCmp("stock", ">=", 5)
	wb.AddCmp("stock", "<=", 10)
	clause, args := wb.Build()

	wantClause := ` WHERE "stock" >= $1 AND "stock" <= $2`
	if clause != wantClause {
		t.Errorf("Build() clause = %q, want %q", clause, wantClause)
	}
	if len(args) != 2 || args[0] != 5 || args[1] != 10 {
		t.Errorf("Build() args = %v, want [5 10]", args)
	}
}

func TestWhereBuilder_AddCondition(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddContains("name", "mug")
	wb.AddCondition("EXISTS (SELECT 1 FROM order_products op WHERE op.product_id = $2)", "abc")

	if got := wb.NextArgIndex(); got != 3 {
		t.Errorf("NextArgIndex() = %d, want 3", got)
	}

	clause, args := wb.Build()
	wantClause := ` WHERE "name" ILIKE $1 AND EXISTS (SELECT 1 FROM order_products op WHERE op.product_id = $2)`
	if clause != wantClause {
		t.Errorf("Build() clause = %q, want %q", clause, wantClause)
	}
	if len(args) != 2 {
		t.Fatalf("Build() returned %d args, want 2", len(args))
	}
}

func TestWhereBuilder_ArgIndexProgression(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddContains("name", "a")
	wb.AddContains("email", "")
	wb.AddPrefix("phone", "+1")

	// Skipped conditions must not consume placeholder numbers.
	if got := wb.NextArgIndex(); got != 3 {
		t.Errorf("NextArgIndex() = %d, want 3", got)
	}
	clause, _ := wb.Build()
	wantClause := ` WHERE "name" ILIKE $1 AND "phone" LIKE $2`
	if clause != wantClause {
		t.Errorf("Build() clause = %q, want %q", clause, wantClause)
	}
}

// ============================================================================
// TESTS: quoteIdentifier
// ============================================================================

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain column", "name", `"name"`},
		{"column with space", "order date", `"order date"`},
		{"embedded quote is escaped", `na"me`, `"na""me"`},
		{"injection attempt stays quoted", `id"; DROP TABLE customers; --`, `"id""; DROP TABLE customers; --"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quoteIdentifier(tt.input); got != tt.want {
				t.Errorf("quoteIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// TESTS: orderByClause
// ============================================================================

func TestOrderByClause(t *testing.T) {
	tests := []struct {
		name string
		ob   store.OrderBy
		def  store.OrderBy
		want string
	}{
		{
			name: "explicit ascending field",
			ob:   store.OrderBy{Field: "price"},
			def:  store.OrderBy{Field: "name"},
			want: ` ORDER BY "price" ASC, id`,
		},
		{
			name: "explicit descending field",
			ob:   store.OrderBy{Field: "price", Desc: true},
			def:  store.OrderBy{Field: "name"},
			want: ` ORDER BY "price" DESC, id`,
		},
		{
			name: "empty falls back to default",
			ob:   store.OrderBy{},
			def:  store.OrderBy{Field: "order_date", Desc: true},
			want: ` ORDER BY "order_date" DESC, id`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderByClause(tt.ob, tt.def); got != tt.want {
				t.Errorf("orderByClause() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================================
// TESTS: mapConstraintError
// ============================================================================

func TestMapConstraintError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    domain.Kind
		wantMessage string
	}{
		{
			name:        "duplicate email",
			err:         &pgconn.PgError{Code: "23505", ConstraintName: "customers_email_key"},
			wantKind:    domain.KindConflict,
			wantMessage: store.MsgEmailExists,
		},
		{
			name:        "missing customer reference",
			err:         &pgconn.PgError{Code: "23503", ConstraintName: "orders_customer_id_fkey"},
			wantKind:    domain.KindNotFound,
			wantMessage: store.MsgCustomerNotFound,
		},
		{
			name:        "missing product reference",
			err:         &pgconn.PgError{Code: "23503", ConstraintName: "order_products_product_id_fkey"},
			wantKind:    domain.KindNotFound,
			wantMessage: store.MsgProductNotFound,
		},
		{
			name:        "price check",
			err:         &pgconn.PgError{Code: "23514", ConstraintName: "products_price_check"},
			wantKind:    domain.KindRange,
			wantMessage: store.MsgPricePositive,
		},
		{
			name:        "stock check",
			err:         &pgconn.PgError{Code: "23514", ConstraintName: "products_stock_check"},
			wantKind:    domain.KindRange,
			wantMessage: store.MsgStockNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapConstraintError(tt.err)
			var domErr *domain.Error
			if !errors.As(got, &domErr) {
				t.Fatalf("mapConstraintError() = %v, want *domain.Error", got)
			}
			if domErr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", domErr.Kind, tt.wantKind)
			}
			if domErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", domErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapConstraintError_Passthrough(t *testing.T) {
	if got := mapConstraintError(nil); got != nil {
		t.Errorf("mapConstraintError(nil) = %v, want nil", got)
	}

	plain := errors.New("connection reset")
	if got := mapConstraintError(plain); got != plain {
		t.Errorf("mapConstraintError() = %v, want the original error", got)
	}

	var unknown error = &pgconn.PgError{Code: "42P01"}
	if got := mapConstraintError(unknown); got != unknown {
		t.Errorf("mapConstraintError() = %v, want the original pg error", got)
	}
}

// ============================================================================
// TESTS: numeric conversion
// ============================================================================

func TestNumericConversion(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"two decimal places", "25.25"},
		{"whole amount", "100"},
		{"smallest valid price", "0.01"},
		{"max scale boundary", "99999999.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decimal.RequireFromString(tt.input)
			got, err := fromPgNumeric(toPgNumeric(d))
			if err != nil {
				t.Fatalf("fromPgNumeric() error = %v", err)
			}
			if !got.Equal(d) {
				t.Errorf("round trip = %s, want %s", got, d)
			}
		})
	}
}

func TestFromPgNumeric_Invalid(t *testing.T) {
	if _, err := fromPgNumeric(toPgNumeric(decimal.Zero)); err != nil {
		t.Errorf("fromPgNumeric(zero) error = %v, want nil", err)
	}

	var null = toPgNumeric(decimal.Zero)
	null.Valid = false
	if _, err := fromPgNumeric(null); err == nil {
		t.Error("fromPgNumeric(null) error = nil, want error")
	}

	var nan = toPgNumeric(decimal.Zero)
	nan.NaN = true
	if _, err := fromPgNumeric(nan); err == nil {
		t.Error("fromPgNumeric(NaN) error = nil, want error")
	}
}
