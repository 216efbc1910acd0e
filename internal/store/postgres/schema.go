package postgres

// Schema bootstrap, applied on every start. Constraints carry explicit names
// because the error mapping keys on them: unique emails, positive prices,
// non-negative stock, cascading deletes from customers to orders and from
// orders to their product associations.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS customers (
	id    UUID PRIMARY KEY,
	name  TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT,
	CONSTRAINT customers_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS products (
	id    UUID PRIMARY KEY,
	name  TEXT NOT NULL,
	price NUMERIC(10,2) NOT NULL,
	stock INTEGER NOT NULL DEFAULT 0,
	CONSTRAINT products_price_check CHECK (price > 0),
	CONSTRAINT products_stock_check CHECK (stock >= 0)
);

CREATE TABLE IF NOT EXISTS orders (
	id           UUID PRIMARY KEY,
	customer_id  UUID NOT NULL,
	total_amount NUMERIC(10,2) NOT NULL,
	order_date   TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT orders_customer_id_fkey
		FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS orders_customer_id_idx ON orders (customer_id);

CREATE TABLE IF NOT EXISTS order_products (
	order_id   UUID NOT NULL,
	product_id UUID NOT NULL,
	PRIMARY KEY (order_id, product_id),
	CONSTRAINT order_products_order_id_fkey
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
	CONSTRAINT order_products_product_id_fkey
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS order_products_product_id_idx ON order_products (product_id);
`
