package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migration es un paso de esquema idempotente, identificado por nombre.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "create_products",
		sql: `
CREATE TABLE IF NOT EXISTS products (
    id           TEXT PRIMARY KEY,
    sku          TEXT NOT NULL,
    name         TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    price        NUMERIC(18,4) NOT NULL DEFAULT 0,
    default_cost NUMERIC(18,6) NOT NULL DEFAULT 0,
    unit_measure TEXT NOT NULL DEFAULT '',
    bom_id       TEXT NOT NULL DEFAULT '',
    attributes   JSONB,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku ON products (sku);
`,
	},
	{
		name: "create_locations",
		sql: `
CREATE TABLE IF NOT EXISTS locations (
    id            TEXT PRIMARY KEY,
    code          TEXT NOT NULL,
    name          TEXT NOT NULL DEFAULT '',
    address       TEXT NOT NULL DEFAULT '',
    sellable      BOOLEAN NOT NULL DEFAULT FALSE,
    purchasable   BOOLEAN NOT NULL DEFAULT FALSE,
    manufacturing BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_code ON locations (code);
`,
	},
	{
		name: "create_stock_records",
		sql: `
CREATE TABLE IF NOT EXISTS stock_records (
    product_id       TEXT NOT NULL,
    location_id      TEXT NOT NULL,
    ownership        TEXT NOT NULL DEFAULT 'OWNED',
    on_hand          NUMERIC(18,4) NOT NULL DEFAULT 0,
    sellable         NUMERIC(18,4) NOT NULL DEFAULT 0,
    non_sellable     NUMERIC(18,4) NOT NULL DEFAULT 0,
    reserved         NUMERIC(18,4) NOT NULL DEFAULT 0,
    allocated        NUMERIC(18,4) NOT NULL DEFAULT 0,
    average_cost     NUMERIC(18,6) NOT NULL DEFAULT 0,
    last_cost        NUMERIC(18,6) NOT NULL DEFAULT 0,
    last_received_at TIMESTAMPTZ,
    last_sold_at     TIMESTAMPTZ,
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (product_id, location_id, ownership)
);

CREATE INDEX IF NOT EXISTS idx_stock_records_location ON stock_records (location_id);
`,
	},
	{
		name: "create_stock_movements",
		sql: `
CREATE TABLE IF NOT EXISTS stock_movements (
    id          TEXT PRIMARY KEY,
    product_id  TEXT NOT NULL,
    location_id TEXT NOT NULL,
    ownership   TEXT NOT NULL DEFAULT 'OWNED',
    kind        TEXT NOT NULL,
    bucket      TEXT NOT NULL DEFAULT 'SELLABLE',
    quantity    NUMERIC(18,4) NOT NULL,
    unit_cost   NUMERIC(18,6) NOT NULL DEFAULT 0,
    total_cost  NUMERIC(18,6) NOT NULL DEFAULT 0,
    ref_type    TEXT NOT NULL DEFAULT '',
    ref_id      TEXT NOT NULL DEFAULT '',
    note        TEXT NOT NULL DEFAULT '',
    occurred_at TIMESTAMPTZ NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_by  TEXT
);

CREATE INDEX IF NOT EXISTS idx_stock_movements_product ON stock_movements (product_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_stock_movements_location ON stock_movements (location_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_stock_movements_ref ON stock_movements (ref_type, ref_id);
`,
	},
	{
		name: "create_boms",
		sql: `
CREATE TABLE IF NOT EXISTS boms (
    id         TEXT PRIMARY KEY,
    product_id TEXT NOT NULL,
    version    TEXT NOT NULL DEFAULT 'v1',
    name       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_boms_product ON boms (product_id, created_at);

CREATE TABLE IF NOT EXISTS bom_lines (
    id           TEXT PRIMARY KEY,
    bom_id       TEXT NOT NULL REFERENCES boms (id) ON DELETE CASCADE,
    sequence     INT NOT NULL DEFAULT 0,
    component_id TEXT NOT NULL,
    qty_per_unit NUMERIC(18,4) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bom_lines_bom ON bom_lines (bom_id);
`,
	},
	{
		name: "create_assembly_orders",
		sql: `
CREATE TABLE IF NOT EXISTS assembly_orders (
    id           TEXT PRIMARY KEY,
    number       TEXT NOT NULL,
    product_id   TEXT NOT NULL,
    bom_id       TEXT NOT NULL DEFAULT '',
    location_id  TEXT NOT NULL DEFAULT '',
    ownership    TEXT NOT NULL DEFAULT 'OWNED',
    ordered_qty  NUMERIC(18,4) NOT NULL DEFAULT 0,
    produced_qty NUMERIC(18,4) NOT NULL DEFAULT 0,
    status       TEXT NOT NULL DEFAULT 'DRAFT',
    note         TEXT NOT NULL DEFAULT '',
    released_at  TIMESTAMPTZ,
    started_at   TIMESTAMPTZ,
    closed_at    TIMESTAMPTZ,
    created_by   TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_assembly_orders_number ON assembly_orders (number);
CREATE INDEX IF NOT EXISTS idx_assembly_orders_status ON assembly_orders (status, created_at);

CREATE TABLE IF NOT EXISTS assembly_order_lines (
    id           TEXT PRIMARY KEY,
    order_id     TEXT NOT NULL REFERENCES assembly_orders (id) ON DELETE CASCADE,
    component_id TEXT NOT NULL,
    qty_per_unit NUMERIC(18,4) NOT NULL,
    planned_qty  NUMERIC(18,4) NOT NULL,
    consumed_qty NUMERIC(18,4) NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_assembly_order_lines_order ON assembly_order_lines (order_id);
`,
	},
	{
		name: "create_goods_receipts",
		sql: `
CREATE TABLE IF NOT EXISTS goods_receipts (
    id          TEXT PRIMARY KEY,
    number      TEXT NOT NULL,
    location_id TEXT NOT NULL DEFAULT '',
    supplier_id TEXT NOT NULL DEFAULT '',
    ref_type    TEXT NOT NULL DEFAULT '',
    ref_id      TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'DRAFT',
    note        TEXT NOT NULL DEFAULT '',
    received_by TEXT NOT NULL DEFAULT '',
    received_at TIMESTAMPTZ,
    created_by  TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_goods_receipts_number ON goods_receipts (number);
CREATE INDEX IF NOT EXISTS idx_goods_receipts_status ON goods_receipts (status, created_at);

CREATE TABLE IF NOT EXISTS goods_receipt_lines (
    id         TEXT PRIMARY KEY,
    receipt_id TEXT NOT NULL REFERENCES goods_receipts (id) ON DELETE CASCADE,
    product_id TEXT NOT NULL,
    quantity   NUMERIC(18,4) NOT NULL,
    unit_cost  NUMERIC(18,6) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_goods_receipt_lines_receipt ON goods_receipt_lines (receipt_id);
`,
	},
	{
		name: "create_outbox_events",
		sql: `
CREATE TABLE IF NOT EXISTS outbox_events (
    id           TEXT PRIMARY KEY,
    kind         TEXT NOT NULL,
    payload      JSONB NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    delivered_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_events_pending ON outbox_events (created_at) WHERE delivered_at IS NULL;
`,
	},
	{
		name: "create_users",
		sql: `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    name          TEXT NOT NULL DEFAULT '',
    role          TEXT NOT NULL DEFAULT 'bodeguero',
    status        TEXT NOT NULL DEFAULT 'active',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email);
`,
	},
}

// Migrate aplica los pasos de esquema pendientes en orden, registrándolos en
// schema_migrations. Es seguro correrlo en cada arranque.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, m.name,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if exists {
			continue
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.name); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.name, err)
		}
	}
	return nil
}
