package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Schema holds the DDL for every table this module owns.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
  id             TEXT PRIMARY KEY,
  name           TEXT NOT NULL,
  price          BIGINT NOT NULL CHECK (price >= 0),
  access_id      TEXT NOT NULL,
  duration_value INT NOT NULL DEFAULT 0,
  duration_unit  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS coupons (
  id          UUID PRIMARY KEY,
  code        TEXT NOT NULL,
  product_id  TEXT NOT NULL,
  kind        TEXT NOT NULL,
  value       BIGINT NOT NULL,
  usage_limit BIGINT,
  used_count  BIGINT NOT NULL DEFAULT 0,
  CHECK (usage_limit IS NULL OR used_count <= usage_limit)
);
CREATE INDEX IF NOT EXISTS coupons_code_idx ON coupons (code);

CREATE TABLE IF NOT EXISTS transactions (
  id               UUID PRIMARY KEY,
  buyer_id         TEXT NOT NULL,
  amount           BIGINT NOT NULL CHECK (amount >= 0),
  product_ids      TEXT[] NOT NULL,
  coupons          JSONB NOT NULL DEFAULT '[]',
  status           TEXT NOT NULL DEFAULT 'pending',
  provider_payload TEXT NOT NULL DEFAULT '',
  created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS transactions_buyer_idx ON transactions (buyer_id);

CREATE TABLE IF NOT EXISTS buyer_subscriptions (
  buyer_id   TEXT PRIMARY KEY,
  entries    JSONB NOT NULL DEFAULT '[]',
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS entitlement_grants (
  transaction_id UUID PRIMARY KEY,
  applied_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema applies the DDL. Statements are idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
