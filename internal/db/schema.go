package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Emails are stored case-folded, so the plain unique index gives the
// case-insensitive uniqueness guarantee. Role and amount checks mirror the
// domain validation so a bug in application code cannot persist bad rows.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            uuid PRIMARY KEY,
    name          text NOT NULL,
    email         text NOT NULL,
    password_hash text NOT NULL,
    role          text NOT NULL CHECK (role IN ('admin', 'ngo', 'donor')),
    created_at    timestamptz NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email);

CREATE TABLE IF NOT EXISTS donations (
    id         uuid PRIMARY KEY,
    user_id    uuid NOT NULL REFERENCES users (id),
    cid        text NOT NULL,
    amount     double precision NOT NULL CHECK (amount >= 0),
    note       text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS donations_user_id_idx ON donations (user_id);

CREATE TABLE IF NOT EXISTS distributions (
    id          uuid PRIMARY KEY,
    ngo_id      uuid NOT NULL REFERENCES users (id),
    cid         text NOT NULL,
    location    text NOT NULL,
    amount      double precision NOT NULL CHECK (amount >= 0),
    description text NOT NULL,
    created_at  timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS distributions_ngo_id_idx ON distributions (ngo_id);
`

// Migrate applies the idempotent schema bootstrap.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
