package postgres

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"ovmscope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS ovm_deployments (
	network      TEXT        NOT NULL,
	ovm_address  TEXT        NOT NULL,
	owner        TEXT        NOT NULL,
	block_number BIGINT      NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (network, ovm_address)
);
CREATE TABLE IF NOT EXISTS ovm_role_snapshots (
	network        TEXT        NOT NULL,
	ovm_address    TEXT        NOT NULL,
	holder         TEXT        NOT NULL,
	roles          TEXT[]      NOT NULL,
	roles_value    NUMERIC     NOT NULL,
	implicit_owner BOOLEAN     NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (network, ovm_address, holder)
);
`

const upsertDeployment = `
	INSERT INTO ovm_deployments (
		network, ovm_address, owner, block_number, created_at, updated_at
	) VALUES ($1, $2, $3, $4, now(), now())
	ON CONFLICT (network, ovm_address)
	DO UPDATE SET
		owner = EXCLUDED.owner,
		block_number = LEAST(ovm_deployments.block_number, EXCLUDED.block_number),
		updated_at = now()
`

const deleteRoleSnapshot = `DELETE FROM ovm_role_snapshots WHERE network = $1 AND ovm_address = $2`

const insertRoleSnapshot = `
	INSERT INTO ovm_role_snapshots (
		network, ovm_address, holder, roles, roles_value, implicit_owner, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
`

// pool is the part of *pgxpool.Pool the store uses.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store exports OVM snapshots to Postgres.
type Store struct {
	pool pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the export tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutDeployments inserts or updates factory deployments.
func (s *Store) PutDeployments(ctx context.Context, network string, deployments []model.Deployment) error {
	if len(deployments) == 0 {
		return nil
	}
	return s.sendBatch(ctx, deploymentBatch(network, deployments), len(deployments))
}

func deploymentBatch(network string, deployments []model.Deployment) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, d := range deployments {
		batch.Queue(upsertDeployment,
			network,
			strings.ToLower(d.Address),
			d.Owner,
			int64(d.BlockNumber),
		)
	}
	return batch
}

// PutRoleRecords replaces the stored role snapshot of one OVM in a single transaction.
func (s *Store) PutRoleRecords(ctx context.Context, network, ovm string, records []model.RoleRecord) error {
	ovm = strings.ToLower(ovm)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, deleteRoleSnapshot, network, ovm); err != nil {
		return err
	}

	if len(records) > 0 {
		br := tx.SendBatch(ctx, roleBatch(network, ovm, records))
		for range records {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return err
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func roleBatch(network, ovm string, records []model.RoleRecord) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, r := range records {
		value := pgtype.Numeric{Int: new(big.Int), Valid: true}
		if r.RolesValue != nil {
			value.Int.Set(r.RolesValue)
		}
		batch.Queue(insertRoleSnapshot,
			network,
			ovm,
			strings.ToLower(r.Address),
			r.Roles.Names(),
			value,
			r.Implicit,
		)
	}
	return batch
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
