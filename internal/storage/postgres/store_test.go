package postgres

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ovmscope/internal/model"
	"ovmscope/internal/roles"
)

type fakeResults struct {
	pgx.BatchResults
	failAt int
	err    error
	execs  int
	closed bool
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	r.execs++
	if r.err != nil && r.execs == r.failAt {
		return pgconn.CommandTag{}, r.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeResults) Close() error {
	r.closed = true
	return nil
}

type fakeTx struct {
	pgx.Tx
	results    *fakeResults
	execSQL    []string
	execArgs   [][]any
	batches    []*pgx.Batch
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execSQL = append(t.execSQL, sql)
	t.execArgs = append(t.execArgs, args)
	return pgconn.NewCommandTag("DELETE 2"), nil
}

func (t *fakeTx) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	t.batches = append(t.batches, b)
	return t.results
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakePool struct {
	tx      *fakeTx
	results *fakeResults
	batches []*pgx.Batch
	execSQL []string
}

func (p *fakePool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	p.execSQL = append(p.execSQL, sql)
	return pgconn.CommandTag{}, nil
}

func (p *fakePool) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	p.batches = append(p.batches, b)
	return p.results
}

func (p *fakePool) Begin(context.Context) (pgx.Tx, error) {
	return p.tx, nil
}

func (p *fakePool) Close() {}

func TestPutDeploymentsUpsertsLowercased(t *testing.T) {
	p := &fakePool{results: &fakeResults{}}
	store := &Store{pool: p}

	err := store.PutDeployments(context.Background(), "hoodi", []model.Deployment{
		{Address: "0xAbCdEf0000000000000000000000000000000001", Owner: "0x00000000000000000000000000000000000000aa", BlockNumber: 1_084_000},
		{Address: "0x00000000000000000000000000000000000000b2", Owner: "0x00000000000000000000000000000000000000bb", BlockNumber: 1_090_500},
	})
	require.NoError(t, err)

	require.Len(t, p.batches, 1)
	queued := p.batches[0].QueuedQueries
	require.Len(t, queued, 2)
	assert.Contains(t, queued[0].SQL, "ON CONFLICT (network, ovm_address)")
	assert.Contains(t, queued[0].SQL, "LEAST(ovm_deployments.block_number, EXCLUDED.block_number)")
	assert.Equal(t, []any{"hoodi", "0xabcdef0000000000000000000000000000000001", "0x00000000000000000000000000000000000000aa", int64(1_084_000)}, queued[0].Arguments)
	assert.Equal(t, 2, p.results.execs)
	assert.True(t, p.results.closed)
}

func TestPutDeploymentsEmptyIsNoop(t *testing.T) {
	p := &fakePool{results: &fakeResults{}}
	require.NoError(t, (&Store{pool: p}).PutDeployments(context.Background(), "hoodi", nil))
	assert.Empty(t, p.batches)
}

func TestPutRoleRecordsReplacesSnapshot(t *testing.T) {
	tx := &fakeTx{results: &fakeResults{}}
	store := &Store{pool: &fakePool{tx: tx}}

	records := []model.RoleRecord{
		{Address: "0x00000000000000000000000000000000000000AA", Roles: roles.Decode(big.NewInt(63)), RolesValue: big.NewInt(63), Implicit: true},
		{Address: "0x00000000000000000000000000000000000000bb", Roles: roles.Decode(big.NewInt(0x21)), RolesValue: big.NewInt(0x21)},
	}
	err := store.PutRoleRecords(context.Background(), "mainnet", "0x00000000000000000000000000000000000000CC", records)
	require.NoError(t, err)

	require.Len(t, tx.execSQL, 1)
	assert.Equal(t, deleteRoleSnapshot, tx.execSQL[0])
	assert.Equal(t, []any{"mainnet", "0x00000000000000000000000000000000000000cc"}, tx.execArgs[0])

	require.Len(t, tx.batches, 1)
	queued := tx.batches[0].QueuedQueries
	require.Len(t, queued, 2)
	args := queued[1].Arguments
	assert.Equal(t, "0x00000000000000000000000000000000000000bb", args[2])
	assert.Equal(t, []string{"WITHDRAWAL_ROLE", "DEPOSIT_ROLE"}, args[3])
	assert.Equal(t, pgtype.Numeric{Int: big.NewInt(0x21), Valid: true}, args[4])
	assert.Equal(t, false, args[5])
	assert.Equal(t, true, queued[0].Arguments[5])

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestPutRoleRecordsRollsBackOnInsertFailure(t *testing.T) {
	boom := errors.New("numeric field overflow")
	tx := &fakeTx{results: &fakeResults{failAt: 2, err: boom}}
	store := &Store{pool: &fakePool{tx: tx}}

	records := []model.RoleRecord{
		{Address: "0x00000000000000000000000000000000000000aa", RolesValue: big.NewInt(1)},
		{Address: "0x00000000000000000000000000000000000000bb", RolesValue: big.NewInt(2)},
	}
	err := store.PutRoleRecords(context.Background(), "mainnet", "0x00000000000000000000000000000000000000cc", records)
	require.ErrorIs(t, err, boom)

	assert.True(t, tx.results.closed)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestPutRoleRecordsEmptyClearsSnapshot(t *testing.T) {
	tx := &fakeTx{results: &fakeResults{}}
	store := &Store{pool: &fakePool{tx: tx}}

	require.NoError(t, store.PutRoleRecords(context.Background(), "mainnet", "0xcc", nil))
	assert.Len(t, tx.execSQL, 1)
	assert.Empty(t, tx.batches)
	assert.True(t, tx.committed)
}

func TestEnsureSchemaCreatesTables(t *testing.T) {
	p := &fakePool{}
	require.NoError(t, (&Store{pool: p}).EnsureSchema(context.Background()))
	require.Len(t, p.execSQL, 1)
	assert.Contains(t, p.execSQL[0], "CREATE TABLE IF NOT EXISTS ovm_deployments")
	assert.Contains(t, p.execSQL[0], "CREATE TABLE IF NOT EXISTS ovm_role_snapshots")
}
